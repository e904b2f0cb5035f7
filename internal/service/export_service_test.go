package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"clubhub/backend/internal/model"
)

func setupTestExportService() (*exportService, *testRepos) {
	repo, repos := newTestRepos()
	svc := NewExportService(repo, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return testNow }
	return svc, repos
}

func TestExportDriveApplications_NonOwnerForbidden(t *testing.T) {
	svc, repos := setupTestExportService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	_, _, err := svc.ExportDriveApplications(context.Background(), "drive-1", "user-head02")
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("非归属社长导出应拒绝，期望 ErrNoPermission，实际: %v", err)
	}
}

func TestExportDriveApplications_NoApplications(t *testing.T) {
	svc, repos := setupTestExportService()
	seedDriveWithQuestions(repos, 50)

	_, _, err := svc.ExportDriveApplications(context.Background(), "drive-1", "user-head01")
	if !errors.Is(err, ErrExportNoApplications) {
		t.Errorf("期望 ErrExportNoApplications，实际: %v", err)
	}
}

func TestExportDriveApplications_Content(t *testing.T) {
	svc, repos := setupTestExportService()
	seedDriveWithQuestions(repos, 50)
	user := createTestUser(repos, "2026001", "password123", model.RoleStudent)
	app := createTestApplication(repos, "app-1", user.UserID, "drive-1", "club-1", model.ApplicationPending)
	app.Applicant = user
	app.Answers = datatypes.JSONMap{"q-intro": "大一新生"}

	buf, filename, err := svc.ExportDriveApplications(context.Background(), "drive-1", "user-head01")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾，实际=%s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出内容应为合法 Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("报名申请")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 标题行 + 表头行 + 1 行数据
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际=%d", len(rows))
	}
	header := rows[1]
	if header[0] != "姓名" || header[1] != "学号" {
		t.Errorf("表头有误: %v", header)
	}
	// 问题列在固定列之后，按 order_index 排列
	if header[6] != "自我介绍" || header[7] != "兴趣爱好" {
		t.Errorf("问题列有误: %v", header)
	}
	data := rows[2]
	if data[1] != "2026001" {
		t.Errorf("期望学号列=2026001，实际=%s", data[1])
	}
	if data[3] != "待处理" {
		t.Errorf("状态应展示中文名，实际=%s", data[3])
	}
	if data[6] != "大一新生" {
		t.Errorf("必答题答案有误，实际=%s", data[6])
	}
	if data[7] != "-" {
		t.Errorf("未作答问题应显示占位符，实际=%s", data[7])
	}
}

func TestDeadlineCalendar_ContainsActiveDrives(t *testing.T) {
	svc, repos := setupTestExportService()
	club := createTestClub(repos, "club-1", "摄影社", "user-head01", 30, 0)
	drive := createTestDrive(repos, "drive-1", "club-1", "user-head01", testNow.Add(24*time.Hour), 50, true)
	drive.Club = club
	createTestDrive(repos, "drive-expired", "club-1", "user-head01", testNow.Add(-time.Hour), 50, true)

	buf, err := svc.DeadlineCalendar(context.Background())
	if err != nil {
		t.Fatalf("DeadlineCalendar 应成功: %v", err)
	}
	content := buf.String()

	if !strings.Contains(content, "BEGIN:VCALENDAR") {
		t.Error("输出应为 iCalendar 格式")
	}
	if !strings.Contains(content, "drive-1@clubhub") {
		t.Error("进行中活动应生成事件")
	}
	if strings.Contains(content, "drive-expired@clubhub") {
		t.Error("已截止活动不应生成事件")
	}
	if !strings.Contains(content, "摄影社") {
		t.Error("事件摘要应包含社团名")
	}
}

func TestDeadlineCalendar_EmptyStillValid(t *testing.T) {
	svc, _ := setupTestExportService()

	buf, err := svc.DeadlineCalendar(context.Background())
	if err != nil {
		t.Fatalf("无活动时仍应生成空日历: %v", err)
	}
	if !strings.Contains(buf.String(), "END:VCALENDAR") {
		t.Error("空日历也应是完整的 VCALENDAR")
	}
}
