package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clubhub/backend/internal/model"
	"clubhub/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoApplications = errors.New("该活动暂无报名申请")
	ErrExportGenerateFail   = errors.New("生成导出文件失败")
)

// 申请状态中文名（导出展示用）
var statusNames = map[string]string{
	model.ApplicationPending:     "待处理",
	model.ApplicationUnderReview: "审核中",
	model.ApplicationAccepted:    "已录取",
	model.ApplicationRejected:    "已拒绝",
}

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出以单个纳新活动为粒度：一行一份申请，问题按 order_index 展开为列
//   - ICS 日历汇总进行中活动的报名截止时间，供学生订阅提醒
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportDriveApplications 导出活动的全部申请为 Excel；仅限归属社长
	ExportDriveApplications(ctx context.Context, driveID string, callerID string) (*bytes.Buffer, string, error)
	// DeadlineCalendar 生成进行中活动截止时间的 iCalendar 订阅内容
	DeadlineCalendar(ctx context.Context) (*bytes.Buffer, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportDriveApplications — 导出活动申请为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：活动名称
//   - 表头：姓名 | 学号 | 邮箱 | 状态 | 提交时间 | 备注 | <问题1> | <问题2> …
//   - 数据行：一行一份申请，答案列按问题 order_index 对齐
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportDriveApplications(ctx context.Context, driveID string, callerID string) (*bytes.Buffer, string, error) {
	drive, err := s.repo.Drive.GetByID(ctx, driveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDriveNotFound
		}
		s.logger.Error("查询纳新活动失败", zap.String("id", driveID), zap.Error(err))
		return nil, "", err
	}

	club, err := s.repo.Club.GetByID(ctx, drive.ClubID)
	if err != nil {
		s.logger.Error("查询社团失败", zap.String("id", drive.ClubID), zap.Error(err))
		return nil, "", err
	}
	if club.HeadID == nil || *club.HeadID != callerID {
		return nil, "", ErrNoPermission
	}

	apps, _, err := s.repo.Application.ListByClub(ctx, drive.ClubID,
		&repository.ApplicationListFilters{DriveID: driveID}, 0, 10000)
	if err != nil {
		s.logger.Error("查询活动申请失败", zap.String("drive_id", driveID), zap.Error(err))
		return nil, "", err
	}
	if len(apps) == 0 {
		return nil, "", ErrExportNoApplications
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "报名申请"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列布局：固定 6 列 + 问题列（问题已按 order_index 排序）
	fixedHeaders := []string{"姓名", "学号", "邮箱", "状态", "提交时间", "备注"}
	totalCols := len(fixedHeaders) + len(drive.Questions)

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 24)
	for i := len(fixedHeaders); i < totalCols; i++ {
		col := exportColName(i)
		f.SetColWidth(sheetName, col, col, 30)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s 报名申请", club.Name, drive.Title))
	f.MergeCell(sheetName, "A1", fmt.Sprintf("%s1", exportColName(totalCols-1)))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, h := range fixedHeaders {
		f.SetCellValue(sheetName, exportCell(exportColName(i), row), h)
	}
	for i, q := range drive.Questions {
		f.SetCellValue(sheetName, exportCell(exportColName(len(fixedHeaders)+i), row), q.Content)
	}

	// 数据行
	row = 3
	for i := range apps {
		app := &apps[i]
		name, studentID, email := "", "", ""
		if app.Applicant != nil {
			name = app.Applicant.Name
			studentID = app.Applicant.StudentID
			email = app.Applicant.Email
		}
		statusName := statusNames[app.Status]
		if statusName == "" {
			statusName = app.Status
		}

		f.SetCellValue(sheetName, exportCell("A", row), name)
		f.SetCellValue(sheetName, exportCell("B", row), studentID)
		f.SetCellValue(sheetName, exportCell("C", row), email)
		f.SetCellValue(sheetName, exportCell("D", row), statusName)
		f.SetCellValue(sheetName, exportCell("E", row), formatTime(app.CreatedAt))
		f.SetCellValue(sheetName, exportCell("F", row), app.Note)

		for j, q := range drive.Questions {
			answer := "-"
			if v, ok := app.Answers[q.QuestionID]; ok {
				if sv, ok := v.(string); ok && sv != "" {
					answer = sv
				}
			}
			f.SetCellValue(sheetName, exportCell(exportColName(len(fixedHeaders)+j), row), answer)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("报名申请_%s.xlsx", drive.Title)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// DeadlineCalendar — 生成报名截止时间 ICS 日历
// ═══════════════════════════════════════════════════════════
//
// 每个进行中的活动生成一条 VEVENT：
//   - UID：活动 ID @clubhub
//   - DTSTART：报名截止时间
//   - SUMMARY：社团名 + 活动名 + 报名截止

func (s *exportService) DeadlineCalendar(ctx context.Context) (*bytes.Buffer, error) {
	drives, err := s.repo.Drive.ListActive(ctx, s.now())
	if err != nil {
		s.logger.Error("列出进行中活动失败", zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//clubhub//recruitment//CN")
	cal.SetName("社团纳新截止日历")

	for i := range drives {
		d := &drives[i]
		clubName := ""
		if d.Club != nil {
			clubName = d.Club.Name
		}

		event := cal.AddEvent(fmt.Sprintf("%s@clubhub", d.DriveID))
		event.SetCreatedTime(d.CreatedAt)
		event.SetDtStampTime(s.now())
		event.SetStartAt(d.Deadline)
		event.SetEndAt(d.Deadline)
		event.SetSummary(fmt.Sprintf("【%s】%s 报名截止", clubName, d.Title))
		if d.Description != "" {
			event.SetDescription(d.Description)
		}
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("序列化 ICS 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf, nil
}

// ── 辅助函数 ──

func exportColName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func exportCell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
