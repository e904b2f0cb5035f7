package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestApplicationService() (*applicationService, *testRepos) {
	repo, repos := newTestRepos()
	svc := NewApplicationService(repo, zap.NewNop()).(*applicationService)
	svc.now = func() time.Time { return testNow }
	return svc, repos
}

// seedDriveWithQuestions 建一个进行中的活动：一道必答题 q-intro、一道选答题 q-hobby
func seedDriveWithQuestions(repos *testRepos, maxApplications int) *model.RecruitmentDrive {
	createTestClub(repos, "club-1", "摄影社", "user-head01", 30, 0)
	drive := createTestDrive(repos, "drive-1", "club-1", "user-head01", testNow.Add(24*time.Hour), maxApplications, true)
	drive.Questions = []model.RecruitmentQuestion{
		{QuestionID: "q-intro", DriveID: "drive-1", Content: "自我介绍", Type: model.QuestionTextarea, Required: true, OrderIndex: 0},
		{QuestionID: "q-hobby", DriveID: "drive-1", Content: "兴趣爱好", Type: model.QuestionText, OrderIndex: 1},
	}
	return drive
}

// ── 提交测试 ──

func TestSubmitApplication_Success(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)

	result, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": "大一新生，喜欢胶片摄影"},
	}, "user-stu01")

	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if result.Status != model.ApplicationPending {
		t.Errorf("新申请应为 pending，实际=%s", result.Status)
	}
	if result.Answers["q-intro"] != "大一新生，喜欢胶片摄影" {
		t.Errorf("答案未保存: %v", result.Answers)
	}
}

func TestSubmitApplication_Duplicate(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)

	req := &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": "第一次"},
	}
	if _, err := svc.Submit(context.Background(), req, "user-stu01"); err != nil {
		t.Fatalf("首次 Submit 应成功: %v", err)
	}

	_, err := svc.Submit(context.Background(), req, "user-stu01")
	if !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("同一学生重复报名应拒绝，期望 ErrAlreadyApplied，实际: %v", err)
	}
}

func TestSubmitApplication_DriveFull(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 2)

	for i := 1; i <= 2; i++ {
		_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
			DriveID: "drive-1",
			Answers: map[string]string{"q-intro": "报名"},
		}, fmt.Sprintf("user-stu%02d", i))
		if err != nil {
			t.Fatalf("第 %d 份申请应成功: %v", i, err)
		}
	}

	_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": "报名"},
	}, "user-stu03")
	if !errors.Is(err, ErrDriveFull) {
		t.Errorf("超出报名上限应拒绝，期望 ErrDriveFull，实际: %v", err)
	}
}

func TestSubmitApplication_InactiveDrive(t *testing.T) {
	svc, repos := setupTestApplicationService()
	drive := seedDriveWithQuestions(repos, 50)
	drive.IsActive = false

	_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": "报名"},
	}, "user-stu01")
	if !errors.Is(err, ErrDriveClosed) {
		t.Errorf("停用的活动应拒收报名，期望 ErrDriveClosed，实际: %v", err)
	}
}

func TestSubmitApplication_PastDeadline(t *testing.T) {
	svc, repos := setupTestApplicationService()
	drive := seedDriveWithQuestions(repos, 50)
	drive.Deadline = testNow.Add(-time.Minute)

	_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": "报名"},
	}, "user-stu01")
	if !errors.Is(err, ErrDriveClosed) {
		t.Errorf("已过截止时间应拒收报名，期望 ErrDriveClosed，实际: %v", err)
	}
}

// 窗口在预检查与入库之间关闭的并发场景：存储层事务内的复核应拦截
func TestSubmitApplication_WindowClosesBeforeInsert(t *testing.T) {
	svc, repos := setupTestApplicationService()
	createTestClub(repos, "club-1", "摄影社", "user-head01", 30, 0)
	createTestDrive(repos, "drive-1", "club-1", "user-head01", testNow.Add(time.Minute), 50, true)

	// 预检查时仍在窗口内，入库时已过截止
	calls := 0
	svc.now = func() time.Time {
		calls++
		if calls == 1 {
			return testNow
		}
		return testNow.Add(2 * time.Minute)
	}

	_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
	}, "user-stu01")
	if !errors.Is(err, ErrDriveClosed) {
		t.Errorf("入库前已截止的活动应拒收，期望 ErrDriveClosed，实际: %v", err)
	}
	if len(repos.apps.apps) != 0 {
		t.Error("被拦截的提交不应入库")
	}
}

func TestSubmitApplication_UnknownQuestion(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)

	_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": "自我介绍", "q-ghost": "乱填"},
	}, "user-stu01")
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("期望 ErrUnknownQuestion，实际: %v", err)
	}
}

func TestSubmitApplication_RequiredAnswerMissing(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)

	// 只答了选答题，必答题缺失
	_, err := svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-hobby": "摄影"},
	}, "user-stu01")
	if !errors.Is(err, ErrRequiredAnswerMissing) {
		t.Errorf("期望 ErrRequiredAnswerMissing，实际: %v", err)
	}

	// 空字符串同样视为缺答
	_, err = svc.Submit(context.Background(), &dto.SubmitApplicationRequest{
		DriveID: "drive-1",
		Answers: map[string]string{"q-intro": ""},
	}, "user-stu01")
	if !errors.Is(err, ErrRequiredAnswerMissing) {
		t.Errorf("空答案也应拒绝，期望 ErrRequiredAnswerMissing，实际: %v", err)
	}
}

// ── 查看权限测试 ──

func TestGetApplication_Visibility(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	cases := []struct {
		name     string
		callerID string
		role     string
		wantDeny bool
	}{
		{"申请人本人可见", "user-stu01", model.RoleStudent, false},
		{"归属社长可见", "user-head01", model.RoleClubHead, false},
		{"管理员可见", "admin-1", model.RoleAdmin, false},
		{"其他学生不可见", "user-stu02", model.RoleStudent, true},
		{"其他社长不可见", "user-head02", model.RoleClubHead, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetByID(context.Background(), "app-1", tc.callerID, tc.role)
			if tc.wantDeny && !errors.Is(err, ErrNoPermission) {
				t.Errorf("期望 ErrNoPermission，实际: %v", err)
			}
			if !tc.wantDeny && err != nil {
				t.Errorf("应可见，实际: %v", err)
			}
		})
	}
}

// ── 单条审核测试 ──

func TestUpdateStatus_NonOwnerForbidden(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	_, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status: model.ApplicationAccepted,
	}, "user-head02")
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("非归属社长审核应拒绝，期望 ErrNoPermission，实际: %v", err)
	}
	if repos.apps.apps["app-1"].Status != model.ApplicationPending {
		t.Error("被拒绝的审核不应改变申请状态")
	}
}

func TestUpdateStatus_TerminalImmutable(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationRejected)

	_, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status: model.ApplicationAccepted,
	}, "user-head01")
	if !errors.Is(err, ErrStatusTerminal) {
		t.Errorf("终态申请不可再变更，期望 ErrStatusTerminal，实际: %v", err)
	}
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationUnderReview)

	_, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status: model.ApplicationUnderReview,
	}, "user-head01")
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("under_review → under_review 不合法，期望 ErrIllegalTransition，实际: %v", err)
	}
}

func TestUpdateStatus_AcceptJoinsClub(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationUnderReview)

	result, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status:   model.ApplicationAccepted,
		Feedback: "欢迎加入",
	}, "user-head01")
	if err != nil {
		t.Fatalf("录取应成功: %v", err)
	}
	if result.Status != model.ApplicationAccepted {
		t.Errorf("期望 accepted，实际=%s", result.Status)
	}
	if result.ReviewedAt == "" {
		t.Error("审核后 ReviewedAt 不应为空")
	}
	if repos.clubs.clubs["club-1"].CurrentMembers != 1 {
		t.Errorf("录取应使社团成员数 +1，实际=%d", repos.clubs.clubs["club-1"].CurrentMembers)
	}
}

func TestUpdateStatus_RejectDoesNotJoinClub(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	if _, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status: model.ApplicationRejected,
	}, "user-head01"); err != nil {
		t.Fatalf("拒绝应成功: %v", err)
	}
	if repos.clubs.clubs["club-1"].CurrentMembers != 0 {
		t.Error("拒绝不应改变社团成员数")
	}
}

func TestUpdateStatus_ClubFull(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	club := repos.clubs.clubs["club-1"]
	club.MaxMembers = 1
	club.CurrentMembers = 1
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	_, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status: model.ApplicationAccepted,
	}, "user-head01")
	if !errors.Is(err, ErrClubFull) {
		t.Errorf("社团满员时录取应拒绝，期望 ErrClubFull，实际: %v", err)
	}
}

// ── 批量审核测试 ──

func TestBulkUpdateStatus_Success(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationUnderReview)

	result, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-2"},
		Status:         model.ApplicationAccepted,
		Feedback:       "批量录取",
	}, "user-head01")
	if err != nil {
		t.Fatalf("批量录取应成功: %v", err)
	}
	if result.Updated != 2 {
		t.Errorf("期望更新 2 条，实际=%d", result.Updated)
	}
	for _, id := range []string{"app-1", "app-2"} {
		if repos.apps.apps[id].Status != model.ApplicationAccepted {
			t.Errorf("%s 状态应为 accepted，实际=%s", id, repos.apps.apps[id].Status)
		}
	}
	if repos.clubs.clubs["club-1"].CurrentMembers != 2 {
		t.Errorf("批量录取应使社团成员数 +2，实际=%d", repos.clubs.clubs["club-1"].CurrentMembers)
	}
}

func TestBulkUpdateStatus_KeepsFirstReviewedAt(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	// 先单条转入 under_review，写入首次审核时间
	if _, err := svc.UpdateStatus(context.Background(), "app-1", &dto.UpdateApplicationStatusRequest{
		Status: model.ApplicationUnderReview,
	}, "user-head01"); err != nil {
		t.Fatalf("转入 under_review 失败: %v", err)
	}

	// 一小时后批量录取
	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	if _, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1"},
		Status:         model.ApplicationAccepted,
	}, "user-head01"); err != nil {
		t.Fatalf("批量录取失败: %v", err)
	}

	got := repos.apps.apps["app-1"]
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(testNow) {
		t.Errorf("首次审核时间不应被后续批量审核覆盖，期望 %v，实际 %v", testNow, got.ReviewedAt)
	}
}

func TestBulkUpdateStatus_DuplicateIDsCollapsed(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationPending)

	result, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-2", "app-1"},
		Status:         model.ApplicationAccepted,
	}, "user-head01")
	if err != nil {
		t.Fatalf("重复 ID 应去重后正常处理: %v", err)
	}
	if result.Updated != 2 {
		t.Errorf("期望按去重后更新 2 条，实际=%d", result.Updated)
	}
	if repos.clubs.clubs["club-1"].CurrentMembers != 2 {
		t.Errorf("成员数应按去重后 +2，实际=%d", repos.clubs.clubs["club-1"].CurrentMembers)
	}
}

func TestBulkUpdateStatus_PartialOwnershipRejectsAll(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestClub(repos, "club-2", "别的社团", "user-head02", 30, 0)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-x", "club-2", model.ApplicationPending)

	_, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-2"},
		Status:         model.ApplicationRejected,
	}, "user-head01")
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("混入他社申请应整批拒绝，期望 ErrNoPermission，实际: %v", err)
	}
	// 整批拒绝：任何一条都不应被更新
	if repos.apps.apps["app-1"].Status != model.ApplicationPending {
		t.Error("整批拒绝时归属自己的申请也不应变更")
	}
}

func TestBulkUpdateStatus_TerminalInBatchRejectsAll(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationAccepted)

	_, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-2"},
		Status:         model.ApplicationRejected,
	}, "user-head01")
	if !errors.Is(err, ErrStatusTerminal) {
		t.Errorf("批次含终态申请应整批拒绝，期望 ErrStatusTerminal，实际: %v", err)
	}
	if repos.apps.apps["app-1"].Status != model.ApplicationPending {
		t.Error("整批拒绝时其余申请不应变更")
	}
}

func TestBulkUpdateStatus_MissingIDRejectsAll(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)

	_, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-ghost"},
		Status:         model.ApplicationRejected,
	}, "user-head01")
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("批次含不存在的申请应整批拒绝，期望 ErrApplicationNotFound，实际: %v", err)
	}
}

func TestBulkUpdateStatus_ToUnderReviewFromUnderReviewIllegal(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationUnderReview)

	_, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-2"},
		Status:         model.ApplicationUnderReview,
	}, "user-head01")
	if !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("under_review 不能再标记为 under_review，期望 ErrIllegalTransition，实际: %v", err)
	}
}

func TestBulkUpdateStatus_ClubCapacityRejectsAll(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	club := repos.clubs.clubs["club-1"]
	club.MaxMembers = 1
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationPending)

	_, err := svc.BulkUpdateStatus(context.Background(), &dto.BulkUpdateStatusRequest{
		ApplicationIDs: []string{"app-1", "app-2"},
		Status:         model.ApplicationAccepted,
	}, "user-head01")
	if !errors.Is(err, ErrClubFull) {
		t.Errorf("批量录取超出社团容量应整批拒绝，期望 ErrClubFull，实际: %v", err)
	}
	if repos.clubs.clubs["club-1"].CurrentMembers != 0 {
		t.Error("整批拒绝时成员数不应变化")
	}
}

// ── 列表测试 ──

func TestListMyApplications(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationPending)

	result, err := svc.ListMine(context.Background(), "user-stu01")
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(result) != 1 || result[0].ID != "app-1" {
		t.Errorf("只应返回本人的申请，实际=%+v", result)
	}
}

func TestListForClub_FilterByStatus(t *testing.T) {
	svc, repos := setupTestApplicationService()
	seedDriveWithQuestions(repos, 50)
	createTestApplication(repos, "app-1", "user-stu01", "drive-1", "club-1", model.ApplicationPending)
	createTestApplication(repos, "app-2", "user-stu02", "drive-1", "club-1", model.ApplicationAccepted)

	req := &dto.ApplicationListRequest{Status: model.ApplicationPending}
	result, total, err := svc.ListForClub(context.Background(), req, "user-head01")
	if err != nil {
		t.Fatalf("ListForClub 应成功: %v", err)
	}
	if total != 1 || len(result) != 1 || result[0].Status != model.ApplicationPending {
		t.Errorf("状态过滤未生效: total=%d result=%+v", total, result)
	}
}
