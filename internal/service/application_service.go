package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/model"
	"clubhub/backend/internal/repository"
	pkgerrors "clubhub/backend/pkg/errors"
)

// ── 报名申请模块业务错误 ──

var (
	ErrApplicationNotFound   = errors.New("报名申请不存在")
	ErrDriveClosed           = errors.New("活动已停用或已过截止时间")
	ErrAlreadyApplied        = errors.New("已报名该活动，不能重复提交")
	ErrDriveFull             = errors.New("活动报名名额已满")
	ErrClubFull              = errors.New("社团成员已满，无法录取")
	ErrUnknownQuestion       = errors.New("答案包含未知问题")
	ErrRequiredAnswerMissing = errors.New("必答问题未作答")
	ErrStatusTerminal        = errors.New("申请已是终态，不可再变更")
	ErrIllegalTransition     = errors.New("不允许的状态迁移")
	ErrConcurrentUpdate      = errors.New("申请已被并发修改，请刷新后重试")
)

// ApplicationService 报名申请业务接口
type ApplicationService interface {
	// Submit 学生提交报名：校验活动窗口与答案后入库，
	// 重复报名与名额上限由存储层在事务内原子保证
	Submit(ctx context.Context, req *dto.SubmitApplicationRequest, callerID string) (*dto.ApplicationResponse, error)
	// GetByID 申请人本人、归属社团社长、管理员可见
	GetByID(ctx context.Context, id string, callerID, callerRole string) (*dto.ApplicationResponse, error)
	// ListMine 学生查看自己的全部报名记录
	ListMine(ctx context.Context, callerID string) ([]dto.ApplicationResponse, error)
	// ListForClub 社长分页查看本社团收到的申请
	ListForClub(ctx context.Context, req *dto.ApplicationListRequest, callerID string) ([]dto.ApplicationResponse, int64, error)
	// UpdateStatus 社长审核单条申请；终态不可变，迁移须合法
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateApplicationStatusRequest, callerID string) (*dto.ApplicationResponse, error)
	// BulkUpdateStatus 整批审核：任一申请不归属调用者或迁移不合法则整批拒绝
	BulkUpdateStatus(ctx context.Context, req *dto.BulkUpdateStatusRequest, callerID string) (*dto.BulkUpdateStatusResponse, error)
}

type applicationService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(repo *repository.Repository, logger *zap.Logger) ApplicationService {
	return &applicationService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Submit ──────────────────────

func (s *applicationService) Submit(ctx context.Context, req *dto.SubmitApplicationRequest, callerID string) (*dto.ApplicationResponse, error) {
	drive, err := s.repo.Drive.GetByID(ctx, req.DriveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDriveNotFound
		}
		s.logger.Error("查询纳新活动失败", zap.String("id", req.DriveID), zap.Error(err))
		return nil, err
	}

	// 窗口检查先于一切：停用或过期的活动一律拒收
	if !drive.AcceptsAt(s.now()) {
		return nil, ErrDriveClosed
	}

	answers, err := validateAnswers(req.Answers, drive.Questions)
	if err != nil {
		return nil, err
	}

	app := &model.Application{
		ApplicantID: callerID,
		DriveID:     drive.DriveID,
		ClubID:      drive.ClubID,
		Answers:     answers,
		Note:        req.Note,
		Status:      model.ApplicationPending,
	}
	app.CreatedBy = &callerID

	if err := s.repo.Application.Submit(ctx, app, drive.MaxApplications, s.now()); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrDriveWindowClosed):
			return nil, ErrDriveClosed
		case errors.Is(err, pkgerrors.ErrDuplicateApplication):
			return nil, ErrAlreadyApplied
		case errors.Is(err, pkgerrors.ErrDriveCapacityFull):
			return nil, ErrDriveFull
		}
		s.logger.Error("提交报名失败", zap.String("drive_id", req.DriveID), zap.Error(err))
		return nil, err
	}

	app.Drive = drive
	app.Club = drive.Club
	return toApplicationResponse(app), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *applicationService) GetByID(ctx context.Context, id string, callerID, callerRole string) (*dto.ApplicationResponse, error) {
	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.Error("查询报名申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !s.canViewApplication(ctx, app, callerID, callerRole) {
		return nil, ErrNoPermission
	}
	return toApplicationResponse(app), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *applicationService) ListMine(ctx context.Context, callerID string) ([]dto.ApplicationResponse, error) {
	apps, err := s.repo.Application.ListByApplicant(ctx, callerID)
	if err != nil {
		s.logger.Error("列出报名记录失败", zap.String("applicant_id", callerID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, *toApplicationResponse(&apps[i]))
	}
	return result, nil
}

// ────────────────────── ListForClub ──────────────────────

func (s *applicationService) ListForClub(ctx context.Context, req *dto.ApplicationListRequest, callerID string) ([]dto.ApplicationResponse, int64, error) {
	club, err := s.ownedClub(ctx, callerID)
	if err != nil {
		return nil, 0, err
	}

	filters := &repository.ApplicationListFilters{
		DriveID: req.DriveID,
		Status:  req.Status,
	}
	apps, total, err := s.repo.Application.ListByClub(ctx, club.ClubID, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出社团申请失败", zap.String("club_id", club.ClubID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, *toApplicationResponse(&apps[i]))
	}
	return result, total, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *applicationService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateApplicationStatusRequest, callerID string) (*dto.ApplicationResponse, error) {
	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.Error("查询报名申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// 归属以社团当前社长为准
	club, err := s.repo.Club.GetByID(ctx, app.ClubID)
	if err != nil {
		s.logger.Error("查询社团失败", zap.String("id", app.ClubID), zap.Error(err))
		return nil, err
	}
	if club.HeadID == nil || *club.HeadID != callerID {
		return nil, ErrNoPermission
	}

	if model.TerminalApplicationStatus(app.Status) {
		return nil, ErrStatusTerminal
	}
	if !model.LegalStatusTransition(app.Status, req.Status) {
		return nil, ErrIllegalTransition
	}

	now := s.now()
	app.Status = req.Status
	app.Feedback = req.Feedback
	app.ReviewedBy = &callerID
	app.UpdatedBy = &callerID
	if app.ReviewedAt == nil {
		app.ReviewedAt = &now
	}

	joinClub := req.Status == model.ApplicationAccepted
	if err := s.repo.Application.UpdateReview(ctx, app, joinClub); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, pkgerrors.ErrClubCapacityFull):
			return nil, ErrClubFull
		}
		s.logger.Error("更新申请状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toApplicationResponse(app), nil
}

// ────────────────────── BulkUpdateStatus ──────────────────────

func (s *applicationService) BulkUpdateStatus(ctx context.Context, req *dto.BulkUpdateStatusRequest, callerID string) (*dto.BulkUpdateStatusResponse, error) {
	club, err := s.ownedClub(ctx, callerID)
	if err != nil {
		return nil, err
	}

	// 去重：同一 ID 重复出现会使整批更新的行数校验误判为并发冲突
	ids := make([]string, 0, len(req.ApplicationIDs))
	seen := make(map[string]struct{}, len(req.ApplicationIDs))
	for _, id := range req.ApplicationIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	apps, err := s.repo.Application.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询报名申请失败", zap.Error(err))
		return nil, err
	}
	if len(apps) != len(ids) {
		return nil, ErrApplicationNotFound
	}

	// 整批校验：任一申请不归属本社团、已是终态或迁移不合法，全部拒绝
	for i := range apps {
		if apps[i].ClubID != club.ClubID {
			return nil, ErrNoPermission
		}
		if model.TerminalApplicationStatus(apps[i].Status) {
			return nil, ErrStatusTerminal
		}
		if !model.LegalStatusTransition(apps[i].Status, req.Status) {
			return nil, ErrIllegalTransition
		}
	}

	fromStatuses := []string{model.ApplicationPending, model.ApplicationUnderReview}
	if req.Status == model.ApplicationUnderReview {
		fromStatuses = []string{model.ApplicationPending}
	}

	err = s.repo.Application.BulkUpdateStatus(ctx, club.ClubID, ids, fromStatuses,
		req.Status, req.Feedback, callerID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, pkgerrors.ErrClubCapacityFull):
			return nil, ErrClubFull
		}
		s.logger.Error("批量更新申请状态失败", zap.String("club_id", club.ClubID), zap.Error(err))
		return nil, err
	}

	return &dto.BulkUpdateStatusResponse{
		Updated: len(ids),
		Status:  req.Status,
	}, nil
}

// ── 内部辅助方法 ──

func (s *applicationService) ownedClub(ctx context.Context, headID string) (*model.Club, error) {
	club, err := s.repo.Club.GetByHeadID(ctx, headID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOwnedClub
		}
		s.logger.Error("查询社团失败", zap.String("head_id", headID), zap.Error(err))
		return nil, err
	}
	return club, nil
}

func (s *applicationService) canViewApplication(ctx context.Context, app *model.Application, callerID, callerRole string) bool {
	if callerRole == model.RoleAdmin || app.ApplicantID == callerID {
		return true
	}
	if callerRole == model.RoleClubHead {
		club, err := s.repo.Club.GetByID(ctx, app.ClubID)
		if err == nil && club.HeadID != nil && *club.HeadID == callerID {
			return true
		}
	}
	return false
}

// validateAnswers 按问题集校验答案：未知问题拒绝，必答题缺答或空答拒绝
func validateAnswers(answers map[string]string, questions []model.RecruitmentQuestion) (datatypes.JSONMap, error) {
	byID := make(map[string]*model.RecruitmentQuestion, len(questions))
	for i := range questions {
		byID[questions[i].QuestionID] = &questions[i]
	}

	for qid := range answers {
		if _, ok := byID[qid]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, qid)
		}
	}
	for i := range questions {
		if !questions[i].Required {
			continue
		}
		if answers[questions[i].QuestionID] == "" {
			return nil, fmt.Errorf("%w: %s", ErrRequiredAnswerMissing, questions[i].Content)
		}
	}

	result := make(datatypes.JSONMap, len(answers))
	for qid, ans := range answers {
		result[qid] = ans
	}
	return result, nil
}

func toApplicationResponse(app *model.Application) *dto.ApplicationResponse {
	answers := make(map[string]string, len(app.Answers))
	for qid, v := range app.Answers {
		if s, ok := v.(string); ok {
			answers[qid] = s
		}
	}

	resp := &dto.ApplicationResponse{
		ID:        app.ApplicationID,
		DriveID:   app.DriveID,
		Answers:   answers,
		Note:      app.Note,
		Status:    app.Status,
		Feedback:  app.Feedback,
		CreatedAt: formatTime(app.CreatedAt),
	}
	if app.ReviewedAt != nil {
		resp.ReviewedAt = formatTime(*app.ReviewedAt)
	}
	if app.Applicant != nil {
		u := toUserResponse(app.Applicant)
		resp.Applicant = &u
	}
	if app.Drive != nil {
		resp.DriveTitle = app.Drive.Title
	}
	if app.Club != nil {
		c := toClubSummary(app.Club)
		resp.Club = &c
	}
	return resp
}
