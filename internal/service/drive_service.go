package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/model"
	"clubhub/backend/internal/repository"
)

// ── 纳新活动模块业务错误 ──

var (
	ErrDriveNotFound       = errors.New("纳新活动不存在")
	ErrNoOwnedClub         = errors.New("当前用户未负责任何社团")
	ErrDeadlinePassed      = errors.New("截止时间必须晚于当前时间")
	ErrDriveHasApps        = errors.New("活动已有报名申请，不能删除")
	ErrMaxBelowApplied     = errors.New("报名上限不能低于已有申请数")
	ErrQuestionTypeInvalid = errors.New("问题类型不合法")
	ErrQuestionNeedOptions = errors.New("选择类问题至少需要两个选项")
)

// DriveService 纳新活动业务接口
type DriveService interface {
	// Create 社长为自己的社团创建活动；截止时间必须在未来
	Create(ctx context.Context, req *dto.CreateDriveRequest, callerID string) (*dto.DriveResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DriveResponse, error)
	// Update 仅限活动归属社长；questions 非 nil 时整体替换问题集
	Update(ctx context.Context, id string, req *dto.UpdateDriveRequest, callerID string) (*dto.DriveResponse, error)
	// Delete 仅限活动归属社长；已有申请时拒绝
	Delete(ctx context.Context, id string, callerID string) error
	// ToggleActive 启用/停用活动（停用立即停止接收报名）
	ToggleActive(ctx context.Context, id string, active bool, callerID string) (*dto.DriveResponse, error)
	// ListActive 学生视角：启用且未过截止时间的活动，按截止时间升序
	ListActive(ctx context.Context) ([]dto.DriveResponse, error)
	// ListMine 社长视角：自己社团的全部活动（含停用和已截止）
	ListMine(ctx context.Context, callerID string) ([]dto.DriveResponse, error)
}

type driveService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDriveService 创建 DriveService 实例
func NewDriveService(repo *repository.Repository, logger *zap.Logger) DriveService {
	return &driveService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *driveService) Create(ctx context.Context, req *dto.CreateDriveRequest, callerID string) (*dto.DriveResponse, error) {
	club, err := s.ownedClub(ctx, callerID)
	if err != nil {
		return nil, err
	}

	if !req.Deadline.After(s.now()) {
		return nil, ErrDeadlinePassed
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	drive := &model.RecruitmentDrive{
		ClubID:          club.ClubID,
		HeadID:          callerID,
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Deadline:        req.Deadline,
		MaxApplications: req.MaxApplications,
		IsActive:        true,
	}
	drive.CreatedBy = &callerID

	if err := s.repo.Drive.CreateWithQuestions(ctx, drive, questions); err != nil {
		s.logger.Error("创建纳新活动失败", zap.Error(err))
		return nil, err
	}

	drive.Club = club
	return toDriveResponse(drive, 0), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *driveService) GetByID(ctx context.Context, id string) (*dto.DriveResponse, error) {
	drive, err := s.repo.Drive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDriveNotFound
		}
		s.logger.Error("查询纳新活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	count, err := s.repo.Application.CountByDrive(ctx, id)
	if err != nil {
		s.logger.Error("统计活动申请数失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toDriveResponse(drive, count), nil
}

// ────────────────────── Update ──────────────────────

func (s *driveService) Update(ctx context.Context, id string, req *dto.UpdateDriveRequest, callerID string) (*dto.DriveResponse, error) {
	drive, err := s.ownedDrive(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.Application.CountByDrive(ctx, id)
	if err != nil {
		s.logger.Error("统计活动申请数失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Title != nil {
		drive.Title = *req.Title
	}
	if req.Description != nil {
		drive.Description = *req.Description
	}
	if req.Requirements != nil {
		drive.Requirements = req.Requirements
	}
	if req.Deadline != nil {
		if !req.Deadline.After(s.now()) {
			return nil, ErrDeadlinePassed
		}
		drive.Deadline = *req.Deadline
	}
	if req.MaxApplications != nil {
		// 上限不可压到已有申请数之下
		if int64(*req.MaxApplications) < count {
			return nil, ErrMaxBelowApplied
		}
		drive.MaxApplications = *req.MaxApplications
	}
	drive.UpdatedBy = &callerID

	var questions []model.RecruitmentQuestion
	replaceQuestions := req.Questions != nil
	if replaceQuestions {
		questions, err = buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Drive.Update(ctx, drive, questions, replaceQuestions); err != nil {
		s.logger.Error("更新纳新活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toDriveResponse(drive, count), nil
}

// ────────────────────── Delete ──────────────────────

func (s *driveService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.ownedDrive(ctx, id, callerID); err != nil {
		return err
	}

	count, err := s.repo.Application.CountByDrive(ctx, id)
	if err != nil {
		s.logger.Error("统计活动申请数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrDriveHasApps
	}

	if err := s.repo.Drive.DeleteWithQuestions(ctx, id, callerID); err != nil {
		s.logger.Error("删除纳新活动失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ToggleActive ──────────────────────

func (s *driveService) ToggleActive(ctx context.Context, id string, active bool, callerID string) (*dto.DriveResponse, error) {
	drive, err := s.ownedDrive(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if drive.IsActive != active {
		drive.IsActive = active
		drive.UpdatedBy = &callerID
		if err := s.repo.Drive.Update(ctx, drive, nil, false); err != nil {
			s.logger.Error("切换活动状态失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
	}

	count, err := s.repo.Application.CountByDrive(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDriveResponse(drive, count), nil
}

// ────────────────────── ListActive ──────────────────────

func (s *driveService) ListActive(ctx context.Context) ([]dto.DriveResponse, error) {
	drives, err := s.repo.Drive.ListActive(ctx, s.now())
	if err != nil {
		s.logger.Error("列出进行中活动失败", zap.Error(err))
		return nil, err
	}
	return s.toDriveResponses(ctx, drives)
}

// ────────────────────── ListMine ──────────────────────

func (s *driveService) ListMine(ctx context.Context, callerID string) ([]dto.DriveResponse, error) {
	club, err := s.ownedClub(ctx, callerID)
	if err != nil {
		return nil, err
	}

	drives, err := s.repo.Drive.ListByClub(ctx, club.ClubID)
	if err != nil {
		s.logger.Error("列出社团活动失败", zap.String("club_id", club.ClubID), zap.Error(err))
		return nil, err
	}
	for i := range drives {
		if drives[i].Club == nil {
			drives[i].Club = club
		}
	}
	return s.toDriveResponses(ctx, drives)
}

// ── 内部辅助方法 ──

// ownedClub 查询调用者负责的社团
func (s *driveService) ownedClub(ctx context.Context, headID string) (*model.Club, error) {
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

// ownedDrive 查询活动并校验归属：仅活动所属社团的社长可操作
func (s *driveService) ownedDrive(ctx context.Context, id, callerID string) (*model.RecruitmentDrive, error) {
	drive, err := s.repo.Drive.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDriveNotFound
		}
		s.logger.Error("查询纳新活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	// 以社团当前社长为准，不信任活动上缓存的 head_id
	club, err := s.repo.Club.GetByID(ctx, drive.ClubID)
	if err != nil {
		s.logger.Error("查询社团失败", zap.String("id", drive.ClubID), zap.Error(err))
		return nil, err
	}
	if club.HeadID == nil || *club.HeadID != callerID {
		return nil, ErrNoPermission
	}
	return drive, nil
}

// buildQuestions 校验并构造问题集，order_index 按提交顺序从 0 递增
func buildQuestions(inputs []dto.QuestionInput) ([]model.RecruitmentQuestion, error) {
	questions := make([]model.RecruitmentQuestion, 0, len(inputs))
	for i, in := range inputs {
		if !model.ValidQuestionType(in.Type) {
			return nil, fmt.Errorf("%w: 第 %d 题 type=%s", ErrQuestionTypeInvalid, i+1, in.Type)
		}
		if model.ChoiceQuestionType(in.Type) && len(in.Options) < 2 {
			return nil, fmt.Errorf("%w: 第 %d 题", ErrQuestionNeedOptions, i+1)
		}
		questions = append(questions, model.RecruitmentQuestion{
			Content:    in.Content,
			Type:       in.Type,
			Required:   in.Required,
			Options:    in.Options,
			OrderIndex: i,
		})
	}
	return questions, nil
}

// toDriveResponses 批量转换并补充各活动的申请数
func (s *driveService) toDriveResponses(ctx context.Context, drives []model.RecruitmentDrive) ([]dto.DriveResponse, error) {
	ids := make([]string, 0, len(drives))
	for i := range drives {
		ids = append(ids, drives[i].DriveID)
	}
	counts, err := s.repo.Application.CountByDrives(ctx, ids)
	if err != nil {
		s.logger.Error("批量统计申请数失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DriveResponse, 0, len(drives))
	for i := range drives {
		result = append(result, *toDriveResponse(&drives[i], counts[drives[i].DriveID]))
	}
	return result, nil
}

func toDriveResponse(drive *model.RecruitmentDrive, appCount int64) *dto.DriveResponse {
	questions := make([]dto.QuestionResponse, 0, len(drive.Questions))
	for _, q := range drive.Questions {
		questions = append(questions, dto.QuestionResponse{
			ID:         q.QuestionID,
			Content:    q.Content,
			Type:       q.Type,
			Required:   q.Required,
			Options:    q.Options,
			OrderIndex: q.OrderIndex,
		})
	}
	return &dto.DriveResponse{
		ID:               drive.DriveID,
		Club:             toClubSummary(drive.Club),
		Title:            drive.Title,
		Description:      drive.Description,
		Requirements:     drive.Requirements,
		Deadline:         formatTime(drive.Deadline),
		MaxApplications:  drive.MaxApplications,
		ApplicationCount: appCount,
		IsActive:         drive.IsActive,
		Questions:        questions,
		CreatedAt:        formatTime(drive.CreatedAt),
		UpdatedAt:        formatTime(drive.UpdatedAt),
	}
}
