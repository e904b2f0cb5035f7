package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/model"
	"clubhub/backend/internal/repository"
)

// ── 社团模块业务错误 ──

var (
	ErrClubNotFound        = errors.New("社团不存在")
	ErrClubNameExists      = errors.New("社团名称已存在")
	ErrClubHasDrives       = errors.New("社团仍有纳新活动，不能删除")
	ErrHeadNotFound        = errors.New("指派的社长不存在")
	ErrHeadRoleInvalid     = errors.New("指派的用户不是社长角色")
	ErrHeadAlreadyAssigned = errors.New("该社长已负责其他社团")
	ErrMaxBelowCurrent     = errors.New("成员上限不能低于当前成员数")
)

// ClubService 社团业务接口
type ClubService interface {
	List(ctx context.Context, req *dto.ClubListRequest) ([]dto.ClubResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClubResponse, error)
	// Create 管理员创建社团，可同时指派社长
	Create(ctx context.Context, req *dto.CreateClubRequest, callerID string) (*dto.ClubResponse, error)
	// Update 管理员可改全部字段；社长仅限本社团的
	// description / recruitment_status / max_members
	Update(ctx context.Context, id string, req *dto.UpdateClubRequest, callerID, callerRole string) (*dto.ClubResponse, error)
	// AssignHead 管理员指派/更换社长（一个社长至多一个社团）
	AssignHead(ctx context.Context, id string, req *dto.AssignHeadRequest, callerID string) (*dto.ClubResponse, error)
	// Delete 管理员删除社团；存在纳新活动时拒绝
	Delete(ctx context.Context, id string, callerID string) error
}

type clubService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewClubService 创建 ClubService 实例
func NewClubService(repo *repository.Repository, logger *zap.Logger) ClubService {
	return &clubService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *clubService) List(ctx context.Context, req *dto.ClubListRequest) ([]dto.ClubResponse, error) {
	filters := &repository.ClubListFilters{
		IncludeInactive:   req.IncludeInactive,
		RecruitmentStatus: req.RecruitmentStatus,
		Category:          req.Category,
	}
	clubs, err := s.repo.Club.List(ctx, filters)
	if err != nil {
		s.logger.Error("列出社团失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClubResponse, 0, len(clubs))
	for i := range clubs {
		result = append(result, *toClubResponse(&clubs[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *clubService) GetByID(ctx context.Context, id string) (*dto.ClubResponse, error) {
	club, err := s.repo.Club.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		s.logger.Error("查询社团失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClubResponse(club), nil
}

// ────────────────────── Create ──────────────────────

func (s *clubService) Create(ctx context.Context, req *dto.CreateClubRequest, callerID string) (*dto.ClubResponse, error) {
	if _, err := s.repo.Club.GetByName(ctx, req.Name); err == nil {
		return nil, ErrClubNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询社团失败", zap.Error(err))
		return nil, err
	}

	club := &model.Club{
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		MaxMembers:        req.MaxMembers,
		IsActive:          true,
		RecruitmentStatus: model.RecruitmentClosed,
	}
	club.CreatedBy = &callerID

	if req.HeadID != "" {
		if err := s.checkHeadAssignable(ctx, req.HeadID); err != nil {
			return nil, err
		}
		club.HeadID = &req.HeadID
	}

	if err := s.repo.Club.Create(ctx, club); err != nil {
		s.logger.Error("创建社团失败", zap.Error(err))
		return nil, err
	}

	// 回读带 Head 关联的完整记录
	created, err := s.repo.Club.GetByID(ctx, club.ClubID)
	if err != nil {
		return toClubResponse(club), nil
	}
	return toClubResponse(created), nil
}

// ────────────────────── Update ──────────────────────

func (s *clubService) Update(ctx context.Context, id string, req *dto.UpdateClubRequest, callerID, callerRole string) (*dto.ClubResponse, error) {
	club, err := s.repo.Club.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		s.logger.Error("查询社团失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if callerRole != model.RoleAdmin {
		// 社长只能改自己的社团，且字段受限
		if club.HeadID == nil || *club.HeadID != callerID {
			return nil, ErrNoPermission
		}
		if req.Name != nil || req.Category != nil || req.IsActive != nil {
			return nil, ErrNoPermission
		}
	}

	if req.Name != nil && *req.Name != club.Name {
		if _, err := s.repo.Club.GetByName(ctx, *req.Name); err == nil {
			return nil, ErrClubNameExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		club.Name = *req.Name
	}
	if req.Description != nil {
		club.Description = *req.Description
	}
	if req.Category != nil {
		club.Category = *req.Category
	}
	if req.MaxMembers != nil {
		if *req.MaxMembers < club.CurrentMembers {
			return nil, ErrMaxBelowCurrent
		}
		club.MaxMembers = *req.MaxMembers
	}
	if req.IsActive != nil {
		club.IsActive = *req.IsActive
	}
	if req.RecruitmentStatus != nil {
		club.RecruitmentStatus = *req.RecruitmentStatus
	}
	club.UpdatedBy = &callerID

	if err := s.repo.Club.Update(ctx, club); err != nil {
		s.logger.Error("更新社团失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClubResponse(club), nil
}

// ────────────────────── AssignHead ──────────────────────

func (s *clubService) AssignHead(ctx context.Context, id string, req *dto.AssignHeadRequest, callerID string) (*dto.ClubResponse, error) {
	club, err := s.repo.Club.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClubNotFound
		}
		s.logger.Error("查询社团失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if club.HeadID != nil && *club.HeadID == req.HeadID {
		return toClubResponse(club), nil
	}

	if err := s.checkHeadAssignable(ctx, req.HeadID); err != nil {
		return nil, err
	}

	club.HeadID = &req.HeadID
	club.UpdatedBy = &callerID
	if err := s.repo.Club.Update(ctx, club); err != nil {
		s.logger.Error("指派社长失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.Club.GetByID(ctx, id)
	if err != nil {
		return toClubResponse(club), nil
	}
	return toClubResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *clubService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Club.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClubNotFound
		}
		s.logger.Error("查询社团失败", zap.String("id", id), zap.Error(err))
		return err
	}

	// 存在纳新活动时拒绝删除，要求先清理活动
	driveCount, err := s.repo.Drive.CountByClub(ctx, id)
	if err != nil {
		s.logger.Error("统计社团活动失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if driveCount > 0 {
		return ErrClubHasDrives
	}

	if err := s.repo.Club.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除社团失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// checkHeadAssignable 校验目标用户存在、是社长角色、且未负责其他社团
func (s *clubService) checkHeadAssignable(ctx context.Context, headID string) error {
	head, err := s.repo.User.GetByID(ctx, headID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHeadNotFound
		}
		return err
	}
	if head.Role != model.RoleClubHead {
		return ErrHeadRoleInvalid
	}
	if _, err := s.repo.Club.GetByHeadID(ctx, headID); err == nil {
		return ErrHeadAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func toClubResponse(club *model.Club) *dto.ClubResponse {
	resp := &dto.ClubResponse{
		ID:                club.ClubID,
		Name:              club.Name,
		Description:       club.Description,
		Category:          club.Category,
		MaxMembers:        club.MaxMembers,
		CurrentMembers:    club.CurrentMembers,
		IsActive:          club.IsActive,
		RecruitmentStatus: club.RecruitmentStatus,
		CreatedAt:         formatTime(club.CreatedAt),
		UpdatedAt:         formatTime(club.UpdatedAt),
	}
	if club.Head != nil {
		u := toUserResponse(club.Head)
		resp.Head = &u
	}
	return resp
}

func toClubSummary(club *model.Club) dto.ClubSummary {
	if club == nil {
		return dto.ClubSummary{}
	}
	return dto.ClubSummary{
		ID:       club.ClubID,
		Name:     club.Name,
		Category: club.Category,
	}
}
