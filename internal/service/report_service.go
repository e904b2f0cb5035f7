package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/repository"
)

// ReportService 统计看板业务接口（只读投影）
type ReportService interface {
	// AdminDashboard 全局统计：用户/社团/活动/申请概览
	AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error)
	// ClubDashboard 社长看板：仅自己社团的成员与报名数据
	ClubDashboard(ctx context.Context, callerID string) (*dto.ClubDashboardResponse, error)
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── AdminDashboard ──────────────────────

func (s *reportService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	usersByRole, err := s.repo.User.CountByRole(ctx)
	if err != nil {
		s.logger.Error("统计用户角色分布失败", zap.Error(err))
		return nil, err
	}
	var totalUsers int64
	for _, c := range usersByRole {
		totalUsers += c
	}

	totalClubs, activeClubs, err := s.repo.Club.Counts(ctx)
	if err != nil {
		s.logger.Error("统计社团数失败", zap.Error(err))
		return nil, err
	}

	activeDrives, err := s.repo.Drive.CountActive(ctx, s.now())
	if err != nil {
		s.logger.Error("统计进行中活动数失败", zap.Error(err))
		return nil, err
	}

	appsByStatus, err := s.repo.Application.CountByStatus(ctx, "")
	if err != nil {
		s.logger.Error("统计申请状态分布失败", zap.Error(err))
		return nil, err
	}
	var totalApps int64
	for _, c := range appsByStatus {
		totalApps += c
	}

	return &dto.AdminDashboardResponse{
		TotalUsers:           totalUsers,
		UsersByRole:          usersByRole,
		TotalClubs:           totalClubs,
		ActiveClubs:          activeClubs,
		ActiveDrives:         activeDrives,
		TotalApplications:    totalApps,
		ApplicationsByStatus: appsByStatus,
	}, nil
}

// ────────────────────── ClubDashboard ──────────────────────

func (s *reportService) ClubDashboard(ctx context.Context, callerID string) (*dto.ClubDashboardResponse, error) {
	club, err := s.repo.Club.GetByHeadID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOwnedClub
		}
		s.logger.Error("查询社团失败", zap.String("head_id", callerID), zap.Error(err))
		return nil, err
	}

	appsByStatus, err := s.repo.Application.CountByStatus(ctx, club.ClubID)
	if err != nil {
		s.logger.Error("统计申请状态分布失败", zap.String("club_id", club.ClubID), zap.Error(err))
		return nil, err
	}

	drives, err := s.repo.Drive.ListByClub(ctx, club.ClubID)
	if err != nil {
		s.logger.Error("列出社团活动失败", zap.String("club_id", club.ClubID), zap.Error(err))
		return nil, err
	}

	driveIDs := make([]string, 0, len(drives))
	for i := range drives {
		driveIDs = append(driveIDs, drives[i].DriveID)
	}
	counts, err := s.repo.Application.CountByDrives(ctx, driveIDs)
	if err != nil {
		s.logger.Error("批量统计申请数失败", zap.Error(err))
		return nil, err
	}

	utilizations := make([]dto.DriveUtilization, 0, len(drives))
	for i := range drives {
		d := &drives[i]
		utilizations = append(utilizations, dto.DriveUtilization{
			DriveID:          d.DriveID,
			Title:            d.Title,
			MaxApplications:  d.MaxApplications,
			ApplicationCount: counts[d.DriveID],
			Utilization:      ratio(counts[d.DriveID], int64(d.MaxApplications)),
			IsActive:         d.IsActive,
			Deadline:         formatTime(d.Deadline),
		})
	}

	return &dto.ClubDashboardResponse{
		ClubID:               club.ClubID,
		ClubName:             club.Name,
		MaxMembers:           club.MaxMembers,
		CurrentMembers:       club.CurrentMembers,
		MemberUtilization:    ratio(int64(club.CurrentMembers), int64(club.MaxMembers)),
		ApplicationsByStatus: appsByStatus,
		Drives:               utilizations,
	}, nil
}

// ratio 比值，分母为 0 时返回 0
func ratio(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}
