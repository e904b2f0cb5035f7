package service

import (
	"time"

	"go.uber.org/zap"

	"clubhub/backend/config"
	"clubhub/backend/internal/repository"
	"clubhub/backend/pkg/jwt"
	"clubhub/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	User        UserService
	Club        ClubService
	Drive       DriveService
	Application ApplicationService
	Report      ReportService
	Export      ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:        NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:        NewUserService(repo, logger),
		Club:        NewClubService(repo, logger),
		Drive:       NewDriveService(repo, logger),
		Application: NewApplicationService(repo, logger),
		Report:      NewReportService(repo, logger),
		Export:      NewExportService(repo, logger),
	}
}

// formatTime 统一时间序列化格式
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
