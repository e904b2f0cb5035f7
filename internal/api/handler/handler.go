package handler

import "clubhub/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Club        *ClubHandler
	Drive       *DriveHandler
	Application *ApplicationHandler
	Report      *ReportHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User),
		Club:        NewClubHandler(svc.Club),
		Drive:       NewDriveHandler(svc.Drive),
		Application: NewApplicationHandler(svc.Application),
		Report:      NewReportHandler(svc.Report),
		Export:      NewExportHandler(svc.Export),
	}
}
