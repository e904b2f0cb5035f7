package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clubhub/backend/config"
	"clubhub/backend/internal/api/handler"
	"clubhub/backend/internal/api/middleware"
	"clubhub/backend/pkg/jwt"
	"clubhub/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	loginRate := middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit,
		time.Duration(cfg.Auth.LoginRateWindowSeconds)*time.Second)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", loginRate, h.Auth.Register)
			auth.POST("/login", loginRate, h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", middleware.RoleAuth("admin"), h.User.ListUsers)
				users.GET("/:id", middleware.RoleAuth("admin"), h.User.GetUser)
				users.PUT("/:id", h.User.UpdateProfile) // admin 或本人（Service 层鉴权）
				users.DELETE("/:id", middleware.RoleAuth("admin"), h.User.DeleteUser)
				users.PUT("/:id/role", middleware.RoleAuth("admin"), h.User.AssignRole)
			}

			// 社团模块
			clubs := authorized.Group("/clubs")
			{
				clubs.GET("", h.Club.ListClubs)
				clubs.GET("/:id", h.Club.GetClub)
				clubs.POST("", middleware.RoleAuth("admin"), h.Club.CreateClub)
				clubs.PUT("/:id", middleware.RoleAuth("admin", "club_head"), h.Club.UpdateClub)
				clubs.PUT("/:id/head", middleware.RoleAuth("admin"), h.Club.AssignHead)
				clubs.DELETE("/:id", middleware.RoleAuth("admin"), h.Club.DeleteClub)
			}

			// 纳新活动模块
			drives := authorized.Group("/drives")
			{
				drives.GET("", h.Drive.ListActiveDrives)
				drives.GET("/mine", middleware.RoleAuth("club_head"), h.Drive.ListMyDrives)
				drives.GET("/:id", h.Drive.GetDrive)
				drives.POST("", middleware.RoleAuth("club_head"), h.Drive.CreateDrive)
				drives.PUT("/:id", middleware.RoleAuth("club_head"), h.Drive.UpdateDrive)
				drives.PUT("/:id/active", middleware.RoleAuth("club_head"), h.Drive.ToggleDriveActive)
				drives.DELETE("/:id", middleware.RoleAuth("club_head"), h.Drive.DeleteDrive)
			}

			// 报名申请模块
			applications := authorized.Group("/applications")
			{
				applications.POST("", middleware.RoleAuth("student"), h.Application.SubmitApplication)
				applications.GET("/mine", h.Application.ListMyApplications)
				applications.GET("", middleware.RoleAuth("club_head"), h.Application.ListClubApplications)
				applications.GET("/:id", h.Application.GetApplication) // 本人/归属社长/admin（Service 层鉴权）
				applications.PUT("/status", middleware.RoleAuth("club_head"), h.Application.BulkUpdateStatus)
				applications.PUT("/:id/status", middleware.RoleAuth("club_head"), h.Application.UpdateApplicationStatus)
			}

			// 统计看板模块
			reports := authorized.Group("/reports")
			{
				reports.GET("/admin", middleware.RoleAuth("admin"), h.Report.AdminDashboard)
				reports.GET("/club", middleware.RoleAuth("club_head"), h.Report.ClubDashboard)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/applications", middleware.RoleAuth("club_head"), h.Export.ExportDriveApplications)
				export.GET("/calendar", h.Export.DeadlineCalendar)
			}
		}
	}

	return r
}
