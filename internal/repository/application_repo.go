package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubhub/backend/internal/model"
	pkgerrors "clubhub/backend/pkg/errors"
)

// ApplicationListFilters 申请列表过滤条件
type ApplicationListFilters struct {
	DriveID string
	Status  string
}

// ApplicationRepository 报名申请数据访问接口
//
// 设计说明：
//   - 重复报名由 (applicant_id, drive_id) 唯一索引在插入时原子拒绝，
//     Service 层的预检查只用于给出更友好的错误顺序
//   - 名额检查在事务内对活动行加 FOR UPDATE 锁后计数，避免并发超卖
//   - 录取时社团成员数在同一事务内条件自增，满员则整体回滚
type ApplicationRepository interface {
	// Submit 单事务完成：锁活动行 → 复核报名窗口 → 查重 → 名额计数 → 插入
	// 依次可能返回 pkg/errors 的 ErrDriveWindowClosed、
	// ErrDuplicateApplication、ErrDriveCapacityFull
	Submit(ctx context.Context, app *model.Application, maxApplications int, now time.Time) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	GetByApplicantAndDrive(ctx context.Context, applicantID, driveID string) (*model.Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]model.Application, error)
	ListByClub(ctx context.Context, clubID string, filters *ApplicationListFilters, offset, limit int) ([]model.Application, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Application, error)
	// UpdateReview 乐观锁更新审核字段；joinClub 为 true 时同事务内社团成员数 +1，
	// 满员返回 ErrClubCapacityFull，版本冲突返回 ErrOptimisticLock
	UpdateReview(ctx context.Context, app *model.Application, joinClub bool) error
	// BulkUpdateStatus 整批原子更新：任一记录状态已不在 fromStatuses 中则全部回滚。
	// reviewed_at 仅在首次离开 pending 时写入，已有值的保留
	BulkUpdateStatus(ctx context.Context, clubID string, ids []string, fromStatuses []string, status, feedback, reviewedBy string, reviewedAt time.Time) error
	CountByDrive(ctx context.Context, driveID string) (int64, error)
	CountByDrives(ctx context.Context, driveIDs []string) (map[string]int64, error)
	// CountByStatus 按状态统计；clubID 为空时统计全部（管理员看板）
	CountByStatus(ctx context.Context, clubID string) (map[string]int64, error)
}

// applicationRepo ApplicationRepository 的 GORM 实现
type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

// isUniqueViolation 判断是否为 PostgreSQL 唯一约束冲突 (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *applicationRepo) Submit(ctx context.Context, app *model.Application, maxApplications int, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁定活动行，序列化同一活动的并发提交
		var drive model.RecruitmentDrive
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("drive_id = ?", app.DriveID).
			First(&drive).Error; err != nil {
			return err
		}

		// 加锁后复核窗口：Service 预检查到此之间活动可能已被停用
		if !drive.AcceptsAt(now) {
			return pkgerrors.ErrDriveWindowClosed
		}

		// 查重先于名额：重复报名在满员活动上也应报"已报名"
		var dup int64
		if err := tx.Model(&model.Application{}).
			Where("applicant_id = ? AND drive_id = ?", app.ApplicantID, app.DriveID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return pkgerrors.ErrDuplicateApplication
		}

		var count int64
		if err := tx.Model(&model.Application{}).
			Where("drive_id = ?", app.DriveID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(maxApplications) {
			return pkgerrors.ErrDriveCapacityFull
		}

		if err := tx.Create(app).Error; err != nil {
			if isUniqueViolation(err) {
				return pkgerrors.ErrDuplicateApplication
			}
			return err
		}
		return nil
	})
}

func (r *applicationRepo) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Preload("Applicant").
		Preload("Drive").
		Preload("Club").
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetByApplicantAndDrive(ctx context.Context, applicantID, driveID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("applicant_id = ? AND drive_id = ?", applicantID, driveID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Preload("Drive").
		Preload("Club").
		Where("applicant_id = ?", applicantID).
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepo) ListByClub(ctx context.Context, clubID string, filters *ApplicationListFilters, offset, limit int) ([]model.Application, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("club_id = ?", clubID)
	if filters != nil {
		if filters.DriveID != "" {
			db = db.Where("drive_id = ?", filters.DriveID)
		}
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apps []model.Application
	if err := db.Preload("Applicant").Preload("Drive").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Where("application_id IN ?", ids).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepo) UpdateReview(ctx context.Context, app *model.Application, joinClub bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Application{}).
			Where("application_id = ? AND version = ?", app.ApplicationID, app.Version).
			Updates(map[string]interface{}{
				"status":      app.Status,
				"feedback":    app.Feedback,
				"reviewed_at": app.ReviewedAt,
				"reviewed_by": app.ReviewedBy,
				"updated_at":  time.Now(),
				"updated_by":  app.UpdatedBy,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		if joinClub {
			res := tx.Model(&model.Club{}).
				Where("club_id = ? AND current_members < max_members", app.ClubID).
				Update("current_members", gorm.Expr("current_members + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return pkgerrors.ErrClubCapacityFull
			}
		}
		return nil
	})
}

func (r *applicationRepo) BulkUpdateStatus(ctx context.Context, clubID string, ids []string, fromStatuses []string, status, feedback, reviewedBy string, reviewedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Application{}).
			Where("application_id IN ? AND club_id = ? AND status IN ?", ids, clubID, fromStatuses).
			Updates(map[string]interface{}{
				"status":      status,
				"feedback":    feedback,
				"reviewed_at": gorm.Expr("COALESCE(reviewed_at, ?)", reviewedAt),
				"reviewed_by": reviewedBy,
				"updated_at":  time.Now(),
				"updated_by":  reviewedBy,
				"version":     gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		// 任一记录已被并发修改（状态不再可审）则整批回滚
		if res.RowsAffected != int64(len(ids)) {
			return pkgerrors.ErrOptimisticLock
		}

		if status == model.ApplicationAccepted {
			res := tx.Model(&model.Club{}).
				Where("club_id = ? AND current_members + ? <= max_members", clubID, len(ids)).
				Update("current_members", gorm.Expr("current_members + ?", len(ids)))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return pkgerrors.ErrClubCapacityFull
			}
		}
		return nil
	})
}

func (r *applicationRepo) CountByDrive(ctx context.Context, driveID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("drive_id = ?", driveID).
		Count(&count).Error
	return count, err
}

// CountByDrives 批量统计各活动的申请数，避免 N+1 查询
func (r *applicationRepo) CountByDrives(ctx context.Context, driveIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(driveIDs))
	if len(driveIDs) == 0 {
		return result, nil
	}

	type row struct {
		DriveID string
		Count   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Select("drive_id, COUNT(*) AS count").
		Where("drive_id IN ?", driveIDs).
		Group("drive_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		result[rw.DriveID] = rw.Count
	}
	return result, nil
}

func (r *applicationRepo) CountByStatus(ctx context.Context, clubID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	db := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if clubID != "" {
		db = db.Where("club_id = ?", clubID)
	}

	var rows []row
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, rw := range rows {
		result[rw.Status] = rw.Count
	}
	return result, nil
}
