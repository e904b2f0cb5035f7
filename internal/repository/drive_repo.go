package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"clubhub/backend/internal/model"
)

// DriveRepository 纳新活动数据访问接口
// 活动与其问题集作为一个整体读写：创建、整体替换、删除均在单事务内完成
type DriveRepository interface {
	// CreateWithQuestions 单事务插入活动及其全部问题
	CreateWithQuestions(ctx context.Context, drive *model.RecruitmentDrive, questions []model.RecruitmentQuestion) error
	GetByID(ctx context.Context, id string) (*model.RecruitmentDrive, error)
	// Update 更新活动字段；replaceQuestions 为 true 时同事务内先删后插整体替换问题集
	Update(ctx context.Context, drive *model.RecruitmentDrive, questions []model.RecruitmentQuestion, replaceQuestions bool) error
	// DeleteWithQuestions 单事务硬删问题、软删活动（调用方须先确认无申请）
	DeleteWithQuestions(ctx context.Context, driveID string, deletedBy string) error
	ListByClub(ctx context.Context, clubID string) ([]model.RecruitmentDrive, error)
	// ListActive 返回启用且截止时间晚于 now 的活动，按截止时间升序
	ListActive(ctx context.Context, now time.Time) ([]model.RecruitmentDrive, error)
	CountByClub(ctx context.Context, clubID string) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

// driveRepo DriveRepository 的 GORM 实现
type driveRepo struct {
	db *gorm.DB
}

// NewDriveRepo 创建 DriveRepository 实例
func NewDriveRepo(db *gorm.DB) DriveRepository {
	return &driveRepo{db: db}
}

func (r *driveRepo) CreateWithQuestions(ctx context.Context, drive *model.RecruitmentDrive, questions []model.RecruitmentQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(drive).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].DriveID = drive.DriveID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		drive.Questions = questions
		return nil
	})
}

func (r *driveRepo) GetByID(ctx context.Context, id string) (*model.RecruitmentDrive, error) {
	var drive model.RecruitmentDrive
	err := r.db.WithContext(ctx).
		Preload("Club").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("drive_id = ?", id).
		First(&drive).Error
	if err != nil {
		return nil, err
	}
	return &drive, nil
}

func (r *driveRepo) Update(ctx context.Context, drive *model.RecruitmentDrive, questions []model.RecruitmentQuestion, replaceQuestions bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Club", "Questions").Save(drive).Error; err != nil {
			return err
		}
		if replaceQuestions {
			if err := tx.Where("drive_id = ?", drive.DriveID).
				Delete(&model.RecruitmentQuestion{}).Error; err != nil {
				return err
			}
			for i := range questions {
				questions[i].DriveID = drive.DriveID
				questions[i].QuestionID = ""
				if err := tx.Create(&questions[i]).Error; err != nil {
					return err
				}
			}
			drive.Questions = questions
		}
		return nil
	})
}

func (r *driveRepo) DeleteWithQuestions(ctx context.Context, driveID string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("drive_id = ?", driveID).
			Delete(&model.RecruitmentQuestion{}).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&model.RecruitmentDrive{}).
			Where("drive_id = ?", driveID).
			Updates(map[string]interface{}{
				"deleted_at": now,
				"deleted_by": deletedBy,
			}).Error
	})
}

func (r *driveRepo) ListByClub(ctx context.Context, clubID string) ([]model.RecruitmentDrive, error) {
	var drives []model.RecruitmentDrive
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("club_id = ?", clubID).
		Order("created_at DESC").
		Find(&drives).Error
	if err != nil {
		return nil, err
	}
	return drives, nil
}

func (r *driveRepo) ListActive(ctx context.Context, now time.Time) ([]model.RecruitmentDrive, error) {
	var drives []model.RecruitmentDrive
	err := r.db.WithContext(ctx).
		Preload("Club").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("is_active = ? AND deadline > ?", true, now).
		Order("deadline ASC").
		Find(&drives).Error
	if err != nil {
		return nil, err
	}
	return drives, nil
}

func (r *driveRepo) CountByClub(ctx context.Context, clubID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RecruitmentDrive{}).
		Where("club_id = ?", clubID).
		Count(&count).Error
	return count, err
}

func (r *driveRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.RecruitmentDrive{}).
		Where("is_active = ? AND deadline > ?", true, now).
		Count(&count).Error
	return count, err
}
