package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"clubhub/backend/internal/model"
)

// ClubListFilters 社团列表过滤条件
type ClubListFilters struct {
	IncludeInactive   bool
	RecruitmentStatus string
	Category          string
}

// ClubRepository 社团数据访问接口
type ClubRepository interface {
	Create(ctx context.Context, club *model.Club) error
	GetByID(ctx context.Context, id string) (*model.Club, error)
	GetByName(ctx context.Context, name string) (*model.Club, error)
	// GetByHeadID 查询某社长拥有的社团（一个社长至多一个社团）
	GetByHeadID(ctx context.Context, headID string) (*model.Club, error)
	Update(ctx context.Context, club *model.Club) error
	Delete(ctx context.Context, id string, deletedBy string) error
	List(ctx context.Context, filters *ClubListFilters) ([]model.Club, error)
	Counts(ctx context.Context) (total int64, active int64, err error)
}

// clubRepo ClubRepository 的 GORM 实现
type clubRepo struct {
	db *gorm.DB
}

// NewClubRepo 创建 ClubRepository 实例
func NewClubRepo(db *gorm.DB) ClubRepository {
	return &clubRepo{db: db}
}

func (r *clubRepo) Create(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).Create(club).Error
}

func (r *clubRepo) GetByID(ctx context.Context, id string) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Preload("Head").
		Where("club_id = ?", id).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepo) GetByName(ctx context.Context, name string) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepo) GetByHeadID(ctx context.Context, headID string) (*model.Club, error) {
	var club model.Club
	err := r.db.WithContext(ctx).
		Where("head_id = ?", headID).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *clubRepo) Update(ctx context.Context, club *model.Club) error {
	return r.db.WithContext(ctx).Save(club).Error
}

// Delete 软删除社团并记录操作者
func (r *clubRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.Club{}).
		Where("club_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"deleted_by": deletedBy,
		}).Error
}

func (r *clubRepo) List(ctx context.Context, filters *ClubListFilters) ([]model.Club, error) {
	db := r.db.WithContext(ctx).Preload("Head")
	if filters != nil {
		if !filters.IncludeInactive {
			db = db.Where("is_active = ?", true)
		}
		if filters.RecruitmentStatus != "" {
			db = db.Where("recruitment_status = ?", filters.RecruitmentStatus)
		}
		if filters.Category != "" {
			db = db.Where("category = ?", filters.Category)
		}
	} else {
		db = db.Where("is_active = ?", true)
	}

	var clubs []model.Club
	if err := db.Order("name ASC").Find(&clubs).Error; err != nil {
		return nil, err
	}
	return clubs, nil
}

// Counts 统计社团总数与活跃数
func (r *clubRepo) Counts(ctx context.Context) (int64, int64, error) {
	var total, active int64
	if err := r.db.WithContext(ctx).Model(&model.Club{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Club{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
