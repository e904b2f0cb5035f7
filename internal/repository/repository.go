package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User        UserRepository
	Club        ClubRepository
	Drive       DriveRepository
	Application ApplicationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Club:        NewClubRepo(db),
		Drive:       NewDriveRepo(db),
		Application: NewApplicationRepo(db),
	}
}
