package model

import (
	"time"

	"github.com/lib/pq"
)

// RecruitmentDrive 纳新活动表 — 对应 recruitment_drives
// club_id 创建后不可变；head_id 冗余缓存社长 ID 以加速归属判断
type RecruitmentDrive struct {
	DriveID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"drive_id"`
	ClubID          string         `gorm:"type:uuid;not null"                             json:"club_id"`
	HeadID          string         `gorm:"type:uuid;not null"                             json:"head_id"`
	Title           string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Description     string         `gorm:"type:text"                                      json:"description,omitempty"`
	Requirements    pq.StringArray `gorm:"type:text[]"                                    json:"requirements,omitempty"`
	Deadline        time.Time      `gorm:"not null"                                       json:"deadline"`
	MaxApplications int            `gorm:"not null;default:100"                           json:"max_applications"`
	IsActive        bool           `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Club      *Club                 `gorm:"foreignKey:ClubID;references:ClubID" json:"club,omitempty"`
	Questions []RecruitmentQuestion `gorm:"foreignKey:DriveID;references:DriveID" json:"questions,omitempty"`
}

// TableName 指定表名
func (RecruitmentDrive) TableName() string { return "recruitment_drives" }

// AcceptsAt 判断给定时刻该活动是否接受报名（启用且未过截止时间）
func (d *RecruitmentDrive) AcceptsAt(t time.Time) bool {
	return d.IsActive && t.Before(d.Deadline)
}
