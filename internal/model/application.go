package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 申请状态 ──

const (
	ApplicationPending     = "pending"
	ApplicationUnderReview = "under_review"
	ApplicationAccepted    = "accepted"
	ApplicationRejected    = "rejected"
)

// ValidApplicationStatus 校验状态标签
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationPending, ApplicationUnderReview, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// TerminalApplicationStatus 判断是否为终态（终态后不允许任何变更）
func TerminalApplicationStatus(s string) bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

// LegalStatusTransition 判断状态迁移是否合法
// pending → under_review | accepted | rejected
// under_review → accepted | rejected
// 不提供任何回退到 pending 的迁移
func LegalStatusTransition(from, to string) bool {
	switch from {
	case ApplicationPending:
		return to == ApplicationUnderReview || to == ApplicationAccepted || to == ApplicationRejected
	case ApplicationUnderReview:
		return to == ApplicationAccepted || to == ApplicationRejected
	}
	return false
}

// Application 报名申请表 — 对应 applications
// (applicant_id, drive_id) 唯一索引为硬不变量，由数据库在插入时原子保证
type Application struct {
	ApplicationID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"application_id"`
	ApplicantID   string            `gorm:"type:uuid;not null"                             json:"applicant_id"`
	DriveID       string            `gorm:"type:uuid;not null"                             json:"drive_id"`
	ClubID        string            `gorm:"type:uuid;not null"                             json:"club_id"`
	Answers       datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"answers"` // question_id → 答案文本
	Note          string            `gorm:"type:text"                                      json:"note,omitempty"`
	Status        string            `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Feedback      string            `gorm:"type:text"                                      json:"feedback,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedBy    *string           `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	VersionedModel

	// 关联
	Applicant *User             `gorm:"foreignKey:ApplicantID;references:UserID" json:"applicant,omitempty"`
	Drive     *RecruitmentDrive `gorm:"foreignKey:DriveID;references:DriveID"    json:"drive,omitempty"`
	Club      *Club             `gorm:"foreignKey:ClubID;references:ClubID"      json:"club,omitempty"`
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }
