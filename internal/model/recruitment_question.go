package model

import (
	"time"

	"github.com/lib/pq"
)

// ── 问题类型 ──

const (
	QuestionText        = "text"
	QuestionTextarea    = "textarea"
	QuestionSelect      = "select"
	QuestionMultiSelect = "multiselect"
	QuestionRadio       = "radio"
	QuestionCheckbox    = "checkbox"
	QuestionNumber      = "number"
	QuestionEmail       = "email"
	QuestionDate        = "date"
)

// ValidQuestionType 校验问题类型标签
func ValidQuestionType(t string) bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionSelect, QuestionMultiSelect,
		QuestionRadio, QuestionCheckbox, QuestionNumber, QuestionEmail, QuestionDate:
		return true
	}
	return false
}

// ChoiceQuestionType 判断是否为需要选项列表的选择类问题
func ChoiceQuestionType(t string) bool {
	switch t {
	case QuestionSelect, QuestionMultiSelect, QuestionRadio, QuestionCheckbox:
		return true
	}
	return false
}

// RecruitmentQuestion 纳新问题表 — 对应 recruitment_questions
// 随活动整体替换（先删后插），不做软删除
// order_index 在同一活动内唯一，决定展示与答案顺序
type RecruitmentQuestion struct {
	QuestionID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"question_id"`
	DriveID    string         `gorm:"type:uuid;not null;uniqueIndex:uniq_questions_drive_order" json:"drive_id"`
	Content    string         `gorm:"type:varchar(500);not null"                     json:"content"`
	Type       string         `gorm:"type:varchar(20);not null;default:'text'"       json:"type"`
	Required   bool           `gorm:"not null;default:false"                         json:"required"`
	Options    pq.StringArray `gorm:"type:text[]"                                    json:"options,omitempty"`
	OrderIndex int            `gorm:"not null;default:0;uniqueIndex:uniq_questions_drive_order" json:"order_index"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (RecruitmentQuestion) TableName() string { return "recruitment_questions" }
