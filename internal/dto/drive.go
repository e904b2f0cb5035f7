package dto

import "time"

// ── 纳新活动模块 DTO ──

// QuestionInput 纳新问题输入（创建/更新活动时整体提交）
// order_index 按提交顺序从 0 递增，由服务端赋值
type QuestionInput struct {
	Content  string   `json:"content"  binding:"required,min=1,max=500"`
	Type     string   `json:"type"     binding:"required"`
	Required bool     `json:"required"`
	Options  []string `json:"options"  binding:"omitempty,max=20,dive,max=200"`
}

// CreateDriveRequest 创建纳新活动请求（社长）
type CreateDriveRequest struct {
	Title           string          `json:"title"            binding:"required,min=2,max=200"`
	Description     string          `json:"description"      binding:"omitempty,max=5000"`
	Requirements    []string        `json:"requirements"     binding:"omitempty,max=20,dive,max=500"`
	Deadline        time.Time       `json:"deadline"         binding:"required"`
	MaxApplications int             `json:"max_applications" binding:"required,min=1"`
	Questions       []QuestionInput `json:"questions"        binding:"omitempty,max=50"`
}

// UpdateDriveRequest 更新纳新活动请求（社长）
// questions 非 nil 时整体替换问题集（先删后插）
type UpdateDriveRequest struct {
	Title           *string         `json:"title"            binding:"omitempty,min=2,max=200"`
	Description     *string         `json:"description"      binding:"omitempty,max=5000"`
	Requirements    []string        `json:"requirements"     binding:"omitempty,max=20,dive,max=500"`
	Deadline        *time.Time      `json:"deadline"`
	MaxApplications *int            `json:"max_applications" binding:"omitempty,min=1"`
	Questions       []QuestionInput `json:"questions"        binding:"omitempty,max=50"`
}

// ToggleDriveActiveRequest 启用/停用活动请求（社长）
type ToggleDriveActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// QuestionResponse 纳新问题响应
type QuestionResponse struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Type       string   `json:"type"`
	Required   bool     `json:"required"`
	Options    []string `json:"options,omitempty"`
	OrderIndex int      `json:"order_index"`
}

// DriveResponse 纳新活动响应
type DriveResponse struct {
	ID               string             `json:"id"`
	Club             ClubSummary        `json:"club"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Requirements     []string           `json:"requirements,omitempty"`
	Deadline         string             `json:"deadline"`
	MaxApplications  int                `json:"max_applications"`
	ApplicationCount int64              `json:"application_count"`
	IsActive         bool               `json:"is_active"`
	Questions        []QuestionResponse `json:"questions"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
}
