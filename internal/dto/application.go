package dto

// ── 报名申请模块 DTO ──

// SubmitApplicationRequest 学生提交报名请求
type SubmitApplicationRequest struct {
	DriveID string            `json:"drive_id" binding:"required,uuid"`
	Answers map[string]string `json:"answers"  binding:"omitempty"` // question_id → 答案文本
	Note    string            `json:"note"     binding:"omitempty,max=2000"`
}

// UpdateApplicationStatusRequest 社长审核单条申请请求
type UpdateApplicationStatusRequest struct {
	Status   string `json:"status"   binding:"required,oneof=under_review accepted rejected"`
	Feedback string `json:"feedback" binding:"omitempty,max=2000"`
}

// BulkUpdateStatusRequest 社长批量审核请求
// 任一申请不归属调用者则整批拒绝，不做部分更新
type BulkUpdateStatusRequest struct {
	ApplicationIDs []string `json:"application_ids" binding:"required,min=1,max=100,dive,uuid"`
	Status         string   `json:"status"          binding:"required,oneof=under_review accepted rejected"`
	Feedback       string   `json:"feedback"        binding:"omitempty,max=2000"`
}

// ApplicationListRequest 社团申请列表查询参数（社长）
type ApplicationListRequest struct {
	PaginationRequest
	DriveID string `form:"drive_id" binding:"omitempty,uuid"`
	Status  string `form:"status"   binding:"omitempty,oneof=pending under_review accepted rejected"`
}

// ApplicationResponse 报名申请响应
type ApplicationResponse struct {
	ID         string            `json:"id"`
	Applicant  *UserResponse     `json:"applicant,omitempty"`
	DriveID    string            `json:"drive_id"`
	DriveTitle string            `json:"drive_title,omitempty"`
	Club       *ClubSummary      `json:"club,omitempty"`
	Answers    map[string]string `json:"answers"`
	Note       string            `json:"note,omitempty"`
	Status     string            `json:"status"`
	Feedback   string            `json:"feedback,omitempty"`
	ReviewedAt string            `json:"reviewed_at,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// BulkUpdateStatusResponse 批量审核响应
type BulkUpdateStatusResponse struct {
	Updated int    `json:"updated"`
	Status  string `json:"status"`
}
