package dto

// ── 社团模块 DTO ──

// CreateClubRequest 创建社团请求（管理员）
type CreateClubRequest struct {
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	Category    string `json:"category"    binding:"omitempty,max=50"`
	MaxMembers  int    `json:"max_members" binding:"required,min=1"`
	HeadID      string `json:"head_id"     binding:"omitempty,uuid"` // 可创建时不指派社长
}

// UpdateClubRequest 更新社团请求
// 管理员可改全部字段；社长仅限 description / recruitment_status / max_members
type UpdateClubRequest struct {
	Name              *string `json:"name"               binding:"omitempty,min=2,max=100"`
	Description       *string `json:"description"        binding:"omitempty,max=2000"`
	Category          *string `json:"category"           binding:"omitempty,max=50"`
	MaxMembers        *int    `json:"max_members"        binding:"omitempty,min=1"`
	IsActive          *bool   `json:"is_active"`
	RecruitmentStatus *string `json:"recruitment_status" binding:"omitempty,oneof=open closed"`
}

// AssignHeadRequest 指派社长请求（管理员）
type AssignHeadRequest struct {
	HeadID string `json:"head_id" binding:"required,uuid"`
}

// ClubListRequest 社团列表查询参数
type ClubListRequest struct {
	IncludeInactive   bool   `form:"include_inactive"`
	RecruitmentStatus string `form:"recruitment_status" binding:"omitempty,oneof=open closed"`
	Category          string `form:"category"           binding:"omitempty,max=50"`
}

// ClubResponse 社团信息响应
type ClubResponse struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	Category          string        `json:"category,omitempty"`
	MaxMembers        int           `json:"max_members"`
	CurrentMembers    int           `json:"current_members"`
	IsActive          bool          `json:"is_active"`
	RecruitmentStatus string        `json:"recruitment_status"`
	Head              *UserResponse `json:"head,omitempty"`
	CreatedAt         string        `json:"created_at"`
	UpdatedAt         string        `json:"updated_at"`
}

// ClubSummary 社团简要信息（嵌入纳新活动响应）
type ClubSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}
