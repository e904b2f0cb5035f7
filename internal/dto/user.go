package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数（管理员）
type UserListRequest struct {
	PaginationRequest
	Role    string `form:"role"    binding:"omitempty,oneof=admin club_head student"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"` // 姓名/学号模糊匹配
}

// UpdateProfileRequest 更新个人资料请求（本人或管理员）
type UpdateProfileRequest struct {
	Name   *string `json:"name"   binding:"omitempty,min=2,max=50"`
	Phone  *string `json:"phone"  binding:"omitempty,max=20"`
	Grade  *string `json:"grade"  binding:"omitempty,max=20"`
	Major  *string `json:"major"  binding:"omitempty,max=100"`
	Skills *string `json:"skills" binding:"omitempty,max=500"`
	Bio    *string `json:"bio"    binding:"omitempty,max=1000"`
}

// AssignRoleRequest 指派角色请求（管理员）
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin club_head student"`
}
