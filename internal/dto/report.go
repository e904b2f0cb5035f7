package dto

// ── 统计模块 DTO（只读投影，无独立存储状态） ──

// AdminDashboardResponse 管理员看板
type AdminDashboardResponse struct {
	TotalUsers           int64            `json:"total_users"`
	UsersByRole          map[string]int64 `json:"users_by_role"`
	TotalClubs           int64            `json:"total_clubs"`
	ActiveClubs          int64            `json:"active_clubs"`
	ActiveDrives         int64            `json:"active_drives"`
	TotalApplications    int64            `json:"total_applications"`
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`
}

// DriveUtilization 单个纳新活动的报名利用率
type DriveUtilization struct {
	DriveID          string  `json:"drive_id"`
	Title            string  `json:"title"`
	MaxApplications  int     `json:"max_applications"`
	ApplicationCount int64   `json:"application_count"`
	Utilization      float64 `json:"utilization"` // application_count / max_applications
	IsActive         bool    `json:"is_active"`
	Deadline         string  `json:"deadline"`
}

// ClubDashboardResponse 社长看板（仅自己社团的数据）
type ClubDashboardResponse struct {
	ClubID               string             `json:"club_id"`
	ClubName             string             `json:"club_name"`
	MaxMembers           int                `json:"max_members"`
	CurrentMembers       int                `json:"current_members"`
	MemberUtilization    float64            `json:"member_utilization"` // current_members / max_members
	ApplicationsByStatus map[string]int64   `json:"applications_by_status"`
	Drives               []DriveUtilization `json:"drives"`
}
