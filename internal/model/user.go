package model

// ── 用户角色 ──

const (
	RoleAdmin    = "admin"
	RoleClubHead = "club_head"
	RoleStudent  = "student"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	StudentID    string `gorm:"type:varchar(20);not null"                      json:"student_id"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // admin | club_head | student

	// 个人资料（仅本人或管理员可改）
	Phone  string `gorm:"type:varchar(20)"  json:"phone,omitempty"`
	Grade  string `gorm:"type:varchar(20)"  json:"grade,omitempty"`
	Major  string `gorm:"type:varchar(100)" json:"major,omitempty"`
	Skills string `gorm:"type:text"         json:"skills,omitempty"`
	Bio    string `gorm:"type:text"         json:"bio,omitempty"`

	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
