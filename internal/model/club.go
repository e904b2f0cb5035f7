package model

// ── 纳新状态 ──

const (
	RecruitmentOpen   = "open"
	RecruitmentClosed = "closed"
)

// Club 社团表 — 对应 clubs
// head_id 允许为空：管理员尚未指派社长时社团处于无主状态
type Club struct {
	ClubID            string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"club_id"`
	Name              string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Description       string  `gorm:"type:text"                                      json:"description,omitempty"`
	Category          string  `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	MaxMembers        int     `gorm:"not null;default:50"                            json:"max_members"`
	CurrentMembers    int     `gorm:"not null;default:0"                             json:"current_members"`
	IsActive          bool    `gorm:"not null;default:true"                          json:"is_active"`
	RecruitmentStatus string  `gorm:"type:varchar(20);not null;default:'closed'"     json:"recruitment_status"` // open | closed
	HeadID            *string `gorm:"type:uuid"                                      json:"head_id,omitempty"`
	VersionedModel

	// 关联
	Head *User `gorm:"foreignKey:HeadID;references:UserID" json:"head,omitempty"`
}

// TableName 指定表名
func (Club) TableName() string { return "clubs" }
