package models

import (
	"time"

	"gorm.io/gorm"

	"collab_web/internal/auth"
)

// User 表示系統中的用戶
type User struct {
	gorm.Model              // 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"` // 登入帳號，必須唯一
	Password     string     `gorm:"not null" json:"-"`                 // 密碼雜湊，json 序列化時會被忽略
	Role         auth.Role  `gorm:"type:varchar(20);not null;default:member" json:"role"`
	LoginCount   int        `json:"login_count"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	TasksCreated int        `json:"tasks_created"`
	ProfileImage string     `json:"profile_image"`
	Bio          string     `json:"bio"`
}

// Identity 回傳用戶對應的身分
func (u *User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role}
}
