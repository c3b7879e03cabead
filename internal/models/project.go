package models

import (
	"gorm.io/gorm"
)

// ProjectRole 定義成員在專案中的角色
type ProjectRole string

const (
	ProjectRoleOwner   ProjectRole = "owner"
	ProjectRoleManager ProjectRole = "manager"
	ProjectRoleMember  ProjectRole = "member"
)

// Project 表示一個協作專案
type Project struct {
	gorm.Model
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	CreatedBy   uint            `gorm:"index;not null" json:"created_by"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
}

// ProjectMember 是專案與用戶的關聯
type ProjectMember struct {
	gorm.Model
	ProjectID uint        `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint        `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null;default:member" json:"role"`
}
