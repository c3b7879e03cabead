package models

import (
	"gorm.io/gorm"

	"collab_web/internal/policy"
)

// Version 表示專案文件的一個版本
type Version struct {
	gorm.Model
	ProjectID uint   `gorm:"index;not null" json:"project_id"`
	Text      string `gorm:"not null" json:"text"`
	CreatedBy uint   `gorm:"index;not null" json:"created_by"`
}

func (v *Version) Resource() *policy.Resource {
	return &policy.Resource{OwnerID: v.CreatedBy}
}
