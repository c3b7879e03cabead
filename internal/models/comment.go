package models

import (
	"gorm.io/gorm"

	"collab_web/internal/policy"
)

// Comment 表示任務底下的一則留言
type Comment struct {
	gorm.Model
	TaskID    uint   `gorm:"index;not null" json:"task_id"`
	Text      string `gorm:"not null" json:"text"`
	CreatedBy uint   `gorm:"index;not null" json:"created_by"`
}

func (c *Comment) Resource() *policy.Resource {
	return &policy.Resource{OwnerID: c.CreatedBy}
}
