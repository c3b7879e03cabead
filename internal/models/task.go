package models

import (
	"time"

	"gorm.io/gorm"

	"collab_web/internal/policy"
)

// TaskStatus 定義任務狀態
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority 定義任務優先順序
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task 表示一個共享任務
type Task struct {
	gorm.Model
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:todo" json:"status"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:medium" json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	AssignedTo  *uint        `gorm:"index" json:"assigned_to,omitempty"` // 被指派的用戶，可讀不可改
	ProjectID   *uint        `gorm:"index" json:"project_id,omitempty"`
	CreatedBy   uint         `gorm:"index;not null" json:"created_by"`

	Progress          int       `json:"progress"` // 0-100
	ProgressUpdatedAt time.Time `json:"progress_updated_at"`
}

// Resource 回傳權限判斷需要的資源形狀
func (t *Task) Resource() *policy.Resource {
	res := &policy.Resource{OwnerID: t.CreatedBy}
	if t.AssignedTo != nil {
		res.AssigneeID = *t.AssignedTo
	}
	return res
}
