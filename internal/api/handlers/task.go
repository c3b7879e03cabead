package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/repository"
	"collab_web/internal/service"
)

// TaskHandler 處理任務的請求，權限判斷都在 Coordinator 裡
type TaskHandler struct {
	coord     *service.Coordinator
	workspace *service.WorkspaceService
}

func NewTaskHandler(coord *service.Coordinator, workspace *service.WorkspaceService) *TaskHandler {
	return &TaskHandler{coord: coord, workspace: workspace}
}

type TaskInput struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	DueDate     *time.Time           `json:"due_date"`
	AssignedTo  *uint                `json:"assigned_to"`
	ProjectID   *uint                `json:"project_id"`
	Progress    *int                 `json:"progress"`
}

func (in TaskInput) patch() repository.TaskPatch {
	return repository.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		AssignedTo:  in.AssignedTo,
		ProjectID:   in.ProjectID,
		Progress:    in.Progress,
	}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var input TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceTask,
		Action: policy.ActionCreate,
		Patch:  input.patch(),
	})
	respondOutcome(c, out, err, http.StatusCreated)
}

// List 管理員看到全部任務，其他人只看到自己建立或被指派的
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.workspace.ListTasks(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	h.mutate(c, policy.ActionRead, nil)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var input TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	h.mutate(c, policy.ActionUpdate, input.patch())
}

func (h *TaskHandler) Delete(c *gin.Context) {
	h.mutate(c, policy.ActionDelete, nil)
}

// ClearAll 管理員清空所有任務，其他人只清空自己的
func (h *TaskHandler) ClearAll(c *gin.Context) {
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceTask,
		Action: policy.ActionClearAll,
	})
	respondOutcome(c, out, err, http.StatusOK)
}

func (h *TaskHandler) mutate(c *gin.Context, action policy.Action, patch interface{}) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceTask,
		Action: action,
		ID:     id,
		Patch:  patch,
	})
	respondOutcome(c, out, err, http.StatusOK)
}
