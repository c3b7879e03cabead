package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collab_web/internal/policy"
	"collab_web/internal/repository"
	"collab_web/internal/service"
)

type CommentHandler struct {
	coord     *service.Coordinator
	workspace *service.WorkspaceService
}

func NewCommentHandler(coord *service.Coordinator, workspace *service.WorkspaceService) *CommentHandler {
	return &CommentHandler{coord: coord, workspace: workspace}
}

type textInput struct {
	Text string `json:"text" binding:"required"`
}

func (h *CommentHandler) ListByTask(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	comments, err := h.workspace.ListComments(c.Request.Context(), identity(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Create(c *gin.Context) {
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	var input textInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceComment,
		Action: policy.ActionCreate,
		Patch:  repository.CommentPatch{TaskID: taskID, Text: input.Text},
	})
	respondOutcome(c, out, err, http.StatusCreated)
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input textInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceComment,
		Action: policy.ActionUpdate,
		ID:     id,
		Patch:  repository.CommentPatch{Text: input.Text},
	})
	respondOutcome(c, out, err, http.StatusOK)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceComment,
		Action: policy.ActionDelete,
		ID:     id,
	})
	respondOutcome(c, out, err, http.StatusOK)
}
