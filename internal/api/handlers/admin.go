package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collab_web/internal/auth"
	"collab_web/internal/policy"
	"collab_web/internal/service"
)

// AdminHandler 的路由只有管理員能進入，由 AuthMiddleware 的角色過濾保證
type AdminHandler struct {
	services *service.Services
}

func NewAdminHandler(services *service.Services) *AdminHandler {
	return &AdminHandler{services: services}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.services.User.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Role auth.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.services.User.SetRole(c.Request.Context(), id, input.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) ListTasks(c *gin.Context) {
	tasks, err := h.services.Workspace.ListTasks(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *AdminHandler) ListComments(c *gin.Context) {
	comments, err := h.services.Workspace.ListAllComments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *AdminHandler) DeleteTask(c *gin.Context) {
	h.delete(c, service.ResourceTask)
}

func (h *AdminHandler) DeleteComment(c *gin.Context) {
	h.delete(c, service.ResourceComment)
}

func (h *AdminHandler) delete(c *gin.Context, typ service.ResourceType) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.services.Coordinator.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   typ,
		Action: policy.ActionDelete,
		ID:     id,
	})
	respondOutcome(c, out, err, http.StatusOK)
}
