package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"collab_web/internal/policy"
	"collab_web/internal/repository"
	"collab_web/internal/service"
)

// VersionHandler 處理專案版本紀錄
type VersionHandler struct {
	coord     *service.Coordinator
	workspace *service.WorkspaceService
}

func NewVersionHandler(coord *service.Coordinator, workspace *service.WorkspaceService) *VersionHandler {
	return &VersionHandler{coord: coord, workspace: workspace}
}

func (h *VersionHandler) ListAll(c *gin.Context) {
	h.list(c, 0)
}

func (h *VersionHandler) ListByProject(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	h.list(c, projectID)
}

func (h *VersionHandler) list(c *gin.Context, projectID uint) {
	versions, err := h.workspace.ListVersions(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

func (h *VersionHandler) Create(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	var input textInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceVersion,
		Action: policy.ActionCreate,
		Patch:  repository.VersionPatch{ProjectID: projectID, Text: input.Text},
	})
	respondOutcome(c, out, err, http.StatusCreated)
}

func (h *VersionHandler) Update(c *gin.Context) {
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
		Type:   service.ResourceVersion,
		Action: policy.ActionUpdate,
		ID:     id,
		Patch:  repository.VersionPatch{Text: input.Text},
	})
	respondOutcome(c, out, err, http.StatusOK)
}

func (h *VersionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.coord.Mutate(c.Request.Context(), identity(c), service.Request{
		Type:   service.ResourceVersion,
		Action: policy.ActionDelete,
		ID:     id,
	})
	respondOutcome(c, out, err, http.StatusOK)
}
