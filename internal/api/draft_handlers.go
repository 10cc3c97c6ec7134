// internal/api/draft_handlers.go
package api

import (
	"net/http"

	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/gin-gonic/gin"
)

// DraftSaveRequest 草稿保存请求
type DraftSaveRequest struct {
	SessionID string              `json:"session_id"`
	Update    *models.DraftUpdate `json:"update"`
}

// AutoSaveRequest 自动保存请求
type AutoSaveRequest struct {
	SessionID           string              `json:"session_id"`
	Update              *models.DraftUpdate `json:"update"`
	IntentJustCompleted bool                `json:"intent_just_completed"`
}

// SaveDraft 合并保存会话草稿
func (h *Handler) SaveDraft(c *gin.Context) {
	var req DraftSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	draft, err := h.DraftService.SaveDraft(req.SessionID, req.Update)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, draft)
}

// AutoSaveDraft 自动保存：本地必写，远程按策略写
func (h *Handler) AutoSaveDraft(c *gin.Context) {
	var req AutoSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	result, err := h.DraftService.AutoSave(req.SessionID, req.Update, req.IntentJustCompleted)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// GetDraft 读取会话草稿
func (h *Handler) GetDraft(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	draft, err := h.DraftService.GetDraft(sessionID)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	if draft == nil {
		h.Response.Error(c, http.StatusNotFound, ErrorDraftNotFound, "草稿不存在")
		return
	}

	h.Response.Success(c, draft)
}

// DiscardDraft 丢弃会话草稿，远程项目保留
func (h *Handler) DiscardDraft(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	if err := h.DraftService.DiscardDraft(sessionID); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"session_id": sessionID, "discarded": true})
}

// WizardStateRequest 向导状态保存请求
type WizardStateRequest struct {
	SessionID string              `json:"session_id"`
	State     *models.WizardState `json:"state"`
}

// SaveWizardState 保存向导状态快照
func (h *Handler) SaveWizardState(c *gin.Context) {
	var req WizardStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	if err := h.DraftService.SaveWizardState(req.SessionID, req.State); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"session_id": req.SessionID, "saved": true})
}

// GetWizardState 读取向导状态
func (h *Handler) GetWizardState(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	state, err := h.DraftService.GetWizardState(sessionID)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	if state == nil {
		h.Response.Error(c, http.StatusNotFound, ErrorDraftNotFound, "向导状态不存在")
		return
	}

	h.Response.Success(c, state)
}

// ========================================
// 项目管理
// ========================================

// ProjectRequest 项目创建/更新请求
type ProjectRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// ListProjects 列出所有远程项目
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.DraftService.ListProjects()
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"projects": projects, "total": len(projects)})
}

// CreateProject 把当前会话草稿固化为远程项目
func (h *Handler) CreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	project, err := h.DraftService.CreateProject(req.SessionID, req.Name)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Created(c, project)
}

// GetProject 读取单个项目
func (h *Handler) GetProject(c *gin.Context) {
	id := c.Param("id")

	project, err := h.DraftService.GetProject(id)
	if err != nil {
		h.Response.Error(c, http.StatusNotFound, ErrorProjectNotFound, err.Error())
		return
	}

	h.Response.Success(c, project)
}

// UpdateProject 用会话草稿覆盖项目快照
func (h *Handler) UpdateProject(c *gin.Context) {
	id := c.Param("id")

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	project, err := h.DraftService.UpdateProject(id, req.SessionID)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, project)
}

// DeleteProject 删除项目
func (h *Handler) DeleteProject(c *gin.Context) {
	id := c.Param("id")

	if err := h.DraftService.DeleteProject(id); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"id": id, "deleted": true})
}
