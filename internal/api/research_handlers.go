// internal/api/research_handlers.go
package api

import (
	"net/http"

	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/Alwrity/ContentStudio/internal/services"
	"github.com/gin-gonic/gin"
)

// AnalyzeIntent 分析用户的研究意图
func (h *Handler) AnalyzeIntent(c *gin.Context) {
	var req models.IntentAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	resp, err := h.IntentService.AnalyzeIntent(c.Request.Context(), &req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, resp)
}

// ConfirmIntentRequest 意图确认请求
type ConfirmIntentRequest struct {
	SessionID string                 `json:"session_id"`
	Intent    *models.IntentAnalysis `json:"intent"`
}

// ConfirmIntent 用户确认（可能编辑过的）意图
func (h *Handler) ConfirmIntent(c *gin.Context) {
	var req ConfirmIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	draft, err := h.IntentService.ConfirmIntent(req.SessionID, req.Intent)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, draft)
}

// UpdateIntentFieldRequest 意图字段更新请求
type UpdateIntentFieldRequest struct {
	SessionID string `json:"session_id"`
	Field     string `json:"field"`
	Value     string `json:"value"`
}

// UpdateIntentField 接受快捷选项，修改意图字段
func (h *Handler) UpdateIntentField(c *gin.Context) {
	var req UpdateIntentFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}
	if req.SessionID == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorSessionRequired, "session_id不能为空")
		return
	}

	intent, err := h.IntentService.UpdateIntentField(req.SessionID, req.Field, req.Value)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, intent)
}

// ExecuteIntentResearch 执行意图驱动的研究
// 同步执行，请求取消即中止在途抓取
func (h *Handler) ExecuteIntentResearch(c *gin.Context) {
	var req models.IntentResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	result, err := h.IntentService.ExecuteResearch(c.Request.Context(), &req, nil)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// ExecuteResearch 遗留轮询式研究入口
// basic模式同步返回结果，其他模式返回task_id供轮询
func (h *Handler) ExecuteResearch(c *gin.Context) {
	var req models.ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	execution, err := h.ResearchService.ExecuteResearch(&req)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, execution)
}

// GetResearchStatus 轮询研究任务状态
func (h *Handler) GetResearchStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		h.Response.BadRequest(c, "task_id不能为空")
		return
	}

	task, err := h.ResearchService.GetStatus(taskID)
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, task)
}

// StopResearch 取消正在运行的研究任务
func (h *Handler) StopResearch(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		h.Response.BadRequest(c, "task_id不能为空")
		return
	}

	if err := h.ResearchService.StopExecution(taskID); err != nil {
		h.Response.FromError(c, err)
		return
	}

	h.Response.Success(c, gin.H{"task_id": taskID, "stopped": true})
}

// GetProgress 轮询任务进度快照
func (h *Handler) GetProgress(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		h.Response.BadRequest(c, "task_id不能为空")
		return
	}

	tracker, exists := h.ProgressService.GetTracker(taskID)
	if !exists {
		h.Response.Error(c, http.StatusNotFound, ErrorTaskNotFound, "任务不存在")
		return
	}

	snapshot := tracker.Snapshot()
	h.Response.Success(c, gin.H{
		"task_id":  taskID,
		"status":   snapshot.Status,
		"progress": snapshot.Progress,
		"message":  snapshot.Message,
	})
}

// SuggestModeRequest 研究模式推荐请求
type SuggestModeRequest struct {
	Keywords []string `json:"keywords"`
}

// SuggestResearchMode 根据关键词推荐研究模式
func (h *Handler) SuggestResearchMode(c *gin.Context) {
	var req SuggestModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	mode := services.SuggestResearchMode(req.Keywords)
	h.Response.Success(c, gin.H{"mode": mode})
}
