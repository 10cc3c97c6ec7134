// internal/api/settings_handlers.go
package api

import (
	"net/http"

	"github.com/Alwrity/ContentStudio/internal/config"
	"github.com/Alwrity/ContentStudio/internal/llm"
	"github.com/gin-gonic/gin"
)

// GetSettings 返回脱敏后的配置视图
func (h *Handler) GetSettings(c *gin.Context) {
	h.Response.Success(c, h.ConfigService.GetSettings())
}

// UpdateSettingsRequest 配置更新请求，各节可选
type UpdateSettingsRequest struct {
	LLMProvider   string                 `json:"llm_provider,omitempty"`
	LLMConfig     map[string]string      `json:"llm_config,omitempty"`
	ImageProvider string                 `json:"image_provider,omitempty"`
	ImageConfig   map[string]string      `json:"image_config,omitempty"`
	Research      *config.ResearchConfig `json:"research,omitempty"`
	DebugMode     *bool                  `json:"debug_mode,omitempty"`
}

// UpdateSettings 更新配置，逐节处理
// LLM/图像配置更新后同步刷新对应服务的提供商
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求格式错误", err.Error())
		return
	}

	if req.LLMProvider != "" {
		if req.LLMConfig == nil {
			req.LLMConfig = map[string]string{}
		}
		if err := h.ConfigService.UpdateLLMConfig(req.LLMProvider, req.LLMConfig); err != nil {
			h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, err.Error())
			return
		}
		cfg := h.ConfigService.GetCurrentConfig()
		if err := h.LLMService.UpdateProvider(req.LLMProvider, cfg.LLMConfig); err != nil {
			h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, err.Error())
			return
		}
	}

	if req.ImageProvider != "" {
		if req.ImageConfig == nil {
			req.ImageConfig = map[string]string{}
		}
		if err := h.ConfigService.UpdateImageConfig(req.ImageProvider, req.ImageConfig); err != nil {
			h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, err.Error())
			return
		}
		cfg := h.ConfigService.GetCurrentConfig()
		if err := h.ImageStudioService.UpdateProvider(req.ImageProvider, cfg.ImageConfig); err != nil {
			h.Response.Error(c, http.StatusBadRequest, ErrorLLMConfigInvalid, err.Error())
			return
		}
	}

	if req.Research != nil {
		if err := h.ConfigService.UpdateResearchConfig(*req.Research); err != nil {
			h.Response.FromError(c, err)
			return
		}
	}

	if req.DebugMode != nil {
		if err := h.ConfigService.SetDebugMode(*req.DebugMode); err != nil {
			h.Response.FromError(c, err)
			return
		}
	}

	h.Response.Success(c, h.ConfigService.GetSettings(), "配置已更新")
}

// GetLLMStatus 返回LLM服务就绪状态
func (h *Handler) GetLLMStatus(c *gin.Context) {
	ready, state := h.LLMService.GetProviderStatus()
	h.Response.Success(c, gin.H{
		"ready":    ready,
		"state":    state,
		"provider": h.LLMService.GetProviderName(),
	})
}

// GetLLMModels 返回提供商支持的模型列表
// 不带provider参数时返回所有已注册提供商
func (h *Handler) GetLLMModels(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		h.Response.Success(c, gin.H{
			"providers":       llm.ListProviders(),
			"image_providers": llm.ListImageProviders(),
		})
		return
	}

	models := llm.GetSupportedModelsForProvider(provider)
	if len(models) == 0 {
		h.Response.Error(c, http.StatusNotFound, ErrorNotFound, "未知的提供商: "+provider)
		return
	}

	h.Response.Success(c, gin.H{"provider": provider, "models": models})
}

// TestLLMConnection 用当前配置发起一次最小补全验证连通性
func (h *Handler) TestLLMConnection(c *gin.Context) {
	if !h.LLMService.IsReady() {
		h.Response.Unavailable(c, ErrorLLMServiceUnavailable, "LLM服务未就绪: "+h.LLMService.GetReadyState())
		return
	}

	if err := h.LLMService.TestConnection(c.Request.Context()); err != nil {
		h.Response.Error(c, http.StatusBadGateway, ErrorConnectionFailed, err.Error())
		return
	}

	h.Response.Success(c, gin.H{"connected": true, "provider": h.LLMService.GetProviderName()})
}

// GetConfigHistory 返回配置变更历史
func (h *Handler) GetConfigHistory(c *gin.Context) {
	history := h.ConfigService.GetChangeHistory(50)
	h.Response.Success(c, gin.H{"history": history, "total": len(history)})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	cfg := h.ConfigService.GetCurrentConfig()
	if cfg == nil {
		h.Response.Error(c, http.StatusServiceUnavailable, ErrorConfigNotLoaded, "配置未加载")
		return
	}

	h.Response.Success(c, gin.H{
		"status":      "ok",
		"llm_ready":   h.LLMService.IsReady(),
		"image_ready": h.ImageStudioService.IsReady(),
	})
}
