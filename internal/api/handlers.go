// internal/api/handlers.go
package api

import (
	"time"

	"github.com/Alwrity/ContentStudio/internal/services"
)

// Handler 处理API请求
type Handler struct {
	// 核心服务
	DraftService       *services.DraftService       // 草稿服务
	IntentService      *services.IntentService      // 意图服务
	ResearchService    *services.ResearchService    // 研究服务
	ProgressService    *services.ProgressService    // 进度跟踪服务
	AssetService       *services.AssetService       // 资产服务
	ImageStudioService *services.ImageStudioService // 图像工作室服务
	ConfigService      *services.ConfigService      // 配置服务
	LLMService         *services.LLMService         // LLM服务
	WebSocketHandler   *WebSocketHandler            // WebSocket 处理器
	Response           *ResponseHelper              // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	draftService *services.DraftService,
	intentService *services.IntentService,
	researchService *services.ResearchService,
	progressService *services.ProgressService,
	assetService *services.AssetService,
	imageStudioService *services.ImageStudioService,
	configService *services.ConfigService,
	llmService *services.LLMService,
) *Handler {
	return &Handler{
		DraftService:       draftService,
		IntentService:      intentService,
		ResearchService:    researchService,
		ProgressService:    progressService,
		AssetService:       assetService,
		ImageStudioService: imageStudioService,
		ConfigService:      configService,
		LLMService:         llmService,
		WebSocketHandler:   NewWebSocketHandler(progressService),
		Response:           NewResponseHelper(),
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PaginationMeta 分页元数据
type PaginationMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
