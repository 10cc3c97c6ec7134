// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorForbidden     = "FORBIDDEN"
	ErrorUnauthorized  = "UNAUTHORIZED"

	// 研究相关错误
	ErrorResearchFailed   = "RESEARCH_FAILED"
	ErrorTaskNotFound     = "TASK_NOT_FOUND"
	ErrorTaskNotRunning   = "TASK_NOT_RUNNING"
	ErrorIntentUnclear    = "INTENT_NEEDS_CLARIFICATION"
	ErrorIntentNotFound   = "INTENT_NOT_FOUND"
	ErrorInvalidKeywords  = "INVALID_KEYWORDS"
	ErrorInvalidQueries   = "INVALID_QUERIES"
	ErrorSessionRequired  = "SESSION_REQUIRED"
	ErrorDraftNotFound    = "DRAFT_NOT_FOUND"
	ErrorProjectNotFound  = "PROJECT_NOT_FOUND"
	ErrorAssetNotFound    = "ASSET_NOT_FOUND"
	ErrorImageFailed      = "IMAGE_GENERATION_FAILED"
	ErrorImageEditInvalid = "IMAGE_EDIT_INVALID"

	// LLM服务相关错误
	ErrorLLMServiceUnavailable = "LLM_SERVICE_UNAVAILABLE"
	ErrorLLMConfigInvalid      = "LLM_CONFIG_INVALID"
	ErrorConnectionFailed      = "CONNECTION_FAILED"

	// 配置健康相关
	ErrorConfigUnhealthy    = "CONFIG_UNHEALTHY"
	ErrorConfigNotLoaded    = "CONFIG_NOT_LOADED"
	ErrorLLMProviderMissing = "LLM_PROVIDER_MISSING"
	ErrorAPIKeyMissing      = "API_KEY_MISSING"
)
