// internal/api/router.go
package api

import (
	"fmt"
	"net/http"

	"github.com/Alwrity/ContentStudio/internal/config"
	"github.com/Alwrity/ContentStudio/internal/di"
	"github.com/Alwrity/ContentStudio/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 获取依赖注入容器
	container := di.GetContainer()

	// 只从容器获取服务，不再创建新实例
	draftService, ok := container.Get("draft").(*services.DraftService)
	if !ok {
		return nil, fmt.Errorf("草稿服务未正确初始化")
	}

	intentService, ok := container.Get("intent").(*services.IntentService)
	if !ok {
		return nil, fmt.Errorf("意图服务未正确初始化")
	}

	researchService, ok := container.Get("research").(*services.ResearchService)
	if !ok {
		return nil, fmt.Errorf("研究服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	assetService, ok := container.Get("asset").(*services.AssetService)
	if !ok {
		return nil, fmt.Errorf("资产服务未正确初始化")
	}

	imageStudioService, ok := container.Get("imagestudio").(*services.ImageStudioService)
	if !ok {
		return nil, fmt.Errorf("图像工作室服务未正确初始化")
	}

	configService, ok := container.Get("config").(*services.ConfigService)
	if !ok {
		return nil, fmt.Errorf("配置服务未正确初始化")
	}

	llmService, ok := container.Get("llm").(*services.LLMService)
	if !ok {
		return nil, fmt.Errorf("LLM服务未正确初始化")
	}

	// 创建API处理器 - 只传递从容器获取的服务
	handler := NewHandler(
		draftService,
		intentService,
		researchService,
		progressService,
		assetService,
		imageStudioService,
		configService,
		llmService,
	)

	// 创建路由
	r := gin.Default()

	// 启用CORS
	r.Use(corsMiddleware())

	// 请求ID与指标采集
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware())

	// HTTPS重定向（生产环境）
	if !cfg.DebugMode {
		r.Use(func(c *gin.Context) {
			if c.Request.Header.Get("X-Forwarded-Proto") != "https" {
				c.Redirect(http.StatusPermanentRedirect,
					"https://"+c.Request.Host+c.Request.URL.Path)
				return
			}
			c.Next()
		})
	}

	// 健康检查与指标
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", MetricsHandler())

	// WebSocket 进度推送
	r.GET("/ws/research/:task_id", handler.WebSocketHandler.ResearchProgressWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		// ===============================
		// 研究工作流路由
		// ===============================
		research := api.Group("/research")
		{
			intent := research.Group("/intent")
			{
				intent.POST("/analyze", LLMRateLimit(), handler.AnalyzeIntent)
				intent.POST("/confirm", handler.ConfirmIntent)
				intent.POST("/update-field", handler.UpdateIntentField)
				intent.POST("/research", ResearchRateLimit(), handler.ExecuteIntentResearch)
			}

			research.POST("/execute", ResearchRateLimit(), handler.ExecuteResearch)
			research.GET("/status/:task_id", handler.GetResearchStatus)
			research.POST("/stop/:task_id", handler.StopResearch)
			research.POST("/suggest-mode", handler.SuggestResearchMode)

			// 草稿与向导状态
			drafts := research.Group("/drafts")
			{
				drafts.POST("/save", handler.SaveDraft)
				drafts.POST("/autosave", handler.AutoSaveDraft)
				drafts.GET("/:session_id", handler.GetDraft)
				drafts.DELETE("/:session_id", handler.DiscardDraft)
				drafts.GET("/:session_id/wizard", handler.GetWizardState)
				drafts.POST("/wizard", handler.SaveWizardState)
			}

			// 远程项目
			projects := research.Group("/projects")
			{
				projects.GET("", handler.ListProjects)
				projects.POST("", handler.CreateProject)
				projects.GET("/:id", handler.GetProject)
				projects.PUT("/:id", handler.UpdateProject)
				projects.DELETE("/:id", handler.DeleteProject)
			}
		}

		// 进度轮询
		api.GET("/progress/:task_id", handler.GetProgress)

		// ===============================
		// 内容资产库路由
		// ===============================
		assets := api.Group("/content-assets")
		{
			assets.GET("", handler.ListAssets)
			assets.POST("/upload", handler.UploadAsset)
			assets.GET("/:id", handler.GetAsset)
			assets.GET("/:id/data", handler.GetAssetData)
			assets.DELETE("/:id", handler.DeleteAsset)
		}

		// ===============================
		// 图像工作室路由
		// ===============================
		imageStudio := api.Group("/image-studio")
		{
			imageStudio.GET("/status", handler.GetImageStudioStatus)
			imageStudio.POST("/generate", ImageRateLimit(), handler.GenerateImage)
			imageStudio.POST("/edit", ImageRateLimit(), handler.EditImage)
		}

		// ===============================
		// 设置相关路由
		// ===============================
		api.GET("/settings", handler.GetSettings)
		api.POST("/settings", handler.UpdateSettings)
		api.GET("/settings/history", handler.GetConfigHistory)
		api.POST("/settings/test-connection", handler.TestLLMConnection)

		llmGroup := api.Group("/llm")
		{
			llmGroup.GET("/status", handler.GetLLMStatus)
			llmGroup.GET("/models", handler.GetLLMModels)
		}
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Session-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
