// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	"github.com/Alwrity/ContentStudio/internal/di"
	"github.com/Alwrity/ContentStudio/internal/services"
	"github.com/Alwrity/ContentStudio/internal/storage"
	"github.com/Alwrity/ContentStudio/internal/utils"

	_ "github.com/Alwrity/ContentStudio/internal/llm/providers/anthropic"
	_ "github.com/Alwrity/ContentStudio/internal/llm/providers/google"
	_ "github.com/Alwrity/ContentStudio/internal/llm/providers/openai"
)

// httpServer 抽象HTTP服务器，便于测试替换
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序实例
type App struct {
	config   *config.AppConfig
	router   http.Handler
	server   httpServer
	stopChan chan os.Signal
}

// 全局应用实例（单例模式）
var instance *App

// GetApp 获取应用实例
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 获取依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 检查是否为调试模式
func IsDebugMode() bool {
	if instance == nil || instance.config == nil {
		return false
	}
	return instance.config.DebugMode
}

// initLogger 初始化日志系统，日志文件按天命名
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("创建日志目录失败: %w", err)
	}

	logFile := filepath.Join(logDir, "contentstudio_"+time.Now().Format("2006-01-02")+".log")
	return utils.InitLogger(logFile)
}

// Initialize 初始化应用：配置、日志、服务、路由
func Initialize(dataDir string, setupRouter func() (http.Handler, error)) error {
	if err := config.InitConfig(dataDir); err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}

	cfg := config.GetCurrentConfig()
	app := GetApp()
	app.config = cfg

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	router, err := setupRouter()
	if err != nil {
		return fmt.Errorf("设置路由失败: %w", err)
	}
	app.router = router

	return nil
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	container := di.GetContainer()
	cfg := config.GetCurrentConfig()

	// 1. 存储层
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("fileStorage", fileStorage)

	draftStore := storage.NewFileDraftStore(fileStorage)
	container.Register("draftStore", draftStore)

	projectStore := storage.NewFileProjectStore(fileStorage)
	container.Register("projectStore", projectStore)

	// 2. 基础服务
	progressService := services.NewProgressService()
	container.Register("progress", progressService)

	llmService, err := services.NewLLMService()
	if err != nil {
		// LLM未配置时使用空服务，设置页面配置后再启用
		utils.GetLogger().Warn("LLM service starting without provider", map[string]interface{}{
			"error": err.Error(),
		})
		llmService = services.NewEmptyLLMService()
	}
	container.Register("llm", llmService)

	configService := services.NewConfigService()
	container.Register("config", configService)

	// 3. 草稿与研究服务
	// 研究参数传nil，让服务读取实时全局配置；设置接口的修改无需重启即可生效
	draftService := services.NewDraftService(draftStore, projectStore, nil)
	container.Register("draft", draftService)

	fetcher := services.NewWebSourceFetcher(&cfg.Research)
	container.Register("fetcher", fetcher)

	intentService := services.NewIntentService(llmService, draftService, fetcher, nil)
	container.Register("intent", intentService)

	researchService := services.NewResearchService(llmService, draftService, fetcher, progressService, nil)
	container.Register("research", researchService)

	// 4. 资产与图像服务
	assetService := services.NewAssetService(fileStorage)
	container.Register("asset", assetService)

	imageStudioService := services.NewImageStudioService(assetService)
	container.Register("imagestudio", imageStudioService)

	return nil
}

// Run 启动HTTP服务器并等待停止信号
func Run() error {
	app := GetApp()

	if app.server == nil {
		port := "8080"
		if app.config != nil && app.config.Port != "" {
			port = app.config.Port
		}
		app.server = &http.Server{
			Addr:    ":" + port,
			Handler: app.router,
		}
	}

	// 后台周期清理已完成的进度追踪器
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if progress, ok := di.GetContainer().Get("progress").(*services.ProgressService); ok && progress != nil {
					progress.CleanupCompletedTasks(30 * time.Minute)
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.GetLogger().Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-app.stopChan

	close(cleanupDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}

	app.cleanup()
	return nil
}

// cleanup 释放服务资源
func (a *App) cleanup() {
	container := di.GetContainer()

	if progress, ok := container.Get("progress").(*services.ProgressService); ok && progress != nil {
		progress.CleanupCompletedTasks(0)
	}

	if fs, ok := container.Get("fileStorage").(*storage.FileStorage); ok && fs != nil {
		fs.Close()
	}

	utils.GetLogger().Info("Application resources cleaned up", nil)
}
