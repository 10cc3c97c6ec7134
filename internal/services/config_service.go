// internal/services/config_service.go
package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
)

// ConfigService 提供配置管理功能
type ConfigService struct {
	// 缓存最近获取的配置，减少反复访问底层存储
	cachedConfig *config.AppConfig

	// 配置更新时间
	lastUpdated time.Time

	// 配置变更事件订阅者
	subscribers []ConfigChangeSubscriber

	// 配置历史记录
	changeHistory []ConfigChangeRecord

	mu sync.RWMutex
}

// ConfigChangeSubscriber 配置变更订阅者接口
type ConfigChangeSubscriber interface {
	OnConfigChanged(oldConfig, newConfig *config.AppConfig)
}

// ConfigChangeRecord 配置变更记录
type ConfigChangeRecord struct {
	Timestamp time.Time
	Section   string
	OldValue  interface{}
	NewValue  interface{}
}

// SettingsView 暴露给前端的配置视图，密钥脱敏
type SettingsView struct {
	LLMProvider   string                `json:"llm_provider"`
	LLMModel      string                `json:"llm_model,omitempty"`
	HasLLMKey     bool                  `json:"has_llm_key"`
	ImageProvider string                `json:"image_provider"`
	HasImageKey   bool                  `json:"has_image_key"`
	Research      config.ResearchConfig `json:"research"`
	DebugMode     bool                  `json:"debug_mode"`
}

// NewConfigService 创建配置服务实例
func NewConfigService() *ConfigService {
	service := &ConfigService{
		lastUpdated:   time.Now(),
		subscribers:   make([]ConfigChangeSubscriber, 0),
		changeHistory: make([]ConfigChangeRecord, 0, 100),
	}

	service.cachedConfig = config.GetCurrentConfig()
	return service
}

// GetCurrentConfig 获取当前配置
func (s *ConfigService) GetCurrentConfig() *config.AppConfig {
	s.mu.RLock()
	cached := s.cachedConfig
	s.mu.RUnlock()

	if cached == nil {
		cached = config.GetCurrentConfig()
		s.mu.Lock()
		s.cachedConfig = cached
		s.mu.Unlock()
	}
	return cached
}

// GetSettings 返回脱敏后的配置视图
func (s *ConfigService) GetSettings() *SettingsView {
	cfg := s.GetCurrentConfig()
	if cfg == nil {
		return &SettingsView{Research: config.DefaultResearchConfig()}
	}

	view := &SettingsView{
		LLMProvider:   cfg.LLMProvider,
		ImageProvider: cfg.ImageProvider,
		Research:      cfg.Research,
		DebugMode:     cfg.DebugMode,
	}
	if cfg.LLMConfig != nil {
		view.HasLLMKey = strings.TrimSpace(cfg.LLMConfig["api_key"]) != ""
		view.LLMModel = cfg.LLMConfig["default_model"]
	}
	if cfg.ImageConfig != nil {
		view.HasImageKey = strings.TrimSpace(cfg.ImageConfig["api_key"]) != ""
	}
	return view
}

// UpdateLLMConfig 更新LLM提供商和配置
func (s *ConfigService) UpdateLLMConfig(provider string, configMap map[string]string) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}

	oldConfig := s.GetCurrentConfig()

	// 确保有默认模型
	if _, ok := configMap["default_model"]; !ok {
		if model, known := providerDefaultModels[provider]; known {
			configMap["default_model"] = model
		}
	}

	err := config.UpdateLLMConfig(provider, configMap)
	if err == nil {
		s.refreshCache()
		s.recordChange("LLM配置", oldConfig.LLMProvider, provider)
		s.notifySubscribers(oldConfig, s.GetCurrentConfig())
	}
	return err
}

// UpdateImageConfig 更新图像提供商配置
func (s *ConfigService) UpdateImageConfig(provider string, configMap map[string]string) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}

	oldConfig := s.GetCurrentConfig()

	err := config.UpdateImageConfig(provider, configMap)
	if err == nil {
		s.refreshCache()
		s.recordChange("图像配置", oldConfig.ImageProvider, provider)
		s.notifySubscribers(oldConfig, s.GetCurrentConfig())
	}
	return err
}

// UpdateResearchConfig 更新研究工作流参数
func (s *ConfigService) UpdateResearchConfig(research config.ResearchConfig) error {
	oldConfig := s.GetCurrentConfig()

	err := config.UpdateResearchConfig(research)
	if err == nil {
		s.refreshCache()
		s.recordChange("研究配置", oldConfig.Research, research)
		s.notifySubscribers(oldConfig, s.GetCurrentConfig())
	}
	return err
}

// SetDebugMode 设置调试模式
// 必须写到config包的全局配置再持久化，写缓存副本会在下次刷新时悄悄回退
func (s *ConfigService) SetDebugMode(enabled bool) error {
	oldConfig := s.GetCurrentConfig()

	err := config.SetDebugMode(enabled)
	if err == nil {
		s.refreshCache()
		s.recordChange("调试模式", oldConfig.DebugMode, enabled)
		s.notifySubscribers(oldConfig, s.GetCurrentConfig())
	}
	return err
}

func (s *ConfigService) refreshCache() {
	s.mu.Lock()
	s.cachedConfig = config.GetCurrentConfig()
	s.lastUpdated = time.Now()
	s.mu.Unlock()
}

// SubscribeToChanges 订阅配置变更事件
func (s *ConfigService) SubscribeToChanges(subscriber ConfigChangeSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, subscriber)
}

// notifySubscribers 通知所有订阅者配置已变更
func (s *ConfigService) notifySubscribers(oldConfig, newConfig *config.AppConfig) {
	s.mu.RLock()
	subscribers := make([]ConfigChangeSubscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	for _, subscriber := range subscribers {
		go subscriber.OnConfigChanged(oldConfig, newConfig)
	}
}

// recordChange 记录配置变更
func (s *ConfigService) recordChange(section string, oldValue, newValue interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 限制历史记录数量，避免无限增长
	if len(s.changeHistory) >= 1000 {
		s.changeHistory = s.changeHistory[1:]
	}

	s.changeHistory = append(s.changeHistory, ConfigChangeRecord{
		Timestamp: time.Now(),
		Section:   section,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}

// GetChangeHistory 获取配置变更历史
func (s *ConfigService) GetChangeHistory(limit int) []ConfigChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.changeHistory) {
		limit = len(s.changeHistory)
	}

	history := make([]ConfigChangeRecord, limit)
	copy(history, s.changeHistory[len(s.changeHistory)-limit:])
	return history
}
