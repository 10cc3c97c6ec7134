// internal/services/config_service_test.go
package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Alwrity/ContentStudio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestConfig 在临时目录上初始化全局配置系统
func initTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("STATIC_DIR", filepath.Join(dir, "static"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("DEBUG_MODE", "true")
	require.NoError(t, config.InitConfig(dir))
	return dir
}

func TestSetDebugModePersists(t *testing.T) {
	dir := initTestConfig(t)
	svc := NewConfigService()

	require.NoError(t, svc.SetDebugMode(false))

	// 服务视图与全局配置一致
	assert.False(t, svc.GetSettings().DebugMode)
	assert.False(t, config.GetCurrentConfig().DebugMode)

	// 缓存刷新后不回退
	svc.refreshCache()
	assert.False(t, svc.GetSettings().DebugMode)

	// 已写入配置文件
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	var saved config.AppConfig
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.False(t, saved.DebugMode)

	// 变更进入历史记录
	history := svc.GetChangeHistory(10)
	require.NotEmpty(t, history)
	assert.Equal(t, "调试模式", history[len(history)-1].Section)
}

func TestResearchTunablesReachRunningServices(t *testing.T) {
	initTestConfig(t)

	// 生产组装方式：研究参数传nil，按调用读取全局配置
	drafts := NewDraftService(newMemDraftStore(), newMemProjectStore(), nil)
	intents := NewIntentService(nil, drafts, nil, nil)
	research := NewResearchService(nil, drafts, nil, NewProgressService(), nil)

	updated := config.DefaultResearchConfig()
	updated.AutoSaveThrottleSeconds = 42
	updated.IntentConfirmThreshold = 0.6
	updated.MaxQueries = 2
	require.NoError(t, config.UpdateResearchConfig(updated))

	assert.Equal(t, 42, drafts.researchConfig().AutoSaveThrottleSeconds)
	assert.Equal(t, 0.6, intents.researchConfig().IntentConfirmThreshold)
	assert.Equal(t, 2, research.researchConfig().MaxQueries)
}
