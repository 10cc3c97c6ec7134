// internal/services/research_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	apperrors "github.com/Alwrity/ContentStudio/internal/errors"
	"github.com/Alwrity/ContentStudio/internal/metrics"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/Alwrity/ContentStudio/internal/utils"

	"github.com/google/uuid"
)

// ResearchService 遗留轮询式研究流程
// 同一关键词/行业/受众组合的结果在内存中缓存，命中时不发起任何网络调用
type ResearchService struct {
	llm      structuredCompleter
	drafts   *DraftService
	fetcher  sourceFetcher
	progress *ProgressService
	config   *config.ResearchConfig

	cacheMutex sync.RWMutex
	cache      map[string]*models.ResearchResult

	taskMutex sync.RWMutex
	tasks     map[string]*models.ResearchTask
}

// 缓存条目上限，超过时整体清空（结果体积大，不值得精细淘汰）
const researchCacheLimit = 200

// ResearchExecution 研究执行的返回
// 同步路径带Result，异步路径带TaskID供轮询
type ResearchExecution struct {
	Result *models.ResearchResult `json:"result,omitempty"`
	TaskID string                 `json:"task_id,omitempty"`
	Cached bool                   `json:"cached"`
}

// NewResearchService 创建研究服务
// cfg 为nil时每次调用读取全局配置，设置接口对研究参数的修改即时生效
func NewResearchService(llm *LLMService, drafts *DraftService, fetcher *WebSourceFetcher, progress *ProgressService, cfg *config.ResearchConfig) *ResearchService {
	s := &ResearchService{
		llm:      llm,
		drafts:   drafts,
		progress: progress,
		config:   cfg,
		cache:    make(map[string]*models.ResearchResult),
		tasks:    make(map[string]*models.ResearchTask),
	}
	if fetcher != nil {
		s.fetcher = fetcher
	}
	return s
}

func (s *ResearchService) researchConfig() config.ResearchConfig {
	if s.config != nil {
		return *s.config
	}
	return config.CurrentResearchConfig()
}

// cacheKey 关键词/行业/受众三元组的规范化缓存键
func cacheKey(keywords []string, industry, audience string) string {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if trimmed := strings.ToLower(strings.TrimSpace(k)); trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return strings.Join(normalized, "|") + "::" +
		strings.ToLower(strings.TrimSpace(industry)) + "::" +
		strings.ToLower(strings.TrimSpace(audience))
}

// ExecuteResearch 执行研究
// 缓存命中直接返回；basic模式同步执行；其余模式启动异步任务
func (s *ResearchService) ExecuteResearch(req *models.ResearchRequest) (*ResearchExecution, error) {
	if req == nil || len(req.Keywords) == 0 {
		return nil, apperrors.NewValidationError("关键词不能为空", nil)
	}

	mode := req.Mode
	if mode == "" {
		mode = SuggestResearchMode(req.Keywords)
	}
	req.Mode = mode

	key := cacheKey(req.Keywords, req.Industry, req.TargetAudience)

	s.cacheMutex.RLock()
	cached, hit := s.cache[key]
	s.cacheMutex.RUnlock()
	if hit {
		utils.GetLogger().Info("Research cache hit", map[string]interface{}{"cache_key": key})
		return &ResearchExecution{Result: cached, Cached: true}, nil
	}

	if mode == models.ResearchModeBasic {
		result, err := s.performResearch(context.Background(), req, nil)
		if err != nil {
			return nil, err
		}
		s.storeCache(key, result)
		s.saveToDraft(req.SessionID, result)
		return &ResearchExecution{Result: result}, nil
	}

	// 异步任务：进度经ProgressService推送，前端轮询status接口
	taskID := uuid.NewString()
	taskCtx, cancel := context.WithCancel(context.Background())
	tracker := s.progress.CreateTracker(taskID, cancel)

	task := &models.ResearchTask{
		TaskID:    taskID,
		Status:    TaskStatusRunning,
		StartedAt: time.Now(),
	}
	s.taskMutex.Lock()
	s.tasks[taskID] = task
	s.taskMutex.Unlock()

	go s.runTask(taskCtx, taskID, key, req, tracker)

	return &ResearchExecution{TaskID: taskID}, nil
}

// runTask 异步执行研究并落盘任务结果
func (s *ResearchService) runTask(ctx context.Context, taskID, key string, req *models.ResearchRequest, tracker *ProgressTracker) {
	defer func() {
		if r := recover(); r != nil {
			utils.GetLogger().Error("Research task panicked", map[string]interface{}{
				"task_id": taskID,
				"panic":   fmt.Sprintf("%v", r),
			})
			tracker.Fail(fmt.Sprintf("internal error: %v", r))
			s.finishTask(taskID, nil, fmt.Errorf("internal error: %v", r))
		}
	}()

	result, err := s.performResearch(ctx, req, tracker)
	if err != nil {
		if ctx.Err() != nil {
			// 用户取消，tracker已由Cancel标记
			s.finishTask(taskID, nil, ctx.Err())
			return
		}
		tracker.Fail(err.Error())
		s.finishTask(taskID, nil, err)
		return
	}

	s.storeCache(key, result)
	s.saveToDraft(req.SessionID, result)
	tracker.Complete("研究完成")
	s.finishTask(taskID, result, nil)
}

// finishTask 同步任务快照与追踪器的终态
func (s *ResearchService) finishTask(taskID string, result *models.ResearchResult, err error) {
	s.taskMutex.Lock()
	defer s.taskMutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return
	}

	if tracker, ok := s.progress.GetTracker(taskID); ok {
		snapshot := tracker.Snapshot()
		task.Status = snapshot.Status
		task.Progress = snapshot.Progress
		task.Message = snapshot.Message
	}
	task.Result = result
	if err != nil {
		task.Error = err.Error()
	}
	metrics.CountResearchTask(task.Status)
}

// GetStatus 查询任务状态，供前端轮询
// 共享任务对象只能在持有taskMutex时写入；返回副本，
// 调用方序列化期间任务goroutine可能仍在写终态
func (s *ResearchService) GetStatus(taskID string) (*models.ResearchTask, error) {
	s.taskMutex.Lock()
	defer s.taskMutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("任务不存在: %s", taskID), nil)
	}

	// 运行中的任务从追踪器取实时进度
	if tracker, ok := s.progress.GetTracker(taskID); ok {
		snapshot := tracker.Snapshot()
		task.Status = snapshot.Status
		task.Progress = snapshot.Progress
		task.Message = snapshot.Message
	}

	taskCopy := *task
	return &taskCopy, nil
}

// StopExecution 取消正在运行的任务
// 通过context取消在途请求，而不是放任其完成后丢弃结果
func (s *ResearchService) StopExecution(taskID string) error {
	if !s.progress.Cancel(taskID) {
		return apperrors.NewNotFoundError(fmt.Sprintf("没有可取消的任务: %s", taskID), nil)
	}

	s.taskMutex.Lock()
	if task, exists := s.tasks[taskID]; exists {
		task.Status = TaskStatusCancelled
		task.Message = "任务已被用户取消"
	}
	s.taskMutex.Unlock()

	return nil
}

// storeCache 写入结果缓存
func (s *ResearchService) storeCache(key string, result *models.ResearchResult) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.cache) >= researchCacheLimit {
		s.cache = make(map[string]*models.ResearchResult)
	}
	s.cache[key] = result
}

// saveToDraft 研究完成后写回会话草稿，失败只记日志
func (s *ResearchService) saveToDraft(sessionID string, result *models.ResearchResult) {
	if sessionID == "" || s.drafts == nil {
		return
	}
	if _, err := s.drafts.AutoSave(sessionID, &models.DraftUpdate{
		LegacyResult: result,
	}, true); err != nil {
		utils.GetLogger().Warn("Failed to autosave research result", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

// keywordSynthesis LLM对关键词研究的综合产出
type keywordSynthesis struct {
	Summary         string   `json:"summary"`
	SuggestedTitles []string `json:"suggested_titles"`
	ContentAngles   []string `json:"content_angles"`
	SourceURLs      []string `json:"source_urls"`
}

// performResearch 真正执行研究：规划、抓取、综合
func (s *ResearchService) performResearch(ctx context.Context, req *models.ResearchRequest, tracker *ProgressTracker) (*models.ResearchResult, error) {
	if tracker != nil {
		tracker.UpdateProgress(10, "正在分析关键词...")
	}

	prompt := fmt.Sprintf(
		"Keywords: %s\nIndustry: %s\nTarget audience: %s\nResearch mode: %s\n\nResearch these keywords for a content marketing article.",
		strings.Join(req.Keywords, ", "), req.Industry, req.TargetAudience, req.Mode)

	synthesis := &keywordSynthesis{}
	if err := s.llm.CreateStructuredCompletion(ctx, prompt,
		`You are a content research analyst. Produce a research brief for a content writer.
Output schema: {"summary": "markdown research brief", "suggested_titles": ["..."], "content_angles": ["..."], "source_urls": ["up to 5 authoritative URLs worth citing"]}`,
		synthesis); err != nil {
		return nil, fmt.Errorf("研究执行失败: %w", err)
	}

	var sources []models.ResearchSource
	// basic模式不抓取来源，保持轻量同步返回
	if req.Mode != models.ResearchModeBasic && s.fetcher != nil {
		sources = s.fetchSources(ctx, synthesis.SourceURLs, tracker)
	}

	if tracker != nil {
		tracker.UpdateProgress(90, "正在整理结果...")
	}

	return &models.ResearchResult{
		Keywords:        req.Keywords,
		Industry:        req.Industry,
		TargetAudience:  req.TargetAudience,
		Mode:            req.Mode,
		Summary:         synthesis.Summary,
		Sources:         sources,
		SuggestedTitles: synthesis.SuggestedTitles,
		ContentAngles:   synthesis.ContentAngles,
		CompletedAt:     time.Now(),
	}, nil
}

// fetchSources 抓取综合阶段引用的来源，失败的跳过
func (s *ResearchService) fetchSources(ctx context.Context, urls []string, tracker *ProgressTracker) []models.ResearchSource {
	cfg := s.researchConfig()
	maxSources := cfg.MaxQueries
	var sources []models.ResearchSource

	for i, rawURL := range urls {
		if len(sources) >= maxSources {
			break
		}
		if ctx.Err() != nil {
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
		source, err := s.fetcher.FetchSource(fetchCtx, rawURL)
		cancel()
		if err != nil {
			metrics.CountSourceFetch("failed")
			utils.GetLogger().Warn("Source fetch failed, skipping", map[string]interface{}{
				"url":   rawURL,
				"error": err.Error(),
			})
			continue
		}

		metrics.CountSourceFetch("ok")
		sources = append(sources, *source)
		if tracker != nil {
			progress := 30 + (i+1)*50/len(urls)
			tracker.UpdateProgress(progress, fmt.Sprintf("已抓取来源 %d/%d", len(sources), len(urls)))
		}
	}

	return sources
}

// SuggestResearchMode 根据关键词推荐研究模式
// 规则：空输入→basic；含URL→comprehensive；总词数>20→comprehensive；
// 总词数在(10,20]或关键词个数>3→targeted；其余→basic
func SuggestResearchMode(keywords []string) models.ResearchMode {
	nonEmpty := make([]string, 0, len(keywords))
	totalWords := 0
	for _, k := range keywords {
		trimmed := strings.TrimSpace(k)
		if trimmed == "" {
			continue
		}
		nonEmpty = append(nonEmpty, trimmed)
		if strings.HasPrefix(trimmed, "http") {
			return models.ResearchModeComprehensive
		}
		totalWords += len(strings.Fields(trimmed))
	}

	if len(nonEmpty) == 0 {
		return models.ResearchModeBasic
	}
	if totalWords > 20 {
		return models.ResearchModeComprehensive
	}
	if totalWords > 10 || len(nonEmpty) > 3 {
		return models.ResearchModeTargeted
	}
	return models.ResearchModeBasic
}
