// internal/services/research_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	apperrors "github.com/Alwrity/ContentStudio/internal/errors"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestResearchService 组装用桩替换LLM的研究服务
func newTestResearchService(completer structuredCompleter, fetcher sourceFetcher) (*ResearchService, *DraftService) {
	drafts, _, _ := newTestDraftService(nil)
	cfg := config.DefaultResearchConfig()

	svc := &ResearchService{
		llm:      completer,
		drafts:   drafts,
		fetcher:  fetcher,
		progress: NewProgressService(),
		config:   &cfg,
		cache:    make(map[string]*models.ResearchResult),
		tasks:    make(map[string]*models.ResearchTask),
	}
	return svc, drafts
}

func keywordCompleter() *fakeCompleter {
	return &fakeCompleter{fn: func(prompt, systemPrompt string, out interface{}) error {
		if synthesis, ok := out.(*keywordSynthesis); ok {
			synthesis.Summary = "关键词研究摘要"
			synthesis.SuggestedTitles = []string{"标题一"}
			synthesis.ContentAngles = []string{"角度一"}
			synthesis.SourceURLs = []string{"https://example.com/a"}
		}
		return nil
	}}
}

func TestExecuteResearchValidatesKeywords(t *testing.T) {
	svc, _ := newTestResearchService(keywordCompleter(), nil)

	_, err := svc.ExecuteResearch(nil)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.ExecuteResearch(&models.ResearchRequest{})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestExecuteResearchBasicIsSynchronous(t *testing.T) {
	completer := keywordCompleter()
	svc, drafts := newTestResearchService(completer, nil)

	execution, err := svc.ExecuteResearch(&models.ResearchRequest{
		Keywords:  []string{"seo"},
		Mode:      models.ResearchModeBasic,
		SessionID: "s1",
	})
	require.NoError(t, err)

	assert.Empty(t, execution.TaskID)
	assert.False(t, execution.Cached)
	require.NotNil(t, execution.Result)
	assert.Equal(t, "关键词研究摘要", execution.Result.Summary)
	assert.Equal(t, 1, completer.callCount())

	// 结果写回草稿
	draft, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	assert.NotNil(t, draft.LegacyResult)
}

func TestExecuteResearchCacheHitSkipsEngine(t *testing.T) {
	completer := keywordCompleter()
	svc, _ := newTestResearchService(completer, nil)

	req := &models.ResearchRequest{
		Keywords: []string{"seo", "content"},
		Industry: "SaaS",
		Mode:     models.ResearchModeBasic,
	}

	first, err := svc.ExecuteResearch(req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, completer.callCount())

	// 同一三元组命中缓存，不再调用LLM；大小写和空白不影响命中
	second, err := svc.ExecuteResearch(&models.ResearchRequest{
		Keywords: []string{" SEO ", "Content"},
		Industry: "saas",
		Mode:     models.ResearchModeBasic,
	})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, 1, completer.callCount())

	// 不同受众是新的缓存键
	_, err = svc.ExecuteResearch(&models.ResearchRequest{
		Keywords:       []string{"seo", "content"},
		Industry:       "SaaS",
		TargetAudience: "CTO",
		Mode:           models.ResearchModeBasic,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, completer.callCount())
}

func TestExecuteResearchAsyncTaskLifecycle(t *testing.T) {
	svc, _ := newTestResearchService(keywordCompleter(), &fakeFetcher{})

	execution, err := svc.ExecuteResearch(&models.ResearchRequest{
		Keywords: []string{"seo"},
		Mode:     models.ResearchModeTargeted,
	})
	require.NoError(t, err)
	require.NotEmpty(t, execution.TaskID)
	assert.Nil(t, execution.Result)

	tracker, ok := svc.progress.GetTracker(execution.TaskID)
	require.True(t, ok)

	select {
	case <-tracker.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("研究任务未在期限内完成")
	}

	// Done关闭后结果落盘仍需一拍
	require.Eventually(t, func() bool {
		task, err := svc.GetStatus(execution.TaskID)
		return err == nil && task.Result != nil
	}, 2*time.Second, 10*time.Millisecond)

	task, err := svc.GetStatus(execution.TaskID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.NotEmpty(t, task.Result.Sources)
}

func TestStopExecutionCancelsRunningTask(t *testing.T) {
	completer := newBlockingCompleter()
	svc, _ := newTestResearchService(completer, nil)

	execution, err := svc.ExecuteResearch(&models.ResearchRequest{
		Keywords: []string{"seo"},
		Mode:     models.ResearchModeTargeted,
	})
	require.NoError(t, err)

	// 等任务真正开始执行再取消
	select {
	case <-completer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("任务未启动")
	}

	require.NoError(t, svc.StopExecution(execution.TaskID))

	tracker, ok := svc.progress.GetTracker(execution.TaskID)
	require.True(t, ok)
	select {
	case <-tracker.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("取消后任务未结束")
	}

	task, err := svc.GetStatus(execution.TaskID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCancelled, task.Status)

	// 再次取消同一任务报NotFound
	err = svc.StopExecution(execution.TaskID)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestStopExecutionUnknownTask(t *testing.T) {
	svc, _ := newTestResearchService(keywordCompleter(), nil)

	err := svc.StopExecution("no-such-task")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestGetStatusReturnsCopy(t *testing.T) {
	svc, _ := newTestResearchService(keywordCompleter(), &fakeFetcher{})

	execution, err := svc.ExecuteResearch(&models.ResearchRequest{
		Keywords: []string{"seo"},
		Mode:     models.ResearchModeTargeted,
	})
	require.NoError(t, err)

	tracker, ok := svc.progress.GetTracker(execution.TaskID)
	require.True(t, ok)
	<-tracker.Done
	require.Eventually(t, func() bool {
		task, err := svc.GetStatus(execution.TaskID)
		return err == nil && task.Result != nil
	}, 2*time.Second, 10*time.Millisecond)

	// 篡改返回值不能影响内部任务状态
	task, err := svc.GetStatus(execution.TaskID)
	require.NoError(t, err)
	task.Status = "mangled"
	task.Result = nil

	again, err := svc.GetStatus(execution.TaskID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, again.Status)
	assert.NotNil(t, again.Result)
}

func TestGetStatusConcurrentWithTaskFinish(t *testing.T) {
	completer := newBlockingCompleter()
	svc, _ := newTestResearchService(completer, nil)

	execution, err := svc.ExecuteResearch(&models.ResearchRequest{
		Keywords: []string{"seo"},
		Mode:     models.ResearchModeTargeted,
	})
	require.NoError(t, err)

	select {
	case <-completer.started:
	case <-time.After(5 * time.Second):
		t.Fatal("任务未启动")
	}

	// 多个轮询方与任务终态写入并发，race检测器在此验证快照隔离
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.GetStatus(execution.TaskID); err != nil {
					return
				}
			}
		}()
	}

	require.NoError(t, svc.StopExecution(execution.TaskID))
	wg.Wait()

	tracker, ok := svc.progress.GetTracker(execution.TaskID)
	require.True(t, ok)
	<-tracker.Done

	task, err := svc.GetStatus(execution.TaskID)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCancelled, task.Status)
}

func TestGetStatusUnknownTask(t *testing.T) {
	svc, _ := newTestResearchService(keywordCompleter(), nil)

	_, err := svc.GetStatus("no-such-task")
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestSuggestResearchMode(t *testing.T) {
	tests := []struct {
		name     string
		keywords []string
		want     models.ResearchMode
	}{
		{"空输入", nil, models.ResearchModeBasic},
		{"全空白", []string{" ", ""}, models.ResearchModeBasic},
		{"少量短关键词", []string{"seo", "content"}, models.ResearchModeBasic},
		{"包含URL", []string{"https://example.com/post"}, models.ResearchModeComprehensive},
		{"超过20词", []string{
			"one two three four five six seven",
			"eight nine ten eleven twelve thirteen fourteen",
			"fifteen sixteen seventeen eighteen nineteen twenty twentyone",
		}, models.ResearchModeComprehensive},
		{"11到20词", []string{"one two three four five six", "seven eight nine ten eleven"}, models.ResearchModeTargeted},
		{"超过3个关键词", []string{"a", "b", "c", "d"}, models.ResearchModeTargeted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestResearchMode(tt.keywords))
		})
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	a := cacheKey([]string{" SEO ", "Content"}, "SaaS", "CTO")
	b := cacheKey([]string{"seo", "content"}, "saas", "cto")
	assert.Equal(t, a, b)

	c := cacheKey([]string{"seo"}, "saas", "cto")
	assert.NotEqual(t, a, c)

	// 空白关键词被忽略
	d := cacheKey([]string{"seo", " ", "content"}, "saas", "cto")
	assert.Equal(t, b, d)
}
