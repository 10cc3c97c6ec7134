// internal/services/intent_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/Alwrity/ContentStudio/internal/config"
	apperrors "github.com/Alwrity/ContentStudio/internal/errors"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestIntentService 组装用桩替换LLM和抓取器的意图服务
func newTestIntentService(completer structuredCompleter, fetcher sourceFetcher) (*IntentService, *DraftService, *memDraftStore) {
	drafts, store, _ := newTestDraftService(nil)

	cfg := config.DefaultResearchConfig()
	svc := &IntentService{
		llm:     completer,
		drafts:  drafts,
		fetcher: fetcher,
		config:  &cfg,
	}
	return svc, drafts, store
}

func intentCompleter(confidence float64, needsClarification bool, queries []string) *fakeCompleter {
	return &fakeCompleter{fn: func(prompt, systemPrompt string, out interface{}) error {
		switch v := out.(type) {
		case *models.IntentAnalysis:
			v.Purpose = "了解竞品定价策略"
			v.Depth = "standard"
			v.SuggestedQueries = queries
			v.SuggestedKeywords = []string{"pricing", "saas"}
			v.Confidence = confidence
			v.NeedsClarification = needsClarification
			if needsClarification {
				v.ClarifyingQuestions = []string{"哪个行业？"}
			}
		case *researchPlan:
			v.Sources = []struct {
				URL    string `json:"url"`
				Reason string `json:"reason"`
			}{
				{URL: "https://example.com/pricing", Reason: "pricing overview"},
				{URL: "https://blog.example.org/saas", Reason: "saas trends"},
			}
		case *researchSynthesis:
			v.Summary = "定价研究摘要"
			v.Findings = "详细发现"
			v.SuggestedTitles = []string{"SaaS定价指南"}
			v.ContentAngles = []string{"价格锚定"}
		}
		return nil
	}}
}

func TestAnalyzeIntentAutoConfirm(t *testing.T) {
	tests := []struct {
		name               string
		confidence         float64
		needsClarification bool
		wantConfirmed      bool
	}{
		{"高置信度自动确认", 0.9, false, true},
		{"阈值上也确认", 0.85, false, true},
		{"阈值下不确认", 0.84, false, false},
		{"需要澄清时置信度再高也不确认", 0.99, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestIntentService(
				intentCompleter(tt.confidence, tt.needsClarification, []string{"q1"}), nil)

			resp, err := svc.AnalyzeIntent(context.Background(), &models.IntentAnalyzeRequest{
				Input: "研究SaaS定价",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfirmed, resp.Confirmed)
		})
	}
}

func TestAnalyzeIntentClampsConfidence(t *testing.T) {
	svc, _, _ := newTestIntentService(intentCompleter(1.7, false, nil), nil)

	resp, err := svc.AnalyzeIntent(context.Background(), &models.IntentAnalyzeRequest{Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Analysis.Confidence)
	assert.False(t, resp.Analysis.AnalyzedAt.IsZero())
}

func TestAnalyzeIntentRejectsEmptyInput(t *testing.T) {
	svc, _, _ := newTestIntentService(&fakeCompleter{}, nil)

	_, err := svc.AnalyzeIntent(context.Background(), &models.IntentAnalyzeRequest{Input: "   "})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestAnalyzeIntentWritesDraft(t *testing.T) {
	svc, drafts, _ := newTestIntentService(intentCompleter(0.9, false, []string{"q1"}), nil)

	_, err := svc.AnalyzeIntent(context.Background(), &models.IntentAnalyzeRequest{
		Input:     "研究SaaS定价",
		SessionID: "s1",
	})
	require.NoError(t, err)

	draft, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	require.NotNil(t, draft.IntentAnalysis)
	assert.Equal(t, "了解竞品定价策略", draft.IntentAnalysis.Purpose)
}

func TestUpdateIntentField(t *testing.T) {
	svc, drafts, _ := newTestIntentService(intentCompleter(0.9, false, nil), nil)

	// 没有意图时报NotFound
	_, err := svc.UpdateIntentField("s1", "depth", "deep")
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = svc.AnalyzeIntent(context.Background(), &models.IntentAnalyzeRequest{
		Input: "x", SessionID: "s1",
	})
	require.NoError(t, err)

	intent, err := svc.UpdateIntentField("s1", "depth", "deep")
	require.NoError(t, err)
	assert.Equal(t, "deep", intent.Depth)

	intent, err = svc.UpdateIntentField("s1", "keywords", "a, b , ,c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, intent.SuggestedKeywords)

	_, err = svc.UpdateIntentField("s1", "unknown", "v")
	assert.True(t, apperrors.IsValidationError(err))

	// 修改已持久化
	draft, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	assert.Equal(t, "deep", draft.IntentAnalysis.Depth)
}

func TestExecuteResearchCapsQueries(t *testing.T) {
	many := []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"}
	svc, _, _ := newTestIntentService(intentCompleter(0.9, false, many), &fakeFetcher{})

	result, err := svc.ExecuteResearch(context.Background(), &models.IntentResearchRequest{
		Intent: &models.IntentAnalysis{
			Purpose:          "p",
			SuggestedQueries: many,
		},
	}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Queries, 5)
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5"}, result.Queries)
}

func TestExecuteResearchPrefersSelectedQueries(t *testing.T) {
	svc, _, _ := newTestIntentService(intentCompleter(0.9, false, []string{"suggested"}), &fakeFetcher{})

	result, err := svc.ExecuteResearch(context.Background(), &models.IntentResearchRequest{
		Intent:          &models.IntentAnalysis{Purpose: "p", SuggestedQueries: []string{"suggested"}},
		SelectedQueries: []string{"user-picked"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"user-picked"}, result.Queries)
}

func TestExecuteResearchRejectsUnclearIntent(t *testing.T) {
	svc, _, _ := newTestIntentService(intentCompleter(0.5, true, []string{"q"}), nil)

	_, err := svc.ExecuteResearch(context.Background(), &models.IntentResearchRequest{
		Input: "模糊的请求",
	}, nil)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestExecuteResearchFetchesAndSynthesizes(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, drafts, _ := newTestIntentService(intentCompleter(0.9, false, []string{"q1"}), fetcher)

	result, err := svc.ExecuteResearch(context.Background(), &models.IntentResearchRequest{
		SessionID: "s1",
		Intent:    &models.IntentAnalysis{Purpose: "p", SuggestedQueries: []string{"q1"}},
	}, nil)
	require.NoError(t, err)

	assert.Len(t, result.Sources, 2)
	assert.Equal(t, "详细发现", result.Findings)
	require.NotNil(t, result.LegacyResult)
	assert.Equal(t, models.ResearchModeTargeted, result.LegacyResult.Mode)
	assert.Equal(t, []string{"SaaS定价指南"}, result.LegacyResult.SuggestedTitles)

	// 结果写回草稿
	draft, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	assert.NotNil(t, draft.IntentResult)
	assert.NotNil(t, draft.LegacyResult)
}

func TestExecuteResearchDomainFilters(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, _, _ := newTestIntentService(intentCompleter(0.9, false, []string{"q1"}), fetcher)

	result, err := svc.ExecuteResearch(context.Background(), &models.IntentResearchRequest{
		Intent:         &models.IntentAnalysis{Purpose: "p", SuggestedQueries: []string{"q1"}},
		ExcludeDomains: []string{"example.com"},
	}, nil)
	require.NoError(t, err)

	// example.com被排除，blog.example.org保留
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "https://blog.example.org/saas", result.Sources[0].URL)
}

func TestDomainAllowed(t *testing.T) {
	assert.True(t, domainAllowed("https://a.example.com/x", nil, nil))
	assert.False(t, domainAllowed("not a url", nil, nil))
	assert.False(t, domainAllowed("https://a.example.com/x", nil, []string{"example.com"}))
	assert.True(t, domainAllowed("https://a.example.com/x", []string{"example.com"}, nil))
	assert.False(t, domainAllowed("https://other.org/x", []string{"example.com"}, nil))
	// 后缀伪装的域名不算子域名
	assert.False(t, domainAllowed("https://evilexample.com/x", []string{"example.com"}, nil))
}
