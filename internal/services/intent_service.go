// internal/services/intent_service.go
package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	apperrors "github.com/Alwrity/ContentStudio/internal/errors"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/Alwrity/ContentStudio/internal/utils"
	"github.com/Alwrity/ContentStudio/internal/webfetch"
)

// structuredCompleter 是意图分析所需的最小LLM能力
// 测试时用桩实现替换
type structuredCompleter interface {
	CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, outputSchema interface{}) error
}

// sourceFetcher 抓取并抽取单个研究来源
type sourceFetcher interface {
	FetchSource(ctx context.Context, rawURL string) (*models.ResearchSource, error)
}

// IntentService 意图驱动的研究流程
// 分析 → 确认（达到阈值自动确认）→ 执行
type IntentService struct {
	llm     structuredCompleter
	drafts  *DraftService
	fetcher sourceFetcher
	config  *config.ResearchConfig
}

// NewIntentService 创建意图服务
// cfg 为nil时每次调用读取全局配置，设置接口对研究参数的修改即时生效
func NewIntentService(llm *LLMService, drafts *DraftService, fetcher *WebSourceFetcher, cfg *config.ResearchConfig) *IntentService {
	s := &IntentService{
		llm:    llm,
		drafts: drafts,
		config: cfg,
	}
	if fetcher != nil {
		s.fetcher = fetcher
	}
	return s
}

func (s *IntentService) researchConfig() config.ResearchConfig {
	if s.config != nil {
		return *s.config
	}
	return config.CurrentResearchConfig()
}

const intentAnalysisSystemPrompt = `You are a research-intent analyst for a content marketing platform.
Given a user's free-text research request, infer their intent.
Output schema:
{
  "purpose": "what the user wants to achieve",
  "depth": "overview | standard | deep",
  "expected_deliverables": ["..."],
  "suggested_queries": ["5-8 concrete web search queries"],
  "suggested_keywords": ["3-6 SEO keywords"],
  "quick_options": [{"field": "depth", "label": "...", "value": "...", "default": false}],
  "confidence": 0.0,
  "needs_clarification": false,
  "clarifying_questions": ["only when needs_clarification is true"]
}`

// AnalyzeIntent 用LLM把自由文本解析为结构化研究意图
// 置信度达到阈值且无需澄清时自动确认，不再等待用户点击
func (s *IntentService) AnalyzeIntent(ctx context.Context, req *models.IntentAnalyzeRequest) (*models.IntentAnalyzeResponse, error) {
	if req == nil || strings.TrimSpace(req.Input) == "" {
		return nil, apperrors.NewValidationError("研究输入不能为空", nil)
	}

	analysis := &models.IntentAnalysis{}
	prompt := fmt.Sprintf("User research request:\n%s", strings.TrimSpace(req.Input))

	if err := s.llm.CreateStructuredCompletion(ctx, prompt, intentAnalysisSystemPrompt, analysis); err != nil {
		return nil, fmt.Errorf("意图分析失败: %w", err)
	}

	// 防御模型输出越界的置信度
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 1 {
		analysis.Confidence = 1
	}
	analysis.AnalyzedAt = time.Now()

	confirmed := analysis.Confidence >= s.researchConfig().IntentConfirmThreshold && !analysis.NeedsClarification

	// 分析结果写入会话草稿，触发立即远程保存
	if req.SessionID != "" && s.drafts != nil {
		if _, err := s.drafts.AutoSave(req.SessionID, &models.DraftUpdate{
			IntentAnalysis: analysis,
		}, true); err != nil {
			utils.GetLogger().Warn("Failed to autosave intent analysis", map[string]interface{}{
				"session_id": req.SessionID,
				"error":      err.Error(),
			})
		}
	}

	return &models.IntentAnalyzeResponse{
		Analysis:  analysis,
		Confirmed: confirmed,
	}, nil
}

// ConfirmIntent 用户显式确认（可能已编辑过的）意图
func (s *IntentService) ConfirmIntent(sessionID string, intent *models.IntentAnalysis) (*models.ResearchDraft, error) {
	if intent == nil {
		return nil, apperrors.NewValidationError("意图不能为空", nil)
	}
	if s.drafts == nil {
		return nil, fmt.Errorf("草稿服务未初始化")
	}

	return s.drafts.SaveDraft(sessionID, &models.DraftUpdate{IntentAnalysis: intent})
}

// UpdateIntentField 接受快捷选项，就地修改意图字段
// 纯本地操作，不触发LLM调用
func (s *IntentService) UpdateIntentField(sessionID, field, value string) (*models.IntentAnalysis, error) {
	if s.drafts == nil {
		return nil, fmt.Errorf("草稿服务未初始化")
	}

	draft, err := s.drafts.GetDraft(sessionID)
	if err != nil {
		return nil, err
	}
	if draft == nil || draft.IntentAnalysis == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("会话 %s 没有意图分析", sessionID), nil)
	}

	intent := draft.IntentAnalysis
	switch field {
	case "purpose":
		intent.Purpose = value
	case "depth":
		intent.Depth = value
	case "keywords":
		intent.SuggestedKeywords = splitCommaList(value)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("不支持的意图字段: %s", field), nil)
	}

	if _, err := s.drafts.SaveDraft(sessionID, &models.DraftUpdate{IntentAnalysis: intent}); err != nil {
		return nil, err
	}
	return intent, nil
}

// researchPlan LLM给出的来源候选
type researchPlan struct {
	Sources []struct {
		URL    string `json:"url"`
		Reason string `json:"reason"`
	} `json:"sources"`
}

// researchSynthesis LLM综合各来源后的产出
type researchSynthesis struct {
	Summary         string   `json:"summary"`
	Findings        string   `json:"findings"`
	SuggestedTitles []string `json:"suggested_titles"`
	ContentAngles   []string `json:"content_angles"`
}

// ExecuteResearch 执行意图驱动的研究
// 需要已确认的意图；缺省时现场分析，分析要求澄清则报错
func (s *IntentService) ExecuteResearch(ctx context.Context, req *models.IntentResearchRequest, tracker *ProgressTracker) (*models.IntentResearchResult, error) {
	if req == nil {
		return nil, apperrors.NewValidationError("请求不能为空", nil)
	}

	intent := req.Intent
	if intent == nil {
		if strings.TrimSpace(req.Input) == "" {
			return nil, apperrors.NewValidationError("缺少意图，也没有可供分析的输入", nil)
		}
		resp, err := s.AnalyzeIntent(ctx, &models.IntentAnalyzeRequest{
			Input:     req.Input,
			SessionID: req.SessionID,
		})
		if err != nil {
			return nil, err
		}
		if resp.Analysis.NeedsClarification {
			return nil, apperrors.NewValidationError(
				"意图需要澄清后才能执行研究: "+strings.Join(resp.Analysis.ClarifyingQuestions, "; "), nil)
		}
		intent = resp.Analysis
	}

	// 确定提交的查询：用户选择优先，否则取建议的前N条
	maxQueries := s.researchConfig().MaxQueries
	queries := req.SelectedQueries
	if len(queries) == 0 {
		queries = intent.SuggestedQueries
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	if len(queries) == 0 {
		return nil, apperrors.NewValidationError("没有可执行的研究查询", nil)
	}

	if tracker != nil {
		tracker.UpdateProgress(10, "正在规划研究来源...")
	}

	sources := s.gatherSources(ctx, intent, queries, req.IncludeDomains, req.ExcludeDomains, tracker)

	if tracker != nil {
		tracker.UpdateProgress(70, "正在综合研究发现...")
	}

	synthesis, err := s.synthesize(ctx, intent, queries, sources)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	legacy := &models.ResearchResult{
		Keywords:        intent.SuggestedKeywords,
		Mode:            models.ResearchModeTargeted,
		Summary:         synthesis.Summary,
		Sources:         sources,
		SuggestedTitles: synthesis.SuggestedTitles,
		ContentAngles:   synthesis.ContentAngles,
		CompletedAt:     now,
	}

	result := &models.IntentResearchResult{
		Intent:       intent,
		Queries:      queries,
		Sources:      sources,
		Findings:     synthesis.Findings,
		LegacyResult: legacy,
		CompletedAt:  now,
	}

	// 研究完成立即远程保存
	if req.SessionID != "" && s.drafts != nil {
		if _, err := s.drafts.AutoSave(req.SessionID, &models.DraftUpdate{
			IntentAnalysis: intent,
			IntentResult:   result,
			LegacyResult:   legacy,
		}, true); err != nil {
			utils.GetLogger().Warn("Failed to autosave intent research result", map[string]interface{}{
				"session_id": req.SessionID,
				"error":      err.Error(),
			})
		}
	}

	if tracker != nil {
		tracker.Complete("研究完成")
	}

	return result, nil
}

// gatherSources 规划并抓取研究来源，失败的来源跳过
func (s *IntentService) gatherSources(ctx context.Context, intent *models.IntentAnalysis, queries, includeDomains, excludeDomains []string, tracker *ProgressTracker) []models.ResearchSource {
	if s.fetcher == nil {
		return nil
	}
	cfg := s.researchConfig()

	plan := &researchPlan{}
	planPrompt := fmt.Sprintf(
		"Research purpose: %s\nSearch queries:\n- %s\n\nSuggest up to %d authoritative, publicly accessible web pages (full URLs) that best answer these queries.",
		intent.Purpose, strings.Join(queries, "\n- "), cfg.MaxQueries)

	if err := s.llm.CreateStructuredCompletion(ctx, planPrompt,
		`Suggest real, well-known source URLs. Output schema: {"sources": [{"url": "https://...", "reason": "..."}]}`,
		plan); err != nil {
		utils.GetLogger().Warn("Source planning failed, continuing without sources", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	var sources []models.ResearchSource
	for i, candidate := range plan.Sources {
		if len(sources) >= cfg.MaxQueries {
			break
		}
		if !domainAllowed(candidate.URL, includeDomains, excludeDomains) {
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
		source, err := s.fetcher.FetchSource(fetchCtx, candidate.URL)
		cancel()
		if err != nil {
			utils.GetLogger().Warn("Source fetch failed, skipping", map[string]interface{}{
				"url":   candidate.URL,
				"error": err.Error(),
			})
			continue
		}

		sources = append(sources, *source)
		if tracker != nil {
			progress := 10 + (i+1)*50/len(plan.Sources)
			tracker.UpdateProgress(progress, fmt.Sprintf("已抓取来源 %d/%d", len(sources), len(plan.Sources)))
		}
	}

	return sources
}

// synthesize 让LLM基于来源内容产出摘要与内容建议
func (s *IntentService) synthesize(ctx context.Context, intent *models.IntentAnalysis, queries []string, sources []models.ResearchSource) (*researchSynthesis, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research purpose: %s\nDepth: %s\nQueries:\n- %s\n",
		intent.Purpose, intent.Depth, strings.Join(queries, "\n- "))

	if len(sources) > 0 {
		sb.WriteString("\nSource material:\n")
		for i, src := range sources {
			fmt.Fprintf(&sb, "\n[Source %d] %s (%s)\n%s\n", i+1, src.Title, src.URL, truncateText(src.Markdown, 4000))
		}
	} else {
		sb.WriteString("\nNo sources could be fetched; answer from general knowledge and say so in the summary.\n")
	}

	synthesis := &researchSynthesis{}
	if err := s.llm.CreateStructuredCompletion(ctx, sb.String(),
		`You are a content research analyst. Synthesize the material into actionable findings for a content writer.
Output schema: {"summary": "...", "findings": "detailed markdown findings", "suggested_titles": ["..."], "content_angles": ["..."]}`,
		synthesis); err != nil {
		return nil, fmt.Errorf("研究综合失败: %w", err)
	}
	return synthesis, nil
}

// domainAllowed 按包含/排除域名列表过滤来源URL
func domainAllowed(rawURL string, include, exclude []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())

	for _, domain := range exclude {
		if hostMatches(host, domain) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, domain := range include {
		if hostMatches(host, domain) {
			return true
		}
	}
	return false
}

// hostMatches 域名匹配，子域名视为匹配
func hostMatches(host, domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "\n[truncated]"
}

// WebSourceFetcher 把webfetch的抓取和抽取组合成研究来源
type WebSourceFetcher struct {
	fetcher   *webfetch.Fetcher
	extractor *webfetch.Extractor
}

// NewWebSourceFetcher 创建来源抓取器
func NewWebSourceFetcher(cfg *config.ResearchConfig) *WebSourceFetcher {
	if cfg == nil {
		def := config.DefaultResearchConfig()
		cfg = &def
	}
	return &WebSourceFetcher{
		fetcher: webfetch.NewFetcher(
			time.Duration(cfg.FetchTimeoutSeconds)*time.Second,
			"ContentStudio/1.0 (research bot)",
			cfg.MaxSourceBytes,
		),
		extractor: webfetch.NewExtractor(),
	}
}

// FetchSource 抓取URL并抽取为研究来源
func (f *WebSourceFetcher) FetchSource(ctx context.Context, rawURL string) (*models.ResearchSource, error) {
	fetched, err := f.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	extraction, err := f.extractor.Extract(fetched.Body, fetched.FinalURL)
	if err != nil {
		return nil, err
	}

	return &models.ResearchSource{
		URL:       fetched.FinalURL,
		Title:     extraction.Title,
		Excerpt:   extraction.Excerpt,
		Markdown:  extraction.Markdown,
		WordCount: len(strings.Fields(extraction.Markdown)),
	}, nil
}
