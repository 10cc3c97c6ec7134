// internal/models/intent.go
package models

import "time"

// QuickOption 意图分析给出的可快速接受的细化建议
type QuickOption struct {
	Field   string `json:"field"`   // 对应意图字段，如 depth、purpose
	Label   string `json:"label"`   // 展示文案
	Value   string `json:"value"`   // 接受后写入意图的值
	Default bool   `json:"default"` // 是否为预选项
}

// IntentAnalysis 后端推理得到的结构化研究意图
type IntentAnalysis struct {
	Purpose              string        `json:"purpose"`
	Depth                string        `json:"depth"` // overview, standard, deep
	ExpectedDeliverables []string      `json:"expected_deliverables"`
	SuggestedQueries     []string      `json:"suggested_queries"`
	SuggestedKeywords    []string      `json:"suggested_keywords"`
	QuickOptions         []QuickOption `json:"quick_options,omitempty"`
	Confidence           float64       `json:"confidence"`
	NeedsClarification   bool          `json:"needs_clarification"`
	ClarifyingQuestions  []string      `json:"clarifying_questions,omitempty"`
	AnalyzedAt           time.Time     `json:"analyzed_at"`
}

// IntentAnalyzeRequest 意图分析请求
type IntentAnalyzeRequest struct {
	Input     string `json:"input"`      // 用户自由文本
	SessionID string `json:"session_id"` // 会话标识，用于草稿联动
}

// IntentAnalyzeResponse 意图分析响应
type IntentAnalyzeResponse struct {
	Analysis  *IntentAnalysis `json:"analysis"`
	Confirmed bool            `json:"confirmed"` // 置信度达到阈值且无需澄清时自动确认
}

// IntentResearchRequest 意图驱动的研究执行请求
type IntentResearchRequest struct {
	SessionID       string          `json:"session_id"`
	Intent          *IntentAnalysis `json:"intent,omitempty"` // 为空时由输入现场分析
	Input           string          `json:"input,omitempty"`
	SelectedQueries []string        `json:"selected_queries,omitempty"` // 为空时取意图建议的前N条
	IncludeDomains  []string        `json:"include_domains,omitempty"`
	ExcludeDomains  []string        `json:"exclude_domains,omitempty"`
}

// IntentResearchResult 意图研究的完整结果
type IntentResearchResult struct {
	Intent       *IntentAnalysis  `json:"intent"`
	Queries      []string         `json:"queries"`
	Sources      []ResearchSource `json:"sources,omitempty"`
	Findings     string           `json:"findings"`
	LegacyResult *ResearchResult  `json:"legacy_result"` // 向后兼容的展示形态
	CompletedAt  time.Time        `json:"completed_at"`
}
