// internal/models/research.go
package models

import "time"

// ResearchMode 研究模式
type ResearchMode string

const (
	ResearchModeBasic         ResearchMode = "basic"         // 同步执行的轻量模式
	ResearchModeTargeted      ResearchMode = "targeted"      // 异步执行的定向模式
	ResearchModeComprehensive ResearchMode = "comprehensive" // 异步执行的全面模式
)

// WizardState 研究向导的会话状态
// 第一步之后持久化到会话存储，重置时清除
type WizardState struct {
	CurrentStep    int               `json:"current_step"`
	Keywords       []string          `json:"keywords"`
	Industry       string            `json:"industry"`
	TargetAudience string            `json:"target_audience"`
	ResearchMode   ResearchMode      `json:"research_mode"`
	Config         map[string]string `json:"config,omitempty"`
	Results        *ResearchResult   `json:"results,omitempty"`
}

// ResearchRequest 研究执行请求
type ResearchRequest struct {
	Keywords       []string     `json:"keywords"`
	Industry       string       `json:"industry"`
	TargetAudience string       `json:"target_audience"`
	Mode           ResearchMode `json:"mode"`
	SessionID      string       `json:"session_id,omitempty"`
}

// ResearchSource 单个研究来源
type ResearchSource struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt,omitempty"`
	Markdown  string `json:"markdown,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
}

// ResearchResult 研究结果（遗留形态）
// 意图驱动的结果会降级为该形态，展示层不需要区分来源
type ResearchResult struct {
	Keywords        []string         `json:"keywords"`
	Industry        string           `json:"industry"`
	TargetAudience  string           `json:"target_audience"`
	Mode            ResearchMode     `json:"mode"`
	Summary         string           `json:"summary"`
	Sources         []ResearchSource `json:"sources,omitempty"`
	SuggestedTitles []string         `json:"suggested_titles,omitempty"`
	ContentAngles   []string         `json:"content_angles,omitempty"`
	CompletedAt     time.Time        `json:"completed_at"`
}

// ResearchTask 异步研究任务的状态快照
type ResearchTask struct {
	TaskID    string          `json:"task_id"`
	Status    string          `json:"status"` // running, completed, failed
	Progress  int             `json:"progress"`
	Message   string          `json:"message,omitempty"`
	Result    *ResearchResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
}
