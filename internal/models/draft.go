// internal/models/draft.go
package models

import "time"

// ResearchDraft 进行中的研究向导快照
// 每个会话最多一份活动草稿；project_id 是远程持久化的对账键，
// 已知 project_id 时远程保存是更新而不是新建
type ResearchDraft struct {
	SessionID      string                `json:"session_id"`
	CurrentStep    int                   `json:"current_step"`
	Keywords       []string              `json:"keywords"`
	Industry       string                `json:"industry"`
	TargetAudience string                `json:"target_audience"`
	ResearchMode   ResearchMode          `json:"research_mode"`
	Config         map[string]string     `json:"config,omitempty"`
	IntentAnalysis *IntentAnalysis       `json:"intent_analysis,omitempty"`
	IntentResult   *IntentResearchResult `json:"intent_result,omitempty"`
	LegacyResult   *ResearchResult       `json:"legacy_result,omitempty"`
	ProjectID      string                `json:"project_id,omitempty"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// DraftUpdate 草稿的部分更新
// nil 字段表示保持原值；合并语义见 DraftService.SaveDraft
type DraftUpdate struct {
	CurrentStep    *int                  `json:"current_step,omitempty"`
	Keywords       []string              `json:"keywords,omitempty"`
	Industry       *string               `json:"industry,omitempty"`
	TargetAudience *string               `json:"target_audience,omitempty"`
	ResearchMode   *ResearchMode         `json:"research_mode,omitempty"`
	Config         map[string]string     `json:"config,omitempty"`
	IntentAnalysis *IntentAnalysis       `json:"intent_analysis,omitempty"`
	IntentResult   *IntentResearchResult `json:"intent_result,omitempty"`
	LegacyResult   *ResearchResult       `json:"legacy_result,omitempty"`
	ProjectID      *string               `json:"project_id,omitempty"`
}

// HasResearchPayload 判断草稿是否包含值得远程持久化的内容
// 纯关键词输入不触发远程保存
func (d *ResearchDraft) HasResearchPayload() bool {
	return d.IntentAnalysis != nil || d.IntentResult != nil || d.LegacyResult != nil
}

// ToWizardState 导出向导状态视图
func (d *ResearchDraft) ToWizardState() *WizardState {
	return &WizardState{
		CurrentStep:    d.CurrentStep,
		Keywords:       d.Keywords,
		Industry:       d.Industry,
		TargetAudience: d.TargetAudience,
		ResearchMode:   d.ResearchMode,
		Config:         d.Config,
		Results:        d.LegacyResult,
	}
}

// ResearchProject 远程持久化的研究项目
type ResearchProject struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Draft     *ResearchDraft `json:"draft"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
