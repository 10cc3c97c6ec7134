// internal/services/draft_service.go
package services

import (
	"fmt"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/Alwrity/ContentStudio/internal/storage"
	"github.com/Alwrity/ContentStudio/internal/utils"
)

// DraftService 管理研究草稿的本地与远程双写
// 本地存储总是写入；远程项目仅在草稿包含研究结果时写入，
// 且受节流窗口限制，意图刚完成时立即写入
type DraftService struct {
	drafts   storage.DraftStore
	projects storage.ProjectStore
	config   *config.ResearchConfig

	// 测试时可替换的时钟
	now func() time.Time
}

// AutoSaveResult 自动保存的结果摘要
type AutoSaveResult struct {
	Draft       *models.ResearchDraft `json:"draft"`
	SavedLocal  bool                  `json:"saved_local"`
	SavedRemote bool                  `json:"saved_remote"`
	Throttled   bool                  `json:"throttled"`
	ProjectID   string                `json:"project_id,omitempty"`
}

// NewDraftService 创建草稿服务
// cfg 为nil时每次调用读取全局配置，设置接口对研究参数的修改即时生效
func NewDraftService(drafts storage.DraftStore, projects storage.ProjectStore, cfg *config.ResearchConfig) *DraftService {
	return &DraftService{
		drafts:   drafts,
		projects: projects,
		config:   cfg,
		now:      time.Now,
	}
}

func (s *DraftService) researchConfig() config.ResearchConfig {
	if s.config != nil {
		return *s.config
	}
	return config.CurrentResearchConfig()
}

// SaveDraft 合并部分更新并写入本地存储
// updated_at 单调递增：合并结果的时间戳永远不早于原草稿
func (s *DraftService) SaveDraft(sessionID string, update *models.DraftUpdate) (*models.ResearchDraft, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("会话ID不能为空")
	}

	draft, err := s.drafts.GetDraft(sessionID)
	if err != nil {
		return nil, fmt.Errorf("读取草稿失败: %w", err)
	}
	if draft == nil {
		draft = &models.ResearchDraft{SessionID: sessionID}
	}

	s.applyUpdate(draft, update)

	// 单调时间戳：时钟回拨时沿用原时间戳
	now := s.now()
	if now.After(draft.UpdatedAt) {
		draft.UpdatedAt = now
	}

	if err := s.drafts.SaveDraft(sessionID, draft); err != nil {
		return nil, fmt.Errorf("保存草稿失败: %w", err)
	}

	return draft, nil
}

// applyUpdate 将部分更新合并进草稿，nil字段保持原值
func (s *DraftService) applyUpdate(draft *models.ResearchDraft, update *models.DraftUpdate) {
	if update == nil {
		return
	}

	if update.CurrentStep != nil {
		draft.CurrentStep = *update.CurrentStep
	}
	if update.Keywords != nil {
		draft.Keywords = update.Keywords
	}
	if update.Industry != nil {
		draft.Industry = *update.Industry
	}
	if update.TargetAudience != nil {
		draft.TargetAudience = *update.TargetAudience
	}
	if update.ResearchMode != nil {
		draft.ResearchMode = *update.ResearchMode
	}
	if update.Config != nil {
		draft.Config = update.Config
	}
	if update.IntentAnalysis != nil {
		draft.IntentAnalysis = update.IntentAnalysis
	}
	if update.IntentResult != nil {
		draft.IntentResult = update.IntentResult
	}
	if update.LegacyResult != nil {
		draft.LegacyResult = update.LegacyResult
	}
	if update.ProjectID != nil {
		draft.ProjectID = *update.ProjectID
	}
}

// AutoSave 自动保存：本地必写，远程按策略写
// intentJustCompleted 表示本次更新携带了刚完成的研究结果，跳过节流立即远程保存
func (s *DraftService) AutoSave(sessionID string, update *models.DraftUpdate, intentJustCompleted bool) (*AutoSaveResult, error) {
	draft, err := s.SaveDraft(sessionID, update)
	if err != nil {
		return nil, err
	}

	result := &AutoSaveResult{
		Draft:      draft,
		SavedLocal: true,
		ProjectID:  draft.ProjectID,
	}

	// 纯关键词输入不值得建远程项目
	if !draft.HasResearchPayload() {
		return result, nil
	}

	// 节流窗口内跳过远程保存，意图刚完成时例外
	if !intentJustCompleted {
		if lastSave, ok := s.drafts.GetLastRemoteSave(sessionID); ok {
			throttle := time.Duration(s.researchConfig().AutoSaveThrottleSeconds) * time.Second
			if s.now().Sub(lastSave) < throttle {
				result.Throttled = true
				return result, nil
			}
		}
	}

	// 远程保存失败只记日志，本地保存结果照常返回
	projectID, err := s.saveRemote(sessionID, draft)
	if err != nil {
		utils.GetLogger().Error("Remote draft save failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return result, nil
	}

	result.SavedRemote = true
	result.ProjectID = projectID
	return result, nil
}

// saveRemote 以project_id为对账键写入远程项目
// 新建项目后把分配的ID写回草稿，后续保存走更新而不是新建
func (s *DraftService) saveRemote(sessionID string, draft *models.ResearchDraft) (string, error) {
	if draft.ProjectID != "" {
		if _, err := s.projects.UpdateProject(draft.ProjectID, draft); err == nil {
			s.markRemoteSaved(sessionID)
			return draft.ProjectID, nil
		}
		// 远端项目丢失时退回新建，避免草稿卡死
		utils.GetLogger().Warn("Project missing on update, recreating", map[string]interface{}{
			"session_id": sessionID,
			"project_id": draft.ProjectID,
		})
	}

	project, err := s.projects.CreateProject("", draft)
	if err != nil {
		return "", err
	}

	// 对账：把新项目ID写回草稿
	draft.ProjectID = project.ID
	if err := s.drafts.SaveDraft(sessionID, draft); err != nil {
		utils.GetLogger().Error("Failed to persist reconciled project ID", map[string]interface{}{
			"session_id": sessionID,
			"project_id": project.ID,
			"error":      err.Error(),
		})
	}

	s.markRemoteSaved(sessionID)
	return project.ID, nil
}

func (s *DraftService) markRemoteSaved(sessionID string) {
	if err := s.drafts.SaveLastRemoteSave(sessionID, s.now()); err != nil {
		utils.GetLogger().Warn("Failed to record remote save time", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

// GetDraft 读取草稿，不存在时返回nil
func (s *DraftService) GetDraft(sessionID string) (*models.ResearchDraft, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("会话ID不能为空")
	}
	return s.drafts.GetDraft(sessionID)
}

// DiscardDraft 丢弃草稿，远程项目保留
func (s *DraftService) DiscardDraft(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("会话ID不能为空")
	}
	return s.drafts.DeleteDraft(sessionID)
}

// SaveWizardState 保存向导状态快照
func (s *DraftService) SaveWizardState(sessionID string, state *models.WizardState) error {
	if sessionID == "" {
		return fmt.Errorf("会话ID不能为空")
	}
	if state == nil {
		return fmt.Errorf("向导状态不能为空")
	}
	return s.drafts.SaveWizardState(sessionID, state)
}

// GetWizardState 读取向导状态，不存在时返回nil
func (s *DraftService) GetWizardState(sessionID string) (*models.WizardState, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("会话ID不能为空")
	}
	return s.drafts.GetWizardState(sessionID)
}

// CreateProject 手动把会话草稿固化为远程项目
func (s *DraftService) CreateProject(sessionID, name string) (*models.ResearchProject, error) {
	draft, err := s.GetDraft(sessionID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("会话 %s 没有草稿", sessionID)
	}

	project, err := s.projects.CreateProject(name, draft)
	if err != nil {
		return nil, err
	}

	// 对账：项目ID写回草稿
	draft.ProjectID = project.ID
	if err := s.drafts.SaveDraft(sessionID, draft); err != nil {
		utils.GetLogger().Error("Failed to persist reconciled project ID", map[string]interface{}{
			"session_id": sessionID,
			"project_id": project.ID,
			"error":      err.Error(),
		})
	}
	s.markRemoteSaved(sessionID)
	return project, nil
}

// ListProjects 列出所有远程项目
func (s *DraftService) ListProjects() ([]*models.ResearchProject, error) {
	return s.projects.ListProjects()
}

// GetProject 读取单个远程项目
func (s *DraftService) GetProject(id string) (*models.ResearchProject, error) {
	if id == "" {
		return nil, fmt.Errorf("项目ID不能为空")
	}
	return s.projects.GetProject(id)
}

// UpdateProject 用当前草稿覆盖远程项目快照
func (s *DraftService) UpdateProject(id, sessionID string) (*models.ResearchProject, error) {
	draft, err := s.GetDraft(sessionID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("会话 %s 没有草稿", sessionID)
	}
	return s.projects.UpdateProject(id, draft)
}

// DeleteProject 删除远程项目
func (s *DraftService) DeleteProject(id string) error {
	if id == "" {
		return fmt.Errorf("项目ID不能为空")
	}
	return s.projects.DeleteProject(id)
}
