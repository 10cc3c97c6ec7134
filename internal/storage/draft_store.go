// internal/storage/draft_store.go
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Alwrity/ContentStudio/internal/models"
)

// DraftStore 会话草稿存储的读写契约
// 原实现把草稿散落在字符串键的环境存储里，这里收敛为显式接口
type DraftStore interface {
	SaveDraft(sessionID string, draft *models.ResearchDraft) error
	GetDraft(sessionID string) (*models.ResearchDraft, error)
	DeleteDraft(sessionID string) error

	// 远程保存节流用的最后保存时间戳，与草稿同生命周期
	SaveLastRemoteSave(sessionID string, t time.Time) error
	GetLastRemoteSave(sessionID string) (time.Time, bool)

	// 向导状态与草稿共用会话键
	SaveWizardState(sessionID string, state *models.WizardState) error
	GetWizardState(sessionID string) (*models.WizardState, error)
}

// FileDraftStore 基于文件存储的草稿存储实现
type FileDraftStore struct {
	fs *FileStorage
}

const (
	draftDir       = "sessions"
	draftFile      = "research_draft.json"
	wizardFile     = "wizard_state.json"
	lastRemoteFile = "last_draft_save.json"
)

// NewFileDraftStore 创建文件草稿存储
func NewFileDraftStore(fs *FileStorage) *FileDraftStore {
	return &FileDraftStore{fs: fs}
}

// sessionPath 规范化会话目录，拒绝路径穿越
func sessionPath(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("会话ID不能为空")
	}
	if strings.ContainsAny(sessionID, "/\\.") {
		return "", fmt.Errorf("非法的会话ID: %s", sessionID)
	}
	return draftDir + "/" + sessionID, nil
}

// SaveDraft 保存会话草稿
func (s *FileDraftStore) SaveDraft(sessionID string, draft *models.ResearchDraft) error {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return err
	}
	return s.fs.SaveJSONFile(dir, draftFile, draft)
}

// GetDraft 读取会话草稿，不存在时返回nil
func (s *FileDraftStore) GetDraft(sessionID string) (*models.ResearchDraft, error) {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.fs.FileExists(dir, draftFile) {
		return nil, nil
	}

	var draft models.ResearchDraft
	if err := s.fs.LoadJSONFile(dir, draftFile, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// DeleteDraft 删除会话草稿及其节流时间戳
func (s *FileDraftStore) DeleteDraft(sessionID string) error {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return err
	}
	if s.fs.FileExists(dir, lastRemoteFile) {
		s.fs.DeleteFile(dir, lastRemoteFile)
	}
	if !s.fs.FileExists(dir, draftFile) {
		return nil
	}
	return s.fs.DeleteFile(dir, draftFile)
}

type lastRemoteSave struct {
	SavedAt time.Time `json:"saved_at"`
}

// SaveLastRemoteSave 记录最近一次远程保存时间
func (s *FileDraftStore) SaveLastRemoteSave(sessionID string, t time.Time) error {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return err
	}
	return s.fs.SaveJSONFile(dir, lastRemoteFile, &lastRemoteSave{SavedAt: t})
}

// GetLastRemoteSave 读取最近一次远程保存时间
func (s *FileDraftStore) GetLastRemoteSave(sessionID string) (time.Time, bool) {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return time.Time{}, false
	}
	if !s.fs.FileExists(dir, lastRemoteFile) {
		return time.Time{}, false
	}

	var record lastRemoteSave
	if err := s.fs.LoadJSONFile(dir, lastRemoteFile, &record); err != nil {
		return time.Time{}, false
	}
	return record.SavedAt, true
}

// SaveWizardState 保存向导状态
func (s *FileDraftStore) SaveWizardState(sessionID string, state *models.WizardState) error {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return err
	}
	return s.fs.SaveJSONFile(dir, wizardFile, state)
}

// GetWizardState 读取向导状态，不存在时返回nil
func (s *FileDraftStore) GetWizardState(sessionID string) (*models.WizardState, error) {
	dir, err := sessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	if !s.fs.FileExists(dir, wizardFile) {
		return nil, nil
	}

	var state models.WizardState
	if err := s.fs.LoadJSONFile(dir, wizardFile, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
