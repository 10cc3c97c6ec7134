// internal/storage/project_store.go
package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/Alwrity/ContentStudio/internal/models"

	"github.com/google/uuid"
)

// ProjectStore 研究项目的远程持久化契约
// 以 project_id 为对账键：已知ID更新，未知ID新建，保证幂等
type ProjectStore interface {
	CreateProject(name string, draft *models.ResearchDraft) (*models.ResearchProject, error)
	UpdateProject(id string, draft *models.ResearchDraft) (*models.ResearchProject, error)
	GetProject(id string) (*models.ResearchProject, error)
	ListProjects() ([]*models.ResearchProject, error)
	DeleteProject(id string) error
}

// FileProjectStore 基于文件存储的项目存储实现
type FileProjectStore struct {
	fs *FileStorage
}

const projectDir = "projects"

// NewFileProjectStore 创建文件项目存储
func NewFileProjectStore(fs *FileStorage) *FileProjectStore {
	return &FileProjectStore{fs: fs}
}

func projectFile(id string) string {
	return id + ".json"
}

// CreateProject 新建项目并分配ID
func (s *FileProjectStore) CreateProject(name string, draft *models.ResearchDraft) (*models.ResearchProject, error) {
	now := time.Now()
	project := &models.ResearchProject{
		ID:        uuid.NewString(),
		Name:      name,
		Draft:     draft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if project.Name == "" {
		project.Name = defaultProjectName(draft, now)
	}

	if err := s.fs.SaveJSONFile(projectDir, projectFile(project.ID), project); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProject 更新已有项目的草稿快照
func (s *FileProjectStore) UpdateProject(id string, draft *models.ResearchDraft) (*models.ResearchProject, error) {
	project, err := s.GetProject(id)
	if err != nil {
		return nil, err
	}

	project.Draft = draft
	project.UpdatedAt = time.Now()

	if err := s.fs.SaveJSONFile(projectDir, projectFile(id), project); err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject 读取项目
func (s *FileProjectStore) GetProject(id string) (*models.ResearchProject, error) {
	if !s.fs.FileExists(projectDir, projectFile(id)) {
		return nil, fmt.Errorf("项目不存在: %s", id)
	}

	var project models.ResearchProject
	if err := s.fs.LoadJSONFile(projectDir, projectFile(id), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects 列出所有项目，按更新时间倒序
func (s *FileProjectStore) ListProjects() ([]*models.ResearchProject, error) {
	files, err := s.fs.ListFiles(projectDir, ".json")
	if err != nil {
		return nil, err
	}

	projects := make([]*models.ResearchProject, 0, len(files))
	for _, file := range files {
		var project models.ResearchProject
		if err := s.fs.LoadJSONFile(projectDir, file, &project); err != nil {
			// 跳过损坏的项目文件，不让单个坏文件拖垮列表
			continue
		}
		projects = append(projects, &project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})

	return projects, nil
}

// DeleteProject 删除项目
func (s *FileProjectStore) DeleteProject(id string) error {
	return s.fs.DeleteFile(projectDir, projectFile(id))
}

// defaultProjectName 从草稿内容推导项目名
func defaultProjectName(draft *models.ResearchDraft, now time.Time) string {
	if draft != nil && len(draft.Keywords) > 0 {
		return draft.Keywords[0]
	}
	if draft != nil && draft.IntentAnalysis != nil && draft.IntentAnalysis.Purpose != "" {
		return draft.IntentAnalysis.Purpose
	}
	return "研究项目 " + now.Format("2006-01-02 15:04")
}
