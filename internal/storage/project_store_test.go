// internal/storage/project_store_test.go
package storage

import (
	"testing"
	"time"

	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStoreCreateAndGet(t *testing.T) {
	store := NewFileProjectStore(newTestFileStorage(t))

	draft := &models.ResearchDraft{Keywords: []string{"seo"}}
	project, err := store.CreateProject("我的项目", draft)
	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "我的项目", project.Name)

	loaded, err := store.GetProject(project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, loaded.ID)
	require.NotNil(t, loaded.Draft)
	assert.Equal(t, []string{"seo"}, loaded.Draft.Keywords)

	_, err = store.GetProject("missing")
	assert.Error(t, err)
}

func TestProjectStoreDefaultName(t *testing.T) {
	store := NewFileProjectStore(newTestFileStorage(t))

	// 名字为空时取第一个关键词
	project, err := store.CreateProject("", &models.ResearchDraft{Keywords: []string{"内容营销"}})
	require.NoError(t, err)
	assert.Equal(t, "内容营销", project.Name)

	// 没有关键词时退回意图目的
	project, err = store.CreateProject("", &models.ResearchDraft{
		IntentAnalysis: &models.IntentAnalysis{Purpose: "研究竞品"},
	})
	require.NoError(t, err)
	assert.Equal(t, "研究竞品", project.Name)
}

func TestProjectStoreUpdate(t *testing.T) {
	store := NewFileProjectStore(newTestFileStorage(t))

	project, err := store.CreateProject("p", &models.ResearchDraft{Industry: "saas"})
	require.NoError(t, err)

	updated, err := store.UpdateProject(project.ID, &models.ResearchDraft{Industry: "fintech"})
	require.NoError(t, err)
	assert.Equal(t, "fintech", updated.Draft.Industry)
	assert.False(t, updated.UpdatedAt.Before(project.UpdatedAt))

	_, err = store.UpdateProject("missing", &models.ResearchDraft{})
	assert.Error(t, err)
}

func TestProjectStoreListOrdersByUpdatedAt(t *testing.T) {
	store := NewFileProjectStore(newTestFileStorage(t))

	first, err := store.CreateProject("first", nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := store.CreateProject("second", nil)
	require.NoError(t, err)

	projects, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, second.ID, projects[0].ID)
	assert.Equal(t, first.ID, projects[1].ID)

	// 更新把项目顶到最前
	time.Sleep(10 * time.Millisecond)
	_, err = store.UpdateProject(first.ID, &models.ResearchDraft{})
	require.NoError(t, err)

	projects, err = store.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, first.ID, projects[0].ID)
}

func TestProjectStoreDelete(t *testing.T) {
	store := NewFileProjectStore(newTestFileStorage(t))

	project, err := store.CreateProject("p", nil)
	require.NoError(t, err)

	require.NoError(t, store.DeleteProject(project.ID))
	_, err = store.GetProject(project.ID)
	assert.Error(t, err)
}
