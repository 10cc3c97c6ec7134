// internal/services/draft_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSaveDraftMergesPartialUpdates(t *testing.T) {
	svc, _, _ := newTestDraftService(nil)

	_, err := svc.SaveDraft("s1", &models.DraftUpdate{
		Keywords: []string{"seo", "content"},
		Industry: strPtr("marketing"),
	})
	require.NoError(t, err)

	// 只更新行业，关键词必须保留
	draft, err := svc.SaveDraft("s1", &models.DraftUpdate{
		Industry:    strPtr("saas"),
		CurrentStep: intPtr(2),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"seo", "content"}, draft.Keywords)
	assert.Equal(t, "saas", draft.Industry)
	assert.Equal(t, 2, draft.CurrentStep)
}

func TestSaveDraftRequiresSessionID(t *testing.T) {
	svc, _, _ := newTestDraftService(nil)

	_, err := svc.SaveDraft("", &models.DraftUpdate{})
	assert.Error(t, err)
}

func TestSaveDraftMonotonicTimestamp(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	svc, _, _ := newTestDraftService(clock)

	draft, err := svc.SaveDraft("s1", &models.DraftUpdate{Keywords: []string{"a"}})
	require.NoError(t, err)
	first := draft.UpdatedAt

	// 时钟回拨后保存，时间戳不得倒退
	clock.Set(first.Add(-10 * time.Minute))
	draft, err = svc.SaveDraft("s1", &models.DraftUpdate{Industry: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, first, draft.UpdatedAt)

	// 时钟前进后正常推进
	clock.Set(first.Add(time.Minute))
	draft, err = svc.SaveDraft("s1", &models.DraftUpdate{})
	require.NoError(t, err)
	assert.True(t, draft.UpdatedAt.After(first))
}

func TestAutoSaveSkipsRemoteWithoutResearchPayload(t *testing.T) {
	svc, _, projects := newTestDraftService(nil)

	result, err := svc.AutoSave("s1", &models.DraftUpdate{
		Keywords: []string{"just", "keywords"},
	}, false)
	require.NoError(t, err)

	assert.True(t, result.SavedLocal)
	assert.False(t, result.SavedRemote)
	created, _ := projects.counts()
	assert.Zero(t, created)
}

func TestAutoSaveCreatesProjectAndReconcilesID(t *testing.T) {
	svc, drafts, projects := newTestDraftService(nil)

	result, err := svc.AutoSave("s1", &models.DraftUpdate{
		IntentAnalysis: &models.IntentAnalysis{Purpose: "研究竞品"},
	}, true)
	require.NoError(t, err)

	assert.True(t, result.SavedRemote)
	assert.NotEmpty(t, result.ProjectID)

	// 项目ID写回本地草稿
	saved, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	assert.Equal(t, result.ProjectID, saved.ProjectID)

	// 再次保存走更新而不是新建
	result2, err := svc.AutoSave("s1", &models.DraftUpdate{
		IntentResult: &models.IntentResearchResult{Findings: "发现"},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, result.ProjectID, result2.ProjectID)

	created, updated := projects.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
}

func TestAutoSaveThrottlesRemoteSaves(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	svc, _, projects := newTestDraftService(clock)

	update := &models.DraftUpdate{
		IntentAnalysis: &models.IntentAnalysis{Purpose: "p"},
	}

	// 第一次：意图刚完成，立即远程保存
	result, err := svc.AutoSave("s1", update, true)
	require.NoError(t, err)
	assert.True(t, result.SavedRemote)

	// 节流窗口内的普通自动保存被跳过
	clock.Advance(2 * time.Second)
	result, err = svc.AutoSave("s1", update, false)
	require.NoError(t, err)
	assert.True(t, result.Throttled)
	assert.False(t, result.SavedRemote)

	// 意图刚完成时绕过节流
	result, err = svc.AutoSave("s1", update, true)
	require.NoError(t, err)
	assert.True(t, result.SavedRemote)

	// 窗口过后恢复远程保存
	clock.Advance(6 * time.Second)
	result, err = svc.AutoSave("s1", update, false)
	require.NoError(t, err)
	assert.False(t, result.Throttled)
	assert.True(t, result.SavedRemote)

	created, updated := projects.counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 2, updated)
}

func TestDiscardDraftKeepsProject(t *testing.T) {
	svc, drafts, projects := newTestDraftService(nil)

	result, err := svc.AutoSave("s1", &models.DraftUpdate{
		IntentAnalysis: &models.IntentAnalysis{Purpose: "p"},
	}, true)
	require.NoError(t, err)

	require.NoError(t, svc.DiscardDraft("s1"))

	saved, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	assert.Nil(t, saved)

	// 远程项目不受草稿丢弃影响
	project, err := projects.GetProject(result.ProjectID)
	require.NoError(t, err)
	assert.NotNil(t, project)
}

func TestWizardStateRoundTrip(t *testing.T) {
	svc, _, _ := newTestDraftService(nil)

	state := &models.WizardState{
		CurrentStep: 3,
		Keywords:    []string{"k1"},
		Industry:    "fintech",
	}
	require.NoError(t, svc.SaveWizardState("s1", state))

	loaded, err := svc.GetWizardState("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.CurrentStep)
	assert.Equal(t, "fintech", loaded.Industry)

	_, err = svc.GetWizardState("")
	assert.Error(t, err)
}

func TestCreateProjectFromSession(t *testing.T) {
	svc, drafts, _ := newTestDraftService(nil)

	_, err := svc.CreateProject("missing", "名字")
	assert.Error(t, err)

	_, err = svc.SaveDraft("s1", &models.DraftUpdate{Keywords: []string{"k"}})
	require.NoError(t, err)

	project, err := svc.CreateProject("s1", "我的项目")
	require.NoError(t, err)
	assert.Equal(t, "我的项目", project.Name)

	saved, err := drafts.GetDraft("s1")
	require.NoError(t, err)
	assert.Equal(t, project.ID, saved.ProjectID)
}
