// internal/storage/draft_store_test.go
package storage

import (
	"testing"
	"time"

	"github.com/Alwrity/ContentStudio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(fs.Close)
	return fs
}

func TestDraftStoreRoundTrip(t *testing.T) {
	store := NewFileDraftStore(newTestFileStorage(t))

	// 不存在的草稿返回nil而非错误
	draft, err := store.GetDraft("s1")
	require.NoError(t, err)
	assert.Nil(t, draft)

	saved := &models.ResearchDraft{
		SessionID: "s1",
		Keywords:  []string{"seo", "内容营销"},
		Industry:  "saas",
		UpdatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveDraft("s1", saved))

	loaded, err := store.GetDraft("s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Keywords, loaded.Keywords)
	assert.Equal(t, saved.Industry, loaded.Industry)
	assert.True(t, saved.UpdatedAt.Equal(loaded.UpdatedAt))

	require.NoError(t, store.DeleteDraft("s1"))
	loaded, err = store.GetDraft("s1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDraftStoreRejectsUnsafeSessionIDs(t *testing.T) {
	store := NewFileDraftStore(newTestFileStorage(t))

	for _, id := range []string{"", "../escape", "a/b", `a\b`, "dotted.id"} {
		assert.Error(t, store.SaveDraft(id, &models.ResearchDraft{}), "session id %q", id)
		_, err := store.GetDraft(id)
		assert.Error(t, err, "session id %q", id)
	}
}

func TestDraftStoreLastRemoteSave(t *testing.T) {
	store := NewFileDraftStore(newTestFileStorage(t))

	_, ok := store.GetLastRemoteSave("s1")
	assert.False(t, ok)

	saved := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveLastRemoteSave("s1", saved))

	got, ok := store.GetLastRemoteSave("s1")
	require.True(t, ok)
	assert.True(t, saved.Equal(got))

	// 删除草稿一并清掉节流时间戳
	require.NoError(t, store.DeleteDraft("s1"))
	_, ok = store.GetLastRemoteSave("s1")
	assert.False(t, ok)
}

func TestWizardStatePersistence(t *testing.T) {
	store := NewFileDraftStore(newTestFileStorage(t))

	state, err := store.GetWizardState("s1")
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, store.SaveWizardState("s1", &models.WizardState{
		CurrentStep: 2,
		Keywords:    []string{"k"},
	}))

	state, err = store.GetWizardState("s1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 2, state.CurrentStep)
}
