// internal/services/testsupport_test.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alwrity/ContentStudio/internal/config"
	"github.com/Alwrity/ContentStudio/internal/models"
)

// memDraftStore 内存草稿存储，测试专用
type memDraftStore struct {
	mu      sync.Mutex
	drafts  map[string]*models.ResearchDraft
	wizards map[string]*models.WizardState
	remotes map[string]time.Time
}

func newMemDraftStore() *memDraftStore {
	return &memDraftStore{
		drafts:  make(map[string]*models.ResearchDraft),
		wizards: make(map[string]*models.WizardState),
		remotes: make(map[string]time.Time),
	}
}

func (m *memDraftStore) SaveDraft(sessionID string, draft *models.ResearchDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *draft
	m.drafts[sessionID] = &cp
	return nil
}

func (m *memDraftStore) GetDraft(sessionID string) (*models.ResearchDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *draft
	return &cp, nil
}

func (m *memDraftStore) DeleteDraft(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, sessionID)
	delete(m.remotes, sessionID)
	return nil
}

func (m *memDraftStore) SaveLastRemoteSave(sessionID string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remotes[sessionID] = t
	return nil
}

func (m *memDraftStore) GetLastRemoteSave(sessionID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.remotes[sessionID]
	return t, ok
}

func (m *memDraftStore) SaveWizardState(sessionID string, state *models.WizardState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wizards[sessionID] = state
	return nil
}

func (m *memDraftStore) GetWizardState(sessionID string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wizards[sessionID], nil
}

// memProjectStore 内存项目存储，记录创建/更新次数供断言
type memProjectStore struct {
	mu       sync.Mutex
	projects map[string]*models.ResearchProject
	created  int
	updated  int
}

func newMemProjectStore() *memProjectStore {
	return &memProjectStore{projects: make(map[string]*models.ResearchProject)}
}

func (m *memProjectStore) CreateProject(name string, draft *models.ResearchDraft) (*models.ResearchProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	project := &models.ResearchProject{
		ID:        fmt.Sprintf("project-%d", m.created),
		Name:      name,
		Draft:     draft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.projects[project.ID] = project
	return project, nil
}

func (m *memProjectStore) UpdateProject(id string, draft *models.ResearchDraft) (*models.ResearchProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("项目不存在: %s", id)
	}
	m.updated++
	project.Draft = draft
	project.UpdatedAt = time.Now()
	return project, nil
}

func (m *memProjectStore) GetProject(id string) (*models.ResearchProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("项目不存在: %s", id)
	}
	return project, nil
}

func (m *memProjectStore) ListProjects() ([]*models.ResearchProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.ResearchProject, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProjectStore) DeleteProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

func (m *memProjectStore) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.updated
}

// fakeCompleter 可编程的结构化补全桩，记录调用次数
type fakeCompleter struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt, systemPrompt string, out interface{}) error
}

func (f *fakeCompleter) CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(prompt, systemPrompt, out)
	}
	return nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingCompleter 阻塞到ctx取消，用于测试任务取消
type blockingCompleter struct {
	started chan struct{}
	once    sync.Once
}

func newBlockingCompleter() *blockingCompleter {
	return &blockingCompleter{started: make(chan struct{})}
}

func (b *blockingCompleter) CreateStructuredCompletion(ctx context.Context, prompt string, systemPrompt string, out interface{}) error {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	return ctx.Err()
}

// fakeFetcher 返回固定来源的抓取桩
type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	err     error
}

func (f *fakeFetcher) FetchSource(ctx context.Context, rawURL string) (*models.ResearchSource, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.ResearchSource{
		URL:       rawURL,
		Title:     "Example Source",
		Markdown:  "# Example\n\nsome content",
		WordCount: 3,
	}, nil
}

// newTestDraftService 组装带内存存储和可控时钟的草稿服务
// 固定默认研究参数，避免依赖全局配置状态
func newTestDraftService(clock *fakeClock) (*DraftService, *memDraftStore, *memProjectStore) {
	drafts := newMemDraftStore()
	projects := newMemProjectStore()
	cfg := config.DefaultResearchConfig()
	svc := NewDraftService(drafts, projects, &cfg)
	if clock != nil {
		svc.now = clock.Now
	}
	return svc, drafts, projects
}

// fakeClock 手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{cur: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = t
}
