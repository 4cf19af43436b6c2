package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gitcloner/internal/gitops"
	"gitcloner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func snap(pairs ...string) *gitops.RefSnapshot {
	s := &gitops.RefSnapshot{Heads: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Heads[pairs[i]] = pairs[i+1]
	}
	return s
}

// fakeAdapter 可配置的工作副本适配器，记录调用次数
type fakeAdapter struct {
	mu sync.Mutex

	cloned   bool
	cloneErr error
	fetchErr error
	snapshot *gitops.RefSnapshot
	modified bool
	canFF    bool
	mergeErr error
	branch   string
	head     string

	// fetchBlock非nil时FetchRefs阻塞到通道关闭，用于并发测试
	fetchBlock chan struct{}
	// 按本地路径注入故障，用于批次隔离测试
	failPaths  map[string]bool
	panicPaths map[string]bool

	cloneCalls int
	fetchCalls int
	mergeCalls int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		cloned:     true,
		branch:     "master",
		head:       hashA,
		snapshot:   snap("master", hashA),
		canFF:      true,
		failPaths:  make(map[string]bool),
		panicPaths: make(map[string]bool),
	}
}

func (f *fakeAdapter) IsCloned(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cloned
}

func (f *fakeAdapter) EnsureCloned(ctx context.Context, url, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cloneCalls++
	if f.cloneErr != nil {
		return f.cloneErr
	}
	f.cloned = true
	return nil
}

func (f *fakeAdapter) FetchRefs(ctx context.Context, path string) (*gitops.RefSnapshot, error) {
	f.mu.Lock()
	f.fetchCalls++
	block := f.fetchBlock
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicPaths[path] {
		panic("适配器故障: " + path)
	}
	if f.failPaths[path] {
		return nil, errors.New("网络不可达")
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeAdapter) HasLocalModifications(path string, snapshot *gitops.RefSnapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modified, nil
}

func (f *fakeAdapter) CanFastForward(path string, snapshot *gitops.RefSnapshot) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canFF, nil
}

func (f *fakeAdapter) FastForwardMerge(path string, snapshot *gitops.RefSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mergeCalls++
	if f.mergeErr != nil {
		return f.mergeErr
	}
	if tip, ok := snapshot.Tip(f.branch); ok {
		f.head = tip
	}
	return nil
}

func (f *fakeAdapter) CurrentHead(path string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.branch, f.head, nil
}

func (f *fakeAdapter) counts() (clone, fetch, merge int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cloneCalls, f.fetchCalls, f.mergeCalls
}

func testRepo() *models.Repository {
	repo := &models.Repository{
		URL:       "https://github.com/example/demo.git",
		Name:      "demo",
		LocalPath: "/tmp/repos/github.com/example/demo",
		Status:    models.RepoStatusSynced,
	}
	repo.ID = 7
	return repo
}

func TestSyncInitialClone(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.cloned = false
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeFastForwarded, outcome.Kind)
	assert.Equal(t, uint(7), outcome.RepositoryID)
	assert.False(t, outcome.ObservedAt.IsZero())
	clone, fetch, merge := adapter.counts()
	assert.Equal(t, 1, clone)
	assert.Equal(t, 0, fetch, "初始克隆不走fetch路径")
	assert.Equal(t, 0, merge)
}

func TestSyncInitialCloneFails(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.cloned = false
	adapter.cloneErr = errors.New("仓库不存在")
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Contains(t, outcome.Detail, "克隆失败")
}

func TestSyncFetchFails(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.fetchErr = errors.New("连接超时")
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeFailed, outcome.Kind)
	_, _, merge := adapter.counts()
	assert.Equal(t, 0, merge)
}

func TestSyncLocalModificationsPreserved(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.modified = true
	adapter.snapshot = snap("master", hashB)
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeLocalChangesPreserved, outcome.Kind)
	_, _, merge := adapter.counts()
	assert.Equal(t, 0, merge, "存在本地修改时绝不合并")
}

func TestSyncRemoteBranchGone(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.snapshot = snap()
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeNoRemoteChanges, outcome.Kind)
	_, _, merge := adapter.counts()
	assert.Equal(t, 0, merge)
}

func TestSyncDivergedPreserved(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.snapshot = snap("master", hashB)
	adapter.canFF = false
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeLocalChangesPreserved, outcome.Kind)
	_, _, merge := adapter.counts()
	assert.Equal(t, 0, merge, "分叉时绝不合并")
}

func TestSyncAlreadyUpToDate(t *testing.T) {
	adapter := newFakeAdapter()
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeNoRemoteChanges, outcome.Kind)
	_, _, merge := adapter.counts()
	assert.Equal(t, 0, merge)
}

func TestSyncFastForwards(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.snapshot = snap("master", hashB)
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	require.Equal(t, OutcomeFastForwarded, outcome.Kind)
	assert.Contains(t, outcome.Detail, hashA[:8])
	assert.Contains(t, outcome.Detail, hashB[:8])
	_, _, merge := adapter.counts()
	assert.Equal(t, 1, merge)

	// 第二次同步应该已是最新
	outcome = engine.Sync(context.Background(), testRepo())
	assert.Equal(t, OutcomeNoRemoteChanges, outcome.Kind)
}

func TestSyncFastForwardFails(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.snapshot = snap("master", hashB)
	adapter.mergeErr = errors.New("磁盘只读")
	engine := NewSyncEngine(adapter)

	outcome := engine.Sync(context.Background(), testRepo())

	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Contains(t, outcome.Detail, "fast-forward失败")
}
