package discover

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
)

// --- モック定義 ---

// mockCandidateRepo はCandidateRepositoryのテスト用モック。
type mockCandidateRepo struct {
	mu       sync.Mutex
	calls    int
	listFunc func(ctx context.Context, viewerID string, since time.Time, limit int) ([]model.Candidate, error)
}

func (m *mockCandidateRepo) ListDiscoverCandidates(ctx context.Context, viewerID string, since time.Time, limit int) ([]model.Candidate, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.listFunc != nil {
		return m.listFunc(ctx, viewerID, since, limit)
	}
	return nil, nil
}

func (m *mockCandidateRepo) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// staticRepo は毎回同じ候補のコピーを返すモックを生成する。
func staticRepo(candidates []model.Candidate) *mockCandidateRepo {
	return &mockCandidateRepo{
		listFunc: func(ctx context.Context, viewerID string, since time.Time, limit int) ([]model.Candidate, error) {
			out := make([]model.Candidate, len(candidates))
			copy(out, candidates)
			return out, nil
		},
	}
}

// mockSafety はBlockChecker, PostModerator, ProfileVisibilityのテスト用モック。
type mockSafety struct {
	isBlockingFunc     func(ctx context.Context, blockerID, blockedID string) (bool, error)
	isPostBlockedFunc  func(ctx context.Context, postID string) (bool, error)
	canViewProfileFunc func(ctx context.Context, viewerID, ownerID string) (bool, error)
}

func (m *mockSafety) IsBlocking(ctx context.Context, blockerID, blockedID string) (bool, error) {
	if m.isBlockingFunc != nil {
		return m.isBlockingFunc(ctx, blockerID, blockedID)
	}
	return false, nil
}

func (m *mockSafety) IsPostBlocked(ctx context.Context, postID string) (bool, error) {
	if m.isPostBlockedFunc != nil {
		return m.isPostBlockedFunc(ctx, postID)
	}
	return false, nil
}

func (m *mockSafety) CanViewProfile(ctx context.Context, viewerID, ownerID string) (bool, error) {
	if m.canViewProfileFunc != nil {
		return m.canViewProfileFunc(ctx, viewerID, ownerID)
	}
	return true, nil
}

// fakeRecorder はRecorderの呼び出しを記録する。
type fakeRecorder struct {
	mu          sync.Mutex
	requests    map[string]int
	cacheHits   int
	cacheMisses int
	filtered    int
	failOpen    int
	failures    map[string]int
	served      int
	latencies   int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{requests: map[string]int{}, failures: map[string]int{}}
}

func (r *fakeRecorder) RecordDiscoverRequest(surface string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[surface]++
}

func (r *fakeRecorder) RecordCacheResult(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMisses++
	}
}

func (r *fakeRecorder) RecordSafetyOutcome(failOpen bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if failOpen {
		r.failOpen++
	} else {
		r.filtered++
	}
}

func (r *fakeRecorder) RecordPipelineFailure(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[stage]++
}

func (r *fakeRecorder) RecordItemsServed(surface string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.served += count
}

func (r *fakeRecorder) RecordDiscoverLatency(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latencies++
}

// --- ヘルパー ---

var baseTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return baseTime }

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func candidateIDs(cands []model.Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	return ids
}

func itemIDs(items []model.FeedItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
