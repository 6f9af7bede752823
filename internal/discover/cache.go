package discover

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
)

// FeedCache はカーソルなしの先頭ページを (user_id, surface) 単位で保持する。
// 保持するレスポンスは呼び出し側で変更してはならない。
type FeedCache interface {
	Get(ctx context.Context, userID string, surface model.Surface) (*model.FeedResponse, bool)
	Set(ctx context.Context, userID string, surface model.Surface, resp *model.FeedResponse)
}

// NopCache は何も保持しないFeedCache。TTLが0以下の場合に使用する。
type NopCache struct{}

// Get は常にミスを返す。
func (NopCache) Get(context.Context, string, model.Surface) (*model.FeedResponse, bool) {
	return nil, false
}

// Set は何もしない。
func (NopCache) Set(context.Context, string, model.Surface, *model.FeedResponse) {}

type cacheKey struct {
	userID  string
	surface model.Surface
}

type cacheEntry struct {
	resp      *model.FeedResponse
	expiresAt time.Time
}

// MemoryCache はmutexで保護したマップによるプロセス内FeedCache。
// 期限切れのエントリは読み取り時に削除する。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache はMemoryCacheを生成する。
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get は有効期限内のレスポンスを返す。
func (c *MemoryCache) Get(_ context.Context, userID string, surface model.Surface) (*model.FeedResponse, bool) {
	key := cacheKey{userID: userID, surface: surface}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.resp, true
}

// Set はエントリを丸ごと置き換える。
func (c *MemoryCache) Set(_ context.Context, userID string, surface model.Surface, resp *model.FeedResponse) {
	if resp == nil {
		return
	}
	key := cacheKey{userID: userID, surface: surface}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{resp: resp, expiresAt: c.now().Add(c.ttl)}
}

// Len は保持しているエントリ数を返す。期限切れで未削除のものも含む。
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// EvictExpired は期限切れのエントリをまとめて削除し、削除件数を返す。
func (c *MemoryCache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// RunJanitor はコンテキストがキャンセルされるまで、interval間隔で期限切れエントリを削除する。
// 一度も再訪されないユーザーのエントリが残り続けないようにする。
func (c *MemoryCache) RunJanitor(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.EvictExpired(); n > 0 {
				logger.Debug("期限切れのフィードキャッシュを削除しました",
					slog.Int("evicted", n),
				)
			}
		}
	}
}

// compile-time interface check
var _ FeedCache = (*MemoryCache)(nil)
var _ FeedCache = NopCache{}
