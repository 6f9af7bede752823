package discover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/mealtrack/internal/model"
)

// redisKeyPrefix はフィードキャッシュのRedisキー接頭辞。
const redisKeyPrefix = "discover:feed:"

// RedisClient はRedisCacheが使用するgo-redisのコマンドの部分集合。
// *redis.Clientおよび*redis.ClusterClientが満たす。
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache は複数のAPIインスタンスで共有するRedisバックエンドのFeedCache。
// 有効期限はRedisのTTLに任せる。Redisの障害はキャッシュミスとして扱う。
type RedisCache struct {
	client RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(client RedisClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// RedisKey は (user_id, surface) に対応するRedisキーを返す。
func RedisKey(userID string, surface model.Surface) string {
	return fmt.Sprintf("%s%s:%s", redisKeyPrefix, userID, surface)
}

// Get はキャッシュ済みのレスポンスを返す。
func (c *RedisCache) Get(ctx context.Context, userID string, surface model.Surface) (*model.FeedResponse, bool) {
	data, err := c.client.Get(ctx, RedisKey(userID, surface)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("フィードキャッシュの取得に失敗しました",
			slog.String("user_id", userID),
			slog.String("surface", string(surface)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	var resp model.FeedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		c.logger.Warn("フィードキャッシュのデコードに失敗しました",
			slog.String("user_id", userID),
			slog.String("surface", string(surface)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if resp.Items == nil {
		resp.Items = []model.FeedItem{}
	}
	return &resp, true
}

// Set はレスポンスをTTL付きで保存する。
func (c *RedisCache) Set(ctx context.Context, userID string, surface model.Surface, resp *model.FeedResponse) {
	if resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("フィードキャッシュのエンコードに失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, RedisKey(userID, surface), data, c.ttl).Err(); err != nil {
		c.logger.Warn("フィードキャッシュの保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("surface", string(surface)),
			slog.String("error", err.Error()),
		)
	}
}

// compile-time interface check
var _ FeedCache = (*RedisCache)(nil)
var _ RedisClient = (*redis.Client)(nil)
