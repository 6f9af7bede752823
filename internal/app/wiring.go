package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/mealtrack/internal/analytics"
	"github.com/hitoshi/mealtrack/internal/config"
	"github.com/hitoshi/mealtrack/internal/discover"
	"github.com/hitoshi/mealtrack/internal/repository"
)

// discoverSettings は設定値からDiscoverパイプラインの設定を組み立てる。
func discoverSettings(c config.DiscoverConfig) discover.Settings {
	return discover.Settings{
		FreshDays: c.FreshDays,
		Weights: discover.Weights{
			Fresh:         c.WeightFresh,
			Engagement:    c.WeightEngagement,
			Likes:         c.WeightLikes,
			Comments:      c.WeightComments,
			FreshTauHours: c.FreshTauHours,
		},
		MaxPostsPerAuthor: c.MaxPostsPerAuthor,
		SafetyConcurrency: c.SafetyConcurrency,
	}
}

// newFeedCache はFEED_CACHE_BACKENDに応じたフィードキャッシュを返す。
// TTLが0以下の場合はキャッシュしない。
// 戻り値のclose関数は終了時に必ず呼ぶこと。
func newFeedCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (discover.FeedCache, func(), error) {
	ttl := cfg.Discover.CacheTTL
	if ttl <= 0 {
		logger.Info("discover feed cache disabled")
		return discover.NopCache{}, func() {}, nil
	}

	switch cfg.FeedCacheBackend {
	case config.FeedCacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		// 到達できなくても起動は続ける（キャッシュミス扱いになる）
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis is unreachable",
				slog.String("addr", cfg.RedisAddr),
				slog.String("error", err.Error()),
			)
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", slog.String("error", err.Error()))
			}
		}
		return discover.NewRedisCache(client, ttl, logger), closeFn, nil

	case config.FeedCacheBackendMemory:
		cache := discover.NewMemoryCache(ttl)
		go cache.RunJanitor(ctx, ttl, logger)
		return cache, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported feed cache backend: %q", cfg.FeedCacheBackend)
	}
}

// newAnalyticsSink はANALYTICS_SINKに応じた操作イベントの送信先を返す。
func newAnalyticsSink(cfg *config.Config, repo repository.InteractionRepository) (analytics.Sink, error) {
	switch cfg.AnalyticsSink {
	case config.AnalyticsSinkKafka:
		sink, err := analytics.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaInteractionTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka sink: %w", err)
		}
		return sink, nil
	case config.AnalyticsSinkPostgres:
		return analytics.NewPostgresSink(repo), nil
	default:
		return nil, fmt.Errorf("unsupported analytics sink: %q", cfg.AnalyticsSink)
	}
}
