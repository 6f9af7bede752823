package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Cookie（CSRFトークン）
	CookieSecure bool
	CookieDomain string

	// Rate Limit（req/min/user）
	RateLimitGeneral     int
	RateLimitInteraction int

	// Discover
	Discover DiscoverConfig

	// Feed cache
	FeedCacheBackend string // memory | redis
	RedisAddr        string
	RedisPassword    string
	RedisDB          int

	// Analytics
	AnalyticsSink         string // postgres | kafka
	KafkaBrokers          []string
	KafkaInteractionTopic string
	AnalyticsQueueSize    int
	AnalyticsWorkers      int

	// Retention
	InteractionRetentionDays int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// DiscoverConfig はDiscoverフィードのランキング設定。
// リクエスト処理中に変更されることはない。
type DiscoverConfig struct {
	FreshDays         int
	FreshTauHours     float64
	WeightFresh       float64
	WeightEngagement  float64
	WeightLikes       float64
	WeightComments    float64
	MaxPostsPerAuthor int
	CacheTTL          time.Duration
	SafetyConcurrency int
}

const (
	// FeedCacheBackendMemory はプロセス内メモリのフィードキャッシュ。
	FeedCacheBackendMemory = "memory"
	// FeedCacheBackendRedis はRedisを使う共有フィードキャッシュ。
	FeedCacheBackendRedis = "redis"

	// AnalyticsSinkPostgres は操作イベントをPostgreSQLに記録する。
	AnalyticsSinkPostgres = "postgres"
	// AnalyticsSinkKafka は操作イベントをKafkaトピックに送信する。
	AnalyticsSinkKafka = "kafka"
)

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
	}

	// Optional fields with defaults
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitInteraction = getEnvInt("RATE_LIMIT_INTERACTION", 60)

	cfg.Discover = DiscoverConfig{
		FreshDays:         getEnvInt("DISCOVER_FRESH_DAYS", 7),
		FreshTauHours:     getEnvFloat("DISCOVER_FRESH_TAU_HOURS", 6),
		WeightFresh:       getEnvFloat("DISCOVER_WEIGHT_FRESH", 0.5),
		WeightEngagement:  getEnvFloat("DISCOVER_WEIGHT_ENGAGEMENT", 0.5),
		WeightLikes:       getEnvFloat("DISCOVER_WEIGHT_LIKES", 0.6),
		WeightComments:    getEnvFloat("DISCOVER_WEIGHT_COMMENTS", 0.4),
		MaxPostsPerAuthor: getEnvInt("DISCOVER_MAX_POSTS_PER_AUTHOR", 2),
		CacheTTL:          time.Duration(getEnvInt("DISCOVER_CACHE_TTL_SECONDS", 60)) * time.Second,
		SafetyConcurrency: getEnvInt("DISCOVER_SAFETY_CONCURRENCY", 8),
	}

	cfg.FeedCacheBackend = strings.ToLower(getEnvString("FEED_CACHE_BACKEND", FeedCacheBackendMemory))
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnvString("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", 0)

	cfg.AnalyticsSink = strings.ToLower(getEnvString("ANALYTICS_SINK", AnalyticsSinkPostgres))
	cfg.KafkaBrokers = getEnvList("KAFKA_BROKERS")
	cfg.KafkaInteractionTopic = getEnvString("KAFKA_INTERACTION_TOPIC", "discover.interactions")
	cfg.AnalyticsQueueSize = getEnvInt("ANALYTICS_QUEUE_SIZE", 1024)
	cfg.AnalyticsWorkers = getEnvInt("ANALYTICS_WORKERS", 2)

	cfg.InteractionRetentionDays = getEnvInt("INTERACTION_RETENTION_DAYS", 90)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate はバックエンド選択などの組み合わせを検証する。
func (c *Config) validate() error {
	switch c.FeedCacheBackend {
	case FeedCacheBackendMemory, FeedCacheBackendRedis:
	default:
		return fmt.Errorf("unsupported FEED_CACHE_BACKEND: %q", c.FeedCacheBackend)
	}

	switch c.AnalyticsSink {
	case AnalyticsSinkPostgres:
	case AnalyticsSinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when ANALYTICS_SINK=kafka")
		}
	default:
		return fmt.Errorf("unsupported ANALYTICS_SINK: %q", c.AnalyticsSink)
	}

	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

// getEnvList はカンマ区切りの環境変数を空要素を除いたスライスで返す。
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
