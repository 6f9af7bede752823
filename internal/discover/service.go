package discover

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
	"github.com/hitoshi/mealtrack/internal/repository"
	"github.com/hitoshi/mealtrack/internal/security"
)

const (
	// DefaultLimit はlimit未指定時のページサイズ。
	DefaultLimit = 20
	// MinLimit はページサイズの下限。
	MinLimit = 1
	// MaxLimit はページサイズの上限。
	MaxLimit = 50
)

// パイプラインのステージ名。ログとメトリクスのラベルに使用する。
const (
	StageFetch    = "fetch"
	StageSafety   = "safety"
	StagePaginate = "paginate"
	StagePanic    = "panic"
)

// Recorder はDiscoverパイプラインのメトリクス記録インターフェース。
type Recorder interface {
	RecordDiscoverRequest(surface string)
	RecordCacheResult(hit bool)
	RecordSafetyOutcome(failOpen bool)
	RecordPipelineFailure(stage string)
	RecordItemsServed(surface string, count int)
	RecordDiscoverLatency(duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDiscoverRequest(string) {}
func (nopRecorder) RecordCacheResult(bool) {}
func (nopRecorder) RecordSafetyOutcome(bool) {}
func (nopRecorder) RecordPipelineFailure(string) {}
func (nopRecorder) RecordItemsServed(string, int) {}
func (nopRecorder) RecordDiscoverLatency(time.Duration) {}

// Settings はDiscoverパイプラインの静的な設定。
type Settings struct {
	FreshDays         int
	Weights           Weights
	MaxPostsPerAuthor int
	SafetyConcurrency int
}

// Deps はServiceが利用する外部コンポーネント。
// Candidates以外はnilでもよい。
type Deps struct {
	Candidates repository.CandidateRepository
	Blocks     BlockChecker
	Moderation PostModerator
	Profiles   ProfileVisibility
	Sanitizer  security.TextSanitizer
	Cache      FeedCache
	Recorder   Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

// FeedRequest はDiscoverフィード取得の入力。
type FeedRequest struct {
	UserID  string
	Limit   int
	Cursor  string
	Surface model.Surface
}

// Service はDiscoverフィードのパイプラインを組み立てて実行する。
type Service struct {
	source   *CandidateSource
	scorer   *Scorer
	safety   *SafetyFilter
	capper   *AuthorCapper
	cache    FeedCache
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(settings Settings, deps Deps) *Service {
	cache := deps.Cache
	if cache == nil {
		cache = NopCache{}
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		source:   NewCandidateSource(deps.Candidates, deps.Sanitizer, settings.FreshDays),
		scorer:   NewScorer(settings.Weights),
		safety:   NewSafetyFilter(deps.Blocks, deps.Moderation, deps.Profiles, settings.SafetyConcurrency),
		capper:   NewAuthorCapper(settings.MaxPostsPerAuthor),
		cache:    cache,
		recorder: recorder,
		logger:   logger,
		now:      now,
	}
}

// GetDiscoverFeed はDiscoverフィードの1ページを返す。
//
// パイプラインの障害は空のフィードとして返し、エラーにはしない。
// エラーを返すのはctxがキャンセルされた場合のみで、その場合キャッシュには書き込まない。
func (s *Service) GetDiscoverFeed(ctx context.Context, req FeedRequest) (resp *model.FeedResponse, err error) {
	req = normalizeRequest(req)
	start := time.Now()
	s.recorder.RecordDiscoverRequest(string(req.Surface))
	defer func() {
		s.recorder.RecordDiscoverLatency(time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			resp, err = s.degrade(req, StagePanic, fmt.Errorf("panic: %v", r)), nil
		}
	}()

	if req.Cursor == "" {
		if cached, ok := s.cache.Get(ctx, req.UserID, req.Surface); ok {
			s.recorder.RecordCacheResult(true)
			return cached, nil
		}
		s.recorder.RecordCacheResult(false)
	}

	now := s.now()

	candidates, err := s.source.FetchCandidates(ctx, req.UserID, req.Limit, now)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return s.degrade(req, StageFetch, err), nil
	}

	ranked := s.scorer.Score(candidates, now)

	filtered, err := s.safety.Filter(ctx, req.UserID, ranked)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	failOpen := err != nil
	if failOpen {
		s.logger.Warn("安全性フィルタに失敗したため、未フィルタの候補で続行します",
			slog.String("user_id", req.UserID),
			slog.String("surface", string(req.Surface)),
			slog.String("stage", StageSafety),
			slog.Int("candidate_count", len(ranked)),
			slog.String("error", err.Error()),
		)
		s.recorder.RecordSafetyOutcome(true)
	} else {
		s.recorder.RecordSafetyOutcome(false)
	}

	capped := s.capper.Cap(filtered)
	remaining := ApplyCursor(capped, req.Cursor)

	page, next, err := Paginate(remaining, req.Limit)
	if err != nil {
		return s.degrade(req, StagePaginate, err), nil
	}

	resp = BuildResponse(page, next, req.Surface)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	// 未フィルタの結果はキャッシュしない
	if req.Cursor == "" && !failOpen {
		s.cache.Set(ctx, req.UserID, req.Surface, resp)
	}

	s.recorder.RecordItemsServed(string(req.Surface), len(resp.Items))
	return resp, nil
}

// degrade は障害をログとメトリクスに記録し、空のフィードを返す。
func (s *Service) degrade(req FeedRequest, stage string, err error) *model.FeedResponse {
	s.logger.Error("Discoverフィードの生成に失敗したため空のフィードを返します",
		slog.String("user_id", req.UserID),
		slog.String("surface", string(req.Surface)),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	s.recorder.RecordPipelineFailure(stage)
	return model.EmptyFeedResponse()
}

// normalizeRequest は範囲外のlimitと未指定のsurfaceをデフォルトに寄せる。
// 入力の検証はHTTPハンドラーで行う。
func normalizeRequest(req FeedRequest) FeedRequest {
	switch {
	case req.Limit < MinLimit:
		req.Limit = DefaultLimit
	case req.Limit > MaxLimit:
		req.Limit = MaxLimit
	}
	if !req.Surface.Valid() {
		req.Surface = model.SurfaceWeb
	}
	return req
}
