// Package discover はDiscoverフィードのランキングとページネーションを提供する。
//
// 1リクエストにつき、候補取得 → スコアリング → 安全性フィルタ →
// 投稿者ごとの件数制限 → カーソル適用 → ページ分割 → レスポンス組み立て
// の順でパイプラインを1回だけ実行する。
package discover

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
	"github.com/hitoshi/mealtrack/internal/repository"
	"github.com/hitoshi/mealtrack/internal/security"
)

const (
	// oversampleFactor は後段のフィルタで減る分を見込んだ取得倍率。
	oversampleFactor = 5
	// minFetchSize は1回の候補取得で要求する最小件数。
	minFetchSize = 50
	// defaultFreshDays は候補とする投稿の作成日数の上限のデフォルト値。
	defaultFreshDays = 7
)

// FetchSize はページサイズlimitに対して取得する候補数を返す。
func FetchSize(limit int) int {
	return max(limit*oversampleFactor, minFetchSize)
}

// CandidateSource は直近の閲覧可能な投稿をエンゲージメント数付きで取得する。
type CandidateSource struct {
	repo      repository.CandidateRepository
	sanitizer security.TextSanitizer
	freshDays int
}

// NewCandidateSource はCandidateSourceを生成する。
// freshDaysが0以下の場合はデフォルト値7を使用する。
// sanitizerがnilの場合、本文はそのまま返す。
func NewCandidateSource(
	repo repository.CandidateRepository,
	sanitizer security.TextSanitizer,
	freshDays int,
) *CandidateSource {
	if freshDays <= 0 {
		freshDays = defaultFreshDays
	}
	return &CandidateSource{
		repo:      repo,
		sanitizer: sanitizer,
		freshDays: freshDays,
	}
}

// FetchCandidates はnowからfreshDays日以内に作成された候補を作成日時の降順で返す。
// 読み取りのみで副作用はない。
func (s *CandidateSource) FetchCandidates(
	ctx context.Context,
	viewerID string,
	limit int,
	now time.Time,
) ([]model.Candidate, error) {
	since := now.AddDate(0, 0, -s.freshDays)

	candidates, err := s.repo.ListDiscoverCandidates(ctx, viewerID, since, FetchSize(limit))
	if err != nil {
		return nil, fmt.Errorf("候補投稿の取得に失敗しました: %w", err)
	}

	if s.sanitizer != nil {
		for i := range candidates {
			candidates[i].Text = s.sanitizer.Sanitize(candidates[i].Text)
		}
	}

	return candidates, nil
}
