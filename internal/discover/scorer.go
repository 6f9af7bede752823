package discover

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
)

// Weights はランキングスコアの重み設定。
type Weights struct {
	Fresh         float64
	Engagement    float64
	Likes         float64
	Comments      float64
	FreshTauHours float64
}

// DefaultWeights はデフォルトの重み設定を返す。
func DefaultWeights() Weights {
	return Weights{
		Fresh:         0.5,
		Engagement:    0.5,
		Likes:         0.6,
		Comments:      0.4,
		FreshTauHours: 6,
	}
}

// Scorer は鮮度の減衰と重み付きエンゲージメントからスコアを計算する。
// 同一の重みとnowに対して常に同一の結果を返す。
type Scorer struct {
	weights Weights
}

// NewScorer はScorerを生成する。
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// FreshScore は exp(-age_hours / tau) を返す。未来の投稿は経過0時間として扱う。
// tauが0以下の場合は鮮度を評価しない。
func (s *Scorer) FreshScore(createdAt, now time.Time) float64 {
	tau := s.weights.FreshTauHours
	if tau <= 0 {
		return 0
	}
	ageHours := math.Max(now.Sub(createdAt).Hours(), 0)
	return math.Exp(-ageHours / tau)
}

// RankScore は候補1件のスコアを返す。
func (s *Scorer) RankScore(c model.Candidate, now time.Time) float64 {
	engagement := s.weights.Likes*float64(c.LikesCount) + s.weights.Comments*float64(c.CommentsCount)
	return s.weights.Fresh*s.FreshScore(c.CreatedAt, now) + s.weights.Engagement*engagement
}

// Score は各候補にRankScoreを設定し、ランキング順に並べた新しいスライスを返す。
// 入力スライスは変更しない。
func (s *Scorer) Score(candidates []model.Candidate, now time.Time) []model.Candidate {
	scored := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		c.RankScore = s.RankScore(c, now)
		scored[i] = c
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return compareRank(scored[i], scored[j]) < 0
	})

	return scored
}

// compareRank はランキング順でaがbより前なら負、後なら正、同位置なら0を返す。
// 順序は rank_score 降順、created_at 降順、id 昇順。
// ソートとカーソルの両方がこの関数を使い、ページ間で重複や欠落が出ないようにする。
func compareRank(a, b model.Candidate) int {
	switch {
	case a.RankScore > b.RankScore:
		return -1
	case a.RankScore < b.RankScore:
		return 1
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
