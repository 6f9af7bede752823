package discover

import "github.com/hitoshi/mealtrack/internal/model"

// AuthorCapper はランキング済みの候補から、投稿者ごとに上位max件だけを残す。
type AuthorCapper struct {
	maxPerAuthor int
}

// NewAuthorCapper はAuthorCapperを生成する。maxPerAuthorが0以下の場合は制限しない。
func NewAuthorCapper(maxPerAuthor int) *AuthorCapper {
	return &AuthorCapper{maxPerAuthor: maxPerAuthor}
}

// Cap は入力順を保ったまま、各投稿者の件数がmaxPerAuthorを超えた候補を除外する。
func (c *AuthorCapper) Cap(candidates []model.Candidate) []model.Candidate {
	if c.maxPerAuthor <= 0 {
		return candidates
	}

	counts := make(map[string]int)
	capped := make([]model.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if counts[cand.AuthorID] >= c.maxPerAuthor {
			continue
		}
		counts[cand.AuthorID]++
		capped = append(capped, cand)
	}
	return capped
}
