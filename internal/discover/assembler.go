package discover

import "github.com/hitoshi/mealtrack/internal/model"

// BuildResponse はページの候補を公開レスポンスの形に変換する。
// reasonは現状すべてpopularを設定する。
func BuildResponse(page []model.Candidate, nextCursor *string, surface model.Surface) *model.FeedResponse {
	items := make([]model.FeedItem, 0, len(page))
	for _, c := range page {
		items = append(items, model.FeedItem{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Text:      c.Text,
			RankScore: c.RankScore,
			Reason:    model.ReasonPopular,
			CreatedAt: c.CreatedAt,
			Surface:   surface,
			Metadata: map[string]any{
				"likes_count":    c.LikesCount,
				"comments_count": c.CommentsCount,
			},
		})
	}
	return &model.FeedResponse{Items: items, NextCursor: nextCursor}
}
