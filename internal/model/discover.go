// Package model はドメインモデルを定義する。
package model

import "time"

// Surface はフィードを要求したクライアントの種別を表す。
type Surface string

const (
	// SurfaceWeb はWebクライアント。
	SurfaceWeb Surface = "web"
	// SurfaceMobile はモバイルクライアント。
	SurfaceMobile Surface = "mobile"
)

// Valid はSurfaceが定義済みの値かを返す。
func (s Surface) Valid() bool {
	return s == SurfaceWeb || s == SurfaceMobile
}

// Reason はフィードアイテムが選ばれた理由を表す。
type Reason string

const (
	ReasonFresh     Reason = "fresh"
	ReasonPopular   Reason = "popular"
	ReasonSuggested Reason = "suggested"
	ReasonDiversity Reason = "diversity"
)

// Valid はReasonが定義済みの値かを返す。
func (r Reason) Valid() bool {
	switch r {
	case ReasonFresh, ReasonPopular, ReasonSuggested, ReasonDiversity:
		return true
	default:
		return false
	}
}

// FeedItem はDiscoverフィードの公開レスポンス1件。
type FeedItem struct {
	ID        string         `json:"id"`
	AuthorID  string         `json:"author_id"`
	Text      string         `json:"text"`
	RankScore float64        `json:"rank_score"`
	Reason    Reason         `json:"reason"`
	CreatedAt time.Time      `json:"created_at"`
	Surface   Surface        `json:"surface"`
	Metadata  map[string]any `json:"metadata"`
}

// FeedResponse はDiscoverフィードのレスポンス。
// NextCursorがnilの場合は最終ページ。
// キャッシュと共有されるため、生成後に変更してはならない。
type FeedResponse struct {
	Items      []FeedItem `json:"items"`
	NextCursor *string    `json:"next_cursor"`
}

// EmptyFeedResponse は空のフィードを返す。
// 障害時のフォールバックとして使用する。
func EmptyFeedResponse() *FeedResponse {
	return &FeedResponse{Items: []FeedItem{}}
}
