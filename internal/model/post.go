// Package model はドメインモデルを定義する。
package model

import "time"

// PostVisibility は投稿の公開範囲を表す。
type PostVisibility string

const (
	// PostVisibilityPublic は誰でも閲覧できる投稿。
	PostVisibilityPublic PostVisibility = "public"
	// PostVisibilityFollowersOnly はフォロワーのみ閲覧できる投稿。
	PostVisibilityFollowersOnly PostVisibility = "followers_only"
	// PostVisibilityPrivate は本人のみ閲覧できる投稿。Discoverには出ない。
	PostVisibilityPrivate PostVisibility = "private"
)

// ProfileVisibility はプロフィールの公開範囲を表す。
type ProfileVisibility string

const (
	// ProfileVisibilityPublic は誰でも閲覧できるプロフィール。
	ProfileVisibilityPublic ProfileVisibility = "public"
	// ProfileVisibilityPrivate はフォロワーのみ閲覧できるプロフィール。
	ProfileVisibilityPrivate ProfileVisibility = "private"
)

// Candidate はDiscoverフィードのランキング対象となる投稿1件を表す。
// RankScoreはScorerが設定し、以降のステージでは再計算しない。
type Candidate struct {
	ID            string
	AuthorID      string
	Text          string
	CreatedAt     time.Time // UTC
	LikesCount    int
	CommentsCount int
	RankScore     float64
}
