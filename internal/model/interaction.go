package model

import "time"

// InteractionAction はDiscoverアイテムに対するユーザー操作の種別。
type InteractionAction string

const (
	// InteractionClick はアイテムのクリック。
	InteractionClick InteractionAction = "click"
	// InteractionDismiss はアイテムの非表示操作。
	InteractionDismiss InteractionAction = "dismiss"
)

// Valid はInteractionActionが定義済みの値かを返す。
func (a InteractionAction) Valid() bool {
	return a == InteractionClick || a == InteractionDismiss
}

// DiscoverInteraction は分析基盤に送るDiscover操作イベント。
type DiscoverInteraction struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	PostID     string            `json:"post_id"`
	Action     InteractionAction `json:"action"`
	Surface    Surface           `json:"surface"`
	Variant    string            `json:"variant"`
	RequestID  string            `json:"request_id"`
	RankScore  float64           `json:"rank_score"`
	Reason     Reason            `json:"reason"`
	OccurredAt time.Time         `json:"occurred_at"`
}
