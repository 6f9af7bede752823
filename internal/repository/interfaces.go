// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
)

// SessionRepository はセッションデータの参照インターフェース。
// セッションの発行・破棄は認証サービスが担うため、本サービスは参照のみ行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// CandidateRepository はDiscoverフィードの候補投稿を取得するインターフェース。
type CandidateRepository interface {
	// ListDiscoverCandidates はsince以降に作成された投稿を、いいね数・コメント数付きで取得する。
	// 投稿の公開範囲と投稿者プロフィールの公開範囲による粗い事前フィルタを適用する:
	//   - public投稿かつ投稿者プロフィールがpublic
	//   - またはviewerIDが投稿者をアクティブにフォローしている（followers_only投稿・非公開プロフィールを含む）
	//   - private投稿は常に除外
	// 並び順は created_at DESC, id ASC。
	ListDiscoverCandidates(ctx context.Context, viewerID string, since time.Time, limit int) ([]model.Candidate, error)
}

// BlockRepository はユーザー間のブロック関係を参照するインターフェース。
type BlockRepository interface {
	// IsBlocking はblockerIDがblockedIDをブロックしているかを返す。
	IsBlocking(ctx context.Context, blockerID, blockedID string) (bool, error)
}

// ModerationRepository は投稿のモデレーション状態を参照するインターフェース。
type ModerationRepository interface {
	// IsPostBlocked は通報によりモデレーションでブロックされた投稿かを返す。
	IsPostBlocked(ctx context.Context, postID string) (bool, error)
}

// ProfileRepository はプロフィールの閲覧可否を判定するインターフェース。
type ProfileRepository interface {
	// CanViewProfile はviewerIDがownerIDのプロフィールを閲覧できるかを返す。
	// 本人、プロフィール未作成、publicの場合は閲覧可。
	// privateの場合はアクティブなフォロー関係がある場合のみ閲覧可。
	CanViewProfile(ctx context.Context, viewerID, ownerID string) (bool, error)
}

// InteractionRepository はDiscover操作イベントの永続化インターフェース。
type InteractionRepository interface {
	// Insert は操作イベントを1件記録する。同一IDの再送は無視する（冪等）。
	Insert(ctx context.Context, interaction *model.DiscoverInteraction) error
}
