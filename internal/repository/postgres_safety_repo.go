package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSafetyRepo はブロック関係・モデレーション・プロフィール公開範囲を
// PostgreSQLから参照するリポジトリ。
type PostgresSafetyRepo struct {
	db *sql.DB
}

// NewPostgresSafetyRepo はPostgresSafetyRepoを生成する。
func NewPostgresSafetyRepo(db *sql.DB) *PostgresSafetyRepo {
	return &PostgresSafetyRepo{db: db}
}

// IsBlocking はblockerIDがblockedIDをブロックしているかを返す。
func (r *PostgresSafetyRepo) IsBlocking(ctx context.Context, blockerID, blockedID string) (bool, error) {
	var blocking bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM user_blocks WHERE blocker_id = $1 AND blocked_id = $2
		 )`,
		blockerID, blockedID,
	).Scan(&blocking)
	if err != nil {
		return false, fmt.Errorf("ブロック関係の取得に失敗しました: %w", err)
	}
	return blocking, nil
}

// IsPostBlocked はstatus='blocked'の通報が存在する投稿かを返す。
func (r *PostgresSafetyRepo) IsPostBlocked(ctx context.Context, postID string) (bool, error) {
	var blocked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM post_reports WHERE post_id = $1 AND status = 'blocked'
		 )`,
		postID,
	).Scan(&blocked)
	if err != nil {
		return false, fmt.Errorf("投稿のモデレーション状態の取得に失敗しました: %w", err)
	}
	return blocked, nil
}

// CanViewProfile はviewerIDがownerIDのプロフィールを閲覧できるかを返す。
func (r *PostgresSafetyRepo) CanViewProfile(ctx context.Context, viewerID, ownerID string) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}

	var canView bool
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(
		     (SELECT visibility FROM profiles WHERE user_id = $2), 'public'
		 ) = 'public'
		 OR EXISTS (
		     SELECT 1 FROM follows
		     WHERE follower_id = $1 AND followee_id = $2 AND status = 'active'
		 )`,
		viewerID, ownerID,
	).Scan(&canView)
	if err != nil {
		return false, fmt.Errorf("プロフィール閲覧可否の取得に失敗しました: %w", err)
	}
	return canView, nil
}

// compile-time interface check
var _ BlockRepository = (*PostgresSafetyRepo)(nil)
var _ ModerationRepository = (*PostgresSafetyRepo)(nil)
var _ ProfileRepository = (*PostgresSafetyRepo)(nil)
