package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/mealtrack/internal/model"
)

// PostgresInteractionRepo はPostgreSQLを使用したDiscover操作イベントリポジトリ。
type PostgresInteractionRepo struct {
	db *sql.DB
}

// NewPostgresInteractionRepo はPostgresInteractionRepoを生成する。
func NewPostgresInteractionRepo(db *sql.DB) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{db: db}
}

// Insert は操作イベントを1件記録する。同一IDの再送は無視する。
func (r *PostgresInteractionRepo) Insert(ctx context.Context, it *model.DiscoverInteraction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO discover_interactions
		     (id, user_id, post_id, action, surface, variant, request_id, rank_score, reason, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		it.ID, it.UserID, it.PostID, string(it.Action), string(it.Surface),
		it.Variant, it.RequestID, it.RankScore, string(it.Reason), it.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("Discover操作イベントの記録に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ InteractionRepository = (*PostgresInteractionRepo)(nil)
