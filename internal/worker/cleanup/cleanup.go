// Package cleanup は保持期間を過ぎたデータの自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超過したDiscover操作イベントと、
// 期限切れのセッションを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultRetentionDays は操作イベントのデフォルト保持日数。
	DefaultRetentionDays = 90

	deleteInteractionsQuery = `DELETE FROM discover_interactions WHERE occurred_at < now() - $1::interval`
	deleteSessionsQuery     = `DELETE FROM sessions WHERE expires_at < now()`
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CleanupJob は保持期間を超過したデータの自動削除ジョブ。
// 冪等: 削除対象がない場合でもエラーにならない。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	RetentionDays int // 操作イベントの保持日数
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はデフォルトの90日を使う。
func NewCleanupJob(db Executor, logger *slog.Logger, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupJob{
		db:            db,
		logger:        logger,
		RetentionDays: retentionDays,
	}
}

// Run は操作イベントと期限切れセッションを削除する。
// 操作イベントの削除に失敗した場合もセッションの削除は試みる。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d days", j.RetentionDays)
	interactions, errInteractions := j.exec(ctx, "discover_interactions", deleteInteractionsQuery, interval)
	sessions, errSessions := j.exec(ctx, "sessions", deleteSessionsQuery)

	if errInteractions != nil {
		return errInteractions
	}
	if errSessions != nil {
		return errSessions
	}

	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_interactions", interactions),
		slog.Int64("deleted_sessions", sessions),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

func (j *CleanupJob) exec(ctx context.Context, table, query string, args ...any) (int64, error) {
	result, err := j.db.ExecContext(ctx, query, args...)
	if err != nil {
		j.logger.Error("クリーンアップの実行に失敗しました",
			slog.String("table", table),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("%sのクリーンアップに失敗: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%sの削除件数の取得に失敗: %w", table, err)
	}
	return deleted, nil
}

// RunDaily は起動直後に1回実行し、その後intervalごとに実行する。
// ctxがキャンセルされるまでブロックする。
func (j *CleanupJob) RunDaily(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
