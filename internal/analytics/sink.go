// Package analytics はDiscover操作イベントを分析基盤へ非同期に送信する。
package analytics

import (
	"context"
	"fmt"

	"github.com/hitoshi/mealtrack/internal/model"
	"github.com/hitoshi/mealtrack/internal/repository"
)

// Sink は操作イベントの送信先。
type Sink interface {
	Write(ctx context.Context, event *model.DiscoverInteraction) error
	Close() error
}

// PostgresSink は操作イベントをdiscover_interactionsテーブルに記録する。
type PostgresSink struct {
	repo repository.InteractionRepository
}

// NewPostgresSink はPostgresSinkを生成する。
func NewPostgresSink(repo repository.InteractionRepository) *PostgresSink {
	return &PostgresSink{repo: repo}
}

// Write は操作イベントを1件記録する。
func (s *PostgresSink) Write(ctx context.Context, event *model.DiscoverInteraction) error {
	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("操作イベントの書き込みに失敗しました: %w", err)
	}
	return nil
}

// Close は何もしない。DB接続はアプリケーション側で閉じる。
func (s *PostgresSink) Close() error { return nil }

// compile-time interface check
var _ Sink = (*PostgresSink)(nil)
