package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
)

// PostgresCandidateRepo はPostgreSQLを使用したDiscover候補リポジトリ。
type PostgresCandidateRepo struct {
	db *sql.DB
}

// NewPostgresCandidateRepo はPostgresCandidateRepoを生成する。
func NewPostgresCandidateRepo(db *sql.DB) *PostgresCandidateRepo {
	return &PostgresCandidateRepo{db: db}
}

// listDiscoverCandidatesQuery はDiscover候補取得のクエリ。
// $1: viewer_id, $2: since, $3: limit
//
// 並び順の id ASC はScorerの同点時タイブレーク（post_id昇順）と一致させている。
const listDiscoverCandidatesQuery = `
	SELECT p.id, p.user_id, p.text, p.created_at,
	       (SELECT count(*) FROM post_likes l WHERE l.post_id = p.id) AS likes_count,
	       (SELECT count(*) FROM post_comments c WHERE c.post_id = p.id) AS comments_count
	FROM posts p
	LEFT JOIN profiles pr ON pr.user_id = p.user_id
	WHERE p.created_at >= $2
	  AND p.visibility <> 'private'
	  AND (
	        (p.visibility = 'public' AND COALESCE(pr.visibility, 'public') = 'public')
	        OR EXISTS (
	            SELECT 1 FROM follows f
	            WHERE f.follower_id = $1
	              AND f.followee_id = p.user_id
	              AND f.status = 'active'
	        )
	  )
	ORDER BY p.created_at DESC, p.id ASC
	LIMIT $3`

// ListDiscoverCandidates はsince以降に作成された公開範囲内の投稿を取得する。
func (r *PostgresCandidateRepo) ListDiscoverCandidates(
	ctx context.Context,
	viewerID string,
	since time.Time,
	limit int,
) ([]model.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, listDiscoverCandidatesQuery, viewerID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("Discover候補の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	candidates := make([]model.Candidate, 0, limit)
	for rows.Next() {
		var c model.Candidate
		var text sql.NullString
		if err := rows.Scan(
			&c.ID, &c.AuthorID, &text, &c.CreatedAt,
			&c.LikesCount, &c.CommentsCount,
		); err != nil {
			return nil, fmt.Errorf("Discover候補の行読み取りに失敗しました: %w", err)
		}
		c.Text = nullStringValue(text)
		c.CreatedAt = c.CreatedAt.UTC()
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Discover候補の走査に失敗しました: %w", err)
	}

	return candidates, nil
}

// compile-time interface check
var _ CandidateRepository = (*PostgresCandidateRepo)(nil)
