package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPostgresCandidateRepo_ImplementsInterface(t *testing.T) {
	var _ CandidateRepository = (*PostgresCandidateRepo)(nil)
}

func TestNewPostgresCandidateRepo_Initializes(t *testing.T) {
	repo := NewPostgresCandidateRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// 公開範囲による事前フィルタが正しく適用されることを検証
func TestPostgresCandidateRepo_ListDiscoverCandidates_Visibility(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresCandidateRepo(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	viewer := insertUser(t, db)
	publicAuthor := insertUser(t, db)
	privateAuthor := insertUser(t, db)
	followedPrivate := insertUser(t, db)
	insertProfile(t, db, privateAuthor, "private")
	insertProfile(t, db, followedPrivate, "private")
	insertFollow(t, db, viewer, followedPrivate, "active")

	publicPost := insertPost(t, db, publicAuthor, "public", now.Add(-1*time.Hour))
	insertPost(t, db, publicAuthor, "private", now.Add(-2*time.Hour))
	insertPost(t, db, publicAuthor, "followers_only", now.Add(-3*time.Hour))
	insertPost(t, db, privateAuthor, "public", now.Add(-4*time.Hour))
	followersOnly := insertPost(t, db, followedPrivate, "followers_only", now.Add(-5*time.Hour))
	insertPost(t, db, publicAuthor, "public", now.Add(-10*24*time.Hour))

	got, err := repo.ListDiscoverCandidates(ctx, viewer, now.Add(-7*24*time.Hour), 50)
	if err != nil {
		t.Fatalf("ListDiscoverCandidates() error = %v", err)
	}

	want := []string{publicPost, followersOnly}
	if len(got) != len(want) {
		t.Fatalf("len(candidates) = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("candidates[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

// pendingのフォローでは非公開投稿が見えないことを検証
func TestPostgresCandidateRepo_ListDiscoverCandidates_PendingFollow(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresCandidateRepo(db)

	now := time.Now().UTC()
	viewer := insertUser(t, db)
	author := insertUser(t, db)
	insertFollow(t, db, viewer, author, "pending")
	insertPost(t, db, author, "followers_only", now.Add(-time.Hour))

	got, err := repo.ListDiscoverCandidates(context.Background(), viewer, now.Add(-24*time.Hour), 50)
	if err != nil {
		t.Fatalf("ListDiscoverCandidates() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(candidates) = %d, want 0", len(got))
	}
}

// いいね数・コメント数の集計と並び順を検証
func TestPostgresCandidateRepo_ListDiscoverCandidates_CountsAndOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresCandidateRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	viewer := insertUser(t, db)
	author := insertUser(t, db)
	liker := insertUser(t, db)

	older := insertPost(t, db, author, "public", now.Add(-2*time.Hour))
	newer := insertPost(t, db, author, "public", now.Add(-1*time.Hour))

	if _, err := db.Exec(`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2), ($1, $3)`,
		older, liker, viewer); err != nil {
		t.Fatalf("いいねの作成に失敗: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO post_comments (id, post_id, user_id, body) VALUES ($1, $2, $3, 'nice')`,
		uuid.NewString(), older, liker); err != nil {
		t.Fatalf("コメントの作成に失敗: %v", err)
	}

	got, err := repo.ListDiscoverCandidates(context.Background(), viewer, now.Add(-24*time.Hour), 1)
	if err != nil {
		t.Fatalf("ListDiscoverCandidates() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != newer {
		t.Fatalf("limit=1 should return newest post %q, got %+v", newer, got)
	}

	got, err = repo.ListDiscoverCandidates(context.Background(), viewer, now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("ListDiscoverCandidates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(candidates) = %d, want 2", len(got))
	}
	if got[1].LikesCount != 2 {
		t.Errorf("LikesCount = %d, want 2", got[1].LikesCount)
	}
	if got[1].CommentsCount != 1 {
		t.Errorf("CommentsCount = %d, want 1", got[1].CommentsCount)
	}
	if got[1].AuthorID != author {
		t.Errorf("AuthorID = %q, want %q", got[1].AuthorID, author)
	}
	if got[1].CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", got[1].CreatedAt.Location())
	}
}
