package discover

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/mealtrack/internal/model"
)

// cursorDelimiter はカーソル内のフィールド区切り文字。投稿IDに含まれてはならない。
const cursorDelimiter = "|"

var (
	// ErrInvalidCursor はカーソル文字列を解釈できない場合のエラー。
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrCursorDelimiter は投稿IDに区切り文字が含まれる場合のエラー。
	ErrCursorDelimiter = errors.New("post id contains cursor delimiter")
)

// Cursor はページネーション位置を表す。最後に返した候補の並び替えキーを持つ。
type Cursor struct {
	CreatedAt time.Time
	PostID    string
	RankScore float64
}

// CursorFor は候補の並び替えキーからカーソルを生成する。
func CursorFor(c model.Candidate) Cursor {
	return Cursor{CreatedAt: c.CreatedAt, PostID: c.ID, RankScore: c.RankScore}
}

// EncodeCursor はカーソルを不透明な文字列にエンコードする。
// 形式は base64url("created_at(RFC3339Nano)|post_id|rank_score")。
func EncodeCursor(c Cursor) (string, error) {
	if strings.Contains(c.PostID, cursorDelimiter) {
		return "", fmt.Errorf("%w: %q", ErrCursorDelimiter, c.PostID)
	}
	if math.IsNaN(c.RankScore) || math.IsInf(c.RankScore, 0) {
		return "", fmt.Errorf("%w: rank_score %v", ErrInvalidCursor, c.RankScore)
	}

	raw := strings.Join([]string{
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.PostID,
		strconv.FormatFloat(c.RankScore, 'g', -1, 64),
	}, cursorDelimiter)

	return base64.URLEncoding.EncodeToString([]byte(raw)), nil
}

// DecodeCursor はEncodeCursorで生成した文字列を復元する。
// 標準のbase64エンコーディングも受け付ける。
func DecodeCursor(s string) (Cursor, error) {
	decoded, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		decoded, err = base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
	}

	parts := strings.Split(string(decoded), cursorDelimiter)
	if len(parts) != 3 {
		return Cursor{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrInvalidCursor, len(parts))
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: created_at: %v", ErrInvalidCursor, err)
	}
	if parts[1] == "" {
		return Cursor{}, fmt.Errorf("%w: empty post id", ErrInvalidCursor)
	}
	score, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return Cursor{}, fmt.Errorf("%w: rank_score %q", ErrInvalidCursor, parts[2])
	}

	return Cursor{CreatedAt: createdAt.UTC(), PostID: parts[1], RankScore: score}, nil
}

// ApplyCursor はランキング順でカーソル位置より後ろにある候補だけを返す。
// rawが空またはデコードできない場合は入力をそのまま返す。
func ApplyCursor(candidates []model.Candidate, raw string) []model.Candidate {
	if raw == "" {
		return candidates
	}
	cur, err := DecodeCursor(raw)
	if err != nil {
		return candidates
	}
	return applyDecodedCursor(candidates, cur)
}

func applyDecodedCursor(candidates []model.Candidate, cur Cursor) []model.Candidate {
	pos := model.Candidate{ID: cur.PostID, CreatedAt: cur.CreatedAt, RankScore: cur.RankScore}

	remaining := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		// 再スコアで順位が下がってもカーソル対象自身は返さない
		if c.ID == cur.PostID {
			continue
		}
		if compareRank(pos, c) < 0 {
			remaining = append(remaining, c)
		}
	}
	return remaining
}

// Paginate は先頭limit件をページとして返す。
// 続きがある場合はページ末尾の候補から次カーソルを生成し、ない場合はnilを返す。
func Paginate(candidates []model.Candidate, limit int) ([]model.Candidate, *string, error) {
	if limit <= 0 {
		return []model.Candidate{}, nil, nil
	}
	if len(candidates) <= limit {
		return candidates, nil, nil
	}

	page := candidates[:limit]
	next, err := EncodeCursor(CursorFor(page[len(page)-1]))
	if err != nil {
		return nil, nil, fmt.Errorf("次カーソルの生成に失敗しました: %w", err)
	}
	return page, &next, nil
}
