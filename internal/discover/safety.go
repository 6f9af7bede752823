package discover

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/mealtrack/internal/model"
)

// defaultSafetyConcurrency は安全性チェックの最大並列数のデフォルト値。
const defaultSafetyConcurrency = 8

// BlockChecker はユーザー間のブロック関係を判定する。
type BlockChecker interface {
	IsBlocking(ctx context.Context, blockerID, blockedID string) (bool, error)
}

// PostModerator は投稿がモデレーションでブロックされているかを判定する。
type PostModerator interface {
	IsPostBlocked(ctx context.Context, postID string) (bool, error)
}

// ProfileVisibility はプロフィールの閲覧可否を判定する。
type ProfileVisibility interface {
	CanViewProfile(ctx context.Context, viewerID, ownerID string) (bool, error)
}

// noBlocks はブロック関係が存在しない前提のBlockChecker。
type noBlocks struct{}

func (noBlocks) IsBlocking(context.Context, string, string) (bool, error) { return false, nil }

// noModeration はモデレーション機能がない場合のPostModerator。
type noModeration struct{}

func (noModeration) IsPostBlocked(context.Context, string) (bool, error) { return false, nil }

// publicProfiles は全プロフィールを閲覧可とするProfileVisibility。
type publicProfiles struct{}

func (publicProfiles) CanViewProfile(context.Context, string, string) (bool, error) { return true, nil }

// SafetyFilter は閲覧者ごとのブロック関係・モデレーション・プロフィール公開範囲で
// 候補を除外する。
type SafetyFilter struct {
	blocks         BlockChecker
	moderation     PostModerator
	profiles       ProfileVisibility
	maxConcurrency int
}

// NewSafetyFilter はSafetyFilterを生成する。
// nilを渡した判定は常に通過する実装に置き換える。
// maxConcurrencyが0以下の場合はデフォルト値8を使用する。
func NewSafetyFilter(
	blocks BlockChecker,
	moderation PostModerator,
	profiles ProfileVisibility,
	maxConcurrency int,
) *SafetyFilter {
	if blocks == nil {
		blocks = noBlocks{}
	}
	if moderation == nil {
		moderation = noModeration{}
	}
	if profiles == nil {
		profiles = publicProfiles{}
	}
	if maxConcurrency <= 0 {
		maxConcurrency = defaultSafetyConcurrency
	}
	return &SafetyFilter{
		blocks:         blocks,
		moderation:     moderation,
		profiles:       profiles,
		maxConcurrency: maxConcurrency,
	}
}

// Filter は閲覧者に表示してよい候補だけを入力順のまま返す。
//
// いずれかの判定でエラーが発生した場合は、入力をそのまま返しエラーを添える（fail-open）。
// 呼び出し側はエラーを記録した上で返された候補を使い続けてよい。
func (f *SafetyFilter) Filter(
	ctx context.Context,
	viewerID string,
	candidates []model.Candidate,
) ([]model.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	checkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	allowed := make([]bool, len(candidates))

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, f.maxConcurrency)
	var wg sync.WaitGroup

	for i := range candidates {
		if checkCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			ok, err := f.allow(checkCtx, viewerID, candidates[i])
			if err != nil {
				fail(err)
				return
			}
			allowed[i] = ok
		}(i)
	}

	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return candidates, firstErr
	}

	filtered := make([]model.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if allowed[i] {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// allow は候補1件の判定を順に行い、最初に拒否した時点で打ち切る。
func (f *SafetyFilter) allow(ctx context.Context, viewerID string, c model.Candidate) (bool, error) {
	blocking, err := f.blocks.IsBlocking(ctx, viewerID, c.AuthorID)
	if err != nil {
		return false, fmt.Errorf("ブロック関係の確認に失敗しました: %w", err)
	}
	if blocking {
		return false, nil
	}

	blocked, err := f.blocks.IsBlocking(ctx, c.AuthorID, viewerID)
	if err != nil {
		return false, fmt.Errorf("ブロック関係の確認に失敗しました: %w", err)
	}
	if blocked {
		return false, nil
	}

	reported, err := f.moderation.IsPostBlocked(ctx, c.ID)
	if err != nil {
		return false, fmt.Errorf("モデレーション状態の確認に失敗しました: %w", err)
	}
	if reported {
		return false, nil
	}

	visible, err := f.profiles.CanViewProfile(ctx, viewerID, c.AuthorID)
	if err != nil {
		return false, fmt.Errorf("プロフィール閲覧可否の確認に失敗しました: %w", err)
	}
	return visible, nil
}
