// Package link はセッション上の2つの外部アカウントを1件のリンクレコードに照合する。
package link

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/accountlink/internal/model"
	"github.com/hitoshi/accountlink/internal/repository"
)

// Result は照合の結果を表す。
type Result string

const (
	// ResultSkipped はセッション断片が揃っておらず何もしなかったことを示す。
	ResultSkipped Result = "skipped"
	// ResultCreated は新しいレコードを追加したことを示す。
	ResultCreated Result = "created"
	// ResultUpdated は既存レコードを置き換えたことを示す。
	ResultUpdated Result = "updated"
)

// Recorder は照合結果を記録するインターフェース。
type Recorder interface {
	RecordReconcile(result string)
}

// Reconciler はリンクストアへの読み込み→変更→保存を直列化して実行する。
// 同一プロセス内の同時リクエストによる更新の消失を防ぐ。
type Reconciler struct {
	repo     repository.LinkRepository
	recorder Recorder

	mu sync.Mutex
}

// NewReconciler はReconcilerを生成する。recorderはnilでもよい。
func NewReconciler(repo repository.LinkRepository, recorder Recorder) *Reconciler {
	return &Reconciler{repo: repo, recorder: recorder}
}

// ReconcileIfComplete はUserとSteamの両方が揃っている場合のみリンクを保存する。
//
// 候補レコードのdiscordIdまたはsteamIdに一致する最初のレコード（保存順）を
// 候補で丸ごと置き換え、一致がなければ末尾に追加する。
// 置き換え後も他のレコードがどちらかのIDと衝突している場合、そのレコードは削除する。
// 同じ入力で何度呼んでも結果は同じになる。
func (r *Reconciler) ReconcileIfComplete(ctx context.Context, identity model.SessionIdentity) (Result, error) {
	if !identity.Complete() {
		r.record(ResultSkipped)
		return ResultSkipped, nil
	}

	candidate := model.NewLinkRecord(identity.User, identity.Steam)

	r.mu.Lock()
	defer r.mu.Unlock()

	links, err := r.repo.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load links: %w", err)
	}

	links, result := upsert(links, candidate)

	if err := r.repo.Save(ctx, links); err != nil {
		return "", fmt.Errorf("failed to save links: %w", err)
	}

	slog.Info("account link saved",
		slog.String("result", string(result)),
		slog.String("discord_id", candidate.DiscordID),
		slog.String("steam_id", candidate.SteamID),
		slog.Int("links", len(links)),
	)
	r.record(result)

	return result, nil
}

// upsert は候補を一覧に反映した新しい一覧を返す。
func upsert(links []model.LinkRecord, candidate model.LinkRecord) ([]model.LinkRecord, Result) {
	index := -1
	for i, l := range links {
		if collides(l, candidate) {
			index = i
			break
		}
	}

	if index < 0 {
		return append(links, candidate), ResultCreated
	}

	links[index] = candidate

	// 最初の一致より後ろに残る衝突レコードを取り除く
	kept := links[:index+1]
	for _, l := range links[index+1:] {
		if collides(l, candidate) {
			slog.Warn("removing link that conflicts with the updated link",
				slog.String("discord_id", l.DiscordID),
				slog.String("steam_id", l.SteamID),
				slog.String("kept_discord_id", candidate.DiscordID),
				slog.String("kept_steam_id", candidate.SteamID),
			)
			continue
		}
		kept = append(kept, l)
	}

	return kept, ResultUpdated
}

func collides(l, candidate model.LinkRecord) bool {
	return l.DiscordID == candidate.DiscordID || l.SteamID == candidate.SteamID
}

func (r *Reconciler) record(result Result) {
	if r.recorder != nil {
		r.recorder.RecordReconcile(string(result))
	}
}
