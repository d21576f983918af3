// Package repository はリンク情報の永続化インターフェースと実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/accountlink/internal/model"
)

// LinkRepository はリンクコレクション全体の読み書きを行う永続化インターフェース。
// 部分更新は持たず、呼び出し側がLoad→変更→Saveの順で扱う。
type LinkRepository interface {
	// Load は保存済みのリンク一覧を挿入順で返す。
	Load(ctx context.Context) ([]model.LinkRecord, error)

	// Save はリンク一覧全体で保存内容を置き換える。
	Save(ctx context.Context, links []model.LinkRecord) error
}

// ErrorRecorder はストア操作の失敗を記録するインターフェース。
// metrics.Collectorの部分集合として定義する。
type ErrorRecorder interface {
	RecordStoreError(op string)
}

// nopRecorder は何も記録しないErrorRecorder。
type nopRecorder struct{}

func (nopRecorder) RecordStoreError(string) {}
