package repository

import (
	"context"
	"sync"

	"github.com/hitoshi/accountlink/internal/model"
)

// MemoryLinkRepo はプロセス内メモリにリンク一覧を保持するリポジトリ。
// テストやファイルを残したくない環境で使う。
type MemoryLinkRepo struct {
	mu    sync.Mutex
	links []model.LinkRecord
	saves int
}

// NewMemoryLinkRepo は初期データ付きのMemoryLinkRepoを生成する。
func NewMemoryLinkRepo(initial ...model.LinkRecord) *MemoryLinkRepo {
	return &MemoryLinkRepo{links: append([]model.LinkRecord{}, initial...)}
}

// Load は保持している一覧のコピーを返す。
func (r *MemoryLinkRepo) Load(_ context.Context) ([]model.LinkRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.LinkRecord{}, r.links...), nil
}

// Save は一覧全体を置き換える。
func (r *MemoryLinkRepo) Save(_ context.Context, links []model.LinkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append([]model.LinkRecord{}, links...)
	r.saves++
	return nil
}

// SaveCount はSaveが呼ばれた回数を返す。
func (r *MemoryLinkRepo) SaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// compile-time interface check
var _ LinkRepository = (*MemoryLinkRepo)(nil)
