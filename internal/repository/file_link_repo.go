package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hitoshi/accountlink/internal/model"
)

// FileLinkRepo はJSONファイル1つにリンク一覧を保存するリポジトリ。
//
// Loadは読み込みやパースに失敗しても空の一覧を返す。初回起動（ファイル未作成）と
// 破損ファイルは呼び出し側から区別できないため、破損時は警告ログを出す。
// Saveは毎回ファイル全体を書き換え、ロックは取らない。
type FileLinkRepo struct {
	path     string
	recorder ErrorRecorder
}

// NewFileLinkRepo はFileLinkRepoを生成する。recorderはnilでもよい。
func NewFileLinkRepo(path string, recorder ErrorRecorder) *FileLinkRepo {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &FileLinkRepo{path: path, recorder: recorder}
}

// Path は保存先ファイルのパスを返す。
func (r *FileLinkRepo) Path() string {
	return r.path
}

// Load は保存先ファイルを読み込む。
// どのような失敗でもエラーは返さず、空の一覧を返す。
func (r *FileLinkRepo) Load(_ context.Context) ([]model.LinkRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("links file does not exist yet", slog.String("path", r.path))
		} else {
			r.recorder.RecordStoreError("load")
			slog.Warn("failed to read links file, treating as empty",
				slog.String("path", r.path),
				slog.String("error", err.Error()),
			)
		}
		return []model.LinkRecord{}, nil
	}

	var links []model.LinkRecord
	if err := json.Unmarshal(data, &links); err != nil {
		r.recorder.RecordStoreError("load")
		slog.Warn("failed to parse links file, treating as empty",
			slog.String("path", r.path),
			slog.String("error", err.Error()),
		)
		return []model.LinkRecord{}, nil
	}
	if links == nil {
		links = []model.LinkRecord{}
	}

	return links, nil
}

// Save はリンク一覧を2スペースインデントのJSON配列として書き出す。
func (r *FileLinkRepo) Save(_ context.Context, links []model.LinkRecord) error {
	if links == nil {
		links = []model.LinkRecord{}
	}

	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		r.recorder.RecordStoreError("save")
		return fmt.Errorf("failed to encode links: %w", err)
	}

	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.recorder.RecordStoreError("save")
		return fmt.Errorf("failed to write links file: %w", err)
	}

	return nil
}

// compile-time interface check
var _ LinkRepository = (*FileLinkRepo)(nil)
