package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/accountlink/internal/model"
)

// PostgresLinkRepo はPostgreSQLのlinksテーブルを使用したリンクリポジトリ。
// discord_idとsteam_idにはそれぞれUNIQUE制約がある。
type PostgresLinkRepo struct {
	db *sql.DB
}

// NewPostgresLinkRepo はPostgresLinkRepoを生成する。
func NewPostgresLinkRepo(db *sql.DB) *PostgresLinkRepo {
	return &PostgresLinkRepo{db: db}
}

// Load はリンク一覧をposition順に取得する。
func (r *PostgresLinkRepo) Load(ctx context.Context) ([]model.LinkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT discord_id, discord_username, steam_id
		 FROM links
		 ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := []model.LinkRecord{}
	for rows.Next() {
		var l model.LinkRecord
		if err := rows.Scan(&l.DiscordID, &l.DiscordUsername, &l.SteamID); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}

	return links, nil
}

// Save はlinksテーブルの内容を同一トランザクション内で一覧全体に置き換える。
// 一意制約違反などで失敗した場合は何も変更しない。
func (r *PostgresLinkRepo) Save(ctx context.Context, links []model.LinkRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM links`); err != nil {
		return fmt.Errorf("failed to clear links: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO links (position, discord_id, discord_username, steam_id)
		 VALUES ($1, $2, $3, $4)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range links {
		if _, err := stmt.ExecContext(ctx, i, l.DiscordID, l.DiscordUsername, l.SteamID); err != nil {
			return fmt.Errorf("failed to insert link %s/%s: %w", l.DiscordID, l.SteamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ LinkRepository = (*PostgresLinkRepo)(nil)
