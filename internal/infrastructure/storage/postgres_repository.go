package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsForge/internal/domain"
	"NewsForge/internal/ports"
)

// PostgresRepository persists news items and the per-user vote gate.
type PostgresRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.NewsRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Migrate creates the news and users tables when they are absent.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS news (
			unique_id BIGSERIAL PRIMARY KEY,
			title     TEXT        NOT NULL,
			content   TEXT        NOT NULL,
			category  TEXT        NOT NULL,
			imageurl  TEXT,
			score     INTEGER     NOT NULL DEFAULT 0,
			date      DATE        NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			email     TEXT    PRIMARY KEY,
			has_voted BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}

	for _, statement := range statements {
		if _, err := r.db.ExecContext(ctx, statement); err != nil {
			return domain.NewStoreError("migrate", err)
		}
	}
	return nil
}

// Insert stores a new item and returns the store-assigned identifier. An
// empty image URL is stored as NULL so the sweep can find it.
func (r *PostgresRepository) Insert(ctx context.Context, item domain.NewsItem) (int64, error) {
	imageURL := sql.NullString{String: item.ImageURL, Valid: item.ImageURL != ""}

	query, args, err := r.sb.
		Insert("news").
		Columns("title", "content", "category", "imageurl", "score", "date").
		Values(item.Title, item.Body, string(item.Category), imageURL, item.Score, item.Date).
		Suffix("RETURNING unique_id").
		ToSql()
	if err != nil {
		return 0, domain.NewStoreError("insert", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, domain.NewStoreError("insert", err)
	}

	return id, nil
}

// SweepIncomplete deletes rows without a durable image URL.
func (r *PostgresRepository) SweepIncomplete(ctx context.Context) (int64, error) {
	query, args, err := r.sb.
		Delete("news").
		Where("imageurl IS NULL").
		ToSql()
	if err != nil {
		return 0, domain.NewStoreError("sweep", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, domain.NewStoreError("sweep", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, domain.NewStoreError("sweep", err)
	}

	return removed, nil
}

// ApplyVoteBatch adds every delta to its item's score and closes the user's
// gate, all within one transaction.
func (r *PostgresRepository) ApplyVoteBatch(ctx context.Context, userID string, votes []domain.Vote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStoreError("vote batch", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, vote := range votes {
		query, args, buildErr := r.sb.
			Update("news").
			Set("score", sq.Expr("score + ?", vote.Delta)).
			Where(sq.Eq{"unique_id": vote.ItemID}).
			ToSql()
		if buildErr != nil {
			return domain.NewStoreError("vote batch", buildErr)
		}

		result, execErr := tx.ExecContext(ctx, query, args...)
		if execErr != nil {
			return domain.NewStoreError("vote batch", execErr)
		}
		if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
			return domain.NewStoreError("vote batch", fmt.Errorf("item %d not found", vote.ItemID))
		}
	}

	query, args, err := r.sb.
		Update("users").
		Set("has_voted", true).
		Where(sq.Eq{"email": userID}).
		ToSql()
	if err != nil {
		return domain.NewStoreError("vote batch", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.NewStoreError("vote batch", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrUnknownVoter
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreError("vote batch", err)
	}

	return nil
}

// HasVoted reports the user's gate with a single indexed lookup.
func (r *PostgresRepository) HasVoted(ctx context.Context, userID string) (bool, error) {
	query, args, err := r.sb.
		Select("has_voted").
		From("users").
		Where(sq.Eq{"email": userID}).
		ToSql()
	if err != nil {
		return false, domain.NewStoreError("has voted", err)
	}

	var voted bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&voted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrUnknownVoter
		}
		return false, domain.NewStoreError("has voted", err)
	}

	return voted, nil
}

// ResetVotes reopens the gate for every registered user.
func (r *PostgresRepository) ResetVotes(ctx context.Context) error {
	query, args, err := r.sb.
		Update("users").
		Set("has_voted", false).
		ToSql()
	if err != nil {
		return domain.NewStoreError("reset votes", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.NewStoreError("reset votes", err)
	}

	return nil
}

// ListAll returns every item, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]domain.NewsItem, error) {
	return r.queryItems(ctx, r.selectNews().OrderBy("unique_id DESC"))
}

// Latest returns up to n most recent items, newest first.
func (r *PostgresRepository) Latest(ctx context.Context, n int) ([]domain.NewsItem, error) {
	if n <= 0 {
		return []domain.NewsItem{}, nil
	}
	return r.queryItems(ctx, r.selectNews().OrderBy("unique_id DESC").Limit(uint64(n)))
}

// TopByScore returns up to k items by descending score, newest first among
// equal scores.
func (r *PostgresRepository) TopByScore(ctx context.Context, k int) ([]domain.NewsItem, error) {
	if k <= 0 {
		return []domain.NewsItem{}, nil
	}
	return r.queryItems(ctx, r.selectNews().OrderBy("score DESC", "unique_id DESC").Limit(uint64(k)))
}

// selectNews is the base for every read path. Rows without a durable image
// are incomplete and must never surface through voting or archive reads, so
// the filter lives here rather than relying on the sweep having run.
func (r *PostgresRepository) selectNews() sq.SelectBuilder {
	return r.sb.
		Select("unique_id", "title", "content", "category", "imageurl", "score", "date").
		From("news").
		Where("imageurl IS NOT NULL")
}

func (r *PostgresRepository) queryItems(ctx context.Context, builder sq.SelectBuilder) ([]domain.NewsItem, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, domain.NewStoreError("query news", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.NewStoreError("query news", err)
	}
	defer rows.Close()

	items := []domain.NewsItem{}
	for rows.Next() {
		var (
			item     domain.NewsItem
			category string
			imageURL sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Title, &item.Body, &category, &imageURL, &item.Score, &item.Date); err != nil {
			return nil, domain.NewStoreError("scan news", err)
		}
		item.Category = domain.Category(category)
		item.ImageURL = imageURL.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate news", err)
	}

	return items, nil
}
