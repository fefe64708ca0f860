package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenDB opens a PostgreSQL connection pool through the pgx stdlib driver.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Validate connectivity immediately.
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// PostgresStore is the DocumentStore backed by the uploads and documents
// tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// SaveUpload inserts the upload row and its documents in one transaction.
func (s *PostgresStore) SaveUpload(ctx context.Context, u Upload, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO uploads (id, object_key, orig_name, content_type, size_bytes, sha256_hex)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.ObjectKey, u.OrigName, u.ContentType, u.SizeBytes, u.SHA256Hex)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (upload_id, title, content) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare document insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, u.ID, d.Title, d.Content); err != nil {
			return fmt.Errorf("insert document %q: %w", d.Title, err)
		}
	}

	return tx.Commit()
}

// Search ranks documents against a websearch-style query.
func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.title,
		       ts_headline('english', d.content, q, 'StartSel=*, StopSel=*, MaxWords=35, MinWords=15, MaxFragments=1'),
		       ts_rank(d.search_tsv, q) AS rank
		FROM documents d, websearch_to_tsquery('english', $1) q
		WHERE d.search_tsv @@ q
		ORDER BY rank DESC, d.id
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]SearchHit, 0, limit)
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Title, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Ping checks the pool can reach Postgres.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
