package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLiteCache implements Cache on SQLite.
type SQLiteCache struct {
	db *sql.DB
}

var _ Cache = (*SQLiteCache)(nil)

// NewSQLiteCache opens the cache at dbPath. An empty path or ":memory:" keeps everything in
// memory for the life of the process; a file path enables WAL and creates parent directories.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dbPath == "" {
		dbPath = MemoryDSN
	}
	inMemory := dbPath == MemoryDSN
	if !inMemory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS extractions (
		download_url TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		text_length INTEGER NOT NULL,
		extracted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// GetText returns the cached text for downloadURL.
func (s *SQLiteCache) GetText(ctx context.Context, downloadURL string) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		`SELECT text FROM extractions WHERE download_url = ?`, downloadURL).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get extraction: %w", err)
	}
	return text, true, nil
}

// PutText stores or replaces the text for downloadURL.
func (s *SQLiteCache) PutText(ctx context.Context, downloadURL, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (download_url, text, text_length) VALUES (?, ?, ?)
		 ON CONFLICT(download_url) DO UPDATE SET text = excluded.text,
		 text_length = excluded.text_length, extracted_at = CURRENT_TIMESTAMP`,
		downloadURL, text, utf8.RuneCountInString(text))
	if err != nil {
		return fmt.Errorf("put extraction: %w", err)
	}
	return nil
}

// Delete removes the entry for downloadURL.
func (s *SQLiteCache) Delete(ctx context.Context, downloadURL string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE download_url = ?`, downloadURL)
	return err
}

// Count returns the number of cached documents.
func (s *SQLiteCache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extractions`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
