// Package pagestore persists the content pages donations originate from.
package pagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// DB wraps the database connection. It implements domain.PageStore.
type DB struct {
	*sql.DB
}

// Open opens the page database at dbPath, creating the file and schema on
// first use.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	wrapper := &DB{db}
	if err := wrapper.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return wrapper, nil
}

func (db *DB) createTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			locale TEXT DEFAULT 'en-US',
			live BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_slug ON pages(slug)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w\nSQL: %s", err, table)
		}
	}
	return nil
}

// LookupLive returns the live page with the given id, or
// domain.ErrPageNotFound when the id is unknown or the page is unpublished.
func (db *DB) LookupLive(ctx context.Context, id int64) (*domain.Page, error) {
	var p domain.Page
	err := db.QueryRowContext(ctx, `
		SELECT id, title, slug, locale, live
		FROM pages
		WHERE id = ? AND live = 1
	`, id).Scan(&p.ID, &p.Title, &p.Slug, &p.Locale, &p.Live)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertPage inserts or updates a page record. The CMS export is the source
// of truth, so the row is replaced wholesale.
func (db *DB) UpsertPage(ctx context.Context, page *domain.Page) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO pages (id, title, slug, locale, live)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			slug = excluded.slug,
			locale = excluded.locale,
			live = excluded.live,
			updated_at = CURRENT_TIMESTAMP
	`, page.ID, page.Title, page.Slug, page.Locale, page.Live)
	return err
}

// SeedFromFile loads a JSON array of pages and upserts each one. Missing
// files are not an error so a fresh checkout can start with an empty
// catalog.
func (db *DB) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var pages []domain.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return 0, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i := range pages {
		if err := db.UpsertPage(ctx, &pages[i]); err != nil {
			return i, fmt.Errorf("failed to seed page %d: %w", pages[i].ID, err)
		}
	}
	return len(pages), nil
}
