package session

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultRecentLimit caps the recent files list.
const DefaultRecentLimit = 20

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore persists editor session state: the recent files list and
// the set of open tabs, so the app can restore them on next launch.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	// Bootstrap schema_migrations table so we can track applied versions.
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

// TouchRecentFile inserts or refreshes a recent files entry and prunes
// the list beyond DefaultRecentLimit.
func (s *SQLiteStore) TouchRecentFile(ctx context.Context, file RecentFile) error {
	if strings.TrimSpace(file.Path) == "" {
		return fmt.Errorf("file path is required")
	}
	lastOpened := file.LastOpened.UTC()
	if lastOpened.IsZero() {
		lastOpened = time.Now().UTC()
	}
	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO recent_files (path, name, entry_count, last_opened_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			name=excluded.name,
			entry_count=excluded.entry_count,
			last_opened_at=excluded.last_opened_at`,
		file.Path,
		name,
		file.EntryCount,
		lastOpened,
	)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`DELETE FROM recent_files WHERE path NOT IN (
			SELECT path FROM recent_files ORDER BY last_opened_at DESC LIMIT ?
		)`,
		DefaultRecentLimit,
	)
	return err
}

// RecentFiles returns the recent files list, most recent first.
func (s *SQLiteStore) RecentFiles(ctx context.Context, limit int) ([]RecentFile, error) {
	if limit <= 0 || limit > DefaultRecentLimit {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT path, name, entry_count, last_opened_at
		 FROM recent_files
		 ORDER BY last_opened_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]RecentFile, 0)
	for rows.Next() {
		var item RecentFile
		if err := rows.Scan(&item.Path, &item.Name, &item.EntryCount, &item.LastOpened); err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// RemoveRecentFile drops one entry, for files that no longer exist.
func (s *SQLiteStore) RemoveRecentFile(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recent_files WHERE path = ?`, path)
	return err
}

// SaveOpenTabs replaces the stored session with the given tabs.
func (s *SQLiteStore) SaveOpenTabs(ctx context.Context, tabs []OpenTab) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM session_tabs`); err != nil {
		return err
	}
	for i, tab := range tabs {
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO session_tabs (position, path, active) VALUES (?, ?, ?)`,
			i,
			tab.Path,
			boolToInt(tab.Active),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadOpenTabs returns the stored session in tab-bar order.
func (s *SQLiteStore) LoadOpenTabs(ctx context.Context) ([]OpenTab, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT position, path, active FROM session_tabs ORDER BY position ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]OpenTab, 0)
	for rows.Next() {
		var item OpenTab
		var active int
		if err := rows.Scan(&item.Position, &item.Path, &active); err != nil {
			return nil, err
		}
		item.Active = active == 1
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
