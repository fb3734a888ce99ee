package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ironpulse/clubsite/internal/api"
	"github.com/ironpulse/clubsite/internal/logger"
	"github.com/ironpulse/clubsite/internal/models"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements api.Store on a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

var _ api.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB, log *logger.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = logger.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Open opens (creating if needed) the database at path, applies migrations
// from migrationsDir or the embedded set, and returns the store.
func Open(ctx context.Context, path, migrationsDir string, log *logger.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := RunMigrations(ctx, sqlDB, migrationsDir); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	st, err := NewSQLiteStore(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t.UTC()
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// decodeIDs reads a JSON id list; "" and "null" are an empty list.
func decodeIDs(v string) ([]string, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "null" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// affected reports whether an UPDATE touched a row.
func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func closeRows(rows *sql.Rows, log *logger.Logger, op string) {
	if err := rows.Close(); err != nil {
		log.Warn("sqlite store: close rows", "op", op, "error", err)
	}
}

// --- settings & audit ---

func (s *SQLiteStore) GetSettings(ctx context.Context) (*models.SiteSettings, error) {
	var data, updated string
	err := s.db.QueryRowContext(ctx, `SELECT data, updated_at FROM site_settings WHERE id = 1`).Scan(&data, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st models.SiteSettings
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decode site settings: %w", err)
	}
	st.UpdatedAt = parseTime(updated)
	return &st, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, st *models.SiteSettings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode site settings: %w", err)
	}
	ts := st.UpdatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO site_settings (id, data, updated_at) VALUES (1, ?, ?)
  ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), formatTime(ts))
	return err
}

// AddAudit is best effort: a failed insert is logged, never surfaced.
func (s *SQLiteStore) AddAudit(ctx context.Context, e models.AuditEntry) {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO audit_log (ts, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		formatTime(ts), e.Actor, e.Action, e.Target, e.Note)
	if err != nil {
		s.log.Warn("sqlite store: audit not recorded", "action", e.Action, "target", e.Target, "error", err)
	}
}

// ListAudit returns the newest entries first; limit <= 0 means all.
func (s *SQLiteStore) ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT ts, actor, action, target, note FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "ListAudit")
	out := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		var ts string
		if err := rows.Scan(&ts, &e.Actor, &e.Action, &e.Target, &e.Note); err != nil {
			return nil, err
		}
		e.Time = parseTime(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
