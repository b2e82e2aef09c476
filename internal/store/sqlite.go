package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/textnorm"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	retention Retention
	log       *zap.Logger

	// mu serializes writers; readers go straight to the pool.
	mu sync.Mutex
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithRetention sets the compaction bounds.
func WithRetention(r Retention) Option {
	return func(s *SQLiteStore) { s.retention = r }
}

// WithLogger sets the logger used for non-fatal diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLiteStore) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{
		path:      dbPath,
		retention: DefaultRetention(),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.retention.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("create db dir", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, storageErr("open db", err)
	}
	s.db = db

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

// Retention returns the configured compaction bounds.
func (s *SQLiteStore) Retention() Retention { return s.retention }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exchanges (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		input      TEXT NOT NULL,
		response   TEXT NOT NULL,
		category   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_category ON exchanges(category);

	CREATE TABLE IF NOT EXISTS preferences (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		data       TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS knowledge (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		topic       TEXT NOT NULL,
		topic_key   TEXT NOT NULL,
		information TEXT NOT NULL,
		source      TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_topic ON knowledge(topic_key);
	`
	_, err := s.db.Exec(schema)
	return err
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// Append records ex inside a transaction, so a crash leaves either the whole
// row or nothing. Compaction runs in the same transaction.
func (s *SQLiteStore) Append(ctx context.Context, ex model.Exchange) (model.Exchange, error) {
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now()
	}
	ex.Timestamp = ex.Timestamp.UTC()
	if ex.Category == "" {
		ex.Category = model.CategoryUnknown
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ex, storageErr("append", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO exchanges (run_id, created_at, input, response, category) VALUES (?, ?, ?, ?, ?)`,
		ex.RunID, formatTime(ex.Timestamp), ex.Input, ex.Response, ex.Category)
	if err != nil {
		return ex, storageErr("append", fmt.Errorf("insert exchange: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ex, storageErr("append", err)
	}
	ex.ID = id

	result, err := s.compactTx(ctx, tx, false)
	if err != nil {
		return ex, storageErr("append", fmt.Errorf("compact: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return ex, storageErr("append", err)
	}
	if result.Pruned() > 0 {
		s.log.Info("compacted exchanges",
			zap.Int("before", result.Before),
			zap.Int("after", result.After))
	}
	return ex, nil
}

// CompactResult reports the exchange count around a compaction.
type CompactResult struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Pruned returns how many exchanges were discarded.
func (r CompactResult) Pruned() int { return r.Before - r.After }

// Compact prunes to the floor when the ceiling is exceeded. With force, it
// prunes whenever more than Floor exchanges are stored.
func (s *SQLiteStore) Compact(ctx context.Context, force bool) (CompactResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CompactResult{}, storageErr("compact", err)
	}
	defer tx.Rollback()

	result, err := s.compactTx(ctx, tx, force)
	if err != nil {
		return result, storageErr("compact", err)
	}
	if err := tx.Commit(); err != nil {
		return result, storageErr("compact", err)
	}
	if result.Pruned() > 0 {
		s.log.Info("compacted exchanges",
			zap.Int("before", result.Before),
			zap.Int("after", result.After),
			zap.Bool("forced", force))
	}
	return result, nil
}

func (s *SQLiteStore) compactTx(ctx context.Context, tx *sql.Tx, force bool) (CompactResult, error) {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&count); err != nil {
		return CompactResult{}, err
	}
	result := CompactResult{Before: count, After: count}

	limit := s.retention.Ceiling
	if force {
		limit = s.retention.Floor
	}
	if count <= limit {
		return result, nil
	}

	// Everything at or below the (Floor+1)th newest id goes.
	_, err := tx.ExecContext(ctx,
		`DELETE FROM exchanges WHERE id <= (
			SELECT id FROM exchanges ORDER BY id DESC LIMIT 1 OFFSET ?
		)`, s.retention.Floor)
	if err != nil {
		return result, err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&result.After); err != nil {
		return result, err
	}
	return result, nil
}

// Count returns the number of stored exchanges.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&n); err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

// LoadPreferences returns defaults when nothing is stored. A corrupt record
// is logged and replaced by defaults rather than failing the session.
func (s *SQLiteStore) LoadPreferences(ctx context.Context) (model.Preferences, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM preferences WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultPreferences(), nil
	}
	if err != nil {
		return model.DefaultPreferences(), storageErr("load preferences", err)
	}

	var p model.Preferences
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		s.log.Warn("stored preferences are corrupt; using defaults", zap.Error(err))
		return model.DefaultPreferences(), nil
	}
	return p.Normalized(), nil
}

// SavePreferences overwrites the single preferences record.
func (s *SQLiteStore) SavePreferences(ctx context.Context, p model.Preferences) error {
	b, err := json.Marshal(p.Normalized())
	if err != nil {
		return storageErr("save preferences", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO preferences (id, data, updated_at) VALUES (1, ?, ?)`,
		string(b), formatTime(time.Now()))
	return storageErr("save preferences", err)
}

// AddKnowledge appends a fact under topic.
func (s *SQLiteStore) AddKnowledge(ctx context.Context, topic, information, source string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return fmt.Errorf("topic is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge (topic, topic_key, information, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		topic, textnorm.Normalize(topic), information, source, formatTime(time.Now()))
	return storageErr("add knowledge", err)
}

// QueryKnowledge matches topic as a case-insensitive substring of stored
// topics. A blank topic matches nothing.
func (s *SQLiteStore) QueryKnowledge(ctx context.Context, topic string) ([]string, error) {
	facts, err := s.QueryFacts(ctx, topic, MaxKnowledgeResults)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.Information)
	}
	return out, nil
}

// QueryFacts is QueryKnowledge returning full records.
func (s *SQLiteStore) QueryFacts(ctx context.Context, topic string, limit int) ([]model.Fact, error) {
	key := textnorm.Normalize(topic)
	if key == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = MaxKnowledgeResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, information, source, created_at FROM knowledge
		 WHERE instr(topic_key, ?) > 0
		 ORDER BY id DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, storageErr("query knowledge", err)
	}
	defer rows.Close()

	var facts []model.Fact
	for rows.Next() {
		var f model.Fact
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Topic, &f.Information, &f.Source, &createdAt); err != nil {
			return nil, storageErr("query knowledge", err)
		}
		f.CreatedAt = parseTime(createdAt)
		facts = append(facts, f)
	}
	return facts, storageErr("query knowledge", rows.Err())
}

// Flush checkpoints the write-ahead log into the database file.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	return storageErr("flush", err)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const exchangeColumns = `id, run_id, created_at, input, response, category`

func scanExchange(row scanner) (model.Exchange, error) {
	var ex model.Exchange
	var createdAt string
	if err := row.Scan(&ex.ID, &ex.RunID, &createdAt, &ex.Input, &ex.Response, &ex.Category); err != nil {
		return ex, err
	}
	ex.Timestamp = parseTime(createdAt)
	return ex, nil
}

func collectExchanges(rows *sql.Rows) ([]model.Exchange, error) {
	defer rows.Close()
	var out []model.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}
