package store

import (
	"context"
	"os"
	"time"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string          `json:"db_path"`
	DBSizeBytes int64           `json:"db_size_bytes"`
	Exchanges   int             `json:"exchanges"`
	Facts       int             `json:"facts"`
	Retention   Retention       `json:"retention"`
	OldestAt    *time.Time      `json:"oldest_at,omitempty"`
	NewestAt    *time.Time      `json:"newest_at,omitempty"`
	Categories  []CategoryStats `json:"categories"`
}

// CategoryStats holds per-category exchange counts.
type CategoryStats struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path, Retention: s.retention}

	// DB file size
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&st.Exchanges); err != nil {
		return st, storageErr("stats", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge`).Scan(&st.Facts); err != nil {
		return st, storageErr("stats", err)
	}

	if st.Exchanges > 0 {
		var oldest, newest string
		err := s.db.QueryRowContext(ctx,
			`SELECT (SELECT created_at FROM exchanges ORDER BY id ASC LIMIT 1),
			        (SELECT created_at FROM exchanges ORDER BY id DESC LIMIT 1)`).Scan(&oldest, &newest)
		if err != nil {
			return st, storageErr("stats", err)
		}
		o, n := parseTime(oldest), parseTime(newest)
		st.OldestAt, st.NewestAt = &o, &n
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS cnt
		FROM exchanges
		GROUP BY category ORDER BY cnt DESC, category ASC`)
	if err != nil {
		return st, storageErr("stats", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c CategoryStats
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return st, storageErr("stats", err)
		}
		st.Categories = append(st.Categories, c)
	}

	return st, storageErr("stats", rows.Err())
}
