package store

import (
	"context"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

// ExportExchanges returns every stored exchange, oldest first.
func (s *SQLiteStore) ExportExchanges(ctx context.Context) ([]model.Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+exchangeColumns+` FROM exchanges ORDER BY id`)
	if err != nil {
		return nil, storageErr("export", err)
	}
	out, err := collectExchanges(rows)
	if err != nil {
		return nil, storageErr("export", err)
	}
	return out, nil
}

// ImportExchanges appends exchanges from an export in one transaction,
// keeping their timestamps and assigning new IDs. Retention applies once at
// the end.
func (s *SQLiteStore) ImportExchanges(ctx context.Context, exchanges []model.Exchange) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("import", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO exchanges (run_id, created_at, input, response, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, storageErr("import", err)
	}
	defer stmt.Close()

	imported := 0
	for _, ex := range exchanges {
		category := ex.Category
		if category == "" {
			category = model.CategoryUnknown
		}
		if _, err := stmt.ExecContext(ctx, ex.RunID, formatTime(ex.Timestamp), ex.Input, ex.Response, category); err != nil {
			return 0, storageErr("import", err)
		}
		imported++
	}

	if _, err := s.compactTx(ctx, tx, false); err != nil {
		return 0, storageErr("import", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, storageErr("import", err)
	}
	return imported, nil
}
