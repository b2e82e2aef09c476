package store

import (
	"context"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

// SearchParams holds parameters for searching exchanges.
type SearchParams struct {
	Query    string
	Category string
	Limit    int
}

// Recent returns up to n most recent exchanges, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]model.Exchange, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exchangeColumns+` FROM exchanges ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, storageErr("recent", err)
	}
	out, err := collectExchanges(rows)
	if err != nil {
		return nil, storageErr("recent", err)
	}

	// Oldest -> newest
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SearchExchanges finds exchanges whose input or response contains the
// query, newest first.
func (s *SQLiteStore) SearchExchanges(ctx context.Context, p SearchParams) ([]model.Exchange, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	query := "%" + p.Query + "%"
	sql := `SELECT ` + exchangeColumns + ` FROM exchanges
		WHERE (input LIKE ? OR response LIKE ?)`
	args := []interface{}{query, query}
	if p.Category != "" {
		sql += ` AND category = ?`
		args = append(args, p.Category)
	}
	sql += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, storageErr("search", err)
	}
	out, err := collectExchanges(rows)
	if err != nil {
		return nil, storageErr("search", err)
	}
	return out, nil
}
