package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

func TestSearchExchanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Append(ctx, model.Exchange{Input: "hello there", Response: "Hi!", Category: "greeting"})
	s.Append(ctx, model.Exchange{Input: "how are you", Response: "I'm great!", Category: "wellbeing"})
	s.Append(ctx, model.Exchange{Input: "hello again", Response: "Hello!", Category: "greeting"})

	results, err := s.SearchExchanges(ctx, SearchParams{Query: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Input != "hello again" {
		t.Errorf("expected newest first, got %q", results[0].Input)
	}

	// Matches responses too
	results, _ = s.SearchExchanges(ctx, SearchParams{Query: "great"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	results, _ = s.SearchExchanges(ctx, SearchParams{Query: "", Category: "wellbeing"})
	if len(results) != 1 {
		t.Fatalf("expected 1 wellbeing result, got %d", len(results))
	}

	results, _ = s.SearchExchanges(ctx, SearchParams{Query: "javascript"})
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Append(ctx, model.Exchange{Input: "a", Response: "b", Category: "greeting"})
	s.Append(ctx, model.Exchange{Input: "c", Response: "d", Category: "greeting"})
	s.Append(ctx, model.Exchange{Input: "e", Response: "f", Category: "unknown"})
	s.AddKnowledge(ctx, "t", "i", "user")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Exchanges != 3 || stats.Facts != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if len(stats.Categories) != 2 || stats.Categories[0].Category != "greeting" || stats.Categories[0].Count != 2 {
		t.Fatalf("unexpected categories: %+v", stats.Categories)
	}
	if stats.OldestAt == nil || stats.NewestAt == nil {
		t.Fatal("expected oldest/newest timestamps")
	}
	if stats.DBSizeBytes == 0 {
		t.Fatal("expected non-zero db size")
	}
}

func TestStatsEmpty(t *testing.T) {
	s := newTestStore(t)
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Exchanges != 0 || stats.OldestAt != nil {
		t.Fatalf("unexpected stats for empty store: %+v", stats)
	}
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	s1, _ := NewSQLiteStore(filepath.Join(dir, "src.db"))
	defer s1.Close()
	ctx := context.Background()

	ts := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	s1.Append(ctx, model.Exchange{Timestamp: ts, Input: "a", Response: "alpha", Category: "x"})
	s1.Append(ctx, model.Exchange{Timestamp: ts.Add(time.Minute), Input: "b", Response: "beta", Category: "y"})

	exported, err := s1.ExportExchanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(exported) != 2 {
		t.Fatalf("expected 2 exported, got %d", len(exported))
	}

	s2, _ := NewSQLiteStore(filepath.Join(dir, "dst.db"))
	defer s2.Close()

	n, err := s2.ImportExchanges(ctx, exported)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 imported, got %d", n)
	}

	got, _ := s2.Recent(ctx, 10)
	if len(got) != 2 || got[0].Input != "a" || !got[0].Timestamp.Equal(ts) {
		t.Fatalf("unexpected import result: %+v", got)
	}
}

func TestImportAppliesRetention(t *testing.T) {
	s := newTestStore(t, WithRetention(Retention{Ceiling: 4, Floor: 2}))
	ctx := context.Background()

	var batch []model.Exchange
	for i := 0; i < 6; i++ {
		batch = append(batch, model.Exchange{Input: "x", Response: "y"})
	}
	if _, err := s.ImportExchanges(ctx, batch); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Fatalf("expected 2 after import compaction, got %d", n)
	}
}
