package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/config"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/dispatch"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestChatLoopStopsOnExitKeyword(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	ctx := context.Background()
	s := newTestStore(t)

	d, err := newDispatcher(ctx, s)
	if err != nil {
		t.Fatalf("newDispatcher: %v", err)
	}

	var out bytes.Buffer
	in := strings.NewReader("merhaba\n\nexit\nnever read\n")
	if err := chatLoop(ctx, d, in, &out, "Quantumia"); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 replies, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "> Quantumia: ") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "Please say something.") {
		t.Errorf("empty input reply = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "Görüşürüz!") {
		t.Errorf("farewell = %q", lines[2])
	}
	if d.State() != dispatch.StateShutdown {
		t.Errorf("state = %s", d.State())
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the greeting to be stored, got %d", n)
	}
}

func TestChatLoopClosesOnEOF(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	ctx := context.Background()
	s := newTestStore(t)

	d, err := newDispatcher(ctx, s)
	if err != nil {
		t.Fatalf("newDispatcher: %v", err)
	}
	var out bytes.Buffer
	if err := chatLoop(ctx, d, strings.NewReader("call me Ada"), &out, "Q"); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}
	if !strings.Contains(out.String(), "Q: Nice to meet you, Ada!") {
		t.Errorf("output = %q", out.String())
	}
	if d.State() != dispatch.StateShutdown {
		t.Errorf("EOF should shut down, state = %s", d.State())
	}

	p, err := s.LoadPreferences(ctx)
	if err != nil {
		t.Fatalf("load preferences: %v", err)
	}
	if p.DisplayName != "Ada" {
		t.Errorf("display name = %q, want Ada", p.DisplayName)
	}
}

func TestNewDispatcherMemoryOnly(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	d, err := newDispatcher(context.Background(), nil)
	if err != nil {
		t.Fatalf("newDispatcher: %v", err)
	}
	if !d.Degraded() {
		t.Error("nil store should start memory-only")
	}
	if got := d.HandleTurn(context.Background(), "remember sky is blue"); strings.HasPrefix(got, "Got it") {
		t.Errorf("teach handler should be absent without a store, got %q", got)
	}
}

func TestNewDispatcherUsesConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.ExitKeywords = []string{"stop"}
	c.Farewell = "ciao"
	c.Seed = 7
	useConfig(t, c)

	d, err := newDispatcher(context.Background(), nil)
	if err != nil {
		t.Fatalf("newDispatcher: %v", err)
	}
	reply, err := d.Turn(context.Background(), "exit")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if reply.Shutdown {
		t.Error("exit is no longer an exit keyword")
	}
	reply, _ = d.Turn(context.Background(), "STOP")
	if !reply.Shutdown || reply.Text != "ciao" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestNewDispatcherBadRulesFile(t *testing.T) {
	c := config.DefaultConfig()
	c.RulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	useConfig(t, c)

	if _, err := newDispatcher(context.Background(), nil); err == nil {
		t.Error("expected error for missing rules file")
	}
}
