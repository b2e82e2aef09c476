// Package dispatch runs one conversation turn at a time: it offers input to
// registered handlers, falls back to the rule table, and records the
// exchange in the session store.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/respond"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/rules"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/session"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/textnorm"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/store"
)

// State is the dispatcher's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateDispatching
	StatePersisting
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateDispatching:
		return "dispatching"
	case StatePersisting:
		return "persisting"
	case StateShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CategoryEmpty tags the reply to blank input. Such turns are never stored.
const CategoryEmpty = "empty"

// ErrShutdown is returned by Turn once the dispatcher has shut down.
var ErrShutdown = errors.New("dispatcher is shut down")

// Texts are the canned replies the dispatcher produces itself.
type Texts struct {
	EmptyInput string
	Farewell   string
	Error      string
}

// DefaultTexts returns the built-in canned replies.
func DefaultTexts() Texts {
	return Texts{
		EmptyInput: "Please say something.",
		Farewell:   "Görüşürüz!",
		Error:      "An error occurred while handling that. Please try again.",
	}
}

// DefaultExitKeywords end the session when entered on their own.
var DefaultExitKeywords = []string{"çık", "exit", "quit", "bye"}

// Reply is the outcome of one turn.
type Reply struct {
	Text       string `json:"text"`
	Category   string `json:"category"`
	ExchangeID int64  `json:"exchange_id,omitempty"`
	Shutdown   bool   `json:"shutdown,omitempty"`
}

// Dispatcher composes matcher, selector and store into the turn pipeline.
// Turns are serialized.
type Dispatcher struct {
	table    *rules.Table
	selector *respond.Selector
	store    store.Store
	sess     *session.Session

	rng   respond.Rand
	now   func() time.Time
	log   *zap.Logger
	texts Texts
	exit  map[string]bool

	mu       sync.Mutex
	handlers []Handler
	state    State
	degraded bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRand sets the random source used by the selector.
func WithRand(r respond.Rand) Option {
	return func(d *Dispatcher) { d.rng = r }
}

// WithClock sets the time source for exchange timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithTexts overrides canned replies. Empty fields keep their defaults.
func WithTexts(t Texts) Option {
	return func(d *Dispatcher) {
		if t.EmptyInput != "" {
			d.texts.EmptyInput = t.EmptyInput
		}
		if t.Farewell != "" {
			d.texts.Farewell = t.Farewell
		}
		if t.Error != "" {
			d.texts.Error = t.Error
		}
	}
}

// WithExitKeywords replaces the exit keyword set.
func WithExitKeywords(words ...string) Option {
	return func(d *Dispatcher) {
		d.exit = make(map[string]bool, len(words))
		for _, w := range words {
			if n := textnorm.Normalize(w); n != "" {
				d.exit[n] = true
			}
		}
	}
}

// New returns an idle dispatcher. st may be nil for a memory-only session.
func New(table *rules.Table, st store.Store, sess *session.Session, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		table:    table,
		selector: respond.NewSelector(table.Fallback()),
		store:    st,
		sess:     sess,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		log:      zap.NewNop(),
		texts:    DefaultTexts(),
		state:    StateIdle,
		degraded: st == nil,
	}
	WithExitKeywords(DefaultExitKeywords...)(d)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Session returns the session the dispatcher operates on.
func (d *Dispatcher) Session() *session.Session { return d.sess }

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Degraded reports whether the dispatcher stopped writing to the store
// after a storage failure.
func (d *Dispatcher) Degraded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.degraded
}

// Register adds a handler. Handlers run in ascending priority; equal
// priorities keep registration order.
func (d *Dispatcher) Register(h Handler) error {
	if strings.TrimSpace(h.Name) == "" {
		return errors.New("handler name is required")
	}
	if h.Match == nil || h.Act == nil {
		return fmt.Errorf("handler %s: match and act are required", h.Name)
	}
	if h.Category == "" {
		h.Category = h.Name
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
	sort.SliceStable(d.handlers, func(i, j int) bool {
		return d.handlers[i].Priority < d.handlers[j].Priority
	})
	return nil
}

// RegisterHandler registers an anonymous handler from a predicate and an
// action.
func (d *Dispatcher) RegisterHandler(match Predicate, act Action, priority int) error {
	d.mu.Lock()
	name := fmt.Sprintf("handler-%d", len(d.handlers)+1)
	d.mu.Unlock()
	return d.Register(Handler{Name: name, Category: name, Priority: priority, Match: match, Act: act})
}

// Start moves an idle dispatcher to awaiting input and primes the session
// window from the store. It is called implicitly by the first turn.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.startLocked(ctx)
}

func (d *Dispatcher) startLocked(ctx context.Context) {
	if d.state != StateIdle {
		return
	}
	if d.store != nil {
		recent, err := d.store.Recent(ctx, d.sess.Capacity())
		if err != nil {
			d.log.Warn("could not load recent exchanges", zap.Error(err))
		}
		for _, ex := range recent {
			d.sess.Remember(ex)
		}
	}
	d.state = StateAwaitingInput
}

// HandleTurn runs one turn and returns only the reply text.
func (d *Dispatcher) HandleTurn(ctx context.Context, raw string) string {
	reply, err := d.Turn(ctx, raw)
	if errors.Is(err, ErrShutdown) {
		return d.texts.Farewell
	}
	return reply.Text
}

// Turn processes one line of input. Every non-blank input gets a reply even
// when handlers or storage fail; the only error is ErrShutdown.
func (d *Dispatcher) Turn(ctx context.Context, raw string) (Reply, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateShutdown {
		return Reply{}, ErrShutdown
	}
	d.startLocked(ctx)

	norm := textnorm.Normalize(raw)
	if norm == "" {
		return Reply{Text: d.texts.EmptyInput, Category: CategoryEmpty}, nil
	}

	if d.exit[norm] {
		d.shutdownLocked(ctx)
		return Reply{Text: d.texts.Farewell, Category: model.CategoryExit, Shutdown: true}, nil
	}

	d.state = StateDispatching
	text, category, handled := d.runHandlers(ctx, raw)
	if !handled {
		text, category = d.respond(raw)
	}

	d.state = StatePersisting
	ex := d.persist(ctx, model.Exchange{
		RunID:     d.sess.RunID,
		Timestamp: d.now().UTC(),
		Input:     raw,
		Response:  text,
		Category:  category,
	})
	d.sess.Remember(ex)
	d.savePreferencesLocked(ctx, false)

	d.state = StateAwaitingInput
	return Reply{Text: text, Category: category, ExchangeID: ex.ID}, nil
}

func (d *Dispatcher) respond(raw string) (string, string) {
	entry, ok := d.table.Match(raw)
	if !ok {
		return d.selector.Select(nil, d.sess, d.rng), model.CategoryUnknown
	}
	d.sess.SetMood(entry.Mood)
	return d.selector.Select(&entry, d.sess, d.rng), entry.Category
}

func (d *Dispatcher) runHandlers(ctx context.Context, raw string) (string, string, bool) {
	for _, h := range d.handlers {
		if !h.Required && !d.sess.ModuleEnabled(h.Name) {
			continue
		}
		claimed, text, err := invoke(ctx, h, raw, d.sess)
		if err != nil {
			d.log.Error("handler failed",
				zap.String("handler", h.Name),
				zap.String("input", raw),
				zap.Error(err))
			return d.texts.Error, model.CategoryError, true
		}
		if claimed {
			return text, h.Category, true
		}
	}
	return "", "", false
}

// persist appends ex, switching to memory-only mode on the first storage
// failure.
func (d *Dispatcher) persist(ctx context.Context, ex model.Exchange) model.Exchange {
	if d.degraded {
		return ex
	}
	stored, err := d.store.Append(ctx, ex)
	if err != nil {
		d.enterDegraded("append", err)
		return ex
	}
	return stored
}

func (d *Dispatcher) savePreferencesLocked(ctx context.Context, force bool) {
	if d.degraded || (!force && !d.sess.Dirty()) {
		return
	}
	if err := d.store.SavePreferences(ctx, d.sess.Preferences()); err != nil {
		d.enterDegraded("save preferences", err)
		return
	}
	d.sess.ClearDirty()
}

func (d *Dispatcher) enterDegraded(op string, err error) {
	d.degraded = true
	d.log.Error("storage failure; continuing in memory-only mode",
		zap.String("op", op),
		zap.Error(err))
}

// Close persists preferences, flushes the store and shuts the dispatcher
// down. It is safe to call more than once. The store itself stays open.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdownLocked(ctx)
}

func (d *Dispatcher) shutdownLocked(ctx context.Context) error {
	if d.state == StateShutdown {
		return nil
	}
	d.state = StateShutdown
	if d.degraded {
		return nil
	}

	var errs []error
	if err := d.store.SavePreferences(ctx, d.sess.Preferences()); err != nil {
		errs = append(errs, err)
	} else {
		d.sess.ClearDirty()
	}
	if err := d.store.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	err := errors.Join(errs...)
	if err != nil {
		d.log.Error("shutdown flush failed", zap.Error(err))
	}
	return err
}
