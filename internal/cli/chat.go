package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/dispatch"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/handlers"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/rules"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/session"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "say [text]",
		Short: "Run a single turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSay,
	}

	RootCmd.AddCommand(cmd)
}

// newDispatcher wires the rule table, session and built-in handlers around
// st. A nil st gives a memory-only dispatcher.
func newDispatcher(ctx context.Context, st *store.SQLiteStore) (*dispatch.Dispatcher, error) {
	table, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("rules loaded", zap.Int("entries", table.Len()))

	prefs := model.DefaultPreferences()
	var backing store.Store
	deps := handlers.Deps{Now: time.Now}
	if st != nil {
		backing = st
		deps.Knowledge = st
		if prefs, err = st.LoadPreferences(ctx); err != nil {
			logger.Warn("could not load preferences; using defaults", zap.Error(err))
			prefs = model.DefaultPreferences()
		}
	}

	sess := session.New(prefs, cfg.WindowSize, time.Now())
	opts := []dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithTexts(dispatch.Texts{
			EmptyInput: cfg.EmptyInputResponse,
			Farewell:   cfg.Farewell,
			Error:      cfg.ErrorResponse,
		}),
	}
	if len(cfg.ExitKeywords) > 0 {
		opts = append(opts, dispatch.WithExitKeywords(cfg.ExitKeywords...))
	}
	if cfg.Seed != 0 {
		opts = append(opts, dispatch.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}

	d := dispatch.New(table, backing, sess, opts...)
	if err := handlers.Register(d, deps); err != nil {
		return nil, err
	}
	return d, nil
}

// openDispatcher opens the store and builds a dispatcher on it. A store
// that cannot be opened leaves the conversation memory-only.
func openDispatcher(ctx context.Context) (*dispatch.Dispatcher, *store.SQLiteStore) {
	st, err := openStore()
	if err != nil {
		logger.Error("storage unavailable; continuing in memory-only mode", zap.Error(err))
		st = nil
	}
	d, err := newDispatcher(ctx, st)
	if err != nil {
		if st != nil {
			st.Close()
		}
		exitErr("start", err)
	}
	return d, st
}

func runChat(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	d, st := openDispatcher(ctx)
	if st != nil {
		defer st.Close()
	}

	if err := chatLoop(ctx, d, cmd.InOrStdin(), cmd.OutOrStdout(), cfg.BotName); err != nil {
		exitErr("chat", err)
	}
}

// chatLoop reads one turn per line until the dispatcher shuts down or in
// is exhausted. EOF closes the dispatcher.
func chatLoop(ctx context.Context, d *dispatch.Dispatcher, in io.Reader, out io.Writer, botName string) error {
	d.Start(ctx)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		reply, err := d.Turn(ctx, scanner.Text())
		if errors.Is(err, dispatch.ErrShutdown) {
			return nil
		}
		fmt.Fprintf(out, "%s: %s\n", botName, reply.Text)
		if reply.Shutdown {
			return nil
		}
	}
	fmt.Fprintln(out)
	if err := d.Close(ctx); err != nil {
		logger.Warn("close", zap.Error(err))
	}
	return scanner.Err()
}

func runSay(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	d, st := openDispatcher(ctx)
	if st != nil {
		defer st.Close()
	}

	reply, err := d.Turn(ctx, strings.Join(args, " "))
	if err != nil {
		exitErr("say", err)
	}
	if !reply.Shutdown {
		if err := d.Close(ctx); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}

	if formatFlag == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
		return
	}
	printJSON(cmd.OutOrStdout(), reply)
}
