package dispatch

import (
	"context"
	"fmt"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/session"
)

// Predicate reports whether a handler claims the raw input.
type Predicate func(input string) bool

// Action produces the reply for a claimed input.
type Action func(ctx context.Context, input string, s *session.Session) (string, error)

// Handler is an external module offered input before the rule table.
// Required handlers run even when their module toggle is off.
type Handler struct {
	Name     string
	Category string
	Priority int
	Required bool
	Match    Predicate
	Act      Action
}

// HandlerError wraps a failure, or a recovered panic, from a handler.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string { return "handler " + e.Handler + ": " + e.Err.Error() }

func (e *HandlerError) Unwrap() error { return e.Err }

// invoke runs h against input, converting errors and panics into a
// HandlerError.
func invoke(ctx context.Context, h Handler, input string, s *session.Session) (claimed bool, text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			claimed, text = false, ""
			err = &HandlerError{Handler: h.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if !h.Match(input) {
		return false, "", nil
	}
	text, err = h.Act(ctx, input, s)
	if err != nil {
		return false, "", &HandlerError{Handler: h.Name, Err: err}
	}
	return true, text, nil
}
