// Package handlers provides the built-in command handlers that the
// dispatcher consults before falling back to the rule table.
package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/dispatch"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/session"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/textnorm"
)

// Handler names double as module toggle keys.
const (
	NameName   = "name"
	NameToggle = "toggle"
	NameTeach  = "teach"
	NameRecall = "recall"
	NameClock  = "clock"
	NameRecap  = "recap"
)

// Knowledge is the part of the store the teach and recall handlers use.
type Knowledge interface {
	AddKnowledge(ctx context.Context, topic, information, source string) error
	QueryKnowledge(ctx context.Context, topic string) ([]string, error)
}

// Deps are the collaborators of the built-in handlers. Knowledge may be nil,
// in which case teach and recall are not registered.
type Deps struct {
	Knowledge Knowledge
	Now       func() time.Time
}

// Builtins returns the built-in handlers in priority order.
func Builtins(deps Deps) []dispatch.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	hs := []dispatch.Handler{
		{Name: NameName, Category: "preferences", Priority: 10, Required: true, Match: matchName, Act: actName},
		{Name: NameToggle, Category: "preferences", Priority: 20, Required: true, Match: matchToggle, Act: actToggle},
	}
	if deps.Knowledge != nil {
		k := deps.Knowledge
		hs = append(hs,
			dispatch.Handler{Name: NameTeach, Category: "knowledge", Priority: 30, Match: matchTeach, Act: teach(k)},
			dispatch.Handler{Name: NameRecall, Category: "knowledge", Priority: 40, Match: matchRecall, Act: recall(k)},
		)
	}
	hs = append(hs,
		dispatch.Handler{Name: NameClock, Category: "clock", Priority: 50, Match: matchClock, Act: clock(deps.Now)},
		dispatch.Handler{Name: NameRecap, Category: "recap", Priority: 60, Match: matchRecap, Act: actRecap},
	)
	return hs
}

// Register adds every built-in handler to d.
func Register(d *dispatch.Dispatcher, deps Deps) error {
	for _, h := range Builtins(deps) {
		if err := d.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// --- name ---

var nameRe = regexp.MustCompile(`(?i)^(?:change my name to|call me|my name is)\s+(.+?)[.!]*$`)

// "adımı Ada yap"
var nameTrRe = regexp.MustCompile(`(?i)^adımı\s+(.+?)\s+yap[.!]*$`)

func extractName(input string) string {
	in := strings.TrimSpace(input)
	if m := nameRe.FindStringSubmatch(in); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := nameTrRe.FindStringSubmatch(in); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func matchName(input string) bool { return extractName(input) != "" }

func actName(_ context.Context, input string, s *session.Session) (string, error) {
	name := extractName(input)
	if len([]rune(name)) > 40 {
		return "That name is a bit long. Try something shorter.", nil
	}
	s.SetDisplayName(name)
	return fmt.Sprintf("Nice to meet you, %s!", name), nil
}

// --- toggle ---

var (
	toggleRe = regexp.MustCompile(`(?i)^toggle\s+([\p{L}\p{N}_-]+)$`)
	moduleRe = regexp.MustCompile(`(?i)^(enable|disable)\s+module\s+([\p{L}\p{N}_-]+)$`)
)

func matchToggle(input string) bool {
	in := strings.TrimSpace(input)
	return toggleRe.MatchString(in) || moduleRe.MatchString(in)
}

func actToggle(_ context.Context, input string, s *session.Session) (string, error) {
	in := strings.TrimSpace(input)
	if m := moduleRe.FindStringSubmatch(in); m != nil {
		module := textnorm.Normalize(m[2])
		on := strings.EqualFold(m[1], "enable")
		if !on && (module == NameName || module == NameToggle) {
			return fmt.Sprintf("Module %s cannot be disabled.", module), nil
		}
		s.SetModule(module, on)
		return fmt.Sprintf("Module %s is now %s.", module, onOff(on)), nil
	}

	m := toggleRe.FindStringSubmatch(in)
	flag := textnorm.Normalize(m[1])
	if flag == "colors" || flag == "colours" {
		flag = model.FlagColors
	}
	on := !s.Flag(flag)
	s.SetFlag(flag, on)
	return fmt.Sprintf("%s is now %s.", flag, onOff(on)), nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// --- teach / recall ---

var (
	teachRe  = regexp.MustCompile(`(?i)^(?:remember|learn)\s+(?:that\s+)?(.+?)\s+(?:is|are|=)\s+(.+?)\.?$`)
	recallRe = regexp.MustCompile(`(?i)^(?:what do you know about|tell me about)\s+(.+?)\??$`)
)

var articleRe = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)

// topicOf trims a captured topic and drops a leading article, so "the
// weather" and "weather" file under the same topic.
func topicOf(s string) string {
	s = strings.TrimSpace(s)
	if t := strings.TrimSpace(articleRe.ReplaceAllString(s, "")); t != "" {
		return t
	}
	return s
}

func matchTeach(input string) bool { return teachRe.MatchString(strings.TrimSpace(input)) }

func teach(k Knowledge) dispatch.Action {
	return func(ctx context.Context, input string, s *session.Session) (string, error) {
		m := teachRe.FindStringSubmatch(strings.TrimSpace(input))
		topic, info := topicOf(m[1]), strings.TrimSpace(m[2])
		if err := k.AddKnowledge(ctx, topic, info, "user"); err != nil {
			return "", fmt.Errorf("add knowledge: %w", err)
		}
		return fmt.Sprintf("Got it, %s. %s: %s.", s.DisplayName(), topic, info), nil
	}
}

func matchRecall(input string) bool { return recallRe.MatchString(strings.TrimSpace(input)) }

func recall(k Knowledge) dispatch.Action {
	return func(ctx context.Context, input string, _ *session.Session) (string, error) {
		m := recallRe.FindStringSubmatch(strings.TrimSpace(input))
		topic := topicOf(m[1])
		facts, err := k.QueryKnowledge(ctx, topic)
		if err != nil {
			return "", fmt.Errorf("query knowledge: %w", err)
		}
		if len(facts) == 0 {
			return fmt.Sprintf("I don't know anything about %s yet.", topic), nil
		}
		return fmt.Sprintf("About %s: %s", topic, strings.Join(facts, "; ")), nil
	}
}

// --- clock ---

var clockPhrases = []string{"what time is it", "saat kaç", "what's the date", "what is the date", "what day is it", "bugün günlerden ne"}

func matchClock(input string) bool {
	norm := textnorm.Normalize(input)
	for _, p := range clockPhrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

func clock(now func() time.Time) dispatch.Action {
	return func(context.Context, string, *session.Session) (string, error) {
		t := now()
		return fmt.Sprintf("It is %s on %s.", t.Format("15:04"), t.Format("Monday, 2 January 2006")), nil
	}
}

// --- recap ---

var recapPhrases = []string{"what did we talk about", "recap", "konuşma geçmişi"}

func matchRecap(input string) bool {
	norm := textnorm.Normalize(input)
	for _, p := range recapPhrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

func actRecap(_ context.Context, _ string, s *session.Session) (string, error) {
	recent := s.Window()
	if len(recent) == 0 {
		return "We haven't talked about anything yet.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Our last %d exchange(s):", len(recent))
	for _, ex := range recent {
		fmt.Fprintf(&b, "\n- you: %s", ex.Input)
	}
	return b.String(), nil
}
