package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/dispatch"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/rules"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/session"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/textnorm"
)

type fakeKnowledge struct {
	facts map[string][]string
	err   error
}

func (f *fakeKnowledge) AddKnowledge(_ context.Context, topic, information, _ string) error {
	if f.err != nil {
		return f.err
	}
	if f.facts == nil {
		f.facts = map[string][]string{}
	}
	key := textnorm.Normalize(topic)
	f.facts[key] = append([]string{information}, f.facts[key]...)
	return nil
}

func (f *fakeKnowledge) QueryKnowledge(_ context.Context, topic string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.facts[textnorm.Normalize(topic)], nil
}

type zeroRand struct{}

func (zeroRand) Intn(int) int { return 0 }

var now = time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)

func setup(t *testing.T, k Knowledge) *dispatch.Dispatcher {
	t.Helper()
	sess := session.New(model.DefaultPreferences(), 5, now)
	d := dispatch.New(rules.Default(), nil, sess, dispatch.WithRand(zeroRand{}), dispatch.WithTexts(dispatch.Texts{Error: "oops"}))
	require.NoError(t, Register(d, Deps{Knowledge: k, Now: func() time.Time { return now }}))
	return d
}

func TestNameChange(t *testing.T) {
	ctx := context.Background()
	for _, in := range []string{"change my name to Ada", "Call me Ada!", "my name is Ada", "adımı Ada yap"} {
		d := setup(t, nil)
		reply, err := d.Turn(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "Nice to meet you, Ada!", reply.Text, "input %q", in)
		assert.Equal(t, "preferences", reply.Category)
		assert.Equal(t, "Ada", d.Session().DisplayName())
	}
}

func TestNameTooLong(t *testing.T) {
	d := setup(t, nil)
	d.HandleTurn(context.Background(), "call me "+strings.Repeat("a", 41))
	assert.Equal(t, model.DefaultDisplayName, d.Session().DisplayName())
}

func TestToggleFlag(t *testing.T) {
	d := setup(t, nil)
	ctx := context.Background()

	assert.Equal(t, "colors_enabled is now on.", d.HandleTurn(ctx, "toggle colors"))
	assert.True(t, d.Session().Flag(model.FlagColors))
	assert.Equal(t, "colors_enabled is now off.", d.HandleTurn(ctx, "Toggle Colors"))
	assert.False(t, d.Session().Flag(model.FlagColors))

	assert.Equal(t, "emoji is now on.", d.HandleTurn(ctx, "toggle emoji"))
}

func TestToggleModule(t *testing.T) {
	d := setup(t, nil)
	ctx := context.Background()

	assert.Equal(t, "Module clock is now off.", d.HandleTurn(ctx, "disable module clock"))
	reply, _ := d.Turn(ctx, "what time is it")
	assert.NotEqual(t, "clock", reply.Category)

	d.HandleTurn(ctx, "enable module clock")
	reply, _ = d.Turn(ctx, "what time is it")
	assert.Equal(t, "clock", reply.Category)
}

func TestToggleModuleCannotLockItselfOut(t *testing.T) {
	d := setup(t, nil)
	ctx := context.Background()

	assert.Equal(t, "Module toggle cannot be disabled.", d.HandleTurn(ctx, "disable module toggle"))
	assert.Equal(t, "Module name cannot be disabled.", d.HandleTurn(ctx, "disable module name"))
	assert.True(t, d.Session().ModuleEnabled(NameToggle))

	// A toggle stored as off by an older build must not disable it either.
	d.Session().SetModule(NameToggle, false)
	d.Session().SetModule(NameName, false)

	assert.Equal(t, "Module clock is now off.", d.HandleTurn(ctx, "disable module clock"))
	assert.Equal(t, "Module toggle is now on.", d.HandleTurn(ctx, "enable module toggle"))
	assert.Equal(t, "colors_enabled is now on.", d.HandleTurn(ctx, "toggle colors"))
	assert.Equal(t, "Nice to meet you, Ada!", d.HandleTurn(ctx, "call me Ada"))
}

func TestTeachAndRecall(t *testing.T) {
	k := &fakeKnowledge{}
	d := setup(t, k)
	ctx := context.Background()

	assert.Equal(t, "I don't know anything about weather yet.", d.HandleTurn(ctx, "what do you know about weather?"))

	reply, err := d.Turn(ctx, "remember weather is sunny")
	require.NoError(t, err)
	assert.Equal(t, "knowledge", reply.Category)
	assert.Equal(t, "Got it, User. weather: sunny.", reply.Text)
	d.HandleTurn(ctx, "learn that Weather is rainy.")

	assert.Equal(t, "About weather: rainy; sunny", d.HandleTurn(ctx, "What do you know about weather?"))
	assert.Equal(t, "About Weather: rainy; sunny", d.HandleTurn(ctx, "tell me about Weather"))
}

func TestRecallIgnoresLeadingArticle(t *testing.T) {
	d := setup(t, &fakeKnowledge{})
	ctx := context.Background()

	assert.Equal(t, "Got it, User. weather: sunny.", d.HandleTurn(ctx, "remember weather is sunny"))
	assert.Equal(t, "About weather: sunny", d.HandleTurn(ctx, "what do you know about the weather?"))

	assert.Equal(t, "Got it, User. moon: bright.", d.HandleTurn(ctx, "remember that the moon is bright"))
	assert.Equal(t, "About moon: bright", d.HandleTurn(ctx, "tell me about moon"))
	assert.Equal(t, "About moon: bright", d.HandleTurn(ctx, "Tell me about a moon"))
}

func TestTopicOf(t *testing.T) {
	assert.Equal(t, "weather", topicOf("  the weather "))
	assert.Equal(t, "Apple", topicOf("an Apple"))
	assert.Equal(t, "theory", topicOf("theory"))
	assert.Equal(t, "the", topicOf("the"))
}

func TestKnowledgeFailureBecomesErrorReply(t *testing.T) {
	d := setup(t, &fakeKnowledge{err: errors.New("db gone")})
	reply, err := d.Turn(context.Background(), "remember sky is blue")
	require.NoError(t, err)
	assert.Equal(t, "oops", reply.Text)
	assert.Equal(t, model.CategoryError, reply.Category)
}

func TestKnowledgeHandlersNeedStore(t *testing.T) {
	names := map[string]bool{}
	for _, h := range Builtins(Deps{}) {
		names[h.Name] = true
	}
	assert.False(t, names[NameTeach])
	assert.False(t, names[NameRecall])
	assert.True(t, names[NameClock])
}

func TestClock(t *testing.T) {
	d := setup(t, nil)
	assert.Equal(t, "It is 14:05 on Sunday, 18 October 2026.", d.HandleTurn(context.Background(), "Saat kaç?"))
}

func TestRecap(t *testing.T) {
	d := setup(t, nil)
	ctx := context.Background()
	assert.Equal(t, "We haven't talked about anything yet.", d.HandleTurn(ctx, "recap"))

	d.HandleTurn(ctx, "hello")
	got := d.HandleTurn(ctx, "what did we talk about?")
	assert.Equal(t, "Our last 2 exchange(s):\n- you: recap\n- you: hello", got)
}

func TestUnclaimedInputFallsThroughToRules(t *testing.T) {
	d := setup(t, &fakeKnowledge{})
	reply, err := d.Turn(context.Background(), "Merhaba")
	require.NoError(t, err)
	assert.Equal(t, "greeting", reply.Category)
	assert.Equal(t, "Merhaba!", reply.Text)
}
