package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext implements the parts of tele.Context the middleware touches.
type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]interface{}
	sent   []interface{}
}

func newFakeContext(userID int64, text string) *fakeContext {
	msg := &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}
	return &fakeContext{
		update: tele.Update{ID: 1, Message: msg},
		store:  make(map[string]interface{}),
	}
}

func (f *fakeContext) Update() tele.Update             { return f.update }
func (f *fakeContext) Sender() *tele.User              { return f.update.Message.Sender }
func (f *fakeContext) Chat() *tele.Chat                { return f.update.Message.Chat }
func (f *fakeContext) Text() string                    { return f.update.Message.Text }
func (f *fakeContext) Get(key string) interface{}      { return f.store[key] }
func (f *fakeContext) Set(key string, val interface{}) { f.store[key] = val }
func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var ran, rejected int
	next := func(tele.Context) error { ran++; return nil }
	mw := AdminOnlyMiddleware(AdminOptions{
		IsAdmin:  func(_ context.Context, id int64) (bool, error) { return id == 42, nil },
		OnReject: func(tele.Context) error { rejected++; return nil },
	})

	require.NoError(t, mw(next)(newFakeContext(42, "/stats")))
	require.NoError(t, mw(next)(newFakeContext(7, "/stats")))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, rejected)

	boom := errors.New("db down")
	failing := AdminOnlyMiddleware(AdminOptions{IsAdmin: func(context.Context, int64) (bool, error) { return false, boom }})
	assert.ErrorIs(t, failing(next)(newFakeContext(42, "/stats")), boom)

	assert.NoError(t, AdminOnlyMiddleware(AdminOptions{})(next)(newFakeContext(42, "/stats")))
	assert.Equal(t, 1, ran)
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1000, 0)
	var limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	var ran int
	h := mw(func(tele.Context) error { ran++; return nil })

	require.NoError(t, h(newFakeContext(1, "a")))
	require.NoError(t, h(newFakeContext(1, "b")))
	require.NoError(t, h(newFakeContext(2, "c")))
	now = now.Add(2 * time.Second)
	require.NoError(t, h(newFakeContext(1, "d")))

	assert.Equal(t, 3, ran)
	assert.Equal(t, 1, limited)
}

func TestRateLimitExcludedKind(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})
	var ran int
	h := mw(func(tele.Context) error { ran++; return nil })
	for i := 0; i < 3; i++ {
		require.NoError(t, h(newFakeContext(1, "x")))
	}
	assert.Equal(t, 3, ran)
}

func TestRecoverWithReply(t *testing.T) {
	c := newFakeContext(5, "Paris")
	err := RecoverWithReply("sorry")(func(tele.Context) error { panic("nil map") })(c)
	require.Error(t, err)
	assert.Equal(t, []interface{}{"sorry"}, c.sent)

	c = newFakeContext(5, "Paris")
	require.Error(t, RecoverMiddleware(func(tele.Context) error { panic("x") })(c))
	assert.Empty(t, c.sent)
}

func TestLoggerAndMetricsMiddleware(t *testing.T) {
	c := newFakeContext(9, "hello")
	h := LoggerMiddleware(MessageMetricsMiddleware(func(ctx tele.Context) error {
		require.NoError(t, ctx.Send("one"))
		return ctx.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{RemoveKeyboard: true}})
	}))
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Equal(t, "1:9:9", c.Get("rid"))
}
