package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/internal/errs"
)

// Subscriptions is the subscription store as seen by the conversation.
type Subscriptions interface {
	IsSubscribed(ctx context.Context, userID int64) (bool, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	Subscribe(ctx context.Context, userID int64, now time.Time) (already bool, err error)
	CountSubscribed(ctx context.Context) (int, error)
}

// Forecaster renders a forecast for a city or fails with CITY_NOT_FOUND.
type Forecaster interface {
	Forecast(ctx context.Context, city string) (string, error)
}

// Options configures a Service. Subscriptions, Forecaster and Store are required.
type Options struct {
	Subscriptions     Subscriptions
	Forecaster        Forecaster
	Store             state.Store
	InactivityTimeout time.Duration
	PromptDelay       time.Duration
	// AdminID is always treated as an administrator.
	AdminID int64
}

// Service drives conversations for all users.
type Service struct {
	subs        Subscriptions
	forecaster  Forecaster
	store       state.Store
	timeout     time.Duration
	promptDelay time.Duration
	adminID     int64
}

// NewService validates opts and applies defaults.
func NewService(opts Options) (*Service, error) {
	switch {
	case opts.Subscriptions == nil:
		return nil, fmt.Errorf("session: subscriptions are required")
	case opts.Forecaster == nil:
		return nil, fmt.Errorf("session: forecaster is required")
	case opts.Store == nil:
		return nil, fmt.Errorf("session: store is required")
	}
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = DefaultInactivityTimeout
	}
	if opts.PromptDelay < 0 {
		opts.PromptDelay = 0
	}
	return &Service{
		subs:        opts.Subscriptions,
		forecaster:  opts.Forecaster,
		store:       opts.Store,
		timeout:     opts.InactivityTimeout,
		promptDelay: opts.PromptDelay,
		adminID:     opts.AdminID,
	}, nil
}

// Mode returns the current mode of userID, StateIdle when there is no session.
func (s *Service) Mode(userID int64) state.State {
	if sess, ok := s.store.Get(userID); ok {
		return sess.State
	}
	return state.StateIdle
}

// ActiveSessions counts stored sessions, stale ones included.
func (s *Service) ActiveSessions() int {
	return s.store.Len()
}

// OnStart (re)starts a conversation. It is not subject to the inactivity
// check: a stale session is simply replaced.
func (s *Service) OnStart(ctx context.Context, userID int64, now time.Time) (Result, error) {
	ok, err := s.subs.IsSubscribed(ctx, userID)
	if err != nil {
		return storeFailure(err)
	}
	if !ok {
		return replies(text(TextSubscribeFirst)), nil
	}

	s.transition(ctx, userID, ModeAwaitingCity, now)
	return Result{
		Replies:  []Reply{{Text: TextWelcome, ClearChoices: true}},
		Deferred: &Deferred{Delay: s.promptDelay, Reply: text(TextEnterCity)},
	}, nil
}

// OnSubscribe subscribes userID. Conversation state is left as is.
func (s *Service) OnSubscribe(ctx context.Context, userID int64, now time.Time) (Result, error) {
	already, err := s.subs.Subscribe(ctx, userID, now)
	if err != nil {
		return storeFailure(err)
	}
	if already {
		return Result{
			Replies:  []Reply{text(TextAlreadySubscribe)},
			Deferred: &Deferred{Delay: s.promptDelay, Reply: text(TextPleaseStart)},
		}, nil
	}
	return replies(text(TextSubscribed)), nil
}

// OnText handles any message that is not a command.
func (s *Service) OnText(ctx context.Context, userID int64, raw string, now time.Time) (Result, error) {
	sess, hasSession := s.store.Get(userID)
	if hasSession && Expired(now, sess.LastInteractionAt, s.timeout) {
		s.store.Delete(userID)
		logger.Info(ctx, logger.CompSession, "session.expired",
			slog.String("from_state", string(sess.State)),
			slog.String("to_state", string(state.StateIdle)),
			slog.Duration("idle_duration", now.Sub(sess.LastInteractionAt)),
		)
		return Result{Replies: []Reply{{Text: TextInactive, ClearChoices: true}}}, nil
	}

	ok, err := s.subs.IsSubscribed(ctx, userID)
	if err != nil {
		return storeFailure(err)
	}
	if !ok {
		logger.Debug(ctx, logger.CompSession, "session.gate", slog.String("err_code", string(errs.CodeNotSubscribed)))
		return replies(text(TextNotSubscribed)), nil
	}

	if !hasSession {
		if strings.TrimSpace(raw) == "/start" {
			return Result{}, nil
		}
		return replies(text(TextPleaseStart)), nil
	}

	sess.LastInteractionAt = now
	s.store.Put(userID, sess)

	switch sess.State {
	case ModeAwaitingCity:
		return s.awaitingCity(ctx, userID, raw, now), nil
	case ModeAwaitingContinue:
		return s.awaitingContinue(ctx, userID, raw, now), nil
	}
	// Unknown modes are dropped rather than left to linger.
	s.store.Delete(userID)
	return replies(text(TextPleaseStart)), nil
}

func (s *Service) awaitingCity(ctx context.Context, userID int64, raw string, now time.Time) Result {
	city := strings.TrimSpace(raw)
	if city == "" {
		return replies(text(TextCityNotFound))
	}
	forecast, err := s.forecaster.Forecast(ctx, city)
	if err != nil {
		logger.Info(ctx, logger.CompSession, "session.lookup",
			slog.String("status", "fail"),
			slog.String("city", logger.SanitizeLimit(city, 64)),
			slog.String("err_code", string(errs.CodeCityNotFound)),
		)
		return replies(text(TextCityNotFound))
	}
	s.transition(ctx, userID, ModeAwaitingContinue, now)
	return replies(
		Reply{Text: forecast, Markdown: true},
		Reply{Text: TextContinue, Choices: []string{AnswerYes, AnswerNo}},
	)
}

func (s *Service) awaitingContinue(ctx context.Context, userID int64, raw string, now time.Time) Result {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case AnswerYes:
		s.transition(ctx, userID, ModeAwaitingCity, now)
		return Result{Replies: []Reply{{Text: TextEnterCity, ClearChoices: true}}}
	case AnswerNo:
		s.transition(ctx, userID, state.StateIdle, now)
		return Result{Replies: []Reply{{Text: TextGoodbye, ClearChoices: true}}}
	}
	return Result{}
}

// OnStats reports subscriber and session counts to administrators.
func (s *Service) OnStats(ctx context.Context, userID int64) (Result, error) {
	admin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return storeFailure(err)
	}
	if !admin {
		return replies(text(TextNotAllowed)), nil
	}
	n, err := s.subs.CountSubscribed(ctx)
	if err != nil {
		return storeFailure(err)
	}
	sessions := s.store.Len()
	logger.Info(ctx, logger.CompSession, "session.stats", slog.Int("subscribers", n), slog.Int("sessions", sessions))
	return replies(text(fmt.Sprintf("Subscribers: %d\nActive conversations: %d", n, sessions))), nil
}

// IsAdmin reports whether userID may use administrative commands.
func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if s.adminID != 0 && userID == s.adminID {
		return true, nil
	}
	return s.subs.IsAdmin(ctx, userID)
}

func (s *Service) transition(ctx context.Context, userID int64, to state.State, now time.Time) {
	from := s.Mode(userID)
	if to == state.StateIdle {
		s.store.Delete(userID)
	} else {
		s.store.Put(userID, state.Session{State: to, LastInteractionAt: now})
	}
	logger.Info(ctx, logger.CompSession, "session.transition",
		slog.String("from_state", string(from)),
		slog.String("to_state", string(to)),
	)
}

func storeFailure(err error) (Result, error) {
	if errs.CodeOf(err) == "" {
		err = errs.Wrap(errs.CodeStoreUnavailable, "subscription store", err)
	}
	return replies(text(TextStoreFailure)), err
}
