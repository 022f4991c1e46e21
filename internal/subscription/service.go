package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/errs"
)

// Service answers subscription questions for the session state machine.
// Repository failures are returned as STORE_UNAVAILABLE errors.
type Service struct {
	repo Repository
}

// NewService wraps repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) find(ctx context.Context, userID int64) (*Record, error) {
	rec, err := s.repo.Find(ctx, userID)
	if err != nil {
		logger.Error(ctx, logger.CompSubscriptions, "subscription.find", slog.String("err", err.Error()))
		return nil, errs.Wrap(errs.CodeStoreUnavailable, "find subscription", err)
	}
	return rec, nil
}

// IsSubscribed reports whether userID has an active subscription.
func (s *Service) IsSubscribed(ctx context.Context, userID int64) (bool, error) {
	rec, err := s.find(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.IsSubscribed, nil
}

// IsAdmin reports whether userID carries the admin flag.
func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	rec, err := s.find(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.IsAdmin, nil
}

// Subscribe records a subscription at now. It reports already=true and
// writes nothing when the user was subscribed before.
func (s *Service) Subscribe(ctx context.Context, userID int64, now time.Time) (already bool, err error) {
	rec, err := s.find(ctx, userID)
	if err != nil {
		return false, err
	}
	if rec != nil && rec.IsSubscribed {
		return true, nil
	}
	if err := s.repo.UpsertSubscribed(ctx, userID, now); err != nil {
		logger.Error(ctx, logger.CompSubscriptions, "subscription.upsert", slog.String("err", err.Error()))
		return false, errs.Wrap(errs.CodeStoreUnavailable, "save subscription", err)
	}
	logger.Info(ctx, logger.CompSubscriptions, "subscription.created", slog.String("status", "ok"))
	return false, nil
}

// CountSubscribed returns the number of subscribed users.
func (s *Service) CountSubscribed(ctx context.Context) (int, error) {
	n, err := s.repo.CountSubscribed(ctx)
	if err != nil {
		return 0, errs.Wrap(errs.CodeStoreUnavailable, "count subscriptions", err)
	}
	return n, nil
}
