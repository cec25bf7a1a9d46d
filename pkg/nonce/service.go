package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config holds nonce service settings
type Config struct {
	// DefaultDuration applies to Create; zero means DefaultDuration
	DefaultDuration time.Duration

	// Now overrides the clock; nil means time.Now
	Now func() time.Time
}

// Service issues, checks and prunes single-use nonces
type Service struct {
	store           Store
	defaultDuration time.Duration
	now             func() time.Time
	logger          *zap.Logger
}

// NewService creates a nonce service backed by the given store
func NewService(store Store, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultDuration == 0 {
		cfg.DefaultDuration = DefaultDuration
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:           store,
		defaultDuration: cfg.DefaultDuration,
		now:             cfg.Now,
		logger:          logger,
	}
}

// DefaultDuration returns the duration used by Create
func (s *Service) DefaultDuration() time.Duration {
	return s.defaultDuration
}

// Now returns the current time from the service clock
func (s *Service) Now() time.Time {
	return s.now()
}

// Create issues a nonce with the default duration, starting now
func (s *Service) Create(ctx context.Context) (string, error) {
	return s.CreateFor(ctx, s.defaultDuration, s.now())
}

// CreateFor issues a nonce that expires at now+duration, at millisecond resolution.
// A non-positive duration yields a token that is never stored and therefore
// can never pass Check.
func (s *Service) CreateFor(ctx context.Context, duration time.Duration, now time.Time) (string, error) {
	id := s.store.NewID()
	if duration <= 0 {
		return id, nil
	}

	rec := Record{ID: id, Expiration: Expiration(now, duration)}
	if err := s.store.Insert(ctx, rec); err != nil {
		s.logger.Error("failed to create nonce",
			zap.String("nonce", id),
			zap.Error(err),
		)
		return "", storageError("insert", err)
	}

	s.logger.Info("nonce created",
		zap.String("nonce", id),
		zap.Time("expiration", rec.Expiration),
	)
	return id, nil
}

// Check reports whether token is valid now, consuming it
func (s *Service) Check(ctx context.Context, token string) (bool, error) {
	return s.CheckAt(ctx, token, s.now())
}

// CheckAt reports whether token is valid at now and consumes it.
// now is compared at millisecond resolution, the precision every store keeps.
// The stored record is removed whenever it is found, even if it turns out to
// be expired. Unknown, used and expired tokens all yield false with a nil error.
func (s *Service) CheckAt(ctx context.Context, token string, now time.Time) (bool, error) {
	if token == "" {
		s.logger.Info("nonce failed check", zap.String("nonce", token))
		return false, nil
	}

	now = now.Truncate(Resolution)
	rec, err := s.store.Consume(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to check nonce",
			zap.String("nonce", token),
			zap.Error(err),
		)
		return false, storageError("consume", err)
	}

	if rec != nil && rec.Expiration.After(now) {
		s.logger.Info("nonce used", zap.String("nonce", token))
		return true, nil
	}

	s.logger.Info("nonce failed check", zap.String("nonce", token))
	return false, nil
}

// Prune removes nonces that have expired by now
func (s *Service) Prune(ctx context.Context) (int64, error) {
	return s.PruneAt(ctx, s.now())
}

// PruneAt removes every nonce whose expiration is <= now and returns the count
func (s *Service) PruneAt(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, now.Truncate(Resolution))
	if err != nil {
		s.logger.Error("failed to prune nonces", zap.Error(err))
		return 0, storageError("prune", err)
	}

	if removed > 0 {
		noun := "nonce"
		if removed > 1 {
			noun = "nonces"
		}
		s.logger.Info(fmt.Sprintf("removed %d stale %s", removed, noun),
			zap.Int64("removed", removed),
		)
	}
	return removed, nil
}

func storageError(op string, err error) error {
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
