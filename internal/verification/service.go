package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"campusgate/internal/identity"
	"campusgate/internal/mailer"
	"campusgate/internal/platform/metrics"
	"campusgate/internal/profile"
	"campusgate/internal/verification/store"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

const defaultCodeTTL = 30 * time.Minute

// ProfileStore is the slice of the profile store Generate needs.
type ProfileStore interface {
	UpsertMerge(ctx context.Context, userID string, patch profile.Patch) error
}

// Service generates and checks admin verification codes.
type Service struct {
	codes    store.Store
	profiles ProfileStore
	mail     mailer.Mailer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	ttl      time.Duration
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(codes store.Store, profiles ProfileStore, mail mailer.Mailer, opts ...Option) *Service {
	s := &Service{
		codes:    codes,
		profiles: profiles,
		mail:     mail,
		logger:   slog.Default(),
		ttl:      defaultCodeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate draws a fresh 6-digit code for the user, persists it (overwriting
// any prior unconsumed code) and emails it. The profile merge and the code
// write are kept even when the email fails; the caller gets the error and the
// user can request a resend.
func (s *Service) Generate(ctx context.Context, user identity.User) error {
	code, err := randomCode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
	}

	now := requestcontext.Now(ctx)
	record := store.Code{
		UserID:    user.ID,
		UserEmail: user.Email,
		UserName:  user.Name,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.profiles.UpsertMerge(ctx, user.ID, profile.AdminProvisionPatch(user.Email, user.Name)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set up verification profile")
	}
	if err := s.codes.Put(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification code")
	}

	if s.metrics != nil {
		s.metrics.AdminCodesIssued.Inc()
	}
	s.logger.InfoContext(ctx, "admin verification code issued",
		"user_id", user.ID,
		"expires_at", record.ExpiresAt,
	)

	body := fmt.Sprintf("Hello %s,\n\nYour admin verification code is: %s\n\nIt expires in %s.",
		user.Name, code, s.ttl)
	if err := s.mail.Send(ctx, user.Email, "Your admin verification code", body); err != nil {
		s.logger.ErrorContext(ctx, "verification code email failed",
			"user_id", user.ID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal,
			"Failed to set up verification. Please try again or contact support.")
	}
	return nil
}

// Verify checks the submitted code for the user as an ordered guard chain
// and, on success, consumes the code and grants admin verification in one
// atomic write.
func (s *Service) Verify(ctx context.Context, userID, submitted string) error {
	start := time.Now()
	err := s.verify(ctx, userID, submitted)
	if s.metrics != nil {
		s.metrics.VerifyCodeDuration.Observe(float64(time.Since(start).Milliseconds()))
		if err != nil {
			s.metrics.AdminCodesRejected.Inc()
		} else {
			s.metrics.AdminCodesVerified.Inc()
		}
	}
	return err
}

func (s *Service) verify(ctx context.Context, userID, submitted string) error {
	c, err := s.codes.Get(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrCodeNotFound
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification code")
	}

	if c.Expired(requestcontext.Now(ctx)) {
		return ErrCodeExpired
	}
	if submitted != c.Code {
		return ErrCodeMismatch
	}
	if c.Used {
		return ErrCodeAlreadyUsed
	}

	switch err := s.codes.Consume(ctx, userID); {
	case err == nil:
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return ErrCodeAlreadyUsed
	case errors.Is(err, sentinel.ErrNotFound):
		return ErrCodeNotFound
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume verification code")
	}

	s.logger.InfoContext(ctx, "admin verification granted", "user_id", userID)
	return nil
}

func randomCode() (string, error) {
	// Uniform over 100000..999999.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
