package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"github.com/walletwise/auth-server/internal/metrics"
	"github.com/walletwise/auth-server/mailer"
	"github.com/walletwise/auth-server/otp"
	"github.com/walletwise/auth-server/sessions"
	"github.com/walletwise/auth-server/token"
)

const (
	defaultAppName = "WalletWise"

	// maxConflictAttempts bounds how often an operation reloads the account and
	// re-runs after losing an optimistic-lock race.
	maxConflictAttempts = 3
)

// Notifier accepts outbound email for asynchronous delivery.
type Notifier interface {
	Enqueue(msg mailer.Message) bool
}

type discardNotifier struct{}

func (discardNotifier) Enqueue(msg mailer.Message) bool {
	log.Debug().Str("to", msg.To).Msg("no notifier configured, email discarded")
	return false
}

// Service runs the authentication use cases: registration, email
// verification, password and federated login, token refresh, logout and
// profile management.
type Service struct {
	accounts       accounts.Repo
	otp            *otp.Issuer
	sessions       *sessions.Manager
	tokens         *token.Manager
	notifier       Notifier
	guard          *LoginGuard
	validator      *Validator
	appName        string
	resendCooldown time.Duration
	nowTime        func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLoginGuard(g *LoginGuard) ServiceOption {
	return func(s *Service) {
		s.guard = g
	}
}

// WithResendCooldown sets the minimum gap between verification emails. Zero
// disables the check.
func WithResendCooldown(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.resendCooldown = d
	}
}

func WithAppName(name string) ServiceOption {
	return func(s *Service) {
		if name != "" {
			s.appName = name
		}
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(
	repo accounts.Repo,
	issuer *otp.Issuer,
	sessionManager *sessions.Manager,
	tokens *token.Manager,
	options ...ServiceOption,
) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[auth.NewService] accounts repo is required")
	}
	if issuer == nil {
		return nil, errors.New("[auth.NewService] otp issuer is required")
	}
	if sessionManager == nil {
		return nil, errors.New("[auth.NewService] session manager is required")
	}
	if tokens == nil {
		return nil, errors.New("[auth.NewService] token manager is required")
	}

	s := &Service{
		accounts:  repo,
		otp:       issuer,
		sessions:  sessionManager,
		tokens:    tokens,
		notifier:  discardNotifier{},
		validator: NewValidator(),
		appName:   defaultAppName,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// AccountIDFromAccessToken authenticates a request-scoped access token.
func (s *Service) AccountIDFromAccessToken(raw string) (string, error) {
	if raw == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return s.tokens.VerifyAccess(raw)
}

// Me returns the profile of the given account.
func (s *Service) Me(ctx context.Context, accountID string) (accounts.Profile, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return accounts.Profile{}, err
	}
	return acct.Profile(), nil
}

func (s *Service) sendVerification(acct *accounts.Account, code string) {
	msg := mailer.VerificationMessage(s.appName, acct.Email, code, s.otp.TTL())
	if !s.notifier.Enqueue(msg) {
		log.Warn().Str("accountId", acct.ID).Msg("verification email was not queued")
	}
}

// retryOnConflict re-runs op while it fails with ErrConflict. op must reload
// the account on each call.
func retryOnConflict(op func() error) error {
	var err error
	for attempt := 0; attempt < maxConflictAttempts; attempt++ {
		if err = op(); !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
	}
	return err
}

func observe(operation string, err error) {
	metrics.AuthOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperrors.ErrValidation):
		return "invalid"
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrEmailNotVerified),
		errors.Is(err, apperrors.ErrUnauthenticated),
		errors.Is(err, apperrors.ErrRevoked),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrNoChallenge),
		errors.Is(err, apperrors.ErrOTPExpired),
		errors.Is(err, apperrors.ErrOTPMismatch),
		errors.Is(err, apperrors.ErrDuplicateAccount),
		errors.Is(err, apperrors.ErrNotFound):
		return "rejected"
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming burns one bcrypt comparison so unknown emails cost the same
// as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		h, err := accounts.HashPassword("walletwise-timing-equalizer")
		if err == nil {
			dummyHash = h
		}
	})
	if dummyHash != "" {
		_ = accounts.CheckPasswordHash(password, dummyHash)
	}
}
