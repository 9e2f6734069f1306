package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

const (
	codeDigits         = 6
	defaultTTL         = 10 * time.Minute
	defaultMaxAttempts = 5
)

var codeSpace = big.NewInt(1_000_000)

// Issuer creates and checks email verification codes. Only a digest of the
// code is ever stored on the account.
type Issuer struct {
	repo        accounts.Repo
	ttl         time.Duration
	maxAttempts int
	nowTime     func() time.Time
}

type IssuerOption func(*Issuer)

// WithTTL overrides how long a code stays valid.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithMaxAttempts sets how many wrong guesses discard a challenge.
func WithMaxAttempts(n int) IssuerOption {
	return func(i *Issuer) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func NewIssuer(repo accounts.Repo, options ...IssuerOption) (*Issuer, error) {
	if repo == nil {
		return nil, errors.New("[otp.NewIssuer] accounts repo is required")
	}
	i := &Issuer{
		repo:        repo,
		ttl:         defaultTTL,
		maxAttempts: defaultMaxAttempts,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Challenge places a new outstanding challenge on acct, replacing any previous
// one, and returns the plaintext code. Nothing is persisted.
func (i *Issuer) Challenge(acct *accounts.Account) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.Challenge] failed to generate code")
	}
	now := i.nowTime()
	acct.Challenge = &accounts.Challenge{
		Hash:      hashCode(acct.Email, code),
		ExpiresAt: now.Add(i.ttl),
		SentAt:    now,
	}
	return code, nil
}

// Issue is Challenge followed by a Save of acct.
func (i *Issuer) Issue(ctx context.Context, acct *accounts.Account) (string, error) {
	code, err := i.Challenge(acct)
	if err != nil {
		return "", err
	}
	if err := i.repo.Save(ctx, acct); err != nil {
		return "", errors.Wrap(err, "[Issuer.Issue] failed to save challenge")
	}
	return code, nil
}

// Verify checks candidate against the outstanding challenge on acct.
//
// On success the challenge is cleared in memory only; the caller commits the
// cleared challenge together with whatever state the verification unlocks.
// A wrong code bumps the attempt counter and persists it; once the limit is
// reached the challenge is discarded and ErrTooManyAttempts is returned.
func (i *Issuer) Verify(ctx context.Context, acct *accounts.Account, candidate string) error {
	ch := acct.Challenge
	if ch == nil {
		return apperrors.ErrNoChallenge
	}
	if i.nowTime().After(ch.ExpiresAt) {
		return apperrors.ErrOTPExpired
	}

	expected := []byte(ch.Hash)
	actual := []byte(hashCode(acct.Email, candidate))
	if subtle.ConstantTimeCompare(expected, actual) == 1 {
		acct.Challenge = nil
		return nil
	}

	ch.Attempts++
	result := apperrors.ErrOTPMismatch
	if ch.Attempts >= i.maxAttempts {
		acct.Challenge = nil
		result = apperrors.ErrTooManyAttempts
	}
	if err := i.repo.Save(ctx, acct); err != nil {
		// The mismatch is still reported.
		log.Warn().Err(err).Str("accountId", acct.ID).Msg("failed to record otp attempt")
	}
	return result
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func hashCode(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}
