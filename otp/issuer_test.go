package otp_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/accounts/repofake"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"github.com/walletwise/auth-server/otp"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

type fixture struct {
	repo   *repofake.FakeAccountRepo
	issuer *otp.Issuer
	now    time.Time
	acct   *accounts.Account
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: repofake.NewFakeAccountRepo(),
		now:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	issuer, err := otp.NewIssuer(f.repo,
		otp.WithTTL(10*time.Minute),
		otp.WithMaxAttempts(3),
		otp.WithNowTime(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.issuer = issuer

	f.acct = &accounts.Account{Email: "jane@uni.edu", StudentID: "S1", Provider: accounts.ProviderLocal}
	require.NoError(t, f.repo.Create(context.Background(), f.acct))
	return f
}

func TestChallengeDoesNotPersist(t *testing.T) {
	f := setup(t)
	code, err := f.issuer.Challenge(f.acct)
	require.NoError(t, err)
	require.Regexp(t, sixDigits, code)
	require.NotNil(t, f.acct.Challenge)
	require.Len(t, f.acct.Challenge.Hash, 64)
	require.Equal(t, f.now.Add(10*time.Minute), f.acct.Challenge.ExpiresAt)

	stored, err := f.repo.FindByID(context.Background(), f.acct.ID)
	require.NoError(t, err)
	require.Nil(t, stored.Challenge)
}

func TestIssuePersistsAndReplaces(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.issuer.Issue(ctx, f.acct)
	require.NoError(t, err)
	firstHash := f.acct.Challenge.Hash

	f.now = f.now.Add(time.Minute)
	second, err := f.issuer.Issue(ctx, f.acct)
	require.NoError(t, err)

	stored, err := f.repo.FindByID(ctx, f.acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Challenge)
	require.Equal(t, f.acct.Challenge.Hash, stored.Challenge.Hash)
	if first != second {
		require.NotEqual(t, firstHash, stored.Challenge.Hash)
		require.ErrorIs(t, f.issuer.Verify(ctx, stored, first), apperrors.ErrOTPMismatch)
	}
}

func TestVerifySuccessClearsInMemoryOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	code, err := f.issuer.Issue(ctx, f.acct)
	require.NoError(t, err)

	require.NoError(t, f.issuer.Verify(ctx, f.acct, code))
	require.Nil(t, f.acct.Challenge)

	stored, err := f.repo.FindByID(ctx, f.acct.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Challenge)
}

func TestVerifyNoChallenge(t *testing.T) {
	f := setup(t)
	require.ErrorIs(t, f.issuer.Verify(context.Background(), f.acct, "123456"), apperrors.ErrNoChallenge)
}

func TestVerifyExpired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	code, err := f.issuer.Issue(ctx, f.acct)
	require.NoError(t, err)

	f.now = f.now.Add(10*time.Minute + time.Second)
	require.ErrorIs(t, f.issuer.Verify(ctx, f.acct, code), apperrors.ErrOTPExpired)
}

func TestVerifyAtExactExpiryStillValid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	code, err := f.issuer.Issue(ctx, f.acct)
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	require.NoError(t, f.issuer.Verify(ctx, f.acct, code))
}

func TestVerifyMismatchCountsAttempts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	code, err := f.issuer.Issue(ctx, f.acct)
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	require.ErrorIs(t, f.issuer.Verify(ctx, f.acct, wrong), apperrors.ErrOTPMismatch)
	stored, err := f.repo.FindByID(ctx, f.acct.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Challenge.Attempts)

	require.ErrorIs(t, f.issuer.Verify(ctx, f.acct, wrong), apperrors.ErrOTPMismatch)
	require.ErrorIs(t, f.issuer.Verify(ctx, f.acct, wrong), apperrors.ErrTooManyAttempts)
	require.Nil(t, f.acct.Challenge)

	require.ErrorIs(t, f.issuer.Verify(ctx, f.acct, code), apperrors.ErrNoChallenge)
	stored, err = f.repo.FindByID(ctx, f.acct.ID)
	require.NoError(t, err)
	require.Nil(t, stored.Challenge)
}

func TestNewIssuerRequiresRepo(t *testing.T) {
	_, err := otp.NewIssuer(nil)
	require.Error(t, err)
}
