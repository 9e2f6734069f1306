package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/auth"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"github.com/walletwise/auth-server/token"
)

func TestVerifyEmailEstablishesSession(t *testing.T) {
	f := setupTestFixture(t)
	code := f.registerAccount(t)

	res, err := f.service.VerifyEmail(context.Background(), auth.VerifyEmailCommand{Email: testEmail, OTP: code})
	require.NoError(t, err)
	require.False(t, res.AlreadyVerified)
	require.NotNil(t, res.Session)
	require.True(t, res.Profile.EmailVerified)

	acct := f.stored(t)
	require.True(t, acct.EmailVerified)
	require.Nil(t, acct.Challenge)
	require.Equal(t, token.Hash(res.Session.Tokens.RefreshToken), acct.RefreshTokenHash)
}

func TestVerifyEmailCodeCannotBeReplayed(t *testing.T) {
	f := setupTestFixture(t)
	code := f.registerAccount(t)
	ctx := context.Background()

	_, err := f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: code})
	require.NoError(t, err)

	res, err := f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: code})
	require.NoError(t, err)
	require.True(t, res.AlreadyVerified)
	require.Nil(t, res.Session)
}

func TestVerifyEmailFailures(t *testing.T) {
	f := setupTestFixture(t)
	code := f.registerAccount(t)
	ctx := context.Background()

	_, err := f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: "nobody@uni.edu", OTP: code})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	_, err = f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: wrong})
	require.ErrorIs(t, err, apperrors.ErrOTPMismatch)
	require.False(t, f.stored(t).EmailVerified)

	f.advance(11 * time.Minute)
	_, err = f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: code})
	require.ErrorIs(t, err, apperrors.ErrOTPExpired)
	require.False(t, f.stored(t).EmailVerified)
}

func TestVerifyEmailWithoutChallenge(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAccount(t)
	ctx := context.Background()

	acct := f.stored(t)
	acct.Challenge = nil
	require.NoError(t, f.repo.Save(ctx, acct))

	_, err := f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: "123456"})
	require.ErrorIs(t, err, apperrors.ErrNoChallenge)
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	f := setupTestFixture(t)
	first := f.registerAccount(t)
	ctx := context.Background()

	res, err := f.service.ResendOTP(ctx, auth.ResendOTPCommand{Email: testEmail})
	require.NoError(t, err)
	require.False(t, res.AlreadyVerified)
	require.Equal(t, 2, f.notifier.count())
	second := f.notifier.lastCode(t)

	if first != second {
		_, err = f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: first})
		require.ErrorIs(t, err, apperrors.ErrOTPMismatch)
	}
	_, err = f.service.VerifyEmail(ctx, auth.VerifyEmailCommand{Email: testEmail, OTP: second})
	require.NoError(t, err)
}

func TestResendOnVerifiedAccountIsNoop(t *testing.T) {
	f := setupTestFixture(t)
	f.verifiedSession(t)
	before := f.stored(t)

	res, err := f.service.ResendOTP(context.Background(), auth.ResendOTPCommand{Email: testEmail})
	require.NoError(t, err)
	require.True(t, res.AlreadyVerified)
	require.Equal(t, 1, f.notifier.count())
	require.Equal(t, before.Version, f.stored(t).Version)
}

func TestResendUnknownEmail(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.ResendOTP(context.Background(), auth.ResendOTPCommand{Email: "nobody@uni.edu"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResendCooldown(t *testing.T) {
	f := setupTestFixture(t, withServiceOptions(auth.WithResendCooldown(30*time.Second)))
	f.registerAccount(t)
	ctx := context.Background()

	_, err := f.service.ResendOTP(ctx, auth.ResendOTPCommand{Email: testEmail})
	require.ErrorIs(t, err, apperrors.ErrTooManyAttempts)
	require.Equal(t, 1, f.notifier.count())

	f.advance(31 * time.Second)
	_, err = f.service.ResendOTP(ctx, auth.ResendOTPCommand{Email: testEmail})
	require.NoError(t, err)
	require.Equal(t, 2, f.notifier.count())
}
