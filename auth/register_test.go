package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/auth"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	cmd := registerCommand()
	cmd.Email = "  Jane.Doe@UNI.edu "
	res, err := f.service.Register(ctx, cmd)
	require.NoError(t, err)
	require.True(t, res.RequiresVerification)
	require.Equal(t, testEmail, res.Email)

	acct := f.stored(t)
	require.False(t, acct.EmailVerified)
	require.Equal(t, accounts.ProviderLocal, acct.Provider)
	require.Zero(t, acct.WalletBalance)
	require.Empty(t, acct.RefreshTokenHash)
	require.NotNil(t, acct.Challenge)
	require.NotEqual(t, testPassword, acct.PasswordHash)
	require.True(t, acct.CheckPassword(testPassword))

	require.Equal(t, 1, f.notifier.count())
	require.Regexp(t, `^\d{6}$`, f.notifier.lastCode(t))
	require.Len(t, acct.Challenge.Hash, 64)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.registerAccount(t)

	sameEmail := registerCommand()
	sameEmail.StudentID = "STU-2002"
	_, err := f.service.Register(ctx, sameEmail)
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)

	sameStudent := registerCommand()
	sameStudent.Email = "other@uni.edu"
	_, err = f.service.Register(ctx, sameStudent)
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)

	require.Equal(t, 1, f.notifier.count())
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.RegisterCommand)
		field  string
	}{
		{"missing student id", func(c *auth.RegisterCommand) { c.StudentID = "  " }, "studentId"},
		{"missing name", func(c *auth.RegisterCommand) { c.FullName = "" }, "fullName"},
		{"bad email", func(c *auth.RegisterCommand) { c.Email = "jane" }, "email"},
		{"short password", func(c *auth.RegisterCommand) { c.Password = "12345" }, "password"},
		{"password over 72 bytes", func(c *auth.RegisterCommand) { c.Password = strings.Repeat("a", 80) }, "password"},
		{"multibyte password over 72 bytes", func(c *auth.RegisterCommand) { c.Password = strings.Repeat("é", 40) }, "password"},
		{"missing department", func(c *auth.RegisterCommand) { c.Department = "" }, "department"},
		{"bad year", func(c *auth.RegisterCommand) { c.Year = "6th" }, "year"},
		{"missing year", func(c *auth.RegisterCommand) { c.Year = "" }, "year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			cmd := registerCommand()
			tt.mutate(&cmd)

			_, err := f.service.Register(context.Background(), cmd)
			require.ErrorIs(t, err, apperrors.ErrValidation)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)

			_, err = f.repo.FindByStudentID(context.Background(), testStudentID)
			require.ErrorIs(t, err, apperrors.ErrNotFound)
			require.Zero(t, f.notifier.count())
		})
	}
}

func TestRegisterPhoneIsOptional(t *testing.T) {
	f := setupTestFixture(t)
	cmd := registerCommand()
	cmd.PhoneNumber = ""
	_, err := f.service.Register(context.Background(), cmd)
	require.NoError(t, err)
}

func TestRegisterAcceptsSeventyTwoBytePassword(t *testing.T) {
	f := setupTestFixture(t)
	cmd := registerCommand()
	cmd.Password = strings.Repeat("a", 72)
	_, err := f.service.Register(context.Background(), cmd)
	require.NoError(t, err)
	require.True(t, f.stored(t).CheckPassword(cmd.Password))
}
