package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/auth"
	"github.com/walletwise/auth-server/federated"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

func googleIdentity(email string) federated.Identity {
	return federated.Identity{
		Provider:      "google",
		Subject:       "1234567890",
		Email:         email,
		Name:          "Jane Gmail",
		EmailVerified: true,
	}
}

func TestFederatedCallbackCreatesAccount(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	session, err := f.service.FederatedCallback(ctx, googleIdentity("Jane@Gmail.com"))
	require.NoError(t, err)
	require.Equal(t, "jane@gmail.com", session.Profile.Email)
	require.Equal(t, accounts.ProviderGoogle, session.Profile.Provider)
	require.True(t, session.Profile.EmailVerified)

	acct, err := f.repo.FindByEmail(ctx, "jane@gmail.com")
	require.NoError(t, err)
	require.False(t, acct.HasPassword())
	require.Equal(t, "google-1234567890", acct.StudentID)
	require.True(t, acct.HasSession())

	again, err := f.service.FederatedCallback(ctx, googleIdentity("jane@gmail.com"))
	require.NoError(t, err)
	require.Equal(t, session.Profile.ID, again.Profile.ID)
}

func TestFederatedCallbackVerifiesExistingAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAccount(t)
	ctx := context.Background()

	session, err := f.service.FederatedCallback(ctx, googleIdentity(testEmail))
	require.NoError(t, err)
	require.True(t, session.Profile.EmailVerified)

	acct := f.stored(t)
	require.True(t, acct.EmailVerified)
	require.Nil(t, acct.Challenge)
	require.Equal(t, accounts.ProviderLocal, acct.Provider)
	require.Equal(t, testStudentID, acct.StudentID)

	// Password login keeps working for the linked account.
	_, err = f.service.Login(ctx, auth.LoginCommand{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
}

func TestFederatedCallbackRejectsUnverifiedProviderEmail(t *testing.T) {
	f := setupTestFixture(t)
	identity := googleIdentity("jane@gmail.com")
	identity.EmailVerified = false

	_, err := f.service.FederatedCallback(context.Background(), identity)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestFederatedCallbackRequiresIdentity(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.FederatedCallback(context.Background(), federated.Identity{EmailVerified: true})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
