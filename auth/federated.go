package auth

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/federated"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

// FederatedCallback signs in the holder of a provider-verified identity,
// creating an account on first use. The provider's assertion counts as email
// verification.
func (s *Service) FederatedCallback(ctx context.Context, identity federated.Identity) (*Session, error) {
	session, err := s.federatedCallback(ctx, identity)
	observe("federated_callback", err)
	return session, err
}

func (s *Service) federatedCallback(ctx context.Context, identity federated.Identity) (*Session, error) {
	email := accounts.NormalizeEmail(identity.Email)
	if email == "" || identity.Subject == "" {
		return nil, apperrors.NewValidationError("email", "provider did not supply an identity")
	}
	if !identity.EmailVerified {
		return nil, apperrors.ErrInvalidCredentials
	}

	var session *Session
	err := retryOnConflict(func() error {
		acct, err := s.accounts.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			acct, err = s.createFederated(ctx, email, identity)
			if err != nil {
				return err
			}
		case err != nil:
			return errors.Wrap(err, "[Service.FederatedCallback] failed to load account")
		}

		if !acct.EmailVerified {
			acct.EmailVerified = true
			acct.Challenge = nil
		}
		if acct.ProviderSubject == "" && acct.Provider == providerOf(identity) {
			acct.ProviderSubject = identity.Subject
		}

		pair, err := s.sessions.Establish(ctx, acct)
		if err != nil {
			return err
		}
		session = &Session{Tokens: pair, Profile: acct.Profile()}
		return nil
	})
	return session, err
}

func (s *Service) createFederated(ctx context.Context, email string, identity federated.Identity) (*accounts.Account, error) {
	fullName := strings.TrimSpace(identity.Name)
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}
	acct := &accounts.Account{
		ID:              accounts.NewID(),
		Email:           email,
		StudentID:       federatedStudentID(identity),
		FullName:        fullName,
		Provider:        providerOf(identity),
		ProviderSubject: identity.Subject,
		EmailVerified:   true,
	}

	err := s.accounts.Create(ctx, acct)
	if errors.Is(err, apperrors.ErrDuplicateAccount) {
		// Lost a race with a concurrent first sign-in; use the winner's record.
		return s.findByEmail(ctx, email)
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.FederatedCallback] failed to create account")
	}
	return acct, nil
}

// federatedStudentID derives a stable placeholder student id, unique per
// provider subject, until the user supplies their real one.
func federatedStudentID(identity federated.Identity) string {
	return string(providerOf(identity)) + "-" + identity.Subject
}

func providerOf(identity federated.Identity) accounts.Provider {
	if identity.Provider == "" {
		return accounts.ProviderGoogle
	}
	return accounts.Provider(identity.Provider)
}
