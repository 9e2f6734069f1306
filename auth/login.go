package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"github.com/walletwise/auth-server/sessions"
)

// Login authenticates an email and password and establishes a new session,
// replacing any existing one.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	session, err := s.login(ctx, cmd)
	observe("login", err)
	return session, err
}

func (s *Service) login(ctx context.Context, cmd LoginCommand) (*Session, error) {
	cmd.normalize()
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	if s.guard.Locked(cmd.Email) {
		return nil, apperrors.ErrTooManyAttempts
	}

	var session *Session
	err := retryOnConflict(func() error {
		acct, err := s.accounts.FindByEmail(ctx, cmd.Email)
		if errors.Is(err, apperrors.ErrNotFound) {
			equalizeTiming(cmd.Password)
			return apperrors.ErrInvalidCredentials
		}
		if err != nil {
			return errors.Wrap(err, "[Service.Login] failed to load account")
		}
		if !acct.HasPassword() {
			equalizeTiming(cmd.Password)
			return apperrors.ErrInvalidCredentials
		}
		if !acct.EmailVerified {
			return apperrors.ErrEmailNotVerified
		}
		if !acct.CheckPassword(cmd.Password) {
			return apperrors.ErrInvalidCredentials
		}

		pair, err := s.sessions.Establish(ctx, acct)
		if err != nil {
			return err
		}
		session = &Session{Tokens: pair, Profile: acct.Profile()}
		return nil
	})

	switch {
	case err == nil:
		s.guard.Reset(cmd.Email)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		s.guard.Fail(cmd.Email)
	}
	return session, err
}

// Logout ends the session the refresh token belongs to, if any. It never
// fails: an absent, invalid or stale token simply leaves nothing to revoke.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	err := s.logout(ctx, refreshToken)
	observe("logout", err)
}

func (s *Service) logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	accountID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}

	err = retryOnConflict(func() error {
		acct, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		return s.sessions.Revoke(ctx, acct)
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Warn().Err(err).Str("accountId", accountID).Msg("logout could not revoke session")
	}
	return nil
}

// Refresh exchanges the current refresh token for a new pair. Presenting a
// token that has already been replaced revokes the account's session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (sessions.Pair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	observe("refresh", err)
	return pair, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (sessions.Pair, error) {
	if refreshToken == "" {
		return sessions.Pair{}, apperrors.ErrUnauthenticated
	}

	acct, err := s.sessions.Authenticate(ctx, refreshToken)
	if errors.Is(err, apperrors.ErrRevoked) {
		s.revokeReplayed(ctx, acct)
		return sessions.Pair{}, apperrors.ErrRevoked
	}
	if err != nil {
		return sessions.Pair{}, err
	}

	pair, err := s.sessions.Establish(ctx, acct)
	if errors.Is(err, apperrors.ErrConflict) {
		// Another request rotated this session first; this token is spent.
		return sessions.Pair{}, apperrors.ErrRevoked
	}
	if err != nil {
		return sessions.Pair{}, err
	}
	return pair, nil
}

func (s *Service) revokeReplayed(ctx context.Context, acct *accounts.Account) {
	if acct == nil {
		return
	}
	log.Warn().Str("accountId", acct.ID).Msg("replaced refresh token presented, revoking session")
	if err := s.sessions.Revoke(ctx, acct); err != nil && !errors.Is(err, apperrors.ErrConflict) {
		log.Warn().Err(err).Str("accountId", acct.ID).Msg("failed to revoke session")
	}
}
