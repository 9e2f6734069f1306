package sessions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"github.com/walletwise/auth-server/token"
)

// Pair is what a client receives when a session is established or rotated.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Manager ties refresh tokens to accounts. Each account has at most one live
// refresh token, stored only as a digest; establishing a session replaces it.
type Manager struct {
	repo   accounts.Repo
	tokens *token.Manager
}

func NewManager(repo accounts.Repo, tokens *token.Manager) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[sessions.NewManager] accounts repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[sessions.NewManager] token manager is required")
	}
	return &Manager{repo: repo, tokens: tokens}, nil
}

// Establish signs a fresh token pair and saves acct with the new refresh
// digest. Any other pending changes on acct are committed in the same write;
// a stale acct fails with ErrConflict and no tokens are returned.
func (m *Manager) Establish(ctx context.Context, acct *accounts.Account) (Pair, error) {
	access, err := m.tokens.SignAccess(acct.ID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.tokens.SignRefresh(acct.ID)
	if err != nil {
		return Pair{}, err
	}

	previous := acct.RefreshTokenHash
	acct.RefreshTokenHash = token.Hash(refresh.Value)
	if err := m.repo.Save(ctx, acct); err != nil {
		acct.RefreshTokenHash = previous
		return Pair{}, errors.Wrap(err, "[Manager.Establish] failed to save session")
	}

	return Pair{
		AccessToken:      access.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// Revoke ends the account's session.
func (m *Manager) Revoke(ctx context.Context, acct *accounts.Account) error {
	if !acct.HasSession() {
		return nil
	}
	acct.RefreshTokenHash = ""
	if err := m.repo.Save(ctx, acct); err != nil {
		return errors.Wrap(err, "[Manager.Revoke] failed to save account")
	}
	return nil
}

// Authenticate resolves a refresh token to the account it belongs to.
//
// Token verification failures are returned as ErrInvalidToken or
// ErrTokenExpired. An unknown account, or one with no live session, yields
// ErrUnauthenticated. A correctly signed token that is not the account's
// current one yields ErrRevoked together with the account, so the caller can
// end the session that the replayed token may have come from.
func (m *Manager) Authenticate(ctx context.Context, refreshToken string) (*accounts.Account, error) {
	accountID, err := m.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	acct, err := m.repo.FindByID(ctx, accountID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Authenticate] failed to load account")
	}

	if !acct.HasSession() {
		return nil, apperrors.ErrUnauthenticated
	}
	if !token.MatchesHash(refreshToken, acct.RefreshTokenHash) {
		return acct, apperrors.ErrRevoked
	}
	return acct, nil
}
