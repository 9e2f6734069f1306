package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

// Type distinguishes access tokens from refresh tokens so one can never be
// presented as the other.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Type Type `json:"typ"`
}

// Token is a signed token and the instant it stops being valid.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Manager signs and verifies access and refresh tokens. It holds no state
// beyond its keys; revocation of refresh tokens happens in the session layer.
type Manager struct {
	accessSigner       Signer
	refreshSigner      Signer
	issuer             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

// New creates a Manager. Access and refresh tokens must use different signers.
func New(accessSigner, refreshSigner Signer, options ...ManagerOption) (*Manager, error) {
	if accessSigner == nil || refreshSigner == nil {
		return nil, errors.New("[token.New] access and refresh signers are required")
	}
	m := &Manager{
		accessSigner:  accessSigner,
		refreshSigner: refreshSigner,
	}
	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry <= 0 {
		m.accessTokenExpiry = 10 * time.Minute
	}
	if m.refreshTokenExpiry <= 0 {
		m.refreshTokenExpiry = 24 * time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m, nil
}

func (m *Manager) SignAccess(accountID string) (Token, error) {
	return m.sign(m.accessSigner, TypeAccess, accountID, m.accessTokenExpiry)
}

func (m *Manager) SignRefresh(accountID string) (Token, error) {
	return m.sign(m.refreshSigner, TypeRefresh, accountID, m.refreshTokenExpiry)
}

// VerifyAccess returns the account id carried by a valid access token.
func (m *Manager) VerifyAccess(raw string) (string, error) {
	return m.verify(m.accessSigner, TypeAccess, raw)
}

// VerifyRefresh returns the account id carried by a valid refresh token.
func (m *Manager) VerifyRefresh(raw string) (string, error) {
	return m.verify(m.refreshSigner, TypeRefresh, raw)
}

func (m *Manager) sign(signer Signer, typ Type, accountID string, ttl time.Duration) (Token, error) {
	// JWT times have second resolution; truncating keeps Token.ExpiresAt
	// identical to the exp claim.
	now := m.nowFunc().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
		Type: typ,
	}
	signed, err := signer.Sign(claims)
	if err != nil {
		return Token{}, errors.Wrapf(err, "[token.Manager] failed to sign %s token", typ)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (m *Manager) verify(signer Signer, typ Type, raw string) (string, error) {
	if raw == "" {
		return "", apperrors.ErrInvalidToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signer.Algorithm()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, signer.Keyfunc, parserOptions...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", apperrors.ErrTokenExpired
	case err != nil:
		return "", apperrors.Wrapf(apperrors.ErrInvalidToken, "%s token: %v", typ, err)
	}

	if claims.Type != typ || claims.Subject == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.Subject, nil
}

// Hash returns the digest under which a refresh token is stored.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// MatchesHash reports whether raw hashes to the stored digest.
func MatchesHash(raw, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Hash(raw)), []byte(stored)) == 1
}
