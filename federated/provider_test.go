package federated_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/federated"
	"golang.org/x/oauth2"
)

const (
	testIssuer   = "https://issuer.example.com"
	testClientID = "client-123"
)

type fakeIDP struct {
	t         *testing.T
	key       *rsa.PrivateKey
	server    *httptest.Server
	nonce     string
	email     string
	verified  bool
	gotVerify string
}

func newFakeIDP(t *testing.T) *fakeIDP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &fakeIDP{t: t, key: key, email: "jane@gmail.com", verified: true}
	idp.server = httptest.NewServer(http.HandlerFunc(idp.token))
	t.Cleanup(idp.server.Close)
	return idp
}

func (idp *fakeIDP) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(idp.t, r.ParseForm())
	idp.gotVerify = r.PostForm.Get("code_verifier")

	now := time.Now()
	idToken := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            testIssuer,
		"aud":            testClientID,
		"sub":            "google-sub-1",
		"email":          idp.email,
		"email_verified": idp.verified,
		"name":           "Jane Gmail",
		"nonce":          idp.nonce,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	})
	raw, err := idToken.SignedString(idp.key)
	require.NoError(idp.t, err)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "provider-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     raw,
	})
}

func (idp *fakeIDP) provider() *federated.OIDCProvider {
	oauthConfig := &oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  idp.server.URL + "/auth",
			TokenURL: idp.server.URL + "/token",
		},
		Scopes: []string{oidc.ScopeOpenID, "email"},
	}
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&idp.key.PublicKey}}
	verifier := oidc.NewVerifier(testIssuer, keys, &oidc.Config{ClientID: testClientID})
	return federated.NewOIDCProviderFromParts("google", oauthConfig, verifier)
}

func TestAuthCodeURLCarriesStateNonceAndChallenge(t *testing.T) {
	p := newFakeIDP(t).provider()
	raw := p.AuthCodeURL("state-1", "nonce-1", "verifier-verifier-verifier-verifier-verifier-1")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
	require.Equal(t, testClientID, q.Get("client_id"))
}

func TestExchangeReturnsVerifiedIdentity(t *testing.T) {
	idp := newFakeIDP(t)
	idp.nonce = "nonce-1"
	p := idp.provider()

	identity, err := p.Exchange(context.Background(), "code-1", "the-verifier", "nonce-1")
	require.NoError(t, err)
	require.Equal(t, "google", identity.Provider)
	require.Equal(t, "google-sub-1", identity.Subject)
	require.Equal(t, "jane@gmail.com", identity.Email)
	require.True(t, identity.EmailVerified)
	require.Equal(t, "the-verifier", idp.gotVerify)
}

func TestExchangeRejectsNonceMismatch(t *testing.T) {
	idp := newFakeIDP(t)
	idp.nonce = "someone-elses-nonce"

	_, err := idp.provider().Exchange(context.Background(), "code-1", "v", "nonce-1")
	require.Error(t, err)
}

func TestExchangeRejectsForeignSignature(t *testing.T) {
	idp := newFakeIDP(t)
	idp.nonce = "nonce-1"
	p := idp.provider()

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	idp.key = other

	_, err = p.Exchange(context.Background(), "code-1", "v", "nonce-1")
	require.Error(t, err)
}
