package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs session tokens and hands the parser the key to check them with.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Keyfunc(parsed *jwt.Token) (any, error)
	Algorithm() string
}

// SecretSigner signs with HS256 using a shared secret. Access and refresh
// tokens each get their own SecretSigner so one secret cannot mint the other.
type SecretSigner struct {
	secret []byte
}

func NewSecretSigner(secret string) *SecretSigner {
	return &SecretSigner{secret: []byte(secret)}
}

func (s *SecretSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[SecretSigner.Sign]")
	}
	return signed, nil
}

func (s *SecretSigner) Keyfunc(parsed *jwt.Token) (any, error) {
	if _, ok := parsed.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("[SecretSigner.Keyfunc] unexpected alg %v", parsed.Header["alg"])
	}
	return s.secret, nil
}

func (s *SecretSigner) Algorithm() string {
	return jwt.SigningMethodHS256.Alg()
}
