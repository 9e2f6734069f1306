package accounts

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// Provider identifies how an account authenticates.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// Year is the student's year of study.
type Year string

const (
	YearFirst  Year = "1st"
	YearSecond Year = "2nd"
	YearThird  Year = "3rd"
	YearFourth Year = "4th"
	YearFifth  Year = "5th"
)

func (y Year) Valid() bool {
	switch y {
	case YearFirst, YearSecond, YearThird, YearFourth, YearFifth:
		return true
	}
	return false
}

// Challenge is an outstanding email verification code. An account with no
// challenge has a nil *Challenge, so a hash can never exist without its expiry.
type Challenge struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expiresAt"`
	SentAt    time.Time `json:"sentAt"`
	Attempts  int       `json:"attempts"`
}

type Account struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	StudentID       string     `json:"studentId"`
	FullName        string     `json:"fullName"`
	Department      string     `json:"department"`
	Year            Year       `json:"year"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	WalletBalance   float64    `json:"walletBalance"`
	Provider        Provider   `json:"provider"`
	ProviderSubject string     `json:"providerSubject,omitempty"`
	PasswordHash    string     `json:"-"`
	EmailVerified   bool       `json:"emailVerified"`
	Challenge       *Challenge `json:"-"`
	// RefreshTokenHash is the digest of the single live refresh token; empty
	// means the account has no session.
	RefreshTokenHash string    `json:"-"`
	Version          int64     `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewID returns a fresh account identifier.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Challenge != nil {
		ch := *a.Challenge
		c.Challenge = &ch
	}
	return &c
}

func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

func (a *Account) HasSession() bool {
	return a.RefreshTokenHash != ""
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email parses as a bare address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if apperrors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("password", "password must be at most 72 bytes")
	}
	if err != nil {
		return "", apperrors.Wrapf(err, "[accounts.HashPassword] failed to hash password")
	}
	return string(bytes), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword compares password against the account's hash. Accounts
// without a password never match.
func (a *Account) CheckPassword(password string) bool {
	if !a.HasPassword() {
		return false
	}
	return CheckPasswordHash(password, a.PasswordHash)
}
