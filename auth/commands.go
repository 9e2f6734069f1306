package auth

import (
	"strings"

	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/sessions"
)

type RegisterCommand struct {
	StudentID   string        `json:"studentId" validate:"required"`
	FullName    string        `json:"fullName" validate:"required"`
	Email       string        `json:"email" validate:"required,email"`
	Password    string        `json:"password" validate:"required,min=6,maxbytes=72"`
	Department  string        `json:"department" validate:"required"`
	Year        accounts.Year `json:"year" validate:"required,oneof=1st 2nd 3rd 4th 5th"`
	PhoneNumber string        `json:"phoneNumber" validate:"omitempty,max=32"`
}

func (c *RegisterCommand) normalize() {
	c.StudentID = strings.TrimSpace(c.StudentID)
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = accounts.NormalizeEmail(c.Email)
	c.Department = strings.TrimSpace(c.Department)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
}

type LoginCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *LoginCommand) normalize() {
	c.Email = accounts.NormalizeEmail(c.Email)
}

type VerifyEmailCommand struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

func (c *VerifyEmailCommand) normalize() {
	c.Email = accounts.NormalizeEmail(c.Email)
	c.OTP = strings.TrimSpace(c.OTP)
}

type ResendOTPCommand struct {
	Email string `json:"email" validate:"required,email"`
}

func (c *ResendOTPCommand) normalize() {
	c.Email = accounts.NormalizeEmail(c.Email)
}

// ProfilePatch carries the profile fields a user may change. Nil fields are
// left untouched.
type ProfilePatch struct {
	FullName    *string        `json:"fullName"`
	PhoneNumber *string        `json:"phoneNumber"`
	Department  *string        `json:"department"`
	Year        *accounts.Year `json:"year"`
}

// RegisterResult is returned by a successful registration. No tokens are
// issued until the email is verified.
type RegisterResult struct {
	Email                string
	RequiresVerification bool
}

// Session is an established session and the profile it belongs to.
type Session struct {
	Tokens  sessions.Pair
	Profile accounts.Profile
}

// VerifyResult reports the outcome of an email verification. Session is nil
// when the account had already been verified.
type VerifyResult struct {
	AlreadyVerified bool
	Profile         accounts.Profile
	Session         *Session
}

type ResendResult struct {
	AlreadyVerified bool
}
