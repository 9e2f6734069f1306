package config

import "time"

type SecurityConfig interface {
	GetIssuer() string
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetOTPExpiry() time.Duration
	GetOTPResendCooldown() time.Duration
	GetOTPMaxAttempts() int
	GetLoginMaxFailures() int
	GetLoginLockout() time.Duration
	GetRateLimitPerSecond() float64
	GetMaxBodyBytes() int64
}

type Security struct {
	s Settings
}

var _ SecurityConfig = Security{}

func (sec Security) GetIssuer() string {
	return sec.s.Issuer
}

func (sec Security) GetAccessTokenSecret() string {
	return sec.s.AccessTokenSecret
}

func (sec Security) GetRefreshTokenSecret() string {
	return sec.s.RefreshTokenSecret
}

func (sec Security) GetAccessTokenExpiry() time.Duration {
	return orDefault(sec.s.AccessTokenTTL, 10*time.Minute)
}

func (sec Security) GetRefreshTokenExpiry() time.Duration {
	return orDefault(sec.s.RefreshTokenTTL, 24*time.Hour)
}

func (sec Security) GetOTPExpiry() time.Duration {
	return orDefault(sec.s.OTPExpiry, 10*time.Minute)
}

// GetOTPResendCooldown may be zero, which disables the cooldown.
func (sec Security) GetOTPResendCooldown() time.Duration {
	if sec.s.OTPResendCooldown < 0 {
		return 0
	}
	return sec.s.OTPResendCooldown
}

func (sec Security) GetOTPMaxAttempts() int {
	if sec.s.OTPMaxAttempts <= 0 {
		return 5
	}
	return sec.s.OTPMaxAttempts
}

func (sec Security) GetLoginMaxFailures() int {
	return sec.s.LoginMaxFailures
}

func (sec Security) GetLoginLockout() time.Duration {
	return sec.s.LoginLockout
}

func (sec Security) GetRateLimitPerSecond() float64 {
	return sec.s.RateLimitPerSecond
}

func (sec Security) GetMaxBodyBytes() int64 {
	if sec.s.MaxBodyBytes <= 0 {
		return 1 << 20
	}
	return sec.s.MaxBodyBytes
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
