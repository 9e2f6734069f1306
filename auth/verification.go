package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

// VerifyEmail checks a verification code. On success the account becomes
// verified, the code is consumed and a session is established, all in one
// write.
func (s *Service) VerifyEmail(ctx context.Context, cmd VerifyEmailCommand) (*VerifyResult, error) {
	result, err := s.verifyEmail(ctx, cmd)
	observe("verify_email", err)
	return result, err
}

func (s *Service) verifyEmail(ctx context.Context, cmd VerifyEmailCommand) (*VerifyResult, error) {
	cmd.normalize()
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	var result *VerifyResult
	err := retryOnConflict(func() error {
		acct, err := s.findByEmail(ctx, cmd.Email)
		if err != nil {
			return err
		}
		if acct.EmailVerified {
			result = &VerifyResult{AlreadyVerified: true, Profile: acct.Profile()}
			return nil
		}

		if err := s.otp.Verify(ctx, acct, cmd.OTP); err != nil {
			return err
		}
		acct.EmailVerified = true

		pair, err := s.sessions.Establish(ctx, acct)
		if err != nil {
			return err
		}
		result = &VerifyResult{
			Profile: acct.Profile(),
			Session: &Session{Tokens: pair, Profile: acct.Profile()},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResendOTP issues a fresh verification code, invalidating the previous one.
func (s *Service) ResendOTP(ctx context.Context, cmd ResendOTPCommand) (*ResendResult, error) {
	result, err := s.resendOTP(ctx, cmd)
	observe("resend_otp", err)
	return result, err
}

func (s *Service) resendOTP(ctx context.Context, cmd ResendOTPCommand) (*ResendResult, error) {
	cmd.normalize()
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	var (
		result *ResendResult
		acct   *accounts.Account
		code   string
	)
	err := retryOnConflict(func() error {
		var err error
		acct, err = s.findByEmail(ctx, cmd.Email)
		if err != nil {
			return err
		}
		if acct.EmailVerified {
			result = &ResendResult{AlreadyVerified: true}
			return nil
		}
		if s.inCooldown(acct) {
			return apperrors.ErrTooManyAttempts
		}

		code, err = s.otp.Issue(ctx, acct)
		if err != nil {
			return err
		}
		result = &ResendResult{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if code != "" {
		s.sendVerification(acct, code)
	}
	return result, nil
}

func (s *Service) inCooldown(acct *accounts.Account) bool {
	if s.resendCooldown <= 0 || acct.Challenge == nil {
		return false
	}
	return s.nowTime().Sub(acct.Challenge.SentAt) < s.resendCooldown
}

func (s *Service) findByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	acct, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service] failed to load account")
	}
	return acct, nil
}
