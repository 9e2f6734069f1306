package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

// Register creates an unverified local account and emails it a verification
// code. No session is issued until the email is verified.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	result, err := s.register(ctx, cmd)
	observe("register", err)
	return result, err
}

func (s *Service) register(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	cmd.normalize()
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, cmd.Email, cmd.StudentID); err != nil {
		return nil, err
	}

	passwordHash, err := accounts.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	acct := &accounts.Account{
		ID:           accounts.NewID(),
		Email:        cmd.Email,
		StudentID:    cmd.StudentID,
		FullName:     cmd.FullName,
		Department:   cmd.Department,
		Year:         cmd.Year,
		PhoneNumber:  cmd.PhoneNumber,
		Provider:     accounts.ProviderLocal,
		PasswordHash: passwordHash,
	}
	code, err := s.otp.Challenge(acct)
	if err != nil {
		return nil, err
	}

	// The account and its first challenge land in a single write.
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateAccount) {
			return nil, apperrors.ErrDuplicateAccount
		}
		return nil, errors.Wrap(err, "[Service.Register] failed to create account")
	}

	s.sendVerification(acct, code)
	return &RegisterResult{Email: acct.Email, RequiresVerification: true}, nil
}

func (s *Service) ensureAvailable(ctx context.Context, email, studentID string) error {
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return apperrors.ErrDuplicateAccount
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return errors.Wrap(err, "[Service.Register] email lookup failed")
	}

	if _, err := s.accounts.FindByStudentID(ctx, studentID); err == nil {
		return apperrors.ErrDuplicateAccount
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return errors.Wrap(err, "[Service.Register] student id lookup failed")
	}
	return nil
}
