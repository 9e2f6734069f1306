package auth

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/internal/utils"
)

// UpdateProfile applies the non-nil fields of patch to the account.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, patch ProfilePatch) (accounts.Profile, error) {
	profile, err := s.updateProfile(ctx, accountID, patch)
	observe("update_profile", err)
	return profile, err
}

func (s *Service) updateProfile(ctx context.Context, accountID string, patch ProfilePatch) (accounts.Profile, error) {
	patch = trimPatch(patch)
	if err := s.validatePatch(patch); err != nil {
		return accounts.Profile{}, err
	}

	var profile accounts.Profile
	err := retryOnConflict(func() error {
		acct, err := s.accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if patch.FullName != nil {
			acct.FullName = *patch.FullName
		}
		if patch.PhoneNumber != nil {
			acct.PhoneNumber = *patch.PhoneNumber
		}
		if patch.Department != nil {
			acct.Department = *patch.Department
		}
		if patch.Year != nil {
			acct.Year = *patch.Year
		}
		if err := s.accounts.Save(ctx, acct); err != nil {
			return errors.Wrap(err, "[Service.UpdateProfile] failed to save account")
		}
		profile = acct.Profile()
		return nil
	})
	return profile, err
}

func (s *Service) validatePatch(patch ProfilePatch) error {
	if patch.FullName != nil {
		if err := s.validator.Var("fullName", *patch.FullName, "required"); err != nil {
			return err
		}
	}
	if patch.PhoneNumber != nil {
		if err := s.validator.Var("phoneNumber", *patch.PhoneNumber, "max=32"); err != nil {
			return err
		}
	}
	if patch.Department != nil {
		if err := s.validator.Var("department", *patch.Department, "required"); err != nil {
			return err
		}
	}
	if patch.Year != nil {
		if err := s.validator.Var("year", string(*patch.Year), "oneof=1st 2nd 3rd 4th 5th"); err != nil {
			return err
		}
	}
	return nil
}

func trimPatch(p ProfilePatch) ProfilePatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		return utils.Ptr(strings.TrimSpace(*v))
	}
	p.FullName = trim(p.FullName)
	p.PhoneNumber = trim(p.PhoneNumber)
	p.Department = trim(p.Department)
	return p
}
