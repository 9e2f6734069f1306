package accounts

import "context"

// Repo is the durable account store.
//
// Lookups return apperrors.ErrNotFound for missing records and always hand
// back a private copy. Create and Save reject a second account with the same
// email or student id with apperrors.ErrDuplicateAccount. Save persists the
// whole record only if the stored Version still equals acct.Version, then
// increments acct.Version; a stale write fails with apperrors.ErrConflict.
type Repo interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByStudentID(ctx context.Context, studentID string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, acct *Account) error
	Save(ctx context.Context, acct *Account) error
}
