package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

// FakeAccountRepo is an in-memory accounts.Repo.
type FakeAccountRepo struct {
	accounts   map[string]*accounts.Account
	emailIDs   map[string]string // email to account id
	studentIDs map[string]string // student id to account id
	lock       sync.RWMutex
	nowTime    func() time.Time
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts:   make(map[string]*accounts.Account),
		emailIDs:   make(map[string]string),
		studentIDs: make(map[string]string),
		nowTime:    time.Now,
	}
}

func (r *FakeAccountRepo) FindByEmail(_ context.Context, email string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIDs[email]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.accounts[id].Clone(), nil
}

func (r *FakeAccountRepo) FindByStudentID(_ context.Context, studentID string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.studentIDs[studentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.accounts[id].Clone(), nil
}

func (r *FakeAccountRepo) FindByID(_ context.Context, id string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	acct, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return acct.Clone(), nil
}

func (r *FakeAccountRepo) Create(_ context.Context, acct *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if acct.ID == "" {
		acct.ID = accounts.NewID()
	}
	if _, ok := r.accounts[acct.ID]; ok {
		return apperrors.ErrDuplicateAccount
	}
	if r.taken(acct) {
		return apperrors.ErrDuplicateAccount
	}

	now := r.nowTime()
	acct.Version = 1
	acct.CreatedAt = now
	acct.UpdatedAt = now
	r.put(acct.Clone())
	return nil
}

func (r *FakeAccountRepo) Save(_ context.Context, acct *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored, ok := r.accounts[acct.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if stored.Version != acct.Version {
		return apperrors.ErrConflict
	}
	if r.taken(acct) {
		return apperrors.ErrDuplicateAccount
	}

	delete(r.emailIDs, stored.Email)
	delete(r.studentIDs, stored.StudentID)
	acct.Version++
	acct.UpdatedAt = r.nowTime()
	r.put(acct.Clone())
	return nil
}

// taken reports whether another account already owns acct's email or student id.
func (r *FakeAccountRepo) taken(acct *accounts.Account) bool {
	if id, ok := r.emailIDs[acct.Email]; ok && id != acct.ID {
		return true
	}
	if id, ok := r.studentIDs[acct.StudentID]; ok && id != acct.ID {
		return true
	}
	return false
}

func (r *FakeAccountRepo) put(acct *accounts.Account) {
	r.accounts[acct.ID] = acct
	r.emailIDs[acct.Email] = acct.ID
	r.studentIDs[acct.StudentID] = acct.ID
}
