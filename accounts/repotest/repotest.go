// Package repotest holds behaviour checks shared by every accounts.Repo
// implementation.
package repotest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
)

// Factory returns an empty repository.
type Factory func(t *testing.T) accounts.Repo

// NewAccount returns an unsaved local account with the given email and student id.
func NewAccount(email, studentID string) *accounts.Account {
	return &accounts.Account{
		ID:           accounts.NewID(),
		Email:        email,
		StudentID:    studentID,
		FullName:     "Jane Student",
		Department:   "Computer Science",
		Year:         accounts.YearSecond,
		Provider:     accounts.ProviderLocal,
		PasswordHash: "$2a$10$hash",
	}
}

// Run executes the shared repository checks against newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newRepo(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newRepo(t)) })
	t.Run("Duplicates", func(t *testing.T) { testDuplicates(t, newRepo(t)) })
	t.Run("SaveRoundTrip", func(t *testing.T) { testSaveRoundTrip(t, newRepo(t)) })
	t.Run("StaleSave", func(t *testing.T) { testStaleSave(t, newRepo(t)) })
	t.Run("ConcurrentSave", func(t *testing.T) { testConcurrentSave(t, newRepo(t)) })
	t.Run("ReturnsCopies", func(t *testing.T) { testReturnsCopies(t, newRepo(t)) })
}

func testCreateAndFind(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	acct := NewAccount("jane@uni.edu", "S100")
	require.NoError(t, repo.Create(ctx, acct))
	require.Equal(t, int64(1), acct.Version)

	byEmail, err := repo.FindByEmail(ctx, "jane@uni.edu")
	require.NoError(t, err)
	require.Equal(t, acct.ID, byEmail.ID)
	require.Equal(t, "S100", byEmail.StudentID)
	require.Equal(t, acct.PasswordHash, byEmail.PasswordHash)
	require.Equal(t, int64(1), byEmail.Version)

	byStudent, err := repo.FindByStudentID(ctx, "S100")
	require.NoError(t, err)
	require.Equal(t, acct.ID, byStudent.ID)

	byID, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, "jane@uni.edu", byID.Email)
}

func testNotFound(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	_, err := repo.FindByEmail(ctx, "nobody@uni.edu")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.FindByStudentID(ctx, "S404")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.FindByID(ctx, accounts.NewID())
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	ghost := NewAccount("ghost@uni.edu", "S0")
	ghost.Version = 1
	require.ErrorIs(t, repo.Save(ctx, ghost), apperrors.ErrNotFound)
}

func testDuplicates(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, NewAccount("jane@uni.edu", "S100")))

	err := repo.Create(ctx, NewAccount("jane@uni.edu", "S200"))
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)

	err = repo.Create(ctx, NewAccount("other@uni.edu", "S100"))
	require.ErrorIs(t, err, apperrors.ErrDuplicateAccount)

	second := NewAccount("second@uni.edu", "S300")
	require.NoError(t, repo.Create(ctx, second))
	second.Email = "jane@uni.edu"
	require.ErrorIs(t, repo.Save(ctx, second), apperrors.ErrDuplicateAccount)
}

func testSaveRoundTrip(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	acct := NewAccount("jane@uni.edu", "S100")
	require.NoError(t, repo.Create(ctx, acct))

	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Millisecond)
	acct.Challenge = &accounts.Challenge{Hash: "abc", ExpiresAt: expires, SentAt: expires.Add(-10 * time.Minute), Attempts: 2}
	acct.RefreshTokenHash = "rt-hash"
	acct.PhoneNumber = "555-0100"
	require.NoError(t, repo.Save(ctx, acct))
	require.Equal(t, int64(2), acct.Version)

	got, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Version)
	require.Equal(t, "rt-hash", got.RefreshTokenHash)
	require.Equal(t, "555-0100", got.PhoneNumber)
	require.NotNil(t, got.Challenge)
	require.Equal(t, "abc", got.Challenge.Hash)
	require.Equal(t, 2, got.Challenge.Attempts)
	require.True(t, expires.Equal(got.Challenge.ExpiresAt))

	got.Challenge = nil
	got.EmailVerified = true
	require.NoError(t, repo.Save(ctx, got))

	got, err = repo.FindByEmail(ctx, "jane@uni.edu")
	require.NoError(t, err)
	require.Nil(t, got.Challenge)
	require.True(t, got.EmailVerified)
}

func testStaleSave(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	acct := NewAccount("jane@uni.edu", "S100")
	require.NoError(t, repo.Create(ctx, acct))

	first, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)

	first.RefreshTokenHash = "first"
	require.NoError(t, repo.Save(ctx, first))

	second.RefreshTokenHash = "second"
	require.ErrorIs(t, repo.Save(ctx, second), apperrors.ErrConflict)

	got, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.RefreshTokenHash)
}

func testConcurrentSave(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	acct := NewAccount("jane@uni.edu", "S100")
	require.NoError(t, repo.Create(ctx, acct))

	const writers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		copyOf := acct.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			copyOf.RefreshTokenHash = accounts.NewID()
			if err := repo.Save(ctx, copyOf); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func testReturnsCopies(t *testing.T, repo accounts.Repo) {
	ctx := context.Background()
	acct := NewAccount("jane@uni.edu", "S100")
	require.NoError(t, repo.Create(ctx, acct))

	acct.FullName = "Changed Without Save"
	got, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane Student", got.FullName)

	got.FullName = "Also Changed"
	again, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane Student", again.FullName)
}
