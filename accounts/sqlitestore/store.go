// Package sqlitestore keeps accounts as JSON documents in SQLite, with the
// unique lookup keys and the optimistic-lock version promoted to columns.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	"github.com/walletwise/auth-server/accounts/sqlitestore/migrations"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	_ "modernc.org/sqlite"
)

var _ accounts.Repo = (*Store)(nil)

type Store struct {
	db      *sql.DB
	nowTime func() time.Time
}

// document is the persisted shape of an account.
type document struct {
	ID               string              `json:"id"`
	Email            string              `json:"email"`
	StudentID        string              `json:"studentId"`
	FullName         string              `json:"fullName"`
	Department       string              `json:"department"`
	Year             accounts.Year       `json:"year"`
	PhoneNumber      string              `json:"phoneNumber,omitempty"`
	WalletBalance    float64             `json:"walletBalance"`
	Provider         accounts.Provider   `json:"provider"`
	ProviderSubject  string              `json:"providerSubject,omitempty"`
	PasswordHash     string              `json:"passwordHash,omitempty"`
	EmailVerified    bool                `json:"emailVerified"`
	Challenge        *accounts.Challenge `json:"challenge,omitempty"`
	RefreshTokenHash string              `json:"refreshTokenHash,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("[sqlitestore.Open] storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "[sqlitestore.Open] create data folder")
		}
	}

	dsn := "file:" + cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] open sqlite db")
	}
	// SQLite allows a single writer; serialising through one connection keeps
	// compare-and-swap updates free of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.Open] ping sqlite db")
	}

	s := &Store{db: db, nowTime: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.Open] run migrations")
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		ddl, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(ddl)); err != nil {
			return errors.Wrapf(err, "apply %s", name)
		}
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return s.findOne(ctx, "SELECT document, version FROM accounts WHERE email = ?", email)
}

func (s *Store) FindByStudentID(ctx context.Context, studentID string) (*accounts.Account, error) {
	return s.findOne(ctx, "SELECT document, version FROM accounts WHERE student_id = ?", studentID)
}

func (s *Store) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	return s.findOne(ctx, "SELECT document, version FROM accounts WHERE id = ?", id)
}

func (s *Store) Create(ctx context.Context, acct *accounts.Account) error {
	if acct.ID == "" {
		acct.ID = accounts.NewID()
	}
	now := s.nowTime().UTC()
	created := acct.Clone()
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now

	payload, err := encode(created)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, student_id, version, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Email, created.StudentID, created.Version, payload, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateAccount
		}
		return errors.Wrap(err, "[sqlitestore.Create] insert account")
	}

	acct.Version = created.Version
	acct.CreatedAt = created.CreatedAt
	acct.UpdatedAt = created.UpdatedAt
	return nil
}

func (s *Store) Save(ctx context.Context, acct *accounts.Account) error {
	now := s.nowTime().UTC()
	next := acct.Clone()
	next.Version = acct.Version + 1
	next.UpdatedAt = now

	payload, err := encode(next)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET email = ?, student_id = ?, version = ?, document = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		next.Email, next.StudentID, next.Version, payload, now.UnixMilli(), acct.ID, acct.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateAccount
		}
		return errors.Wrap(err, "[sqlitestore.Save] update account")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[sqlitestore.Save] rows affected")
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, acct.ID); err != nil {
			return err
		}
		return apperrors.ErrConflict
	}

	acct.Version = next.Version
	acct.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *Store) findOne(ctx context.Context, query string, arg string) (*accounts.Account, error) {
	var (
		payload string
		version int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore] query account")
	}
	acct, err := decode(payload)
	if err != nil {
		return nil, err
	}
	acct.Version = version
	return acct, nil
}

func encode(a *accounts.Account) (string, error) {
	b, err := json.Marshal(document{
		ID:               a.ID,
		Email:            a.Email,
		StudentID:        a.StudentID,
		FullName:         a.FullName,
		Department:       a.Department,
		Year:             a.Year,
		PhoneNumber:      a.PhoneNumber,
		WalletBalance:    a.WalletBalance,
		Provider:         a.Provider,
		ProviderSubject:  a.ProviderSubject,
		PasswordHash:     a.PasswordHash,
		EmailVerified:    a.EmailVerified,
		Challenge:        a.Challenge,
		RefreshTokenHash: a.RefreshTokenHash,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	})
	if err != nil {
		return "", errors.Wrap(err, "[sqlitestore] encode account")
	}
	return string(b), nil
}

func decode(payload string) (*accounts.Account, error) {
	var d document
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore] decode account")
	}
	return &accounts.Account{
		ID:               d.ID,
		Email:            d.Email,
		StudentID:        d.StudentID,
		FullName:         d.FullName,
		Department:       d.Department,
		Year:             d.Year,
		PhoneNumber:      d.PhoneNumber,
		WalletBalance:    d.WalletBalance,
		Provider:         d.Provider,
		ProviderSubject:  d.ProviderSubject,
		PasswordHash:     d.PasswordHash,
		EmailVerified:    d.EmailVerified,
		Challenge:        d.Challenge,
		RefreshTokenHash: d.RefreshTokenHash,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
