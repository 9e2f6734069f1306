// Package mongostore keeps accounts as documents in a MongoDB collection.
package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/walletwise/auth-server/accounts"
	apperrors "github.com/walletwise/auth-server/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const collectionName = "accounts"

var _ accounts.Repo = (*Store)(nil)

type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	nowTime func() time.Time
}

type challengeDoc struct {
	Hash      string    `bson:"hash"`
	ExpiresAt time.Time `bson:"expiresAt"`
	SentAt    time.Time `bson:"sentAt"`
	Attempts  int       `bson:"attempts"`
}

type accountDoc struct {
	ID               string        `bson:"_id"`
	Email            string        `bson:"email"`
	StudentID        string        `bson:"studentId"`
	FullName         string        `bson:"fullName"`
	Department       string        `bson:"department"`
	Year             string        `bson:"year"`
	PhoneNumber      string        `bson:"phoneNumber,omitempty"`
	WalletBalance    float64       `bson:"walletBalance"`
	Provider         string        `bson:"provider"`
	ProviderSubject  string        `bson:"providerSubject,omitempty"`
	PasswordHash     string        `bson:"passwordHash,omitempty"`
	EmailVerified    bool          `bson:"emailVerified"`
	Challenge        *challengeDoc `bson:"challenge,omitempty"`
	RefreshTokenHash string        `bson:"refreshTokenHash,omitempty"`
	Version          int64         `bson:"version"`
	CreatedAt        time.Time     `bson:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt"`
}

// Open connects to uri, selects database and ensures the unique indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "[mongostore.Open] connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "[mongostore.Open] ping")
	}

	s := &Store{
		client:  client,
		coll:    client.Database(database).Collection(collectionName),
		nowTime: time.Now,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "studentId", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return errors.Wrap(err, "[mongostore] create indexes")
	}
	return nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) FindByStudentID(ctx context.Context, studentID string) (*accounts.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "studentId", Value: studentID}})
}

func (s *Store) FindByID(ctx context.Context, id string) (*accounts.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) Create(ctx context.Context, acct *accounts.Account) error {
	if acct.ID == "" {
		acct.ID = accounts.NewID()
	}
	now := s.nowTime().UTC().Truncate(time.Millisecond)
	doc := toDoc(acct)
	doc.Version = 1
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateAccount
		}
		return errors.Wrap(err, "[mongostore.Create] insert account")
	}
	acct.Version = doc.Version
	acct.CreatedAt = now
	acct.UpdatedAt = now
	return nil
}

func (s *Store) Save(ctx context.Context, acct *accounts.Account) error {
	doc := toDoc(acct)
	doc.Version = acct.Version + 1
	doc.UpdatedAt = s.nowTime().UTC().Truncate(time.Millisecond)

	filter := bson.D{{Key: "_id", Value: acct.ID}, {Key: "version", Value: acct.Version}}
	res, err := s.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrDuplicateAccount
		}
		return errors.Wrap(err, "[mongostore.Save] replace account")
	}
	if res.MatchedCount == 0 {
		if _, err := s.FindByID(ctx, acct.ID); err != nil {
			return err
		}
		return apperrors.ErrConflict
	}
	acct.Version = doc.Version
	acct.UpdatedAt = doc.UpdatedAt
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*accounts.Account, error) {
	var doc accountDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[mongostore] find account")
	}
	return fromDoc(doc), nil
}

func toDoc(a *accounts.Account) accountDoc {
	doc := accountDoc{
		ID:               a.ID,
		Email:            a.Email,
		StudentID:        a.StudentID,
		FullName:         a.FullName,
		Department:       a.Department,
		Year:             string(a.Year),
		PhoneNumber:      a.PhoneNumber,
		WalletBalance:    a.WalletBalance,
		Provider:         string(a.Provider),
		ProviderSubject:  a.ProviderSubject,
		PasswordHash:     a.PasswordHash,
		EmailVerified:    a.EmailVerified,
		RefreshTokenHash: a.RefreshTokenHash,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Challenge != nil {
		doc.Challenge = &challengeDoc{
			Hash:      a.Challenge.Hash,
			ExpiresAt: a.Challenge.ExpiresAt,
			SentAt:    a.Challenge.SentAt,
			Attempts:  a.Challenge.Attempts,
		}
	}
	return doc
}

func fromDoc(doc accountDoc) *accounts.Account {
	a := &accounts.Account{
		ID:               doc.ID,
		Email:            doc.Email,
		StudentID:        doc.StudentID,
		FullName:         doc.FullName,
		Department:       doc.Department,
		Year:             accounts.Year(doc.Year),
		PhoneNumber:      doc.PhoneNumber,
		WalletBalance:    doc.WalletBalance,
		Provider:         accounts.Provider(doc.Provider),
		ProviderSubject:  doc.ProviderSubject,
		PasswordHash:     doc.PasswordHash,
		EmailVerified:    doc.EmailVerified,
		RefreshTokenHash: doc.RefreshTokenHash,
		Version:          doc.Version,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.Challenge != nil {
		a.Challenge = &accounts.Challenge{
			Hash:      doc.Challenge.Hash,
			ExpiresAt: doc.Challenge.ExpiresAt,
			SentAt:    doc.Challenge.SentAt,
			Attempts:  doc.Challenge.Attempts,
		}
	}
	return a
}
