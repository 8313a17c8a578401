package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/autoworks/jobcard-service/internal/core/domain"
)

const collectionUsers = "users"

type PrincipalRepository struct {
	coll *mongo.Collection
}

func NewPrincipalRepository(db *mongo.Database) *PrincipalRepository {
	return &PrincipalRepository{coll: db.Collection(collectionUsers)}
}

type principalDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d principalDoc) toDomain() *domain.Principal {
	return &domain.Principal{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := newID()
	if err != nil {
		return nil, domain.Unexpected("generate principal id", err)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	doc := principalDoc{
		ID:           id,
		Username:     p.Username,
		PasswordHash: p.PasswordHash,
		Role:         string(p.Role),
		CreatedAt:    createdAt.UTC().Truncate(time.Millisecond),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Validation("User " + p.Username + " already exists")
		}
		return nil, domain.Unexpected("insert principal", err)
	}

	var stored principalDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&stored); err != nil {
		return nil, domain.Unexpected("re-read created principal", err)
	}
	return stored.toDomain(), nil
}

func (r *PrincipalRepository) FindByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc principalDoc
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, domain.Unexpected("find principal", err)
	}
	return doc.toDomain(), nil
}
