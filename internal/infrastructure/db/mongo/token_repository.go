package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

const collectionTokens = "activation_tokens"

// TokenRepository implements ports.TokenRepository using MongoDB.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(collectionTokens)}
}

type mongoToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Value     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Purpose   string             `bson:"purpose"`
	Payload   string             `bson:"payload,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

func (mt *mongoToken) toDomain() *domain.Token {
	return &domain.Token{
		ID:        mt.ID.Hex(),
		Value:     mt.Value,
		UserID:    mt.UserID.Hex(),
		Purpose:   domain.TokenPurpose(mt.Purpose),
		Payload:   mt.Payload,
		CreatedAt: mt.CreatedAt.UTC(),
		ExpiresAt: mt.ExpiresAt.UTC(),
	}
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.Token) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	uid, ok := objectID(t.UserID)
	if !ok {
		return domain.ErrUserNotFound
	}

	doc := mongoToken{
		Value:     t.Value,
		UserID:    uid,
		Purpose:   string(t.Purpose),
		Payload:   t.Payload,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid.Hex()
	}
	return nil
}

func (r *TokenRepository) FindValid(ctx context.Context, value string, purpose domain.TokenPurpose, now time.Time) (*domain.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"token":      value,
		"purpose":    string(purpose),
		"expires_at": bson.M{"$gte": now},
	}

	var mt mongoToken
	if err := r.coll.FindOne(ctx, filter).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return mt.toDomain(), nil
}

// DeleteValid removes the token with a single FindOneAndDelete, so only one of
// several concurrent consumers receives the document.
func (r *TokenRepository) DeleteValid(ctx context.Context, id string, now time.Time) (*domain.Token, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mt mongoToken
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid, "expires_at": bson.M{"$gte": now}}).Decode(&mt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}
	return mt.toDomain(), nil
}

func (r *TokenRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrTokenNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) DeleteByUserPurpose(ctx context.Context, userID string, purpose domain.TokenPurpose) (int64, error) {
	uid, ok := objectID(userID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": uid, "purpose": string(purpose)})
	if err != nil {
		return 0, fmt.Errorf("delete user tokens: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the token indexes. The TTL index lets MongoDB drop
// expired tokens on its own; the sweeper covers the gap until its monitor runs.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "purpose", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
