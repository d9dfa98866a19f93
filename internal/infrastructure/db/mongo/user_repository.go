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

const collectionUsers = "users"

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Email              string             `bson:"email"`
	PasswordHash       string             `bson:"password_hash"`
	FullName           string             `bson:"full_name"`
	Phone              string             `bson:"phone"`
	PostalCode         string             `bson:"postal_code"`
	Address            string             `bson:"address"`
	OrganizationName   string             `bson:"organization_name,omitempty"`
	RepresentativeName string             `bson:"representative_name,omitempty"`
	BoothName          string             `bson:"booth_name,omitempty"`
	BoothSummary       string             `bson:"booth_summary,omitempty"`
	BoothDescription   string             `bson:"booth_description,omitempty"`
	FlyerKey           string             `bson:"flyer_key,omitempty"`
	IsActive           bool               `bson:"is_active"`
	IsStaff            bool               `bson:"is_staff"`
	EmailVerified      bool               `bson:"email_verified"`
	DateJoined         time.Time          `bson:"date_joined"`
	LastLogin          *time.Time         `bson:"last_login,omitempty"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		FullName:           u.FullName,
		Phone:              u.Phone,
		PostalCode:         u.PostalCode,
		Address:            u.Address,
		OrganizationName:   u.OrganizationName,
		RepresentativeName: u.RepresentativeName,
		BoothName:          u.BoothName,
		BoothSummary:       u.BoothSummary,
		BoothDescription:   u.BoothDescription,
		FlyerKey:           u.FlyerKey,
		IsActive:           u.IsActive,
		IsStaff:            u.IsStaff,
		EmailVerified:      u.EmailVerified,
		DateJoined:         u.DateJoined,
		LastLogin:          u.LastLogin,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:                 mu.ID.Hex(),
		Email:              mu.Email,
		PasswordHash:       mu.PasswordHash,
		FullName:           mu.FullName,
		Phone:              mu.Phone,
		PostalCode:         mu.PostalCode,
		Address:            mu.Address,
		OrganizationName:   mu.OrganizationName,
		RepresentativeName: mu.RepresentativeName,
		BoothName:          mu.BoothName,
		BoothSummary:       mu.BoothSummary,
		BoothDescription:   mu.BoothDescription,
		FlyerKey:           mu.FlyerKey,
		IsActive:           mu.IsActive,
		IsStaff:            mu.IsStaff,
		EmailVerified:      mu.EmailVerified,
		DateJoined:         mu.DateJoined.UTC(),
		LastLogin:          mu.LastLogin,
		UpdatedAt:          mu.UpdatedAt.UTC(),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.ID, _ = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// Activate flips the account to active in a single conditional update so a
// token can never re-activate an account that is already active.
func (r *UserRepository) Activate(ctx context.Context, id string, at time.Time) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.updateOne(ctx,
		bson.M{"_id": oid, "is_active": false},
		bson.M{"$set": bson.M{"is_active": true, "email_verified": true, "updated_at": at}},
	)
}

func (r *UserRepository) UpdateEmail(ctx context.Context, id, email string, at time.Time) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.updateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"email": email, "updated_at": at}},
	)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, p domain.Profile, at time.Time) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.updateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"full_name":           p.FullName,
			"phone":               p.Phone,
			"postal_code":         p.PostalCode,
			"address":             p.Address,
			"organization_name":   p.OrganizationName,
			"representative_name": p.RepresentativeName,
			"booth_name":          p.BoothName,
			"booth_summary":       p.BoothSummary,
			"booth_description":   p.BoothDescription,
			"updated_at":          at,
		}},
	)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	_, err := r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": at}})
	return err
}

func (r *UserRepository) SetFlyer(ctx context.Context, id, key string, at time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	_, err := r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"flyer_key": key, "updated_at": at}})
	return err
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrUserNotFound
	}
	_, err := r.updateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"last_login": at}})
	return err
}

// EnsureIndexes creates necessary indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) updateOne(ctx context.Context, filter, update bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mu); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}
