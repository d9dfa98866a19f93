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

const collectionSurveys = "surveys"

// SurveyRepository stores each survey as one document with its questions and
// choices embedded.
type SurveyRepository struct {
	coll *mongo.Collection
}

func NewSurveyRepository(db *mongo.Database) *SurveyRepository {
	return &SurveyRepository{coll: db.Collection(collectionSurveys)}
}

type mongoSurvey struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	CategoryID  primitive.ObjectID `bson:"category_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Summary     string             `bson:"summary,omitempty"`
	StartDate   *time.Time         `bson:"start_date,omitempty"`
	EndDate     *time.Time         `bson:"end_date,omitempty"`
	Questions   []domain.Question  `bson:"questions"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (ms *mongoSurvey) toDomain() *domain.Survey {
	questions := ms.Questions
	if questions == nil {
		questions = []domain.Question{}
	}
	return &domain.Survey{
		ID:          ms.ID.Hex(),
		CategoryID:  ms.CategoryID.Hex(),
		Title:       ms.Title,
		Description: ms.Description,
		Summary:     ms.Summary,
		StartDate:   ms.StartDate,
		EndDate:     ms.EndDate,
		Questions:   questions,
		CreatedAt:   ms.CreatedAt.UTC(),
		UpdatedAt:   ms.UpdatedAt.UTC(),
	}
}

// assignIDs gives every new question and choice a stable identifier. Answers
// reference them, so existing IDs are never rewritten.
func assignIDs(s *domain.Survey) {
	for i := range s.Questions {
		q := &s.Questions[i]
		if q.ID == "" {
			q.ID = primitive.NewObjectID().Hex()
		}
		for j := range q.Choices {
			if q.Choices[j].ID == "" {
				q.Choices[j].ID = primitive.NewObjectID().Hex()
			}
		}
	}
}

func (r *SurveyRepository) Create(ctx context.Context, s *domain.Survey) error {
	cid, ok := objectID(s.CategoryID)
	if !ok {
		return domain.ErrCategoryNotFound
	}
	assignIDs(s)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, mongoSurvey{
		CategoryID:  cid,
		Title:       s.Title,
		Description: s.Description,
		Summary:     s.Summary,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		Questions:   s.Questions,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		s.ID = oid.Hex()
	}
	return nil
}

func (r *SurveyRepository) Update(ctx context.Context, s *domain.Survey) error {
	oid, ok := objectID(s.ID)
	if !ok {
		return domain.ErrSurveyNotFound
	}
	cid, ok := objectID(s.CategoryID)
	if !ok {
		return domain.ErrCategoryNotFound
	}
	assignIDs(s)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"category_id": cid,
		"title":       s.Title,
		"description": s.Description,
		"summary":     s.Summary,
		"start_date":  s.StartDate,
		"end_date":    s.EndDate,
		"questions":   s.Questions,
		"updated_at":  s.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSurveyNotFound
	}
	return nil
}

func (r *SurveyRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrSurveyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSurveyNotFound
	}
	return nil
}

func (r *SurveyRepository) FindByID(ctx context.Context, id string) (*domain.Survey, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSurveyNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSurvey
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&ms); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSurveyNotFound
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	return ms.toDomain(), nil
}

func (r *SurveyRepository) List(ctx context.Context, categoryID string) ([]*domain.Survey, error) {
	filter := bson.M{}
	if categoryID != "" {
		cid, ok := objectID(categoryID)
		if !ok {
			return []*domain.Survey{}, nil
		}
		filter["category_id"] = cid
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoSurvey
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode surveys: %w", err)
	}

	out := make([]*domain.Survey, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *SurveyRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	cid, ok := objectID(categoryID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"category_id": cid})
	if err != nil {
		return 0, fmt.Errorf("count surveys: %w", err)
	}
	return n, nil
}

func (r *SurveyRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}
