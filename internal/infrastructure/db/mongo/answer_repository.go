package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

const collectionAnswers = "answers"

// AnswerRepository stores one document per (user, question) answer.
type AnswerRepository struct {
	coll *mongo.Collection
}

func NewAnswerRepository(db *mongo.Database) *AnswerRepository {
	return &AnswerRepository{coll: db.Collection(collectionAnswers)}
}

type mongoAnswer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"user_id"`
	SurveyID   string             `bson:"survey_id"`
	QuestionID string             `bson:"question_id"`
	Text       string             `bson:"text"`
	ChoiceIDs  []string           `bson:"choice_ids,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (ma *mongoAnswer) toDomain() *domain.Answer {
	return &domain.Answer{
		ID:         ma.ID.Hex(),
		UserID:     ma.UserID,
		SurveyID:   ma.SurveyID,
		QuestionID: ma.QuestionID,
		Text:       ma.Text,
		ChoiceIDs:  ma.ChoiceIDs,
		CreatedAt:  ma.CreatedAt.UTC(),
		UpdatedAt:  ma.UpdatedAt.UTC(),
	}
}

// InsertMany writes answers in an ordered batch. The (user_id, question_id)
// unique index turns a second answer to the same question into
// domain.ErrAlreadyAnswered.
func (r *AnswerRepository) InsertMany(ctx context.Context, answers []*domain.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(answers))
	ids := make([]primitive.ObjectID, 0, len(answers))
	for _, a := range answers {
		oid := primitive.NewObjectID()
		ids = append(ids, oid)
		docs = append(docs, mongoAnswer{
			ID:         oid,
			UserID:     a.UserID,
			SurveyID:   a.SurveyID,
			QuestionID: a.QuestionID,
			Text:       a.Text,
			ChoiceIDs:  a.ChoiceIDs,
			CreatedAt:  a.CreatedAt,
			UpdatedAt:  a.UpdatedAt,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyAnswered
		}
		return fmt.Errorf("insert answers: %w", err)
	}
	for i, a := range answers {
		a.ID = ids[i].Hex()
	}
	return nil
}

func (r *AnswerRepository) ExistsForSurvey(ctx context.Context, userID, surveyID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "survey_id": surveyID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count answers: %w", err)
	}
	return n > 0, nil
}

func (r *AnswerRepository) AnsweredSurveyIDs(ctx context.Context, userID string, surveyIDs []string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "survey_id", bson.M{"user_id": userID, "survey_id": bson.M{"$in": surveyIDs}})
	if err != nil {
		return nil, fmt.Errorf("answered surveys: %w", err)
	}

	out := make(map[string]bool, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *AnswerRepository) List(ctx context.Context, f ports.ListAnswersFilter) ([]*domain.Answer, error) {
	filter := bson.M{}
	if f.SurveyID != "" {
		filter["survey_id"] = f.SurveyID
	}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAnswer
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}

	out := make([]*domain.Answer, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *AnswerRepository) DeleteBySurvey(ctx context.Context, surveyID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"survey_id": surveyID})
	if err != nil {
		return 0, fmt.Errorf("delete answers: %w", err)
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the uniqueness guard on (user_id, question_id).
func (r *AnswerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "question_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "survey_id", Value: 1}, {Key: "user_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
