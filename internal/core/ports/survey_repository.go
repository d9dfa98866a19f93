package ports

import (
	"context"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// CategoryRepository persists survey categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Category, error)
	// List returns categories ordered by (order, name).
	List(ctx context.Context) ([]*domain.Category, error)
	// MaxOrder returns the highest order in use, or 0 when there are no categories.
	MaxOrder(ctx context.Context) (int, error)
}

// SurveyRepository persists surveys with their questions and choices embedded.
// Create and Update assign IDs to questions and choices that lack one.
type SurveyRepository interface {
	Create(ctx context.Context, s *domain.Survey) error
	Update(ctx context.Context, s *domain.Survey) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Survey, error)
	// List returns surveys of categoryID, or all surveys when it is empty.
	List(ctx context.Context, categoryID string) ([]*domain.Survey, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}

// ListAnswersFilter narrows an answer listing. Empty fields do not filter.
type ListAnswersFilter struct {
	SurveyID string
	UserID   string
}

// AnswerRepository persists survey answers. (user_id, question_id) is unique.
type AnswerRepository interface {
	// InsertMany stores answers in order. A uniqueness violation returns domain.ErrAlreadyAnswered.
	InsertMany(ctx context.Context, answers []*domain.Answer) error
	ExistsForSurvey(ctx context.Context, userID, surveyID string) (bool, error)
	AnsweredSurveyIDs(ctx context.Context, userID string, surveyIDs []string) (map[string]bool, error)
	List(ctx context.Context, filter ListAnswersFilter) ([]*domain.Answer, error)
	DeleteBySurvey(ctx context.Context, surveyID string) (int64, error)
}
