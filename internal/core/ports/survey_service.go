package ports

import (
	"context"
	"time"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// SurveySummary is a survey row in a category listing.
type SurveySummary struct {
	ID          string
	Title       string
	Summary     string
	StartDate   *time.Time
	EndDate     *time.Time
	IsOpen      bool
	Answered    bool
	QuestionCnt int
}

// SurveyDetail is a survey with its ordered questions, as shown to a respondent.
type SurveyDetail struct {
	Survey   *domain.Survey
	IsOpen   bool
	Answered bool
}

// AnswerInput is the response to one question. Text is used by text and
// textarea questions, ChoiceIDs by choice questions.
type AnswerInput struct {
	QuestionID string
	Text       string
	ChoiceIDs  []string
}

// SurveyService is the respondent side of surveys.
type SurveyService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	ListSurveys(ctx context.Context, categoryID, userID string) (*domain.Category, []SurveySummary, error)
	GetSurvey(ctx context.Context, surveyID, userID string) (*SurveyDetail, error)
	SubmitAnswers(ctx context.Context, userID, surveyID string, answers []AnswerInput) ([]*domain.Answer, error)
}

// CategoryInput carries category fields. A nil Order means "after the last one".
type CategoryInput struct {
	Name        string
	Description string
	Order       *int
}

// ChoiceInput carries one choice of a question.
type ChoiceInput struct {
	ID    string
	Text  string
	Order int
}

// QuestionInput carries one question of a survey.
type QuestionInput struct {
	ID         string
	Text       string
	Type       string
	Order      int
	IsRequired bool
	Choices    []ChoiceInput
}

// SurveyInput carries a full survey definition.
type SurveyInput struct {
	CategoryID  string
	Title       string
	Description string
	Summary     string
	StartDate   *time.Time
	EndDate     *time.Time
	Questions   []QuestionInput
}

// ReportRow is one respondent's answers keyed by question ID.
type ReportRow struct {
	UserID   string
	Email    string
	FullName string
	Answers  map[string]string
}

// SurveyReport is the read-only answer table of a survey.
type SurveyReport struct {
	Survey *domain.Survey
	Rows   []ReportRow
}

// SurveyAdminService is the staff side of surveys.
type SurveyAdminService interface {
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, input CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListSurveys(ctx context.Context, categoryID string) ([]*domain.Survey, error)
	GetSurvey(ctx context.Context, id string) (*domain.Survey, error)
	CreateSurvey(ctx context.Context, input SurveyInput) (*domain.Survey, error)
	UpdateSurvey(ctx context.Context, id string, input SurveyInput) (*domain.Survey, error)
	DeleteSurvey(ctx context.Context, id string) error

	ListAnswers(ctx context.Context, filter ListAnswersFilter) ([]*domain.Answer, error)
	Report(ctx context.Context, surveyID string) (*SurveyReport, error)
}
