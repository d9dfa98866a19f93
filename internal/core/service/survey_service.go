package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/api/metrics"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// SurveyService is the respondent side of surveys.
type SurveyService struct {
	categories ports.CategoryRepository
	surveys    ports.SurveyRepository
	answers    ports.AnswerRepository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSurveyService(categories ports.CategoryRepository, surveys ports.SurveyRepository, answers ports.AnswerRepository, logger zerolog.Logger) *SurveyService {
	return &SurveyService{
		categories: categories,
		surveys:    surveys,
		answers:    answers,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *SurveyService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// ListSurveys returns the surveys of a category. When userID is set, each row
// tells whether that user already answered it.
func (s *SurveyService) ListSurveys(ctx context.Context, categoryID, userID string) (*domain.Category, []ports.SurveySummary, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}

	surveys, err := s.surveys.List(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}

	answered := map[string]bool{}
	if userID != "" && len(surveys) > 0 {
		ids := make([]string, 0, len(surveys))
		for _, sv := range surveys {
			ids = append(ids, sv.ID)
		}
		if answered, err = s.answers.AnsweredSurveyIDs(ctx, userID, ids); err != nil {
			return nil, nil, err
		}
	}

	now := s.now()
	items := make([]ports.SurveySummary, 0, len(surveys))
	for _, sv := range surveys {
		items = append(items, ports.SurveySummary{
			ID:          sv.ID,
			Title:       sv.Title,
			Summary:     sv.Summary,
			StartDate:   sv.StartDate,
			EndDate:     sv.EndDate,
			IsOpen:      sv.IsOpen(now),
			Answered:    answered[sv.ID],
			QuestionCnt: len(sv.Questions),
		})
	}
	return category, items, nil
}

// GetSurvey returns a survey with questions and choices in display order.
func (s *SurveyService) GetSurvey(ctx context.Context, surveyID, userID string) (*ports.SurveyDetail, error) {
	sv, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	sv.SortQuestions()

	detail := &ports.SurveyDetail{Survey: sv, IsOpen: sv.IsOpen(s.now())}
	if userID != "" {
		if detail.Answered, err = s.answers.ExistsForSurvey(ctx, userID, surveyID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// SubmitAnswers records one answer row per question of the survey. A user who
// already answered any question of it gets domain.ErrAlreadyAnswered and no row
// is written.
func (s *SurveyService) SubmitAnswers(ctx context.Context, userID, surveyID string, inputs []ports.AnswerInput) ([]*domain.Answer, error) {
	sv, err := s.surveys.FindByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !sv.IsOpen(now) {
		return nil, domain.ErrSurveyClosed
	}

	done, err := s.answers.ExistsForSurvey(ctx, userID, surveyID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, domain.ErrAlreadyAnswered
	}

	byQuestion := make(map[string]ports.AnswerInput, len(inputs))
	for _, in := range inputs {
		if sv.Question(in.QuestionID) == nil {
			return nil, fmt.Errorf("%w: question %s is not part of this survey", domain.ErrInvalidAnswer, in.QuestionID)
		}
		if _, dup := byQuestion[in.QuestionID]; dup {
			return nil, fmt.Errorf("%w: question %s answered twice", domain.ErrInvalidAnswer, in.QuestionID)
		}
		byQuestion[in.QuestionID] = in
	}

	sv.SortQuestions()
	rows := make([]*domain.Answer, 0, len(sv.Questions))
	for i := range sv.Questions {
		q := &sv.Questions[i]
		in := byQuestion[q.ID]
		a, err := q.BuildAnswer(in.Text, in.ChoiceIDs)
		if err != nil {
			return nil, err
		}
		a.UserID = userID
		a.SurveyID = sv.ID
		a.CreatedAt = now
		a.UpdatedAt = now
		rows = append(rows, a)
	}

	if err := s.answers.InsertMany(ctx, rows); err != nil {
		if errors.Is(err, domain.ErrAlreadyAnswered) {
			s.logger.Info().Str("user_id", userID).Str("survey_id", surveyID).Msg("concurrent duplicate answer rejected")
		}
		return nil, err
	}

	metrics.SurveyAnswersTotal.WithLabelValues(sv.ID).Add(float64(len(rows)))
	s.logger.Info().Str("user_id", userID).Str("survey_id", surveyID).Int("answers", len(rows)).Msg("survey answered")
	return rows, nil
}
