package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// SurveyAdminService is the staff side of surveys: catalogue maintenance and answer reporting.
type SurveyAdminService struct {
	categories ports.CategoryRepository
	surveys    ports.SurveyRepository
	answers    ports.AnswerRepository
	users      ports.UserRepository
	logger     zerolog.Logger
	now        func() time.Time
}

func NewSurveyAdminService(
	categories ports.CategoryRepository,
	surveys ports.SurveyRepository,
	answers ports.AnswerRepository,
	users ports.UserRepository,
	logger zerolog.Logger,
) *SurveyAdminService {
	return &SurveyAdminService{
		categories: categories,
		surveys:    surveys,
		answers:    answers,
		users:      users,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ── Categories ────────────────────────────────────────────────────────────────

func (s *SurveyAdminService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// CreateCategory stores a category. Without an explicit order it is placed after the last one.
func (s *SurveyAdminService) CreateCategory(ctx context.Context, input ports.CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	order, err := s.categoryOrder(ctx, input.Order)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("category_id", c.ID).Int("order", c.Order).Msg("category created")
	return c, nil
}

func (s *SurveyAdminService) UpdateCategory(ctx context.Context, id string, input ports.CategoryInput) (*domain.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	c.Name = name
	c.Description = strings.TrimSpace(input.Description)
	if input.Order != nil {
		c.Order = *input.Order
	}
	c.UpdatedAt = s.now()

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes an empty category.
func (s *SurveyAdminService) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.surveys.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrCategoryInUse
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

func (s *SurveyAdminService) categoryOrder(ctx context.Context, explicit *int) (int, error) {
	if explicit != nil {
		return *explicit, nil
	}
	last, err := s.categories.MaxOrder(ctx)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

// ── Surveys ───────────────────────────────────────────────────────────────────

func (s *SurveyAdminService) ListSurveys(ctx context.Context, categoryID string) ([]*domain.Survey, error) {
	return s.surveys.List(ctx, categoryID)
}

func (s *SurveyAdminService) GetSurvey(ctx context.Context, id string) (*domain.Survey, error) {
	sv, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sv.SortQuestions()
	return sv, nil
}

// CreateSurvey stores a new survey. Incoming question and choice IDs are
// ignored; the repository assigns fresh ones.
func (s *SurveyAdminService) CreateSurvey(ctx context.Context, input ports.SurveyInput) (*domain.Survey, error) {
	sv := &domain.Survey{}
	if err := s.applySurveyInput(ctx, sv, input); err != nil {
		return nil, err
	}

	now := s.now()
	sv.CreatedAt = now
	sv.UpdatedAt = now
	if err := s.surveys.Create(ctx, sv); err != nil {
		return nil, err
	}

	s.logger.Info().Str("survey_id", sv.ID).Str("category_id", sv.CategoryID).Int("questions", len(sv.Questions)).Msg("survey created")
	return sv, nil
}

// UpdateSurvey replaces the survey definition. A question or choice keeps its
// ID only when that ID already belongs to this survey; anything else is new.
func (s *SurveyAdminService) UpdateSurvey(ctx context.Context, id string, input ports.SurveyInput) (*domain.Survey, error) {
	sv, err := s.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applySurveyInput(ctx, sv, input); err != nil {
		return nil, err
	}

	sv.UpdatedAt = s.now()
	if err := s.surveys.Update(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// DeleteSurvey removes a survey together with all of its answers.
func (s *SurveyAdminService) DeleteSurvey(ctx context.Context, id string) error {
	if _, err := s.surveys.FindByID(ctx, id); err != nil {
		return err
	}
	removed, err := s.answers.DeleteBySurvey(ctx, id)
	if err != nil {
		return err
	}
	if err := s.surveys.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("survey_id", id).Int64("answers_removed", removed).Msg("survey deleted")
	return nil
}

func (s *SurveyAdminService) applySurveyInput(ctx context.Context, sv *domain.Survey, input ports.SurveyInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if input.StartDate != nil && input.EndDate != nil && !input.EndDate.After(*input.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", domain.ErrValidation)
	}
	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		return err
	}

	known := knownIDs(sv)
	usedQuestions := make(map[string]bool, len(input.Questions))
	questions := make([]domain.Question, 0, len(input.Questions))
	for i, qi := range input.Questions {
		q, err := buildQuestion(qi, known, usedQuestions)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}

	sv.CategoryID = input.CategoryID
	sv.Title = title
	sv.Description = strings.TrimSpace(input.Description)
	sv.Summary = strings.TrimSpace(input.Summary)
	sv.StartDate = input.StartDate
	sv.EndDate = input.EndDate
	sv.Questions = questions
	sv.SortQuestions()
	return nil
}

// knownIDs maps every question ID of sv to the set of its choice IDs.
func knownIDs(sv *domain.Survey) map[string]map[string]bool {
	known := make(map[string]map[string]bool, len(sv.Questions))
	for _, q := range sv.Questions {
		choices := make(map[string]bool, len(q.Choices))
		for _, c := range q.Choices {
			choices[c.ID] = true
		}
		known[q.ID] = choices
	}
	return known
}

// buildQuestion validates one question. IDs outside known are dropped so the
// repository assigns new ones; a known ID may appear only once.
func buildQuestion(in ports.QuestionInput, known map[string]map[string]bool, used map[string]bool) (domain.Question, error) {
	text := strings.TrimSpace(in.Text)
	qt := domain.QuestionType(in.Type)
	switch {
	case text == "":
		return domain.Question{}, fmt.Errorf("%w: text is required", domain.ErrValidation)
	case len([]rune(text)) > domain.QuestionTextMaxLen:
		return domain.Question{}, fmt.Errorf("%w: text must be at most %d characters", domain.ErrValidation, domain.QuestionTextMaxLen)
	case !qt.Known():
		return domain.Question{}, fmt.Errorf("%w: unknown question type %q", domain.ErrValidation, in.Type)
	}

	q := domain.Question{
		Text:       text,
		Type:       qt,
		Order:      in.Order,
		IsRequired: in.IsRequired,
	}
	knownChoices, ok := known[in.ID]
	if ok {
		if used[in.ID] {
			return domain.Question{}, fmt.Errorf("%w: question id %s appears more than once", domain.ErrValidation, in.ID)
		}
		used[in.ID] = true
		q.ID = in.ID
	}
	if !qt.IsChoice() {
		return q, nil
	}

	if len(in.Choices) == 0 {
		return domain.Question{}, fmt.Errorf("%w: %s questions need at least one choice", domain.ErrValidation, qt)
	}
	usedChoices := make(map[string]bool, len(in.Choices))
	for _, ci := range in.Choices {
		ct := strings.TrimSpace(ci.Text)
		if ct == "" {
			return domain.Question{}, fmt.Errorf("%w: choice text is required", domain.ErrValidation)
		}
		choice := domain.Choice{Text: ct, Order: ci.Order}
		if knownChoices[ci.ID] {
			if usedChoices[ci.ID] {
				return domain.Question{}, fmt.Errorf("%w: choice id %s appears more than once", domain.ErrValidation, ci.ID)
			}
			usedChoices[ci.ID] = true
			choice.ID = ci.ID
		}
		q.Choices = append(q.Choices, choice)
	}
	return q, nil
}

// ── Answers ───────────────────────────────────────────────────────────────────

func (s *SurveyAdminService) ListAnswers(ctx context.Context, filter ports.ListAnswersFilter) ([]*domain.Answer, error) {
	return s.answers.List(ctx, filter)
}

// Report lays out every answer of a survey as one row per respondent, keyed by question ID.
func (s *SurveyAdminService) Report(ctx context.Context, surveyID string) (*ports.SurveyReport, error) {
	sv, err := s.GetSurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.List(ctx, ports.ListAnswersFilter{SurveyID: surveyID})
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*ports.ReportRow)
	var userIDs []string
	for _, a := range answers {
		row, ok := rows[a.UserID]
		if !ok {
			row = &ports.ReportRow{UserID: a.UserID, Answers: make(map[string]string, len(sv.Questions))}
			rows[a.UserID] = row
			userIDs = append(userIDs, a.UserID)
		}
		row.Answers[a.QuestionID] = a.Text
	}

	if len(userIDs) > 0 {
		users, err := s.users.FindByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if row, ok := rows[u.ID]; ok {
				row.Email = u.Email
				row.FullName = u.FullName
			}
		}
	}

	report := &ports.SurveyReport{Survey: sv, Rows: make([]ports.ReportRow, 0, len(rows))}
	for _, id := range userIDs {
		report.Rows = append(report.Rows, *rows[id])
	}
	sort.SliceStable(report.Rows, func(i, j int) bool { return report.Rows[i].Email < report.Rows[j].Email })
	return report, nil
}
