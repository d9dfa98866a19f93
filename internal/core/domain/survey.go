package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrSurveyNotFound = errors.New("survey not found")
var ErrCategoryNotFound = errors.New("category not found")
var ErrCategoryInUse = errors.New("category still has surveys")
var ErrSurveyClosed = errors.New("survey is not open")
var ErrAlreadyAnswered = errors.New("survey already answered")
var ErrInvalidAnswer = errors.New("invalid answer")

// QuestionTextMaxLen bounds the question wording.
const QuestionTextMaxLen = 200

// QuestionType selects the input widget and the answer rules of a question.
type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionTextarea QuestionType = "textarea"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionSelect   QuestionType = "select"
)

// choiceTypes lists the question types answered by picking choices.
var choiceTypes = map[QuestionType]bool{
	QuestionText:     false,
	QuestionTextarea: false,
	QuestionRadio:    true,
	QuestionCheckbox: true,
	QuestionSelect:   true,
}

// Known reports whether t is a supported question type.
func (t QuestionType) Known() bool {
	_, ok := choiceTypes[t]
	return ok
}

// IsChoice reports whether answers to t are made of choice IDs.
func (t QuestionType) IsChoice() bool {
	return choiceTypes[t]
}

// SingleChoice reports whether exactly one choice may be picked.
func (t QuestionType) SingleChoice() bool {
	return t == QuestionRadio || t == QuestionSelect
}

// Category groups surveys on the home screen.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Choice is one selectable option of a choice question.
type Choice struct {
	ID    string `json:"id" bson:"id"`
	Text  string `json:"text" bson:"text"`
	Order int    `json:"order" bson:"order"`
}

// Question belongs to exactly one survey and is stored with it.
type Question struct {
	ID         string       `json:"id" bson:"id"`
	Text       string       `json:"text" bson:"text"`
	Type       QuestionType `json:"question_type" bson:"question_type"`
	Order      int          `json:"order" bson:"order"`
	IsRequired bool         `json:"is_required" bson:"is_required"`
	Choices    []Choice     `json:"choices,omitempty" bson:"choices,omitempty"`
}

// Choice returns the choice with the given ID, or nil.
func (q *Question) Choice(id string) *Choice {
	for i := range q.Choices {
		if q.Choices[i].ID == id {
			return &q.Choices[i]
		}
	}
	return nil
}

// Survey is an administrator-curated questionnaire.
type Survey struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"category_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOpen reports whether answers are accepted at now. Missing bounds are open-ended.
func (s *Survey) IsOpen(now time.Time) bool {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// Question returns the question with the given ID, or nil.
func (s *Survey) Question(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// SortQuestions orders questions, and the choices inside them, by Order.
func (s *Survey) SortQuestions() {
	sort.SliceStable(s.Questions, func(i, j int) bool { return s.Questions[i].Order < s.Questions[j].Order })
	for i := range s.Questions {
		choices := s.Questions[i].Choices
		sort.SliceStable(choices, func(a, b int) bool { return choices[a].Order < choices[b].Order })
	}
}

// Answer is one user's response to one question. (UserID, QuestionID) is unique.
type Answer struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SurveyID   string    `json:"survey_id"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	ChoiceIDs  []string  `json:"choice_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BuildAnswer validates a response to q and returns the answer row to store.
// Unanswered optional questions yield a row with empty text.
func (q *Question) BuildAnswer(text string, choiceIDs []string) (*Answer, error) {
	if !q.Type.IsChoice() {
		text = strings.TrimSpace(text)
		if text == "" && q.IsRequired {
			return nil, fmt.Errorf("%w: question %q is required", ErrInvalidAnswer, q.Text)
		}
		return &Answer{QuestionID: q.ID, Text: text}, nil
	}

	if len(choiceIDs) == 0 {
		if q.IsRequired {
			return nil, fmt.Errorf("%w: question %q is required", ErrInvalidAnswer, q.Text)
		}
		return &Answer{QuestionID: q.ID}, nil
	}
	if q.Type.SingleChoice() && len(choiceIDs) > 1 {
		return nil, fmt.Errorf("%w: question %q accepts a single choice", ErrInvalidAnswer, q.Text)
	}

	seen := make(map[string]struct{}, len(choiceIDs))
	labels := make([]string, 0, len(choiceIDs))
	for _, id := range choiceIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: choice %s picked twice", ErrInvalidAnswer, id)
		}
		seen[id] = struct{}{}

		c := q.Choice(id)
		if c == nil {
			return nil, fmt.Errorf("%w: choice %s does not belong to question %q", ErrInvalidAnswer, id, q.Text)
		}
		labels = append(labels, c.Text)
	}

	ids := make([]string, len(choiceIDs))
	copy(ids, choiceIDs)
	return &Answer{QuestionID: q.ID, Text: strings.Join(labels, ", "), ChoiceIDs: ids}, nil
}
