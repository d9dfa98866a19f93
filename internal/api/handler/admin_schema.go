package handler

import (
	"time"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

type categoryRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

func (r categoryRequest) toInput() ports.CategoryInput {
	return ports.CategoryInput{Name: r.Name, Description: r.Description, Order: r.Order}
}

type choiceRequest struct {
	ID    string `json:"id"`
	Text  string `json:"text"  validate:"required,max=200"`
	Order int    `json:"order"`
}

type questionRequest struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"          validate:"required,max=200"`
	Type       string          `json:"question_type" validate:"required,oneof=text textarea radio checkbox select"`
	Order      int             `json:"order"`
	IsRequired bool            `json:"is_required"`
	Choices    []choiceRequest `json:"choices"       validate:"dive"`
}

type surveyRequest struct {
	CategoryID  string            `json:"category_id" validate:"required"`
	Title       string            `json:"title"       validate:"required,max=200"`
	Description string            `json:"description"`
	Summary     string            `json:"summary"`
	StartDate   *time.Time        `json:"start_date"`
	EndDate     *time.Time        `json:"end_date"`
	Questions   []questionRequest `json:"questions"   validate:"dive"`
}

func (r surveyRequest) toInput() ports.SurveyInput {
	in := ports.SurveyInput{
		CategoryID:  r.CategoryID,
		Title:       r.Title,
		Description: r.Description,
		Summary:     r.Summary,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Questions:   make([]ports.QuestionInput, 0, len(r.Questions)),
	}
	for _, q := range r.Questions {
		qi := ports.QuestionInput{ID: q.ID, Text: q.Text, Type: q.Type, Order: q.Order, IsRequired: q.IsRequired}
		for _, ch := range q.Choices {
			qi.Choices = append(qi.Choices, ports.ChoiceInput{ID: ch.ID, Text: ch.Text, Order: ch.Order})
		}
		in.Questions = append(in.Questions, qi)
	}
	return in
}

type categoryResponse struct {
	Category *domain.Category `json:"category"`
}

type surveysResponse struct {
	Surveys []*domain.Survey `json:"surveys"`
}

type surveyResponse struct {
	Survey *domain.Survey `json:"survey"`
}

type reportColumn struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

type reportRow struct {
	UserID   string            `json:"user_id"`
	Email    string            `json:"email"`
	FullName string            `json:"full_name"`
	Answers  map[string]string `json:"answers"`
}

type reportResponse struct {
	SurveyID string         `json:"survey_id"`
	Title    string         `json:"title"`
	Columns  []reportColumn `json:"columns"`
	Rows     []reportRow    `json:"rows"`
}

func newReportResponse(r *ports.SurveyReport) reportResponse {
	resp := reportResponse{
		SurveyID: r.Survey.ID,
		Title:    r.Survey.Title,
		Columns:  make([]reportColumn, 0, len(r.Survey.Questions)),
		Rows:     make([]reportRow, 0, len(r.Rows)),
	}
	for _, q := range r.Survey.Questions {
		resp.Columns = append(resp.Columns, reportColumn{QuestionID: q.ID, Text: q.Text})
	}
	for _, row := range r.Rows {
		resp.Rows = append(resp.Rows, reportRow{UserID: row.UserID, Email: row.Email, FullName: row.FullName, Answers: row.Answers})
	}
	return resp
}
