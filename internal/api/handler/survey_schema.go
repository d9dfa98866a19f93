package handler

import (
	"time"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

type categoriesResponse struct {
	Categories []*domain.Category `json:"categories"`
}

type surveySummaryResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	IsOpen        bool       `json:"is_open"`
	Answered      bool       `json:"answered"`
	QuestionCount int        `json:"question_count"`
}

type categorySurveysResponse struct {
	Category *domain.Category        `json:"category"`
	Surveys  []surveySummaryResponse `json:"surveys"`
}

func newCategorySurveysResponse(cat *domain.Category, items []ports.SurveySummary) categorySurveysResponse {
	resp := categorySurveysResponse{Category: cat, Surveys: make([]surveySummaryResponse, 0, len(items))}
	for _, it := range items {
		resp.Surveys = append(resp.Surveys, surveySummaryResponse{
			ID:            it.ID,
			Title:         it.Title,
			Summary:       it.Summary,
			StartDate:     it.StartDate,
			EndDate:       it.EndDate,
			IsOpen:        it.IsOpen,
			Answered:      it.Answered,
			QuestionCount: it.QuestionCnt,
		})
	}
	return resp
}

type surveyDetailResponse struct {
	Survey   *domain.Survey `json:"survey"`
	IsOpen   bool           `json:"is_open"`
	Answered bool           `json:"answered"`
}

type answerItemRequest struct {
	QuestionID string   `json:"question_id" validate:"required"`
	Text       string   `json:"text"`
	ChoiceIDs  []string `json:"choice_ids"`
}

type submitAnswersRequest struct {
	Answers []answerItemRequest `json:"answers" validate:"dive"`
}

func (r submitAnswersRequest) toInput() []ports.AnswerInput {
	out := make([]ports.AnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		out = append(out, ports.AnswerInput{QuestionID: a.QuestionID, Text: a.Text, ChoiceIDs: a.ChoiceIDs})
	}
	return out
}

type answersResponse struct {
	Answers []*domain.Answer `json:"answers"`
}
