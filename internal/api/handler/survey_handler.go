package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boothfair/exhibitor-portal/internal/api/middleware"
	"github.com/boothfair/exhibitor-portal/internal/core/domain"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// SurveyHandler serves the respondent side of surveys.
type SurveyHandler struct {
	surveys ports.SurveyService
}

func NewSurveyHandler(surveys ports.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// Categories handles GET /.
//
// @Summary      List survey categories
// @Tags         surveys
// @Produce      json
// @Success      200  {object}  categoriesResponse
// @Router       / [get]
func (h *SurveyHandler) Categories(c echo.Context) error {
	cats, err := h.surveys.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: cats})
}

// Category handles GET /category/:id/. Signed-in callers also see which
// surveys they already answered.
//
// @Summary      List the surveys of a category
// @Tags         surveys
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  categorySurveysResponse
// @Failure      404  {object}  map[string]string
// @Router       /category/{id}/ [get]
func (h *SurveyHandler) Category(c echo.Context) error {
	cat, items, err := h.surveys.ListSurveys(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newCategorySurveysResponse(cat, items))
}

// Survey handles GET /survey/:id/.
//
// @Summary      Show a survey
// @Tags         surveys
// @Produce      json
// @Param        id   path      string  true  "Survey ID"
// @Success      200  {object}  surveyDetailResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /survey/{id}/ [get]
func (h *SurveyHandler) Survey(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	detail, err := h.surveys.GetSurvey(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveyDetailResponse{Survey: detail.Survey, IsOpen: detail.IsOpen, Answered: detail.Answered})
}

// Answer handles POST /survey/:id/answer/. A second submission is refused
// with 409 and a Location pointing back at the survey.
//
// @Summary      Answer a survey
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Survey ID"
// @Param        body  body      submitAnswersRequest  true  "One entry per question"
// @Success      201   {object}  answersResponse
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /survey/{id}/answer/ [post]
func (h *SurveyHandler) Answer(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req submitAnswersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	surveyID := c.Param("id")
	rows, err := h.surveys.SubmitAnswers(c.Request().Context(), userID, surveyID, req.toInput())
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyAnswered) {
			c.Response().Header().Set(echo.HeaderLocation, "/survey/"+surveyID+"/")
			return c.JSON(http.StatusConflict, map[string]string{"error": "survey already answered"})
		}
		return err
	}
	return c.JSON(http.StatusCreated, answersResponse{Answers: rows})
}
