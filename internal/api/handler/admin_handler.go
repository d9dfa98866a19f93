package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// AdminHandler serves survey administration to staff.
type AdminHandler struct {
	admin ports.SurveyAdminService
}

func NewAdminHandler(admin ports.SurveyAdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListCategories handles GET /admin/categories/.
//
// @Summary      List categories
// @Tags         admin
// @Produce      json
// @Success      200  {object}  categoriesResponse
// @Failure      403  {object}  map[string]string
// @Router       /admin/categories/ [get]
func (h *AdminHandler) ListCategories(c echo.Context) error {
	cats, err := h.admin.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: cats})
}

// CreateCategory handles POST /admin/categories/.
//
// @Summary      Create a category
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      categoryRequest  true  "Category; order defaults to after the last one"
// @Success      201   {object}  categoryResponse
// @Failure      422   {object}  map[string]string
// @Router       /admin/categories/ [post]
func (h *AdminHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cat, err := h.admin.CreateCategory(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, categoryResponse{Category: cat})
}

// UpdateCategory handles PUT /admin/categories/:id/.
//
// @Summary      Update a category
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Category ID"
// @Param        body  body      categoryRequest  true  "Category"
// @Success      200   {object}  categoryResponse
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /admin/categories/{id}/ [put]
func (h *AdminHandler) UpdateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cat, err := h.admin.UpdateCategory(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoryResponse{Category: cat})
}

// DeleteCategory handles DELETE /admin/categories/:id/.
//
// @Summary      Delete an empty category
// @Tags         admin
// @Param        id   path  string  true  "Category ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /admin/categories/{id}/ [delete]
func (h *AdminHandler) DeleteCategory(c echo.Context) error {
	if err := h.admin.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSurveys handles GET /admin/surveys/?category_id=.
//
// @Summary      List surveys
// @Tags         admin
// @Produce      json
// @Param        category_id  query     string  false  "Only surveys of this category"
// @Success      200          {object}  surveysResponse
// @Router       /admin/surveys/ [get]
func (h *AdminHandler) ListSurveys(c echo.Context) error {
	surveys, err := h.admin.ListSurveys(c.Request().Context(), c.QueryParam("category_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveysResponse{Surveys: surveys})
}

// GetSurvey handles GET /admin/surveys/:id/.
//
// @Summary      Show a survey
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Survey ID"
// @Success      200  {object}  surveyResponse
// @Failure      404  {object}  map[string]string
// @Router       /admin/surveys/{id}/ [get]
func (h *AdminHandler) GetSurvey(c echo.Context) error {
	sv, err := h.admin.GetSurvey(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveyResponse{Survey: sv})
}

// CreateSurvey handles POST /admin/surveys/.
//
// @Summary      Create a survey
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      surveyRequest  true  "Survey with questions and choices"
// @Success      201   {object}  surveyResponse
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /admin/surveys/ [post]
func (h *AdminHandler) CreateSurvey(c echo.Context) error {
	var req surveyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sv, err := h.admin.CreateSurvey(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, surveyResponse{Survey: sv})
}

// UpdateSurvey handles PUT /admin/surveys/:id/.
//
// @Summary      Replace a survey definition
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Survey ID"
// @Param        body  body      surveyRequest  true  "Survey with questions and choices"
// @Success      200   {object}  surveyResponse
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /admin/surveys/{id}/ [put]
func (h *AdminHandler) UpdateSurvey(c echo.Context) error {
	var req surveyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sv, err := h.admin.UpdateSurvey(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveyResponse{Survey: sv})
}

// DeleteSurvey handles DELETE /admin/surveys/:id/. Answers go with it.
//
// @Summary      Delete a survey and its answers
// @Tags         admin
// @Param        id   path  string  true  "Survey ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /admin/surveys/{id}/ [delete]
func (h *AdminHandler) DeleteSurvey(c echo.Context) error {
	if err := h.admin.DeleteSurvey(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAnswers handles GET /admin/answers/.
//
// @Summary      List answers
// @Tags         admin
// @Produce      json
// @Param        survey_id  query     string  false  "Filter by survey"
// @Param        user_id    query     string  false  "Filter by respondent"
// @Success      200        {object}  answersResponse
// @Router       /admin/answers/ [get]
func (h *AdminHandler) ListAnswers(c echo.Context) error {
	answers, err := h.admin.ListAnswers(c.Request().Context(), ports.ListAnswersFilter{
		SurveyID: c.QueryParam("survey_id"),
		UserID:   c.QueryParam("user_id"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, answersResponse{Answers: answers})
}

// Report handles GET /admin/surveys/:id/report/.
//
// @Summary      Answer table of a survey
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Survey ID"
// @Success      200  {object}  reportResponse
// @Failure      404  {object}  map[string]string
// @Router       /admin/surveys/{id}/report/ [get]
func (h *AdminHandler) Report(c echo.Context) error {
	report, err := h.admin.Report(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newReportResponse(report))
}
