package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/boothfair/exhibitor-portal/docs"
	"github.com/boothfair/exhibitor-portal/internal/api/handler"
	"github.com/boothfair/exhibitor-portal/internal/api/middleware"
	"github.com/boothfair/exhibitor-portal/internal/core/ports"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Accounts ports.AccountService
	Sessions ports.SessionService
	Surveys  ports.SurveyService
	Admin    ports.SurveyAdminService
	Checks   map[string]handler.Check

	CookieSecure bool
	Logger       zerolog.Logger

	// Registerer receives the HTTP request metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	reg := d.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "exhibitor",
		Registerer: reg,
	}))
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(middleware.Session(d.Sessions))

	anonymous := middleware.RequireAnonymous()
	authenticated := middleware.RequireAuthenticated()

	// --- Dependencies ---
	accountHandler := handler.NewAccountHandler(d.Accounts, d.Sessions, handler.CookieConfig{Secure: d.CookieSecure}, d.Logger)
	surveyHandler := handler.NewSurveyHandler(d.Surveys)
	adminHandler := handler.NewAdminHandler(d.Admin)
	healthHandler := handler.NewHealthHandler(d.Checks)

	// --- Account routes ---
	accounts := e.Group("/accounts")
	accounts.POST("/signup/", accountHandler.SignUp, anonymous)
	accounts.GET("/verify-email/:token/", accountHandler.VerifyEmail)
	accounts.POST("/verify-email/resend/", accountHandler.ResendActivation, anonymous)
	accounts.POST("/login/", accountHandler.Login, anonymous)
	accounts.POST("/logout/", accountHandler.Logout, authenticated)
	accounts.GET("/update/", accountHandler.GetProfile, authenticated)
	accounts.PUT("/update/", accountHandler.UpdateProfile, authenticated)
	accounts.POST("/email/change/", accountHandler.RequestEmailChange, authenticated)
	accounts.GET("/email/verify/:token/", accountHandler.ConfirmEmailChange, authenticated)
	accounts.POST("/password/change/", accountHandler.ChangePassword, authenticated)
	accounts.POST("/password/reset/", accountHandler.RequestPasswordReset, anonymous)
	accounts.GET("/password/reset/:token/", accountHandler.CheckPasswordReset, anonymous)
	accounts.POST("/password/reset/:token/", accountHandler.ResetPassword, anonymous)

	// --- Survey routes ---
	e.GET("/", surveyHandler.Categories)
	e.GET("/category/:id/", surveyHandler.Category)
	e.GET("/survey/:id/", surveyHandler.Survey, authenticated)
	e.POST("/survey/:id/answer/", surveyHandler.Answer, authenticated)

	// --- Administration (staff only) ---
	admin := e.Group("/admin", middleware.RequireStaff())
	admin.GET("/categories/", adminHandler.ListCategories)
	admin.POST("/categories/", adminHandler.CreateCategory)
	admin.PUT("/categories/:id/", adminHandler.UpdateCategory)
	admin.DELETE("/categories/:id/", adminHandler.DeleteCategory)
	admin.GET("/surveys/", adminHandler.ListSurveys)
	admin.POST("/surveys/", adminHandler.CreateSurvey)
	admin.GET("/surveys/:id/", adminHandler.GetSurvey)
	admin.PUT("/surveys/:id/", adminHandler.UpdateSurvey)
	admin.DELETE("/surveys/:id/", adminHandler.DeleteSurvey)
	admin.GET("/surveys/:id/report/", adminHandler.Report)
	admin.GET("/answers/", adminHandler.ListAnswers)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness: are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gathererFor(reg)}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// gathererFor serves the registry the middleware wrote to, so /metrics and
// the request counters always agree.
func gathererFor(reg prometheus.Registerer) prometheus.Gatherer {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return g
	}
	return prometheus.DefaultGatherer
}
