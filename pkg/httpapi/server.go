// Package httpapi exposes the Service operations over HTTP: a thin
// echo.Echo wrapper with one constructor, setupRoutes registering every
// endpoint up front, and handlers that bind, delegate to the service
// layer, and map errors.
package httpapi

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/codeready-toolchain/alimtalk/pkg/models"
	"github.com/codeready-toolchain/alimtalk/pkg/service"
	"github.com/codeready-toolchain/alimtalk/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	echo *echo.Echo
	svc  *service.Service
}

// NewServer wires a Server around svc and registers every route. svc must
// not be nil.
func NewServer(svc *service.Service) *Server {
	if svc == nil {
		panic("httpapi.NewServer: svc must not be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{echo: e, svc: svc}
	s.setupRoutes()
	return s
}

// Echo exposes the underlying router, e.g. for tests that drive requests
// directly without a listening socket.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start runs the HTTP server on addr, blocking until it stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/templates/generate", s.generateHandler)
	v1.POST("/templates/validate", s.validateHandler)
	v1.GET("/templates/examples", s.searchExamplesHandler)
	v1.GET("/categories", s.listCategoriesHandler)
	v1.GET("/stats", s.statsHandler)
}

// generateRequest is the wire shape for POST /api/v1/templates/generate.
type generateRequest struct {
	Text                   string              `json:"text"`
	BusinessType           models.BusinessType `json:"business_type,omitempty"`
	ServiceType            models.ServiceType  `json:"service_type,omitempty"`
	Tone                   models.Tone         `json:"tone,omitempty"`
	RequiredVariables      []string            `json:"required_variables,omitempty"`
	AdditionalRequirements string              `json:"additional_requirements,omitempty"`
}

func (s *Server) generateHandler(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	result := s.svc.GenerateTemplate(c.Request().Context(), models.Request{
		Text:                   req.Text,
		BusinessTypeHint:       req.BusinessType,
		ServiceTypeHint:        req.ServiceType,
		ToneHint:               req.Tone,
		RequiredVariablesHint:  req.RequiredVariables,
		AdditionalRequirements: req.AdditionalRequirements,
	})
	return c.JSON(http.StatusOK, result)
}

// validateRequest is the wire shape for POST /api/v1/templates/validate.
type validateRequest struct {
	TemplateText string   `json:"template_text"`
	Variables    []string `json:"variables,omitempty"`
	ButtonText   string   `json:"button_text,omitempty"`
}

func (s *Server) validateHandler(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.TemplateText == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "template_text is required")
	}

	result := s.svc.ValidateTemplate(c.Request().Context(), service.ValidateInput{
		TemplateText: req.TemplateText,
		Variables:    req.Variables,
		ButtonText:   req.ButtonText,
	})
	return c.JSON(http.StatusOK, result)
}

func (s *Server) searchExamplesHandler(c echo.Context) error {
	businessType := models.BusinessType(c.QueryParam("business_type"))
	if !businessType.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "business_type must be a valid business type")
	}
	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			limit = n
		}
	}

	examples := s.svc.SearchExamples(businessType, limit)
	return c.JSON(http.StatusOK, examples)
}

func (s *Server) listCategoriesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.ListCategories())
}

func (s *Server) healthHandler(c echo.Context) error {
	health := s.svc.HealthCheck()
	return c.JSON(http.StatusOK, map[string]any{
		"status":           health.Status,
		"component_states": health.ComponentStates,
		"version":          version.Full(),
	})
}

func (s *Server) statsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Stats())
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		n = n*10 + int(r-'0')
	}
	if n <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
	}
	return n, nil
}
