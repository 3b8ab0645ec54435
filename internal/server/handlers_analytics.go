package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	apperrors "github.com/engmostafaayman001-hub/markode-ai/internal/errors"
)

type logAnalyticsRequest struct {
	ProjectID uuid.UUID      `json:"projectId"`
	Event     string         `json:"event"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *Server) handleLogAnalytics(c echo.Context) error {
	var req logAnalyticsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if req.ProjectID == uuid.Nil {
		return apperrors.ValidationError("projectId is required")
	}
	if strings.TrimSpace(req.Event) == "" {
		return apperrors.ValidationError("event is required")
	}

	project, err := s.loadProject(c, req.ProjectID)
	if err != nil {
		return err
	}
	if !s.canViewProject(c, project) {
		return apperrors.ForbiddenError("No access to this project")
	}

	event, err := s.deps.Analytics.Log(c.Request().Context(), &domain.AnalyticsEvent{
		ProjectID: req.ProjectID,
		Event:     req.Event,
		Metadata:  req.Metadata,
	})
	if err != nil {
		return apperrors.InternalError("failed to log event", err)
	}
	return c.JSON(http.StatusCreated, event)
}

func (s *Server) handleProjectAnalytics(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	project, err := s.loadProject(c, projectID)
	if err != nil {
		return err
	}
	if !s.canViewProject(c, project) {
		return apperrors.ForbiddenError("No access to this project")
	}

	events, err := s.deps.Analytics.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return apperrors.InternalError("failed to list events", err)
	}
	if events == nil {
		events = []domain.AnalyticsEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) handleUserAnalytics(c echo.Context) error {
	events, err := s.deps.Analytics.ListByUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return apperrors.InternalError("failed to list events", err)
	}
	if events == nil {
		events = []domain.AnalyticsEvent{}
	}
	return c.JSON(http.StatusOK, events)
}
