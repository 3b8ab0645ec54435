package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	apperrors "github.com/engmostafaayman001-hub/markode-ai/internal/errors"
)

// checkAIRateLimit enforces the per-user generation cap when a limiter is
// configured.
func (s *Server) checkAIRateLimit(c echo.Context) error {
	if s.deps.AILimiter == nil {
		return nil
	}

	allowed, err := s.deps.AILimiter.Allow(c.Request().Context(), currentUserID(c))
	if err != nil {
		return apperrors.InternalError("rate limit check failed", err)
	}
	if !allowed {
		return apperrors.RateLimitedError("AI request limit reached, try again in a minute")
	}
	return nil
}

func (s *Server) handleGenerateProject(c echo.Context) error {
	if err := s.checkAIRateLimit(c); err != nil {
		return err
	}

	var req domain.GenerationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.ValidationError("Description is required")
	}
	if strings.TrimSpace(req.Language) == "" {
		return apperrors.ValidationError("Language is required")
	}

	// Resolve the target project up front so access errors don't cost a
	// model call.
	var project *domain.Project
	if req.ProjectID != nil {
		var err error
		project, err = s.loadProject(c, *req.ProjectID)
		if err != nil {
			return err
		}
		if !s.canEditProject(c, project) {
			return apperrors.ForbiddenError("No write access to this project")
		}
	}

	result := s.deps.Generator.GenerateProject(c.Request().Context(), req)

	// Failed generations come back with an empty file set; nothing to save.
	if project != nil && len(result.Files) > 0 {
		if project.Files == nil {
			project.Files = map[string]string{}
		}
		for name, content := range result.Files {
			project.Files[name] = content
		}
		if _, err := s.deps.Projects.Update(c.Request().Context(), project); err != nil {
			return apperrors.InternalError("failed to save generated files", err)
		}
		s.logAnalyticsEvent(c, project.ID, "project_generated", map[string]any{"files": len(result.Files)})
	}

	return c.JSON(http.StatusOK, result)
}

type generateCodeRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGenerateCode(c echo.Context) error {
	if err := s.checkAIRateLimit(c); err != nil {
		return err
	}

	var req generateCodeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return apperrors.ValidationError("Prompt is required")
	}

	return c.JSON(http.StatusOK, s.deps.Generator.GenerateCode(c.Request().Context(), req.Prompt))
}

type suggestImprovementsRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleSuggestImprovements(c echo.Context) error {
	if err := s.checkAIRateLimit(c); err != nil {
		return err
	}

	var req suggestImprovementsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" {
		return apperrors.ValidationError("Code is required")
	}

	return c.JSON(http.StatusOK, s.deps.Generator.SuggestImprovements(c.Request().Context(), req.Code))
}

type fixCodeRequest struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (s *Server) handleFixCode(c echo.Context) error {
	if err := s.checkAIRateLimit(c); err != nil {
		return err
	}

	var req fixCodeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Error) == "" {
		return apperrors.ValidationError("Code and error are required")
	}

	return c.JSON(http.StatusOK, s.deps.Generator.FixCode(c.Request().Context(), req.Code, req.Error))
}
