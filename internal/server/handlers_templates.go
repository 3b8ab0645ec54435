package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	apperrors "github.com/engmostafaayman001-hub/markode-ai/internal/errors"
)

func (s *Server) handleListTemplates(c echo.Context) error {
	templates, err := s.deps.Templates.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return apperrors.InternalError("failed to list templates", err)
	}
	if templates == nil {
		templates = []domain.Template{}
	}
	return c.JSON(http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(c echo.Context) error {
	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	template, err := s.deps.Templates.GetByID(c.Request().Context(), templateID)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return apperrors.NotFoundError("Template not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load template", err)
	}
	return c.JSON(http.StatusOK, template)
}

type createTemplateRequest struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	PreviewImage string            `json:"previewImage"`
	Files        map[string]string `json:"files"`
	IsPremium    bool              `json:"isPremium"`
}

func (s *Server) handleCreateTemplate(c echo.Context) error {
	var req createTemplateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.ValidationError("Name is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return apperrors.ValidationError("Category is required")
	}

	template, err := s.deps.Templates.Create(c.Request().Context(), &domain.Template{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		PreviewImage: req.PreviewImage,
		Files:        req.Files,
		IsPremium:    req.IsPremium,
	})
	if err != nil {
		return apperrors.InternalError("failed to create template", err)
	}
	return c.JSON(http.StatusCreated, template)
}

// handleDownloadTemplate bumps the download counter and returns the full
// template so the client can seed a project from it.
func (s *Server) handleDownloadTemplate(c echo.Context) error {
	templateID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	template, err := s.deps.Templates.GetByID(ctx, templateID)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return apperrors.NotFoundError("Template not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load template", err)
	}

	if err := s.deps.Templates.IncrementDownloads(ctx, templateID); err != nil {
		return apperrors.InternalError("failed to count download", err)
	}
	template.Downloads++

	return c.JSON(http.StatusOK, template)
}
