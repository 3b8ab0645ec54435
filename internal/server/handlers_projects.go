package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	apperrors "github.com/engmostafaayman001-hub/markode-ai/internal/errors"
)

type createProjectRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	TemplateID  *uuid.UUID        `json:"templateId"`
	Files       map[string]string `json:"files"`
	IsPublic    bool              `json:"isPublic"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	projects, err := s.deps.Projects.ListByUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return apperrors.InternalError("failed to list projects", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.ValidationError("Name is required")
	}

	ctx := c.Request().Context()
	files := req.Files

	// Starting from a template seeds the file set and counts a download.
	if req.TemplateID != nil && len(files) == 0 {
		template, err := s.deps.Templates.GetByID(ctx, *req.TemplateID)
		if errors.Is(err, domain.ErrTemplateNotFound) {
			return apperrors.NotFoundError("Template not found")
		}
		if err != nil {
			return apperrors.InternalError("failed to load template", err)
		}
		files = template.Files
		if err := s.deps.Templates.IncrementDownloads(ctx, template.ID); err != nil {
			slog.Warn("failed to count template download", "template_id", template.ID, "error", err)
		}
	}

	project, err := s.deps.Projects.Create(ctx, &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		UserID:      currentUserID(c),
		TemplateID:  req.TemplateID,
		Files:       files,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return apperrors.InternalError("failed to create project", err)
	}

	s.logAnalyticsEvent(c, project.ID, "project_created", nil)
	return c.JSON(http.StatusCreated, project)
}

func (s *Server) handleGetProject(c echo.Context) error {
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
	return c.JSON(http.StatusOK, project)
}

type updateProjectRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Files       map[string]string `json:"files"`
	IsPublic    bool              `json:"isPublic"`
	DeployURL   string            `json:"deployUrl"`
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	project, err := s.loadProject(c, projectID)
	if err != nil {
		return err
	}
	if project.UserID != currentUserID(c) {
		return apperrors.ForbiddenError("Only the owner can update a project")
	}

	var req updateProjectRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.ValidationError("Name is required")
	}

	project.Name = req.Name
	project.Description = req.Description
	project.Files = req.Files
	project.IsPublic = req.IsPublic
	project.DeployURL = req.DeployURL

	updated, err := s.deps.Projects.Update(c.Request().Context(), project)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return apperrors.NotFoundError("Project not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to update project", err)
	}

	s.logAnalyticsEvent(c, updated.ID, "project_updated", nil)
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	project, err := s.loadProject(c, projectID)
	if err != nil {
		return err
	}
	if project.UserID != currentUserID(c) {
		return apperrors.ForbiddenError("Only the owner can delete a project")
	}

	if err := s.deps.Projects.Delete(c.Request().Context(), projectID); err != nil {
		if errors.Is(err, domain.ErrProjectNotFound) {
			return apperrors.NotFoundError("Project not found")
		}
		return apperrors.InternalError("failed to delete project", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSearchProjects(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return apperrors.ValidationError("Query parameter q is required")
	}

	userID := currentUserID(c)
	projects, err := s.deps.Projects.Search(c.Request().Context(), query, &userID)
	if err != nil {
		return apperrors.InternalError("failed to search projects", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// --- Collaborators ---

type addCollaboratorRequest struct {
	UserID     uuid.UUID `json:"userId"`
	Permission string    `json:"permission"`
}

func (s *Server) handleListCollaborators(c echo.Context) error {
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

	collaborators, err := s.deps.Collaborators.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return apperrors.InternalError("failed to list collaborators", err)
	}
	if collaborators == nil {
		collaborators = []domain.Collaborator{}
	}
	return c.JSON(http.StatusOK, collaborators)
}

func (s *Server) handleAddCollaborator(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	project, err := s.loadProject(c, projectID)
	if err != nil {
		return err
	}
	if project.UserID != currentUserID(c) {
		return apperrors.ForbiddenError("Only the owner can add collaborators")
	}

	var req addCollaboratorRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}
	if req.UserID == uuid.Nil {
		return apperrors.ValidationError("userId is required")
	}
	switch req.Permission {
	case domain.PermissionRead, domain.PermissionWrite, domain.PermissionAdmin:
	case "":
		req.Permission = domain.PermissionRead
	default:
		return apperrors.ValidationError("Invalid permission")
	}

	collaborator, err := s.deps.Collaborators.Add(c.Request().Context(), &domain.Collaborator{
		ProjectID:  projectID,
		UserID:     req.UserID,
		Permission: req.Permission,
	})
	if err != nil {
		return apperrors.InternalError("failed to add collaborator", err)
	}
	return c.JSON(http.StatusCreated, collaborator)
}

func (s *Server) handleRemoveCollaborator(c echo.Context) error {
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return err
	}

	project, err := s.loadProject(c, projectID)
	if err != nil {
		return err
	}
	if project.UserID != currentUserID(c) {
		return apperrors.ForbiddenError("Only the owner can remove collaborators")
	}

	if err := s.deps.Collaborators.Remove(c.Request().Context(), projectID, userID); err != nil {
		return apperrors.InternalError("failed to remove collaborator", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Helpers ---

func (s *Server) loadProject(c echo.Context, projectID uuid.UUID) (*domain.Project, error) {
	project, err := s.deps.Projects.GetByID(c.Request().Context(), projectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return nil, apperrors.NotFoundError("Project not found")
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to load project", err)
	}
	return project, nil
}

// canViewProject allows the owner, any collaborator, and everyone for
// public projects.
func (s *Server) canViewProject(c echo.Context, project *domain.Project) bool {
	if project.IsPublic || project.UserID == currentUserID(c) {
		return true
	}

	collaborators, err := s.deps.Collaborators.ListByProject(c.Request().Context(), project.ID)
	if err != nil {
		slog.Warn("failed to check collaborators", "project_id", project.ID, "error", err)
		return false
	}
	userID := currentUserID(c)
	for _, collaborator := range collaborators {
		if collaborator.UserID == userID {
			return true
		}
	}
	return false
}

// canEditProject allows the owner and collaborators holding write or admin
// permission. Public visibility grants viewing only.
func (s *Server) canEditProject(c echo.Context, project *domain.Project) bool {
	userID := currentUserID(c)
	if project.UserID == userID {
		return true
	}

	collaborators, err := s.deps.Collaborators.ListByProject(c.Request().Context(), project.ID)
	if err != nil {
		slog.Warn("failed to check collaborators", "project_id", project.ID, "error", err)
		return false
	}
	for _, collaborator := range collaborators {
		if collaborator.UserID == userID && collaborator.Permission != domain.PermissionRead {
			return true
		}
	}
	return false
}

// logAnalyticsEvent records an event best-effort; failures only log.
func (s *Server) logAnalyticsEvent(c echo.Context, projectID uuid.UUID, event string, metadata map[string]any) {
	_, err := s.deps.Analytics.Log(c.Request().Context(), &domain.AnalyticsEvent{
		ProjectID: projectID,
		Event:     event,
		Metadata:  metadata,
	})
	if err != nil {
		slog.Warn("failed to log analytics event", "event", event, "project_id", projectID, "error", err)
	}
}
