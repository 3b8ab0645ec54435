package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Auth
	s.echo.POST("/api/auth/login", s.handleLogin)
	s.echo.POST("/api/auth/logout", s.handleLogout)
	s.echo.GET("/api/auth/user", s.handleCurrentUser, s.requireAuth)

	// Projects
	s.echo.GET("/api/projects", s.handleListProjects, s.requireAuth)
	s.echo.POST("/api/projects", s.handleCreateProject, s.requireAuth)
	s.echo.GET("/api/projects/search", s.handleSearchProjects, s.requireAuth)
	s.echo.GET("/api/projects/:id", s.handleGetProject, s.requireAuth)
	s.echo.PUT("/api/projects/:id", s.handleUpdateProject, s.requireAuth)
	s.echo.DELETE("/api/projects/:id", s.handleDeleteProject, s.requireAuth)

	// Collaborators
	s.echo.GET("/api/projects/:id/collaborators", s.handleListCollaborators, s.requireAuth)
	s.echo.POST("/api/projects/:id/collaborators", s.handleAddCollaborator, s.requireAuth)
	s.echo.DELETE("/api/projects/:id/collaborators/:userId", s.handleRemoveCollaborator, s.requireAuth)

	// Templates
	s.echo.GET("/api/templates", s.handleListTemplates)
	s.echo.POST("/api/templates", s.handleCreateTemplate, s.requireAuth)
	s.echo.GET("/api/templates/:id", s.handleGetTemplate)
	s.echo.POST("/api/templates/:id/download", s.handleDownloadTemplate, s.requireAuth)

	// Analytics
	s.echo.POST("/api/analytics", s.handleLogAnalytics, s.requireAuth)
	s.echo.GET("/api/analytics/project/:id", s.handleProjectAnalytics, s.requireAuth)
	s.echo.GET("/api/analytics/user", s.handleUserAnalytics, s.requireAuth)

	// AI generation
	s.echo.POST("/api/generate-project", s.handleGenerateProject, s.requireAuth)
	s.echo.POST("/api/generate-code", s.handleGenerateCode, s.requireAuth)
	s.echo.POST("/api/suggest-improvements", s.handleSuggestImprovements, s.requireAuth)
	s.echo.POST("/api/fix-code", s.handleFixCode, s.requireAuth)

	// Collaboration relay (no auth: the socket carries no privileged data
	// and the editor connects before login completes)
	s.echo.GET("/ws", s.handleWebSocket)
}
