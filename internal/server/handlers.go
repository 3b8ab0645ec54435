package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	apperrors "github.com/engmostafaayman001-hub/markode-ai/internal/errors"
	"github.com/engmostafaayman001-hub/markode-ai/internal/logging"
)

const contextKeyUserID = "userID"

// requireAuth resolves the session to a user ID and stores it in the echo
// context. API consumers get a 401 JSON body, not a redirect.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("Not authenticated")
		}

		raw, ok := session.Values[sessionKeyUserID]
		if !ok {
			return apperrors.UnauthorizedError("Not authenticated")
		}

		idStr, ok := raw.(string)
		if !ok {
			return apperrors.UnauthorizedError("Not authenticated")
		}

		userID, err := uuid.Parse(idStr)
		if err != nil {
			return apperrors.UnauthorizedError("Not authenticated")
		}

		c.Set(contextKeyUserID, userID)
		return next(c)
	}
}

// currentUserID returns the authenticated user set by requireAuth.
func currentUserID(c echo.Context) uuid.UUID {
	userID, _ := c.Get(contextKeyUserID).(uuid.UUID)
	return userID
}

type loginRequest struct {
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// handleLogin is a development auth stub: it upserts the user by email and
// opens a session. A real identity provider replaces this in production.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return apperrors.ValidationError("A valid email is required")
	}

	user, err := s.deps.Users.Upsert(c.Request().Context(), &domain.User{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return apperrors.InternalError("failed to sign in", err)
	}

	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	session.Values[sessionKeyUserID] = user.ID.String()
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	logging.WithUser(user.ID.String()).Info("user signed in")
	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c echo.Context) error {
	session, _ := s.sessionStore.Get(c.Request(), sessionName)
	delete(session.Values, sessionKeyUserID)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response()); err != nil {
		return apperrors.InternalError("failed to clear session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCurrentUser(c echo.Context) error {
	user, err := s.deps.Users.GetByID(c.Request().Context(), currentUserID(c))
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("User not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// parseIDParam parses a UUID path parameter.
func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("Invalid " + name)
	}
	return id, nil
}
