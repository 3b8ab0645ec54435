package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// UserRole controls feature access; mirrors the user_role enum in the database.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleExecutive UserRole = "executive"
	RoleDeveloper UserRole = "developer"
	RoleDesigner  UserRole = "designer"
	RoleTrial     UserRole = "trial"
)

type User struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"firstName"`
	LastName             string    `json:"lastName"`
	ProfileImageURL      string    `json:"profileImageUrl"`
	Role                 UserRole  `json:"role"`
	StripeCustomerID     string    `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Project is a named collection of files a user is editing; the unit of
// collaboration scoping. Files maps filename to full file content.
type Project struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	UserID      uuid.UUID         `json:"userId"`
	TemplateID  *uuid.UUID        `json:"templateId,omitempty"`
	Files       map[string]string `json:"files"`
	IsPublic    bool              `json:"isPublic"`
	DeployURL   string            `json:"deployUrl,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type Template struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	PreviewImage string            `json:"previewImage,omitempty"`
	Files        map[string]string `json:"files"`
	Downloads    int               `json:"downloads"`
	IsPremium    bool              `json:"isPremium"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Permission levels for project collaborators.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

type Collaborator struct {
	ID         uuid.UUID `json:"id"`
	ProjectID  uuid.UUID `json:"projectId"`
	UserID     uuid.UUID `json:"userId"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AnalyticsEvent struct {
	ID        uuid.UUID      `json:"id"`
	ProjectID uuid.UUID      `json:"projectId"`
	Event     string         `json:"event"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// --- AI value types ---

// GenerationRequest describes a whole-project generation. When ProjectID is
// set, the generated files are persisted into that project.
type GenerationRequest struct {
	Description string     `json:"description"`
	Language    string     `json:"language"`
	Framework   string     `json:"framework,omitempty"`
	Features    []string   `json:"features,omitempty"`
	ProjectID   *uuid.UUID `json:"projectId,omitempty"`
}

// GenerationResult is the AI pipeline's project output; Files seeds the editor.
type GenerationResult struct {
	Files             map[string]string `json:"files"`
	Description       string            `json:"description"`
	SetupInstructions string            `json:"setup_instructions"`
}

// CodeResponse is the shared reply shape of the single-snippet AI endpoints.
type CodeResponse struct {
	Success     bool     `json:"success"`
	Code        string   `json:"code,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// --- Interfaces ---

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	Upsert(ctx context.Context, user *User) (*User, error)
}

// ProjectRepository abstracts project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) (*Project, error)
	GetByID(ctx context.Context, projectID uuid.UUID) (*Project, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Project, error)
	Update(ctx context.Context, project *Project) (*Project, error)
	Delete(ctx context.Context, projectID uuid.UUID) error
	Search(ctx context.Context, query string, userID *uuid.UUID) ([]Project, error)
}

// TemplateRepository abstracts template persistence.
type TemplateRepository interface {
	List(ctx context.Context, category string) ([]Template, error)
	GetByID(ctx context.Context, templateID uuid.UUID) (*Template, error)
	Create(ctx context.Context, template *Template) (*Template, error)
	IncrementDownloads(ctx context.Context, templateID uuid.UUID) error
}

// CollaboratorRepository abstracts collaborator persistence.
type CollaboratorRepository interface {
	Add(ctx context.Context, collaborator *Collaborator) (*Collaborator, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Collaborator, error)
	Remove(ctx context.Context, projectID, userID uuid.UUID) error
}

// AnalyticsRepository abstracts analytics event persistence.
type AnalyticsRepository interface {
	Log(ctx context.Context, event *AnalyticsEvent) (*AnalyticsEvent, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]AnalyticsEvent, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]AnalyticsEvent, error)
}

// CodeGenerator is the AI pipeline contract. Implementations never return a
// transport error for service failures; failures degrade to failure-shaped
// values so request handlers stay on the happy path.
type CodeGenerator interface {
	GenerateProject(ctx context.Context, req GenerationRequest) GenerationResult
	GenerateCode(ctx context.Context, prompt string) CodeResponse
	SuggestImprovements(ctx context.Context, code string) CodeResponse
	FixCode(ctx context.Context, code, errorText string) CodeResponse
}

// AIRateLimiter limits AI endpoint usage per user.
type AIRateLimiter interface {
	Allow(ctx context.Context, userID uuid.UUID) (bool, error)
}
