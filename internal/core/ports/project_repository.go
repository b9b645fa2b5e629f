package ports

import (
	"context"

	"github.com/pmhub/project-manager/internal/core/domain"
)

// ProjectScopeFilter restricts project queries to what an actor may see.
// A zero value matches every project.
type ProjectScopeFilter struct {
	ProjectIDs []int64 // when non-nil, projectId must be one of these
	TeamMember string  // when non-empty, team.id must contain this user id
}

type ListProjectsFilter struct {
	Scope    ProjectScopeFilter
	Status   domain.ProjectStatus
	Priority domain.ProjectPriority
	Search   string
	Limit    int
}

type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)
	FindByProjectID(ctx context.Context, projectID int64) (*domain.Project, error)
	List(ctx context.Context, filter ListProjectsFilter) ([]*domain.Project, error)
	Count(ctx context.Context, filter ListProjectsFilter) (int64, error)
	Replace(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, projectID int64) error
	// IncCounters atomically adjusts the denormalised task/comment counters.
	IncCounters(ctx context.Context, projectID int64, deltas map[string]int) error
}

type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, projectID int64, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID int64) ([]*domain.Task, error)
	Replace(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, projectID int64, id string) error
	Count(ctx context.Context, status domain.TaskStatus) (int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *domain.Comment) error
	ListByProject(ctx context.Context, projectID int64) ([]*domain.Comment, error)
}

type ListActivitiesFilter struct {
	UserID    string // optional: only activities performed by this user
	ProjectID *int64 // optional
	Limit     int
}

type ActivityRepository interface {
	Insert(ctx context.Context, a *domain.Activity) error
	FindByID(ctx context.Context, id string) (*domain.Activity, error)
	List(ctx context.Context, filter ListActivitiesFilter) ([]*domain.Activity, error)
}
