package ports

import (
	"context"
	"time"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
)

type CreateProjectInput struct {
	Name         string
	Description  string
	Client       string
	ClientID     string
	Status       domain.ProjectStatus
	Progress     int
	Deadline     string
	Priority     domain.ProjectPriority
	Budget       float64
	Team         []domain.Member
	Tags         []string
	Requirements string
	Deliverables string
}

// UpdateProjectInput is a partial update. Nil fields are not touched.
type UpdateProjectInput struct {
	Name         *string
	Description  *string
	Status       *domain.ProjectStatus
	Progress     *int
	Deadline     *string
	Priority     *domain.ProjectPriority
	Budget       *float64
	Team         *[]domain.Member
	Tags         *[]string
	Requirements *string
	Deliverables *string
}

type ListProjectsInput struct {
	Status   domain.ProjectStatus
	Priority domain.ProjectPriority
	Search   string
}

type ProjectService interface {
	List(ctx context.Context, actor access.Actor, in ListProjectsInput) ([]*domain.Project, error)
	Get(ctx context.Context, projectID int64) (*domain.Project, error)
	Create(ctx context.Context, actor access.Actor, in CreateProjectInput) (*domain.Project, error)
	Update(ctx context.Context, actor access.Actor, projectID int64, in UpdateProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, actor access.Actor, projectID int64) error
}

type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  []string
	Status      domain.TaskStatus
	Progress    int
	DueDate     string
	Priority    string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	AssignedTo  *[]string
	Status      *domain.TaskStatus
	Progress    *int
	DueDate     *string
	Priority    *string
}

type TaskService interface {
	List(ctx context.Context, projectID int64) ([]*domain.Task, error)
	Create(ctx context.Context, actor *domain.User, projectID int64, in CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, actor *domain.User, projectID int64, taskID string, in UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, actor *domain.User, projectID int64, taskID string) error
}

type CreateCommentInput struct {
	Content     string
	Attachments []domain.Attachment
}

type CommentService interface {
	List(ctx context.Context, projectID int64) ([]*domain.Comment, error)
	Create(ctx context.Context, actor *domain.User, projectID int64, in CreateCommentInput) (*domain.Comment, error)
}

// ActivityInput is the DTO handed to the activity recorder.
type ActivityInput struct {
	ProjectID   int64
	ProjectName string
	TaskID      string
	Type        domain.ActivityType
	Title       string
	Description string
	Actor       domain.Member
	Metadata    domain.ActivityMetadata
	OccurredAt  time.Time
}

// ActivityRecorder accepts feed entries without blocking the caller on persistence.
type ActivityRecorder interface {
	Record(in ActivityInput)
}

type ActivityService interface {
	// Save persists one feed entry synchronously.
	Save(ctx context.Context, in ActivityInput) (*domain.Activity, error)
	List(ctx context.Context, actor access.Actor, projectID *int64) ([]*domain.Activity, error)
	Get(ctx context.Context, id string) (*domain.Activity, error)
}

type DashboardStats struct {
	ActiveProjects       int64  `json:"activeProjects"`
	InProgress           int64  `json:"inProgress"`
	Completed            int64  `json:"completed"`
	TeamMembers          int64  `json:"teamMembers"`
	ActiveProjectsChange string `json:"activeProjectsChange"`
	InProgressChange     string `json:"inProgressChange"`
	CompletedChange      string `json:"completedChange"`
	TeamMembersChange    string `json:"teamMembersChange"`
}

type DashboardProject struct {
	ID       int64                  `json:"id"`
	Name     string                 `json:"name"`
	Client   string                 `json:"client"`
	Status   domain.ProjectStatus   `json:"status"`
	Progress int                    `json:"progress"`
	Deadline string                 `json:"deadline"`
	Team     []string               `json:"team"`
	Priority domain.ProjectPriority `json:"priority"`
}

type DashboardActivity struct {
	Action  string `json:"action"`
	Project string `json:"project"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

type Dashboard struct {
	Stats          DashboardStats      `json:"stats"`
	Projects       []DashboardProject  `json:"projects"`
	RecentActivity []DashboardActivity `json:"recentActivity"`
}

type StatusBreakdown struct {
	Planning   int64 `json:"planning"`
	InProgress int64 `json:"inProgress"`
	Review     int64 `json:"review"`
	Completed  int64 `json:"completed"`
	OnHold     int64 `json:"onHold"`
}

type PriorityBreakdown struct {
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}

type DetailedStats struct {
	Overview struct {
		TotalProjects      int64 `json:"totalProjects"`
		InProgressProjects int64 `json:"inProgressProjects"`
		CompletedProjects  int64 `json:"completedProjects"`
		TeamMembers        int64 `json:"teamMembers"`
	} `json:"overview"`
	Breakdown struct {
		ByStatus   StatusBreakdown   `json:"byStatus"`
		ByPriority PriorityBreakdown `json:"byPriority"`
	} `json:"breakdown"`
	Tasks struct {
		Total          int64 `json:"total"`
		Completed      int64 `json:"completed"`
		CompletionRate int64 `json:"completionRate"`
	} `json:"tasks"`
	Users struct {
		Total       int64 `json:"total"`
		TeamMembers int64 `json:"teamMembers"`
	} `json:"users"`
}

type DashboardService interface {
	Overview(ctx context.Context, actor access.Actor) (*Dashboard, error)
	Stats(ctx context.Context, actor access.Actor) (*DetailedStats, error)
}
