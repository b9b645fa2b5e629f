package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

const projectListLimit = 100

type ProjectService struct {
	projects ports.ProjectRepository
	users    ports.UserRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewProjectService(projects ports.ProjectRepository, users ports.UserRepository, log zerolog.Logger) *ProjectService {
	return &ProjectService{projects: projects, users: users, log: log, now: time.Now}
}

// projectScopeFor builds the visibility filter for list and dashboard queries.
// Clients see their allow-list, team members the projects they staff unless
// granted canViewAllProjects, admins everything.
func projectScopeFor(a access.Actor) ports.ProjectScopeFilter {
	switch a.Role {
	case domain.RoleAdmin:
		return ports.ProjectScopeFilter{}
	case domain.RoleClient:
		ids := make([]int64, len(a.ClientProjects))
		copy(ids, a.ClientProjects)
		return ports.ProjectScopeFilter{ProjectIDs: ids}
	default:
		if access.Can(a, access.ViewAllProjects).Allowed {
			return ports.ProjectScopeFilter{}
		}
		return ports.ProjectScopeFilter{TeamMember: a.ID}
	}
}

func (s *ProjectService) List(ctx context.Context, actor access.Actor, in ports.ListProjectsInput) ([]*domain.Project, error) {
	return s.projects.List(ctx, ports.ListProjectsFilter{
		Scope:    projectScopeFor(actor),
		Status:   in.Status,
		Priority: in.Priority,
		Search:   strings.TrimSpace(in.Search),
		Limit:    projectListLimit,
	})
}

func (s *ProjectService) Get(ctx context.Context, projectID int64) (*domain.Project, error) {
	return s.projects.FindByProjectID(ctx, projectID)
}

func (s *ProjectService) Create(ctx context.Context, actor access.Actor, in ports.CreateProjectInput) (*domain.Project, error) {
	if err := access.Decide(actor, domain.RoleAdmin, domain.RoleTeam).Err(); err != nil {
		return nil, err
	}
	if err := access.Can(actor, access.CreateProjects).Err(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = domain.ProjectPlanning
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if in.Progress < 0 || in.Progress > 100 {
		return nil, domain.Invalid("progress must be between 0 and 100")
	}

	now := s.now().UTC()
	p := &domain.Project{
		Name:         in.Name,
		Description:  in.Description,
		Client:       in.Client,
		ClientID:     in.ClientID,
		Status:       in.Status,
		Progress:     in.Progress,
		Deadline:     in.Deadline,
		Priority:     in.Priority,
		Budget:       in.Budget,
		Team:         nonNilMembers(in.Team),
		Tags:         nonNilStrings(in.Tags),
		Requirements: in.Requirements,
		Deliverables: in.Deliverables,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.projects.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	// The owning client gets the new project on its allow-list.
	if created.ClientID != "" {
		if err := s.users.AddClientProject(ctx, created.ClientID, created.ProjectID); err != nil {
			s.log.Warn().Err(err).Str("client_id", created.ClientID).Int64("project_id", created.ProjectID).
				Msg("failed to grant client access to project")
		}
	}

	s.log.Info().Int64("project_id", created.ProjectID).Str("created_by", actor.ID).Msg("project created")
	return created, nil
}

func (s *ProjectService) Update(ctx context.Context, actor access.Actor, projectID int64, in ports.UpdateProjectInput) (*domain.Project, error) {
	if err := access.Decide(actor, domain.RoleAdmin, domain.RoleTeam).Err(); err != nil {
		return nil, err
	}
	if err := access.Can(actor, access.EditProjects).Err(); err != nil {
		return nil, err
	}

	p, err := s.projects.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, domain.Invalid("progress must be between 0 and 100")
		}
		p.Progress = *in.Progress
	}
	if in.Deadline != nil {
		p.Deadline = *in.Deadline
	}
	if in.Priority != nil {
		p.Priority = *in.Priority
	}
	if in.Budget != nil {
		p.Budget = *in.Budget
	}
	if in.Team != nil {
		p.Team = nonNilMembers(*in.Team)
	}
	if in.Tags != nil {
		p.Tags = nonNilStrings(*in.Tags)
	}
	if in.Requirements != nil {
		p.Requirements = *in.Requirements
	}
	if in.Deliverables != nil {
		p.Deliverables = *in.Deliverables
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.projects.Replace(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor access.Actor, projectID int64) error {
	if err := access.Decide(actor, domain.RoleAdmin, domain.RoleTeam).Err(); err != nil {
		return err
	}
	if err := access.Can(actor, access.DeleteProjects).Err(); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}
	s.log.Info().Int64("project_id", projectID).Str("deleted_by", actor.ID).Msg("project deleted")
	return nil
}

func nonNilMembers(m []domain.Member) []domain.Member {
	if m == nil {
		return []domain.Member{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
