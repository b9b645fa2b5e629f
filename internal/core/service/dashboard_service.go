package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

const dashboardRecentLimit = 10

type DashboardService struct {
	projects   ports.ProjectRepository
	tasks      ports.TaskRepository
	users      ports.UserRepository
	activities ports.ActivityRepository
	now        func() time.Time
}

func NewDashboardService(projects ports.ProjectRepository, tasks ports.TaskRepository, users ports.UserRepository, activities ports.ActivityRepository) *DashboardService {
	return &DashboardService{projects: projects, tasks: tasks, users: users, activities: activities, now: time.Now}
}

func (s *DashboardService) Overview(ctx context.Context, actor access.Actor) (*ports.Dashboard, error) {
	scope := projectScopeFor(actor)
	byStatus := func(st domain.ProjectStatus) ports.ListProjectsFilter {
		return ports.ListProjectsFilter{Scope: scope, Status: st}
	}

	var (
		projects                    []*domain.Project
		activities                  []*domain.Activity
		total, inProgress, complete int64
		teamMembers                 int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		projects, err = s.projects.List(ctx, ports.ListProjectsFilter{Scope: scope, Limit: dashboardRecentLimit})
		return err
	})
	g.Go(func() (err error) {
		total, err = s.projects.Count(ctx, byStatus(""))
		return err
	})
	g.Go(func() (err error) {
		inProgress, err = s.projects.Count(ctx, byStatus(domain.ProjectInProgress))
		return err
	})
	g.Go(func() (err error) {
		complete, err = s.projects.Count(ctx, byStatus(domain.ProjectCompleted))
		return err
	})
	g.Go(func() (err error) {
		teamMembers, err = s.users.CountActive(ctx, domain.RoleAdmin, domain.RoleTeam)
		return err
	})
	g.Go(func() (err error) {
		f := ports.ListActivitiesFilter{Limit: dashboardRecentLimit}
		if actor.Role == domain.RoleClient {
			f.UserID = actor.ID
		}
		activities, err = s.activities.List(ctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard overview: %w", err)
	}

	out := &ports.Dashboard{
		Stats: ports.DashboardStats{
			ActiveProjects:       total,
			InProgress:           inProgress,
			Completed:            complete,
			TeamMembers:          teamMembers,
			ActiveProjectsChange: fmt.Sprintf("%d total", total),
			InProgressChange:     fmt.Sprintf("%d in progress", inProgress),
			CompletedChange:      fmt.Sprintf("%d completed", complete),
			TeamMembersChange:    fmt.Sprintf("%d active", teamMembers),
		},
		Projects:       make([]ports.DashboardProject, 0, len(projects)),
		RecentActivity: make([]ports.DashboardActivity, 0, len(activities)),
	}

	for _, p := range projects {
		team := make([]string, 0, len(p.Team))
		for _, m := range p.Team {
			if m.Name != "" {
				team = append(team, m.Name)
			} else {
				team = append(team, m.ID)
			}
		}
		out.Projects = append(out.Projects, ports.DashboardProject{
			ID:       p.ProjectID,
			Name:     p.Name,
			Client:   p.Client,
			Status:   p.Status,
			Progress: p.Progress,
			Deadline: p.Deadline,
			Team:     team,
			Priority: p.Priority,
		})
	}

	now := s.now()
	for _, a := range activities {
		typ := a.TypeSimplified
		if typ == "" {
			typ = "default"
		}
		out.RecentActivity = append(out.RecentActivity, ports.DashboardActivity{
			Action:  a.Title,
			Project: a.ProjectName,
			Time:    timeAgo(now, a.CreatedAt),
			Type:    typ,
		})
	}
	return out, nil
}

func (s *DashboardService) Stats(ctx context.Context, actor access.Actor) (*ports.DetailedStats, error) {
	scope := projectScopeFor(actor)
	out := &ports.DetailedStats{}

	var totalProjects, activeUsers, teamMembers, totalTasks, completedTasks int64
	bs := &out.Breakdown.ByStatus
	bp := &out.Breakdown.ByPriority

	counts := []struct {
		dst    *int64
		filter ports.ListProjectsFilter
	}{
		{&totalProjects, ports.ListProjectsFilter{Scope: scope}},
		{&bs.Planning, ports.ListProjectsFilter{Scope: scope, Status: domain.ProjectPlanning}},
		{&bs.InProgress, ports.ListProjectsFilter{Scope: scope, Status: domain.ProjectInProgress}},
		{&bs.Review, ports.ListProjectsFilter{Scope: scope, Status: domain.ProjectReview}},
		{&bs.Completed, ports.ListProjectsFilter{Scope: scope, Status: domain.ProjectCompleted}},
		{&bs.OnHold, ports.ListProjectsFilter{Scope: scope, Status: domain.ProjectOnHold}},
		{&bp.High, ports.ListProjectsFilter{Scope: scope, Priority: domain.PriorityHigh}},
		{&bp.Medium, ports.ListProjectsFilter{Scope: scope, Priority: domain.PriorityMedium}},
		{&bp.Low, ports.ListProjectsFilter{Scope: scope, Priority: domain.PriorityLow}},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() (err error) {
			*c.dst, err = s.projects.Count(ctx, c.filter)
			return err
		})
	}
	g.Go(func() (err error) {
		totalTasks, err = s.tasks.Count(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		completedTasks, err = s.tasks.Count(ctx, domain.TaskCompleted)
		return err
	})
	g.Go(func() (err error) {
		teamMembers, err = s.users.CountActive(ctx, domain.RoleAdmin, domain.RoleTeam)
		return err
	})
	g.Go(func() (err error) {
		activeUsers, err = s.users.CountActive(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	out.Overview.TotalProjects = totalProjects
	out.Overview.InProgressProjects = bs.InProgress
	out.Overview.CompletedProjects = bs.Completed
	out.Overview.TeamMembers = teamMembers
	out.Tasks.Total = totalTasks
	out.Tasks.Completed = completedTasks
	if totalTasks > 0 {
		out.Tasks.CompletionRate = int64(math.Round(float64(completedTasks) / float64(totalTasks) * 100))
	}
	out.Users.Total = activeUsers
	out.Users.TeamMembers = teamMembers
	return out, nil
}

// timeAgo renders the coarse relative time shown in the activity feed.
func timeAgo(now, t time.Time) string {
	d := now.Sub(t)
	days := int(d / (24 * time.Hour))
	hours := int(d / time.Hour)
	minutes := int(d / time.Minute)

	switch {
	case days > 0:
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case hours > 0:
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case minutes > 0:
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	return "Just now"
}
