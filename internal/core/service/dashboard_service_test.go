package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23 * time.Hour, "23 hours ago"},
		{25 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}
	for _, tc := range cases {
		if got := timeAgo(now, now.Add(-tc.ago)); got != tc.want {
			t.Fatalf("timeAgo(-%s) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}

func seedDashboard(t *testing.T) (*DashboardService, *stubActivityRepo) {
	t.Helper()
	ctx := context.Background()
	users, _ := seedUsers()
	projects := newStubProjectRepo()
	tasks := newStubTaskRepo()
	activities := &stubActivityRepo{}

	projects.Create(ctx, &domain.Project{Name: "A", Status: domain.ProjectInProgress, Priority: domain.PriorityHigh,
		Team: []domain.Member{{ID: "team", Name: "Tina"}, {ID: "x"}}})
	projects.Create(ctx, &domain.Project{Name: "B", Status: domain.ProjectCompleted, Priority: domain.PriorityLow})
	projects.Create(ctx, &domain.Project{Name: "C", Status: domain.ProjectPlanning, Priority: domain.PriorityMedium})

	tasks.Create(ctx, &domain.Task{ID: "t1", ProjectID: 1, Status: domain.TaskCompleted})
	tasks.Create(ctx, &domain.Task{ID: "t2", ProjectID: 1, Status: domain.TaskTodo})
	tasks.Create(ctx, &domain.Task{ID: "t3", ProjectID: 1, Status: domain.TaskInProgress})

	now := time.Now()
	activities.Insert(ctx, &domain.Activity{ID: "a1", Title: "login", User: domain.Member{ID: "client"}, CreatedAt: now.Add(-2 * time.Hour)})
	activities.Insert(ctx, &domain.Activity{ID: "a2", Title: "task", User: domain.Member{ID: "team"}, TypeSimplified: "success", CreatedAt: now})

	return NewDashboardService(projects, tasks, users, activities), activities
}

func TestDashboardService_OverviewAdmin(t *testing.T) {
	svc, _ := seedDashboard(t)

	d, err := svc.Overview(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if d.Stats.ActiveProjects != 3 || d.Stats.InProgress != 1 || d.Stats.Completed != 1 || d.Stats.TeamMembers != 2 {
		t.Fatalf("unexpected stats: %+v", d.Stats)
	}
	if d.Stats.ActiveProjectsChange != "3 total" {
		t.Fatalf("unexpected change label %q", d.Stats.ActiveProjectsChange)
	}
	if len(d.Projects) != 3 || len(d.Projects[0].Team) != 2 || d.Projects[0].Team[1] != "x" {
		t.Fatalf("unexpected projects: %+v", d.Projects)
	}
	if len(d.RecentActivity) != 2 || d.RecentActivity[0].Type != "success" || d.RecentActivity[1].Type != "default" {
		t.Fatalf("unexpected activity: %+v", d.RecentActivity)
	}
}

func TestDashboardService_OverviewClientScoped(t *testing.T) {
	svc, _ := seedDashboard(t)
	c := access.Actor{ID: "client", Role: domain.RoleClient, ClientProjects: []int64{2}}

	d, err := svc.Overview(context.Background(), c)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if d.Stats.ActiveProjects != 1 || len(d.Projects) != 1 || d.Projects[0].Name != "B" {
		t.Fatalf("client must only see project 2: %+v", d.Projects)
	}
	if len(d.RecentActivity) != 1 || d.RecentActivity[0].Action != "login" {
		t.Fatalf("client must only see its own activity: %+v", d.RecentActivity)
	}
}

func TestDashboardService_Stats(t *testing.T) {
	svc, _ := seedDashboard(t)

	s, err := svc.Stats(context.Background(), adminActor)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if s.Overview.TotalProjects != 3 || s.Breakdown.ByStatus.Planning != 1 || s.Breakdown.ByPriority.High != 1 {
		t.Fatalf("unexpected breakdown: %+v", s)
	}
	if s.Tasks.Total != 3 || s.Tasks.Completed != 1 || s.Tasks.CompletionRate != 33 {
		t.Fatalf("unexpected task stats: %+v", s.Tasks)
	}
	if s.Users.Total != 3 || s.Users.TeamMembers != 2 {
		t.Fatalf("unexpected user stats: %+v", s.Users)
	}
}

func TestActivityService(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, discardLogger)
	ctx := context.Background()

	if _, err := svc.Save(ctx, ports.ActivityInput{Type: "bogus", Title: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}

	a, err := svc.Save(ctx, ports.ActivityInput{
		Type: domain.ActivityStatusChanged, Title: "moved", Actor: domain.Member{ID: "team"},
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if a.TypeSimplified != "warning" || a.Timestamp.IsZero() || a.ID == "" {
		t.Fatalf("unexpected activity: %+v", a)
	}
	svc.Save(ctx, ports.ActivityInput{Type: domain.ActivityLogin, Title: "login", Actor: domain.Member{ID: "client"}})

	all, _ := svc.List(ctx, teamActor, nil)
	own, _ := svc.List(ctx, clientActor, nil)
	if len(all) != 2 || len(own) != 1 {
		t.Fatalf("expected team to see 2 and client 1, got %d and %d", len(all), len(own))
	}

	got, err := svc.Get(ctx, a.ID)
	if err != nil || got.ID != a.ID {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, domain.ErrActivityNotFound) {
		t.Fatalf("expected ErrActivityNotFound, got %v", err)
	}

	repo.insertErr = errStore
	if _, err := svc.Save(ctx, ports.ActivityInput{Type: domain.ActivityLogin, Title: "x"}); !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestActivityService_TeamListIgnoresActivityAllowList(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, discardLogger)
	ctx := context.Background()

	var ids []string
	for _, author := range []string{"admin", "client"} {
		a, err := svc.Save(ctx, ports.ActivityInput{Type: domain.ActivityLogin, Title: "login", Actor: domain.Member{ID: author}})
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		ids = append(ids, a.ID)
	}

	team := access.Actor{ID: "team", Role: domain.RoleTeam, TeamActivities: []string{"act-1"}}
	feed, err := svc.List(ctx, team, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(feed) != len(ids) {
		t.Fatalf("expected the whole feed of %d entries, got %d", len(ids), len(feed))
	}

	// The same entries are not reachable one at a time.
	for _, id := range ids {
		if d := (access.ScopePolicy{}).ActivityScope(team, id, true); d.Allowed {
			t.Fatalf("item %s must be outside the team allow-list", id)
		}
	}
}
