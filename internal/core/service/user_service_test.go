package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

func seedUsers() (*stubUserRepo, *UserService) {
	repo := newStubUserRepo()
	repo.put(&domain.User{ID: "admin", Username: "root", Email: "root@example.com", Role: domain.RoleAdmin, IsActive: true})
	repo.put(&domain.User{ID: "team", Username: "tina", Email: "tina@example.com", Role: domain.RoleTeam, IsActive: true})
	repo.put(&domain.User{ID: "client", Username: "carl", Email: "carl@example.com", Role: domain.RoleClient, IsActive: true})
	svc := NewUserService(repo, discardLogger)
	svc.hasher.cost = bcrypt.MinCost
	return repo, svc
}

var (
	adminActor  = access.Actor{ID: "admin", Role: domain.RoleAdmin}
	teamActor   = access.Actor{ID: "team", Role: domain.RoleTeam}
	clientActor = access.Actor{ID: "client", Role: domain.RoleClient}
)

func TestUserService_DeleteSelfBlocked(t *testing.T) {
	repo, svc := seedUsers()

	err := svc.Delete(context.Background(), adminActor, "admin")
	if !errors.Is(err, domain.ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if err.Error() != "Cannot delete your own account" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, err := repo.FindByID(context.Background(), "admin"); err != nil {
		t.Fatalf("admin must be unchanged: %v", err)
	}
}

func TestUserService_DeleteRequiresAdmin(t *testing.T) {
	_, svc := seedUsers()

	if err := svc.Delete(context.Background(), teamActor, "client"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := svc.Delete(context.Background(), adminActor, "client"); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), adminActor, "client"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestUserService_ToggleStatus(t *testing.T) {
	_, svc := seedUsers()
	ctx := context.Background()

	if _, err := svc.ToggleStatus(ctx, adminActor, "admin"); !errors.Is(err, domain.ErrSelfToggle) {
		t.Fatalf("expected ErrSelfToggle, got %v", err)
	}
	u, err := svc.ToggleStatus(ctx, adminActor, "team")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if u.IsActive {
		t.Fatalf("expected team user to be deactivated")
	}
	if _, err := svc.ToggleStatus(ctx, clientActor, "team"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for client, got %v", err)
	}
}

func TestUserService_UpdateSelfDeactivateBlocked(t *testing.T) {
	_, svc := seedUsers()
	off := false

	_, err := svc.Update(context.Background(), adminActor, "admin", ports.UpdateUserInput{IsActive: &off})
	if !errors.Is(err, domain.ErrSelfDeactivate) {
		t.Fatalf("expected ErrSelfDeactivate, got %v", err)
	}
}

func TestUserService_UpdatePasswordLength(t *testing.T) {
	repo, svc := seedUsers()
	before, _ := repo.FindByID(context.Background(), "client")
	oldHash := before.PasswordHash

	long := strings.Repeat("x", 80)
	_, err := svc.Update(context.Background(), clientActor, "client", ports.UpdateUserInput{Password: &long})
	if domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid input for an 80 byte password, got %v", err)
	}
	if err.Error() != "Password must be at most 72 bytes long" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	short := "abc"
	if _, err := svc.Update(context.Background(), clientActor, "client", ports.UpdateUserInput{Password: &short}); domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid input for a short password, got %v", err)
	}

	after, _ := repo.FindByID(context.Background(), "client")
	if after.PasswordHash != oldHash {
		t.Fatal("password must be unchanged after rejected updates")
	}
}

func TestUserService_UpdateAdminFieldsRequireAdmin(t *testing.T) {
	_, svc := seedUsers()
	role := domain.RoleAdmin

	_, err := svc.Update(context.Background(), clientActor, "client", ports.UpdateUserInput{Role: &role})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected client role escalation to be denied, got %v", err)
	}

	name := "Carl C."
	u, err := svc.Update(context.Background(), clientActor, "client", ports.UpdateUserInput{Name: &name})
	if err != nil {
		t.Fatalf("self profile edit failed: %v", err)
	}
	if u.Name != name {
		t.Fatalf("expected name %q, got %q", name, u.Name)
	}

	if _, err := svc.Update(context.Background(), clientActor, "team", ports.UpdateUserInput{Name: &name}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected editing another user to be denied, got %v", err)
	}
}

func TestUserService_UpdateUniqueness(t *testing.T) {
	_, svc := seedUsers()
	taken := "TINA@example.com"
	same := "carl"

	if _, err := svc.Update(context.Background(), clientActor, "client", ports.UpdateUserInput{Email: &taken}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Update(context.Background(), clientActor, "client", ports.UpdateUserInput{Username: &same}); err != nil {
		t.Fatalf("keeping own username must succeed: %v", err)
	}
}

// A client granted a project by an admin can reach it on the next request.
func TestUserService_GrantClientProject(t *testing.T) {
	repo, svc := seedUsers()
	ctx := context.Background()
	var policy access.ScopePolicy

	before, _ := repo.FindByID(ctx, "client")
	if policy.ProjectScope(access.ActorFromUser(before), 1, true).Allowed {
		t.Fatalf("client must not reach project 1 before the grant")
	}

	grant := []int64{1}
	if _, err := svc.Update(ctx, adminActor, "client", ports.UpdateUserInput{ClientProjects: &grant}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}

	after, _ := repo.FindByID(ctx, "client")
	if !policy.ProjectScope(access.ActorFromUser(after), 1, true).Allowed {
		t.Fatalf("client must reach project 1 after the grant")
	}
}

func TestUserService_Get(t *testing.T) {
	_, svc := seedUsers()
	ctx := context.Background()

	if _, err := svc.Get(ctx, clientActor, "client"); err != nil {
		t.Fatalf("self read failed: %v", err)
	}
	if _, err := svc.Get(ctx, clientActor, "team"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	// Denied before the lookup, so a missing id is indistinguishable.
	if _, err := svc.Get(ctx, clientActor, "missing"); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for missing id, got %v", err)
	}
	if _, err := svc.Get(ctx, adminActor, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for admin, got %v", err)
	}
}

func TestUserService_ListPaging(t *testing.T) {
	_, svc := seedUsers()
	ctx := context.Background()

	if _, err := svc.List(ctx, teamActor, ports.ListUsersFilter{}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	res, err := svc.List(ctx, adminActor, ports.ListUsersFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if res.Total != 3 || res.Page != 1 || res.Limit != 2 || res.TotalPages != 2 || len(res.Users) != 2 {
		t.Fatalf("unexpected page: total=%d page=%d limit=%d pages=%d len=%d",
			res.Total, res.Page, res.Limit, res.TotalPages, len(res.Users))
	}
}

func TestUserService_CreateByAdmin(t *testing.T) {
	_, svc := seedUsers()
	ctx := context.Background()
	in := ports.RegisterInput{Username: "ops", Email: "ops@example.com", Password: "secret1", Role: domain.RoleAdmin}

	if _, err := svc.Create(ctx, teamActor, in); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	u, err := svc.Create(ctx, adminActor, in)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if u.Role != domain.RoleAdmin || !u.Permissions.CanDeleteProjects {
		t.Fatalf("unexpected admin user: %+v", u)
	}
}

func TestUserService_TeamAndClients(t *testing.T) {
	_, svc := seedUsers()

	team, _ := svc.Team(context.Background())
	clients, _ := svc.Clients(context.Background())
	if len(team) != 2 || len(clients) != 1 {
		t.Fatalf("expected 2 team and 1 client, got %d and %d", len(team), len(clients))
	}
}
