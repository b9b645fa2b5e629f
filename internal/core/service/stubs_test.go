package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	seq     int
	findErr error // if set, FindByID returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.ClientProjects = append([]int64(nil), u.ClientProjects...)
	clone.TeamActivities = append([]string(nil), u.TeamActivities...)
	return &clone
}

func (r *stubUserRepo) put(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("u%d", r.seq)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	c := cloneUser(u)
	c.PasswordHash = ""
	return c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.Username+" "+u.Email+" "+u.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	skip := (f.Page - 1) * f.Limit
	if skip > len(out) {
		return []*domain.User{}, total, nil
	}
	end := skip + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[skip:end], total, nil
}

func (r *stubUserRepo) ListByRoles(_ context.Context, roles ...domain.Role) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.IsActive && hasRole(roles, u.Role) {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) CountActive(_ context.Context, roles ...domain.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.IsActive && (len(roles) == 0 || hasRole(roles, u.Role)) {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.ClientProjects != nil {
		u.ClientProjects = append([]int64(nil), (*p.ClientProjects)...)
	}
	if p.TeamActivities != nil {
		u.TeamActivities = append([]string(nil), (*p.TeamActivities)...)
	}
	if p.Permissions != nil {
		u.Permissions = *p.Permissions
	}
	c := cloneUser(u)
	c.PasswordHash = ""
	return c, nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *stubUserRepo) AddClientProject(_ context.Context, id string, projectID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	for _, p := range u.ClientProjects {
		if p == projectID {
			return nil
		}
	}
	u.ClientProjects = append(u.ClientProjects, projectID)
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func hasRole(roles []domain.Role, r domain.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// stubTokens issues "tok:<userID>" and accepts only tokens it issued.
type stubTokens struct{}

func (stubTokens) Issue(userID string) (string, time.Time, error) {
	return "tok:" + userID, time.Now().Add(7 * 24 * time.Hour), nil
}

func (stubTokens) Verify(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "tok:")
	if !ok || id == "" {
		return "", domain.ErrInvalidToken
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Projects, tasks, comments, activities
// ---------------------------------------------------------------------------

type stubProjectRepo struct {
	mu       sync.Mutex
	projects map[int64]*domain.Project
	seq      int64
	counters map[int64]map[string]int
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{projects: make(map[int64]*domain.Project), counters: make(map[int64]map[string]int)}
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c := *p
	c.ProjectID = r.seq
	r.projects[c.ProjectID] = &c
	out := c
	return &out, nil
}

func (r *stubProjectRepo) FindByProjectID(_ context.Context, id int64) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	c := *p
	return &c, nil
}

func (r *stubProjectRepo) matches(p *domain.Project, f ports.ListProjectsFilter) bool {
	if f.Scope.ProjectIDs != nil {
		found := false
		for _, id := range f.Scope.ProjectIDs {
			if id == p.ProjectID {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.Scope.TeamMember != "" && !p.HasMember(f.Scope.TeamMember) {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Priority != "" && p.Priority != f.Priority {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (r *stubProjectRepo) List(_ context.Context, f ports.ListProjectsFilter) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Project
	for _, p := range r.projects {
		if r.matches(p, f) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *stubProjectRepo) Count(ctx context.Context, f ports.ListProjectsFilter) (int64, error) {
	f.Limit = 0
	l, err := r.List(ctx, f)
	return int64(len(l)), err
}

func (r *stubProjectRepo) Replace(_ context.Context, p *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ProjectID]; !ok {
		return domain.ErrProjectNotFound
	}
	c := *p
	r.projects[p.ProjectID] = &c
	return nil
}

func (r *stubProjectRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *stubProjectRepo) IncCounters(_ context.Context, id int64, deltas map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counters[id] == nil {
		r.counters[id] = make(map[string]int)
	}
	for k, v := range deltas {
		r.counters[id][k] += v
	}
	return nil
}

type stubTaskRepo struct {
	tasks map[string]*domain.Task
}

func newStubTaskRepo() *stubTaskRepo { return &stubTaskRepo{tasks: make(map[string]*domain.Task)} }

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, projectID int64, id string) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.ProjectID != projectID {
		return nil, domain.ErrTaskNotFound
	}
	c := *t
	return &c, nil
}

func (r *stubTaskRepo) ListByProject(_ context.Context, projectID int64) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range r.tasks {
		if t.ProjectID == projectID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) Replace(_ context.Context, t *domain.Task) error {
	if _, ok := r.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, projectID int64, id string) error {
	if t, ok := r.tasks[id]; !ok || t.ProjectID != projectID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *stubTaskRepo) Count(_ context.Context, status domain.TaskStatus) (int64, error) {
	var n int64
	for _, t := range r.tasks {
		if status == "" || t.Status == status {
			n++
		}
	}
	return n, nil
}

type stubCommentRepo struct {
	comments []*domain.Comment
}

func (r *stubCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.comments = append(r.comments, c)
	return nil
}

func (r *stubCommentRepo) ListByProject(_ context.Context, projectID int64) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, c := range r.comments {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	return out, nil
}

type stubActivityRepo struct {
	mu        sync.Mutex
	items     []*domain.Activity
	insertErr error
}

func (r *stubActivityRepo) Insert(_ context.Context, a *domain.Activity) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, a)
	return nil
}

func (r *stubActivityRepo) FindByID(_ context.Context, id string) (*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrActivityNotFound
}

func (r *stubActivityRepo) List(_ context.Context, f ports.ListActivitiesFilter) ([]*domain.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Activity
	for i := len(r.items) - 1; i >= 0; i-- {
		a := r.items[i]
		if f.UserID != "" && a.User.ID != f.UserID {
			continue
		}
		if f.ProjectID != nil && a.ProjectID != *f.ProjectID {
			continue
		}
		out = append(out, a)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// recorder captures activity inputs synchronously.
type recorder struct {
	mu  sync.Mutex
	got []ports.ActivityInput
}

func (r *recorder) Record(in ports.ActivityInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, in)
}

func (r *recorder) types() []domain.ActivityType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActivityType, 0, len(r.got))
	for _, in := range r.got {
		out = append(out, in.Type)
	}
	return out
}

var errStore = errors.New("store unavailable")
