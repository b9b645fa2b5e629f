package access

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmhub/project-manager/internal/core/domain"
)

var (
	admin  = Actor{ID: "a1", Role: domain.RoleAdmin}
	team   = Actor{ID: "t1", Role: domain.RoleTeam, TeamActivities: []string{"act-1", "42"}}
	client = Actor{ID: "c1", Role: domain.RoleClient, ClientProjects: []int64{3, 7}}
)

func TestDecide(t *testing.T) {
	cases := []struct {
		name     string
		actor    Actor
		required []domain.Role
		want     Decision
	}{
		{"no restriction", client, nil, Decision{Allowed: true}},
		{"role member", team, []domain.Role{domain.RoleAdmin, domain.RoleTeam}, Decision{Allowed: true}},
		{"role not member", client, []domain.Role{domain.RoleAdmin, domain.RoleTeam}, Decision{Reason: ReasonRole}},
		{"unknown role", Actor{Role: "guest"}, []domain.Role{domain.RoleClient}, Decision{Reason: ReasonRole}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Decide(tc.actor, tc.required...))
		})
	}
}

func TestDecide_Deterministic(t *testing.T) {
	roles := []domain.Role{domain.RoleAdmin, domain.RoleTeam, domain.RoleClient, "guest"}
	sets := [][]domain.Role{nil, {domain.RoleAdmin}, {domain.RoleTeam, domain.RoleClient}}

	want := make(map[string]Decision)
	for _, r := range roles {
		for i, s := range sets {
			want[string(r)+string(rune('0'+i))] = Decide(Actor{Role: r}, s...)
		}
	}

	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range roles {
				for i, s := range sets {
					if got := Decide(Actor{Role: r}, s...); got != want[string(r)+string(rune('0'+i))] {
						t.Errorf("Decide(%s, %v) changed between calls", r, s)
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestProjectScope_AdminAlwaysAllowed(t *testing.T) {
	for _, p := range []ScopePolicy{{}, {StrictFallthrough: true}} {
		for _, id := range []int64{0, 1, 3, 999} {
			require.True(t, p.ProjectScope(admin, id, true).Allowed)
		}
		require.True(t, p.ProjectScope(admin, 0, false).Allowed)
	}
}

func TestProjectScope_ClientAllowList(t *testing.T) {
	var p ScopePolicy

	require.True(t, p.ProjectScope(client, 7, true).Allowed)
	require.Equal(t, Decision{Reason: ReasonScope}, p.ProjectScope(client, 9, true))
	// A missing id is a plain non-member, not a distinct failure.
	require.Equal(t, Decision{Reason: ReasonScope}, p.ProjectScope(client, 0, false))
}

func TestProjectScope_ClientGrantedLater(t *testing.T) {
	var p ScopePolicy
	a := Actor{ID: "c2", Role: domain.RoleClient}

	require.False(t, p.ProjectScope(a, 1, true).Allowed)

	a.ClientProjects = append(a.ClientProjects, 1)
	require.True(t, p.ProjectScope(a, 1, true).Allowed)
}

// The team role is not checked against any project allow-list and falls
// through to Allow. StrictFallthrough flips it.
func TestProjectScope_TeamFallsThrough(t *testing.T) {
	require.True(t, ScopePolicy{}.ProjectScope(team, 12345, true).Allowed)
	require.True(t, ScopePolicy{}.ProjectScope(team, 0, false).Allowed)
	require.False(t, ScopePolicy{StrictFallthrough: true}.ProjectScope(team, 12345, true).Allowed)
}

func TestActivityScope(t *testing.T) {
	var p ScopePolicy

	require.True(t, p.ActivityScope(admin, "whatever", true).Allowed)
	require.True(t, p.ActivityScope(admin, "", false).Allowed)
	require.True(t, p.ActivityScope(team, "act-1", true).Allowed)
	require.Equal(t, Decision{Reason: ReasonScope}, p.ActivityScope(team, "act-2", true))
	require.Equal(t, Decision{Reason: ReasonScope}, p.ActivityScope(team, "", false))

	// Clients are not checked by the activity guard.
	require.True(t, p.ActivityScope(client, "act-2", true).Allowed)
	require.False(t, ScopePolicy{StrictFallthrough: true}.ActivityScope(client, "act-2", true).Allowed)
}

// A team user with no activity allow-list is denied on a scoped id but the
// client role still falls through; both assert current behaviour.
func TestActivityScope_EmptyTeamAllowList(t *testing.T) {
	empty := Actor{ID: "t2", Role: domain.RoleTeam}
	require.False(t, ScopePolicy{}.ActivityScope(empty, "act-1", true).Allowed)
}

func TestSelfAction(t *testing.T) {
	require.Equal(t, Decision{Allowed: true}, SelfAction(admin, "u9"))
	require.Equal(t, Decision{Reason: ReasonSelfAction}, SelfAction(admin, admin.ID))
	require.Equal(t, Decision{Reason: ReasonRole}, SelfAction(team, "u9"))
	require.Equal(t, Decision{Reason: ReasonRole}, SelfAction(client, client.ID))
}

func TestCan(t *testing.T) {
	require.True(t, Can(admin, DeleteProjects).Allowed)

	withCreate := Actor{Role: domain.RoleTeam, Permissions: domain.Permissions{CanCreateProjects: true}}
	require.True(t, Can(withCreate, CreateProjects).Allowed)
	require.Equal(t, Decision{Reason: ReasonPermission}, Can(withCreate, DeleteProjects))
}

func TestDecisionErr(t *testing.T) {
	require.NoError(t, Decision{Allowed: true}.Err())
	require.ErrorIs(t, Decision{Reason: ReasonScope}.Err(), domain.ErrAccessDenied)
}

func TestParseProjectID(t *testing.T) {
	cases := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{"7", 7, true},
		{" 7 ", 7, true},
		{float64(7), 7, true},
		{json.Number("9"), 9, true},
		{int64(3), 3, true},
		{7.5, 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseProjectID(tc.in)
		require.Equal(t, tc.wantOK, ok, "input %#v", tc.in)
		require.Equal(t, tc.want, got, "input %#v", tc.in)
	}
}

func TestParseActivityID(t *testing.T) {
	got, ok := ParseActivityID(float64(42))
	require.True(t, ok)
	require.Equal(t, "42", got)
	require.True(t, ScopePolicy{}.ActivityScope(team, got, ok).Allowed)

	got, ok = ParseActivityID(json.Number("42"))
	require.True(t, ok)
	require.Equal(t, "42", got)

	_, ok = ParseActivityID("  ")
	require.False(t, ok)
}

func TestActorFromUser_CopiesAllowLists(t *testing.T) {
	u := &domain.User{ID: "x", Role: domain.RoleClient, ClientProjects: []int64{1}}
	a := ActorFromUser(u)
	u.ClientProjects[0] = 99
	require.Equal(t, []int64{1}, a.ClientProjects)
}
