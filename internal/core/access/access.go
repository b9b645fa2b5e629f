// Package access holds the authorization engine and the resource scope guards.
//
// Every function here is a pure decision over an Actor and a target: no I/O,
// no package state. The HTTP middleware in internal/api/middleware is the only
// caller that turns a Decision into a response.
package access

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pmhub/project-manager/internal/core/domain"
)

// Reason explains a Deny.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonRole       Reason = "insufficient_role"
	ReasonScope      Reason = "out_of_scope"
	ReasonSelfAction Reason = "self_action"
	ReasonPermission Reason = "missing_permission"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(r Reason) Decision { return Decision{Reason: r} }

// Err converts a Deny into the domain error the transport renders. Allow yields nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.ErrAccessDenied
}

// Actor is the resolved identity threaded through the guard chain.
type Actor struct {
	ID             string
	Role           domain.Role
	ClientProjects []int64
	TeamActivities []string
	Permissions    domain.Permissions
}

// ActorFromUser copies the fields the guards need out of a loaded user record.
func ActorFromUser(u *domain.User) Actor {
	return Actor{
		ID:             u.ID,
		Role:           u.Role,
		ClientProjects: append([]int64(nil), u.ClientProjects...),
		TeamActivities: append([]string(nil), u.TeamActivities...),
		Permissions:    u.Permissions,
	}
}

// Decide is the role check. An empty role set allows and defers to the scope guards.
func Decide(a Actor, required ...domain.Role) Decision {
	if len(required) == 0 {
		return allow
	}
	for _, r := range required {
		if a.Role == r {
			return allow
		}
	}
	return deny(ReasonRole)
}

// ScopePolicy selects what happens to roles a guard has no allow-list for.
// The zero value falls through to Allow.
type ScopePolicy struct {
	StrictFallthrough bool
}

// ProjectScope decides access to a project-scoped resource. ok is false when the
// request carried no usable project id, which never matches an allow-list.
func (p ScopePolicy) ProjectScope(a Actor, projectID int64, ok bool) Decision {
	switch a.Role {
	case domain.RoleAdmin:
		return allow
	case domain.RoleClient:
		if ok && containsInt(a.ClientProjects, projectID) {
			return allow
		}
		return deny(ReasonScope)
	}
	// team (and any other role) is not checked against a project allow-list.
	if p.StrictFallthrough {
		return deny(ReasonScope)
	}
	return allow
}

// ActivityScope is the team/activity counterpart of ProjectScope.
func (p ScopePolicy) ActivityScope(a Actor, activityID string, ok bool) Decision {
	switch a.Role {
	case domain.RoleAdmin:
		return allow
	case domain.RoleTeam:
		if ok && containsString(a.TeamActivities, activityID) {
			return allow
		}
		return deny(ReasonScope)
	}
	if p.StrictFallthrough {
		return deny(ReasonScope)
	}
	return allow
}

// SelfAction guards administrative mutations on user accounts: only admins, and
// never on their own account.
func SelfAction(a Actor, targetID string) Decision {
	if a.Role != domain.RoleAdmin {
		return deny(ReasonRole)
	}
	if a.ID == targetID {
		return deny(ReasonSelfAction)
	}
	return allow
}

// Permission names one flag of the permissions bundle.
type Permission int

const (
	ViewAllProjects Permission = iota
	CreateProjects
	EditProjects
	DeleteProjects
	ViewTasks
	ManageTasks
	ViewTeamActivity
)

// Can reports whether the actor holds perm. Admins hold every permission.
func Can(a Actor, perm Permission) Decision {
	if a.Role == domain.RoleAdmin {
		return allow
	}
	p := a.Permissions
	var has bool
	switch perm {
	case ViewAllProjects:
		has = p.CanViewAllProjects
	case CreateProjects:
		has = p.CanCreateProjects
	case EditProjects:
		has = p.CanEditProjects
	case DeleteProjects:
		has = p.CanDeleteProjects
	case ViewTasks:
		has = p.CanViewTasks
	case ManageTasks:
		has = p.CanManageTasks
	case ViewTeamActivity:
		has = p.CanViewTeamActivity
	}
	if has {
		return allow
	}
	return deny(ReasonPermission)
}

// ParseProjectID normalises a project id taken from a route parameter or a
// decoded JSON body. Strings and JSON numbers are accepted; anything else, or a
// non-integral number, reports ok=false.
func ParseProjectID(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || math.IsNaN(t) {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case interface{ Int64() (int64, error) }:
		n, err := t.Int64()
		return n, err == nil
	}
	return 0, false
}

// ParseActivityID normalises an activity id. Numbers are formatted to their
// decimal string so they compare against string allow-list entries.
func ParseActivityID(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int, int64:
		return fmt.Sprint(t), true
	case fmt.Stringer:
		s := strings.TrimSpace(t.String())
		return s, s != ""
	}
	return "", false
}

func containsInt(list []int64, v int64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
