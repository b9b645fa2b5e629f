package domain

import "time"

// Role is the coarse-grained classification that gates whole classes of routes.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTeam   Role = "team"
	RoleClient Role = "client"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeam, RoleClient:
		return true
	}
	return false
}

// Permissions is the per-user capability bundle. Every flag is always present;
// there is no implicit default at decode time.
type Permissions struct {
	CanViewAllProjects  bool `json:"canViewAllProjects"  bson:"canViewAllProjects"`
	CanCreateProjects   bool `json:"canCreateProjects"   bson:"canCreateProjects"`
	CanEditProjects     bool `json:"canEditProjects"     bson:"canEditProjects"`
	CanDeleteProjects   bool `json:"canDeleteProjects"   bson:"canDeleteProjects"`
	CanViewTasks        bool `json:"canViewTasks"        bson:"canViewTasks"`
	CanManageTasks      bool `json:"canManageTasks"      bson:"canManageTasks"`
	CanViewTeamActivity bool `json:"canViewTeamActivity" bson:"canViewTeamActivity"`
}

// DefaultPermissions returns the bundle a freshly created user of role r gets.
func DefaultPermissions(r Role) Permissions {
	switch r {
	case RoleAdmin:
		return Permissions{
			CanViewAllProjects:  true,
			CanCreateProjects:   true,
			CanEditProjects:     true,
			CanDeleteProjects:   true,
			CanViewTasks:        true,
			CanManageTasks:      true,
			CanViewTeamActivity: true,
		}
	case RoleTeam:
		return Permissions{
			CanViewTasks:        true,
			CanManageTasks:      true,
			CanViewTeamActivity: true,
		}
	default:
		return Permissions{CanViewTasks: true}
	}
}

// User models an authenticated actor in the system.
type User struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	Avatar         string      `json:"avatar"`
	PasswordHash   string      `json:"-"`
	Role           Role        `json:"role"`
	Company        string      `json:"company,omitempty"`
	IsActive       bool        `json:"isActive"`
	ClientProjects []int64     `json:"clientProjects"`
	TeamActivities []string    `json:"teamActivities"`
	Permissions    Permissions `json:"permissions"`
	LastLogin      *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username       *string
	Email          *string
	Name           *string
	Avatar         *string
	Company        *string
	Role           *Role
	IsActive       *bool
	PasswordHash   *string
	ClientProjects *[]int64
	TeamActivities *[]string
	Permissions    *Permissions
}
