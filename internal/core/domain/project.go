package domain

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectReview     ProjectStatus = "Review"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectOnHold     ProjectStatus = "On Hold"
)

// ProjectPriority ranks a project.
type ProjectPriority string

const (
	PriorityLow    ProjectPriority = "Low"
	PriorityMedium ProjectPriority = "Medium"
	PriorityHigh   ProjectPriority = "High"
)

// Member is a denormalised user reference embedded in projects, comments and activities.
type Member struct {
	ID     string `json:"id"     bson:"id"`
	Name   string `json:"name"   bson:"name"`
	Avatar string `json:"avatar" bson:"avatar"`
	Role   string `json:"role"   bson:"role"`
}

// Project is identified publicly by its numeric ProjectID; client allow-lists
// reference that key, never the document id.
type Project struct {
	ID              string          `json:"_id"             bson:"_id,omitempty"`
	ProjectID       int64           `json:"projectId"       bson:"projectId"`
	Name            string          `json:"name"            bson:"name"`
	Description     string          `json:"description"     bson:"description"`
	Client          string          `json:"client"          bson:"client"`
	ClientID        string          `json:"clientId"        bson:"clientId"`
	Status          ProjectStatus   `json:"status"          bson:"status"`
	Progress        int             `json:"progress"        bson:"progress"`
	Deadline        string          `json:"deadline"        bson:"deadline"`
	Priority        ProjectPriority `json:"priority"        bson:"priority"`
	Budget          float64         `json:"budget"          bson:"budget"`
	Team            []Member        `json:"team"            bson:"team"`
	TotalTasks      int             `json:"totalTasks"      bson:"totalTasks"`
	CompletedTasks  int             `json:"completedTasks"  bson:"completedTasks"`
	InProgressTasks int             `json:"inProgressTasks" bson:"inProgressTasks"`
	CommentsCount   int             `json:"commentsCount"   bson:"commentsCount"`
	FilesCount      int             `json:"filesCount"      bson:"filesCount"`
	Tags            []string        `json:"tags"            bson:"tags"`
	Requirements    string          `json:"requirements"    bson:"requirements"`
	Deliverables    string          `json:"deliverables"    bson:"deliverables"`
	CreatedAt       time.Time       `json:"createdAt"       bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"       bson:"updatedAt"`
}

// HasMember reports whether userID is on the project team.
func (p *Project) HasMember(userID string) bool {
	for _, m := range p.Team {
		if m.ID == userID {
			return true
		}
	}
	return false
}
