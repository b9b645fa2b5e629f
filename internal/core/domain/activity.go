package domain

import "time"

// ActivityType classifies an entry in the activity feed.
type ActivityType string

const (
	ActivityTaskCreated   ActivityType = "task_created"
	ActivityTaskCompleted ActivityType = "task_completed"
	ActivityTaskAssigned  ActivityType = "task_assigned"
	ActivityStatusChanged ActivityType = "status_changed"
	ActivityCommentAdded  ActivityType = "comment_added"
	ActivityLogin         ActivityType = "login"
	ActivityFileUploaded  ActivityType = "file_uploaded"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTaskCreated, ActivityTaskCompleted, ActivityTaskAssigned,
		ActivityStatusChanged, ActivityCommentAdded, ActivityLogin, ActivityFileUploaded:
		return true
	}
	return false
}

// Simplified maps an activity type onto the coarse feed badge.
func (t ActivityType) Simplified() string {
	switch t {
	case ActivityTaskCompleted:
		return "success"
	case ActivityStatusChanged:
		return "warning"
	case ActivityTaskCreated, ActivityTaskAssigned, ActivityCommentAdded, ActivityFileUploaded:
		return "info"
	default:
		return "default"
	}
}

type ActivityMetadata struct {
	OldValue string `json:"oldValue,omitempty" bson:"oldValue,omitempty"`
	NewValue string `json:"newValue,omitempty" bson:"newValue,omitempty"`
	FileName string `json:"fileName,omitempty" bson:"fileName,omitempty"`
}

type Activity struct {
	ID             string           `json:"id"             bson:"id"`
	ProjectID      int64            `json:"projectId"      bson:"projectId"`
	TaskID         string           `json:"taskId,omitempty" bson:"taskId,omitempty"`
	Type           ActivityType     `json:"type"           bson:"type"`
	Title          string           `json:"title"          bson:"title"`
	Description    string           `json:"description"    bson:"description"`
	User           Member           `json:"user"           bson:"user"`
	Timestamp      time.Time        `json:"timestamp"      bson:"timestamp"`
	Metadata       ActivityMetadata `json:"metadata"       bson:"metadata"`
	ProjectName    string           `json:"projectName"    bson:"projectName"`
	TypeSimplified string           `json:"typeSimplified" bson:"type_simplified"`
	CreatedAt      time.Time        `json:"createdAt"      bson:"createdAt"`
}
