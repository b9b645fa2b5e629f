package domain

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

type Task struct {
	ID          string     `json:"id"          bson:"id"`
	ProjectID   int64      `json:"projectId"   bson:"projectId"`
	Title       string     `json:"title"       bson:"title"`
	Description string     `json:"description" bson:"description"`
	AssignedTo  []string   `json:"assignedTo"  bson:"assignedTo"`
	Status      TaskStatus `json:"status"      bson:"status"`
	Progress    int        `json:"progress"    bson:"progress"`
	DueDate     string     `json:"dueDate"     bson:"dueDate"`
	Priority    string     `json:"priority"    bson:"priority"`
	ProjectName string     `json:"projectName" bson:"projectName"`
	CreatedAt   time.Time  `json:"createdAt"   bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"   bson:"updatedAt"`
}
