package domain

import "time"

// Attachment is a file reference attached to a comment.
type Attachment struct {
	ID   string `json:"id"   bson:"id"`
	Name string `json:"name" bson:"name"`
	Size string `json:"size" bson:"size"`
	Type string `json:"type" bson:"type"` // image | file
	URL  string `json:"url"  bson:"url"`
}

type Comment struct {
	ID          string       `json:"id"          bson:"id"`
	ProjectID   int64        `json:"projectId"   bson:"projectId"`
	Author      Member       `json:"author"      bson:"author"`
	Content     string       `json:"content"     bson:"content"`
	IsEdited    bool         `json:"isEdited"    bson:"isEdited"`
	Attachments []Attachment `json:"attachments" bson:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"   bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"   bson:"updatedAt"`
}
