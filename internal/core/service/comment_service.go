package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

type CommentService struct {
	comments ports.CommentRepository
	projects ports.ProjectRepository
	activity ports.ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewCommentService(comments ports.CommentRepository, projects ports.ProjectRepository, activity ports.ActivityRecorder, log zerolog.Logger) *CommentService {
	return &CommentService{comments: comments, projects: projects, activity: activity, log: log, now: time.Now}
}

func (s *CommentService) List(ctx context.Context, projectID int64) ([]*domain.Comment, error) {
	if _, err := s.projects.FindByProjectID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.comments.ListByProject(ctx, projectID)
}

func (s *CommentService) Create(ctx context.Context, actor *domain.User, projectID int64, in ports.CreateCommentInput) (*domain.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.Invalid("content is required")
	}
	project, err := s.projects.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &domain.Comment{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Author:      memberOf(actor),
		Content:     content,
		Attachments: in.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Attachments == nil {
		c.Attachments = []domain.Attachment{}
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := s.projects.IncCounters(ctx, projectID, map[string]int{
		"commentsCount": 1,
		"filesCount":    len(c.Attachments),
	}); err != nil {
		s.log.Warn().Err(err).Int64("project_id", projectID).Msg("failed to update project comment counters")
	}

	if s.activity != nil {
		s.activity.Record(ports.ActivityInput{
			ProjectID:   projectID,
			ProjectName: project.Name,
			Type:        domain.ActivityCommentAdded,
			Title:       actor.Name + " commented on " + project.Name,
			Description: content,
			Actor:       c.Author,
			OccurredAt:  now,
		})
	}
	return c, nil
}
