package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

const activityListLimit = 50

type ActivityService struct {
	repo ports.ActivityRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewActivityService(repo ports.ActivityRepository, log zerolog.Logger) *ActivityService {
	return &ActivityService{repo: repo, log: log, now: time.Now}
}

// Save validates and persists one feed entry.
func (s *ActivityService) Save(ctx context.Context, in ports.ActivityInput) (*domain.Activity, error) {
	if !in.Type.Valid() {
		return nil, domain.Invalid("unknown activity type: " + string(in.Type))
	}
	if in.Title == "" {
		return nil, domain.Invalid("title is required")
	}
	now := s.now().UTC()
	ts := in.OccurredAt
	if ts.IsZero() {
		ts = now
	}

	a := &domain.Activity{
		ID:             uuid.NewString(),
		ProjectID:      in.ProjectID,
		TaskID:         in.TaskID,
		Type:           in.Type,
		Title:          in.Title,
		Description:    in.Description,
		User:           in.Actor,
		Timestamp:      ts.UTC(),
		Metadata:       in.Metadata,
		ProjectName:    in.ProjectName,
		TypeSimplified: in.Type.Simplified(),
		CreatedAt:      now,
	}
	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, err
	}

	s.log.Debug().Str("activity_id", a.ID).Str("type", string(a.Type)).Int64("project_id", a.ProjectID).Msg("activity recorded")
	return a, nil
}

// List returns the most recent feed entries. Clients only see their own
// actions; team and admin see the whole feed.
func (s *ActivityService) List(ctx context.Context, actor access.Actor, projectID *int64) ([]*domain.Activity, error) {
	f := ports.ListActivitiesFilter{ProjectID: projectID, Limit: activityListLimit}
	if actor.Role == domain.RoleClient {
		f.UserID = actor.ID
	}
	return s.repo.List(ctx, f)
}

func (s *ActivityService) Get(ctx context.Context, id string) (*domain.Activity, error) {
	return s.repo.FindByID(ctx, id)
}
