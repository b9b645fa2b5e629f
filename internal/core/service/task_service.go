package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

type TaskService struct {
	tasks    ports.TaskRepository
	projects ports.ProjectRepository
	activity ports.ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewTaskService(tasks ports.TaskRepository, projects ports.ProjectRepository, activity ports.ActivityRecorder, log zerolog.Logger) *TaskService {
	return &TaskService{tasks: tasks, projects: projects, activity: activity, log: log, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, projectID int64) ([]*domain.Task, error) {
	if _, err := s.projects.FindByProjectID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

func (s *TaskService) Create(ctx context.Context, actor *domain.User, projectID int64, in ports.CreateTaskInput) (*domain.Task, error) {
	project, err := s.projects.FindByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = domain.TaskTodo
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}

	now := s.now().UTC()
	t := &domain.Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		AssignedTo:  nonNilStrings(in.AssignedTo),
		Status:      in.Status,
		Progress:    in.Progress,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		ProjectName: project.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	deltas := statusDeltas("", t.Status)
	deltas["totalTasks"] = 1
	s.adjustCounters(ctx, projectID, deltas)

	s.record(ports.ActivityInput{
		ProjectID:   projectID,
		ProjectName: project.Name,
		TaskID:      t.ID,
		Type:        domain.ActivityTaskCreated,
		Title:       "Task created: " + t.Title,
		Actor:       memberOf(actor),
		OccurredAt:  now,
	})
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, actor *domain.User, projectID int64, taskID string, in ports.UpdateTaskInput) (*domain.Task, error) {
	t, err := s.tasks.FindByID(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	prev := t.Status

	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.AssignedTo != nil {
		t.AssignedTo = nonNilStrings(*in.AssignedTo)
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Progress != nil {
		if *in.Progress < 0 || *in.Progress > 100 {
			return nil, domain.Invalid("progress must be between 0 and 100")
		}
		t.Progress = *in.Progress
	}
	if in.DueDate != nil {
		t.DueDate = *in.DueDate
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	now := s.now().UTC()
	t.UpdatedAt = now

	if err := s.tasks.Replace(ctx, t); err != nil {
		return nil, err
	}

	if prev != t.Status {
		s.adjustCounters(ctx, projectID, statusDeltas(prev, t.Status))

		typ := domain.ActivityStatusChanged
		title := "Task status changed: " + t.Title
		if t.Status == domain.TaskCompleted {
			typ = domain.ActivityTaskCompleted
			title = "Task completed: " + t.Title
		}
		s.record(ports.ActivityInput{
			ProjectID:   projectID,
			ProjectName: t.ProjectName,
			TaskID:      t.ID,
			Type:        typ,
			Title:       title,
			Actor:       memberOf(actor),
			Metadata:    domain.ActivityMetadata{OldValue: string(prev), NewValue: string(t.Status)},
			OccurredAt:  now,
		})
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *domain.User, projectID int64, taskID string) error {
	t, err := s.tasks.FindByID(ctx, projectID, taskID)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, projectID, taskID); err != nil {
		return err
	}

	deltas := statusDeltas(t.Status, "")
	deltas["totalTasks"] = -1
	s.adjustCounters(ctx, projectID, deltas)

	s.log.Info().Str("task_id", taskID).Int64("project_id", projectID).Str("deleted_by", actor.ID).Msg("task deleted")
	return nil
}

func (s *TaskService) adjustCounters(ctx context.Context, projectID int64, deltas map[string]int) {
	if len(deltas) == 0 {
		return
	}
	if err := s.projects.IncCounters(ctx, projectID, deltas); err != nil {
		s.log.Warn().Err(err).Int64("project_id", projectID).Msg("failed to update project task counters")
	}
}

func (s *TaskService) record(in ports.ActivityInput) {
	if s.activity != nil {
		s.activity.Record(in)
	}
}

// statusDeltas returns the counter changes for moving a task between statuses.
// An empty status means the task did not exist on that side.
func statusDeltas(from, to domain.TaskStatus) map[string]int {
	d := make(map[string]int)
	counter := func(st domain.TaskStatus) string {
		switch st {
		case domain.TaskCompleted:
			return "completedTasks"
		case domain.TaskInProgress:
			return "inProgressTasks"
		}
		return ""
	}
	if c := counter(from); c != "" {
		d[c]--
	}
	if c := counter(to); c != "" {
		d[c]++
	}
	for k, v := range d {
		if v == 0 {
			delete(d, k)
		}
	}
	return d
}
