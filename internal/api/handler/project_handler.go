package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

// ProjectHandler serves projects and their nested tasks and comments. Scope
// and permission checks run in middleware before any of these are reached.
type ProjectHandler struct {
	projects ports.ProjectService
	tasks    ports.TaskService
	comments ports.CommentService
}

func NewProjectHandler(projects ports.ProjectService, tasks ports.TaskService, comments ports.CommentService) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks, comments: comments}
}

type createProjectRequest struct {
	Name         string          `json:"name"         validate:"required,max=200"`
	Description  string          `json:"description"`
	Client       string          `json:"client"`
	ClientID     string          `json:"clientId"`
	Status       string          `json:"status"       validate:"omitempty,oneof='Planning' 'In Progress' 'Review' 'Completed' 'On Hold'"`
	Progress     int             `json:"progress"     validate:"gte=0,lte=100"`
	Deadline     string          `json:"deadline"`
	Priority     string          `json:"priority"     validate:"omitempty,oneof=Low Medium High"`
	Budget       float64         `json:"budget"       validate:"gte=0"`
	Team         []domain.Member `json:"team"`
	Tags         []string        `json:"tags"`
	Requirements string          `json:"requirements"`
	Deliverables string          `json:"deliverables"`
}

type updateProjectRequest struct {
	Name         *string          `json:"name"         validate:"omitempty,max=200"`
	Description  *string          `json:"description"`
	Status       *string          `json:"status"       validate:"omitempty,oneof='Planning' 'In Progress' 'Review' 'Completed' 'On Hold'"`
	Progress     *int             `json:"progress"     validate:"omitempty,gte=0,lte=100"`
	Deadline     *string          `json:"deadline"`
	Priority     *string          `json:"priority"     validate:"omitempty,oneof=Low Medium High"`
	Budget       *float64         `json:"budget"       validate:"omitempty,gte=0"`
	Team         *[]domain.Member `json:"team"`
	Tags         *[]string        `json:"tags"`
	Requirements *string          `json:"requirements"`
	Deliverables *string          `json:"deliverables"`
}

type projectsResponse struct {
	Projects []*domain.Project `json:"projects"`
}

type projectResponse struct {
	Project *domain.Project `json:"project"`
	Message string          `json:"message,omitempty"`
}

type createTaskRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description"`
	AssignedTo  []string `json:"assignedTo"`
	Status      string   `json:"status"      validate:"omitempty,oneof=todo in_progress review completed"`
	Progress    int      `json:"progress"    validate:"gte=0,lte=100"`
	DueDate     string   `json:"dueDate"`
	Priority    string   `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

type updateTaskRequest struct {
	Title       *string   `json:"title"       validate:"omitempty,max=200"`
	Description *string   `json:"description"`
	AssignedTo  *[]string `json:"assignedTo"`
	Status      *string   `json:"status"      validate:"omitempty,oneof=todo in_progress review completed"`
	Progress    *int      `json:"progress"    validate:"omitempty,gte=0,lte=100"`
	DueDate     *string   `json:"dueDate"`
	Priority    *string   `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

type tasksResponse struct {
	Tasks []*domain.Task `json:"tasks"`
}

type taskResponse struct {
	Task    *domain.Task `json:"task"`
	Message string       `json:"message,omitempty"`
}

type createCommentRequest struct {
	Content     string              `json:"content"     validate:"required,max=5000"`
	Attachments []domain.Attachment `json:"attachments"`
}

type commentsResponse struct {
	Comments []*domain.Comment `json:"comments"`
}

type commentResponse struct {
	Comment *domain.Comment `json:"comment"`
	Message string          `json:"message,omitempty"`
}

// List returns the projects visible to the caller.
//
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Filter by status"
// @Param        priority  query     string  false  "Filter by priority"
// @Param        search    query     string  false  "Match name, description or client"
// @Success      200       {object}  projectsResponse
// @Failure      401       {object}  errorResponse
// @Router       /api/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	projects, err := h.projects.List(c.Request().Context(), actor, ports.ListProjectsInput{
		Status:   domain.ProjectStatus(c.QueryParam("status")),
		Priority: domain.ProjectPriority(c.QueryParam("priority")),
		Search:   c.QueryParam("search"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projectsResponse{Projects: projects})
}

// Get returns one project.
//
// @Summary      Get project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int  true  "Project id"
// @Success      200        {object}  projectResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	p, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projectResponse{Project: p})
}

// Create adds a project and grants its client access to it.
//
// @Summary      Create project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProjectRequest  true  "New project"
// @Success      201   {object}  projectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.projects.Create(c.Request().Context(), actor, ports.CreateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Client:       req.Client,
		ClientID:     req.ClientID,
		Status:       domain.ProjectStatus(req.Status),
		Progress:     req.Progress,
		Deadline:     req.Deadline,
		Priority:     domain.ProjectPriority(req.Priority),
		Budget:       req.Budget,
		Team:         req.Team,
		Tags:         req.Tags,
		Requirements: req.Requirements,
		Deliverables: req.Deliverables,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, projectResponse{Project: p, Message: "Project created successfully"})
}

// Update edits a project.
//
// @Summary      Update project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int                   true  "Project id"
// @Param        body       body      updateProjectRequest  true  "Fields to change"
// @Success      200        {object}  projectResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	var req updateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Progress:     req.Progress,
		Deadline:     req.Deadline,
		Budget:       req.Budget,
		Team:         req.Team,
		Tags:         req.Tags,
		Requirements: req.Requirements,
		Deliverables: req.Deliverables,
	}
	if req.Status != nil {
		s := domain.ProjectStatus(*req.Status)
		in.Status = &s
	}
	if req.Priority != nil {
		p := domain.ProjectPriority(*req.Priority)
		in.Priority = &p
	}

	p, err := h.projects.Update(c.Request().Context(), actor, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projectResponse{Project: p, Message: "Project updated successfully"})
}

// Delete removes a project.
//
// @Summary      Delete project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int  true  "Project id"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}

// ListTasks returns a project's tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int  true  "Project id"
// @Success      200        {object}  tasksResponse
// @Failure      403        {object}  errorResponse
// @Router       /api/projects/{projectId}/tasks [get]
func (h *ProjectHandler) ListTasks(c echo.Context) error {
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
}

// CreateTask adds a task to a project.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int                true  "Project id"
// @Param        body       body      createTaskRequest  true  "New task"
// @Success      201        {object}  taskResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId}/tasks [post]
func (h *ProjectHandler) CreateTask(c echo.Context) error {
	_, user, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	t, err := h.tasks.Create(c.Request().Context(), user, id, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      domain.TaskStatus(req.Status),
		Progress:    req.Progress,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, taskResponse{Task: t, Message: "Task created successfully"})
}

// UpdateTask edits a task.
//
// @Summary      Update task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int                true  "Project id"
// @Param        taskId     path      string             true  "Task id"
// @Param        body       body      updateTaskRequest  true  "Fields to change"
// @Success      200        {object}  taskResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId}/tasks/{taskId} [put]
func (h *ProjectHandler) UpdateTask(c echo.Context) error {
	_, user, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Progress:    req.Progress,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		in.Status = &s
	}

	t, err := h.tasks.Update(c.Request().Context(), user, id, c.Param("taskId"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, taskResponse{Task: t, Message: "Task updated successfully"})
}

// DeleteTask removes a task.
//
// @Summary      Delete task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int     true  "Project id"
// @Param        taskId     path      string  true  "Task id"
// @Success      200        {object}  messageResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId}/tasks/{taskId} [delete]
func (h *ProjectHandler) DeleteTask(c echo.Context) error {
	_, user, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), user, id, c.Param("taskId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

// ListComments returns a project's discussion, oldest first.
//
// @Summary      List comments
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int  true  "Project id"
// @Success      200        {object}  commentsResponse
// @Failure      403        {object}  errorResponse
// @Router       /api/projects/{projectId}/comments [get]
func (h *ProjectHandler) ListComments(c echo.Context) error {
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	comments, err := h.comments.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, commentsResponse{Comments: comments})
}

// CreateComment posts a comment on a project.
//
// @Summary      Create comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      int                   true  "Project id"
// @Param        body       body      createCommentRequest  true  "Comment"
// @Success      201        {object}  commentResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/projects/{projectId}/comments [post]
func (h *ProjectHandler) CreateComment(c echo.Context) error {
	_, user, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := projectIDParam(c)
	if err != nil {
		return err
	}
	var req createCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cm, err := h.comments.Create(c.Request().Context(), user, id, ports.CreateCommentInput{
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, commentResponse{Comment: cm, Message: "Comment added successfully"})
}
