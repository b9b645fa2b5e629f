package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

type ActivityHandler struct {
	service ports.ActivityService
}

func NewActivityHandler(service ports.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

type createActivityRequest struct {
	ProjectID   int64                   `json:"projectId"`
	ProjectName string                  `json:"projectName"`
	TaskID      string                  `json:"taskId"`
	Type        string                  `json:"type"        validate:"required"`
	Title       string                  `json:"title"       validate:"required,max=200"`
	Description string                  `json:"description"`
	Metadata    domain.ActivityMetadata `json:"metadata"`
}

type activitiesResponse struct {
	Activities []*domain.Activity `json:"activities"`
}

type activityResponse struct {
	Activity *domain.Activity `json:"activity"`
	Message  string           `json:"message,omitempty"`
}

// List returns the newest feed entries, optionally for one project.
//
// @Summary      List activities
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  query     int  false  "Only this project"
// @Success      200        {object}  activitiesResponse
// @Failure      401        {object}  errorResponse
// @Router       /api/activities [get]
func (h *ActivityHandler) List(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	var projectID *int64
	if raw := c.QueryParam("projectId"); raw != "" {
		id, ok := access.ParseProjectID(raw)
		if !ok {
			return domain.Invalid("projectId must be a number")
		}
		projectID = &id
	}
	list, err := h.service.List(c.Request().Context(), actor, projectID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activitiesResponse{Activities: list})
}

// Create records a feed entry on behalf of the caller.
//
// @Summary      Create activity
// @Tags         activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createActivityRequest  true  "Activity"
// @Success      201   {object}  activityResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/activities [post]
func (h *ActivityHandler) Create(c echo.Context) error {
	_, user, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createActivityRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	a, err := h.service.Save(c.Request().Context(), ports.ActivityInput{
		ProjectID:   req.ProjectID,
		ProjectName: req.ProjectName,
		TaskID:      req.TaskID,
		Type:        domain.ActivityType(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Actor:       domain.Member{ID: user.ID, Name: user.Name, Avatar: user.Avatar, Role: string(user.Role)},
		Metadata:    req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, activityResponse{Activity: a, Message: "Activity created successfully"})
}

// Get returns one feed entry.
//
// @Summary      Get activity
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        activityId  path      string  true  "Activity id"
// @Success      200         {object}  activityResponse
// @Failure      403         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /api/activities/{activityId} [get]
func (h *ActivityHandler) Get(c echo.Context) error {
	a, err := h.service.Get(c.Request().Context(), c.Param("activityId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activityResponse{Activity: a})
}
