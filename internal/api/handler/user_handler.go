package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
)

// UserHandler serves account administration and profile edits.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type createUserRequest struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin team client"`
}

type updateUserRequest struct {
	Username       *string             `json:"username"       validate:"omitempty,min=3,max=50"`
	Email          *string             `json:"email"          validate:"omitempty,email"`
	Name           *string             `json:"name"`
	Avatar         *string             `json:"avatar"`
	Company        *string             `json:"company"`
	Password       *string             `json:"password"`
	Role           *string             `json:"role"           validate:"omitempty,oneof=admin team client"`
	IsActive       *bool               `json:"isActive"`
	ClientProjects *[]int64            `json:"clientProjects"`
	TeamActivities *[]string           `json:"teamActivities"`
	Permissions    *domain.Permissions `json:"permissions"`
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type listUsersResponse struct {
	Users      []*domain.User `json:"users"`
	Pagination pagination     `json:"pagination"`
}

type usersResponse struct {
	Users []*domain.User `json:"users"`
}

type userMessageResponse struct {
	User    *domain.User `json:"user"`
	Message string       `json:"message"`
}

// List returns a page of users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number (1-based)"
// @Param        limit     query     int     false  "Page size"
// @Param        role      query     string  false  "Filter by role"
// @Param        isActive  query     bool    false  "Filter by active flag"
// @Param        search    query     string  false  "Match username, name or email"
// @Success      200       {object}  listUsersResponse
// @Failure      401       {object}  errorResponse
// @Failure      403       {object}  errorResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}

	var f ports.ListUsersFilter
	var role string
	var active bool
	if err := echo.QueryParamsBinder(c).
		Int("page", &f.Page).
		Int("limit", &f.Limit).
		String("role", &role).
		Bool("isActive", &active).
		String("search", &f.Search).
		BindError(); err != nil {
		return domain.Invalid("Invalid query parameters")
	}
	f.Role = domain.Role(role)
	if c.QueryParam("isActive") != "" {
		f.IsActive = &active
	}

	res, err := h.service.List(c.Request().Context(), actor, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Users: res.Users,
		Pagination: pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}

// Team lists active admin and team users.
//
// @Summary      List team members
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Router       /api/users/team [get]
func (h *UserHandler) Team(c echo.Context) error {
	users, err := h.service.Team(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// Clients lists active client users.
//
// @Summary      List clients
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersResponse
// @Router       /api/users/clients [get]
func (h *UserHandler) Clients(c echo.Context) error {
	users, err := h.service.Clients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

// Get returns one user. Non-admins may only read themselves.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Create adds a user of any role.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  userMessageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), actor, ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Company:  req.Company,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userMessageResponse{User: user, Message: "User created successfully"})
}

// Update edits a profile. Role, status, allow-lists and permissions are admin only.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userMessageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := ports.UpdateUserInput{
		Username:       req.Username,
		Email:          req.Email,
		Name:           req.Name,
		Avatar:         req.Avatar,
		Company:        req.Company,
		Password:       req.Password,
		IsActive:       req.IsActive,
		ClientProjects: req.ClientProjects,
		TeamActivities: req.TeamActivities,
		Permissions:    req.Permissions,
	}
	if req.Role != nil {
		r := domain.Role(*req.Role)
		in.Role = &r
	}

	user, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userMessageResponse{User: user, Message: "User updated successfully"})
}

// Delete removes a user. Admins cannot delete themselves.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted successfully"})
}

// ToggleStatus flips a user's active flag. Admins cannot toggle themselves.
//
// @Summary      Toggle user status
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userMessageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id}/toggle-status [patch]
func (h *UserHandler) ToggleStatus(c echo.Context) error {
	actor, _, err := ctxActor(c)
	if err != nil {
		return err
	}
	user, err := h.service.ToggleStatus(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	return c.JSON(http.StatusOK, userMessageResponse{User: user, Message: fmt.Sprintf("User %s successfully", state)})
}
