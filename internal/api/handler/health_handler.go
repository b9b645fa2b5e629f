package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency the readiness probe can reach.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseInspector reports the collections and per-collection document counts of the store.
type DatabaseInspector interface {
	Inspect(ctx context.Context) (collections []string, counts map[string]int64, err error)
}

// HealthHandler serves liveness, readiness and database status probes.
type HealthHandler struct {
	version  string
	env      string
	database string
	mongo    Pinger
	deps     map[string]Pinger
	inspect  DatabaseInspector
	now      func() time.Time
}

// NewHealthHandler reports on mongo as the primary store plus any extra
// dependencies keyed by the name shown in the readiness body.
func NewHealthHandler(version, env, database string, mongo Pinger, extra map[string]Pinger) *HealthHandler {
	deps := map[string]Pinger{"mongodb": mongo}
	for name, p := range extra {
		deps[name] = p
	}
	return &HealthHandler{
		version:  version,
		env:      env,
		database: database,
		mongo:    mongo,
		deps:     deps,
		now:      time.Now,
	}
}

// WithInspector enables the document count probe.
func (h *HealthHandler) WithInspector(i DatabaseInspector) *HealthHandler {
	h.inspect = i
	return h
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

type databaseInfo struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

type rootResponse struct {
	Message   string       `json:"message"`
	Version   string       `json:"version"`
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Database  databaseInfo `json:"database"`
}

type dbStatusResponse struct {
	databaseInfo
	Timestamp time.Time `json:"timestamp"`
}

// Root describes the API.
//
// @Summary      API info
// @Tags         health
// @Produce      json
// @Success      200  {object}  rootResponse
// @Router       / [get]
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, rootResponse{
		Message:   "Project Management API",
		Version:   h.version,
		Status:    "running",
		Timestamp: h.now().UTC(),
		Database:  h.databaseInfo(c.Request().Context()),
	})
}

// Liveness returns 200 while the process is up.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": h.env,
	})
}

// Readiness pings every dependency. Any failure answers 503.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]dependencyStatus, len(names))
	healthy := true
	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}

// DBStatus reports whether the document store answers.
//
// @Summary      Database status
// @Tags         health
// @Produce      json
// @Success      200  {object}  dbStatusResponse
// @Router       /db-status [get]
func (h *HealthHandler) DBStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, dbStatusResponse{
		databaseInfo: h.databaseInfo(c.Request().Context()),
		Timestamp:    h.now().UTC(),
	})
}

type dbTestResponse struct {
	Database       string           `json:"database"`
	Collections    []string         `json:"collections"`
	DocumentCounts map[string]int64 `json:"documentCounts"`
	Timestamp      time.Time        `json:"timestamp"`
}

type dbTestError struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// DBTest lists the collections and counts the documents of each domain collection.
//
// @Summary      Database document counts
// @Tags         health
// @Produce      json
// @Success      200  {object}  dbTestResponse
// @Failure      500  {object}  dbTestError
// @Router       /db-test [get]
func (h *HealthHandler) DBTest(c echo.Context) error {
	if h.inspect == nil {
		return c.JSON(http.StatusInternalServerError, dbTestError{Error: "database inspection unavailable", Timestamp: h.now().UTC()})
	}
	names, counts, err := h.inspect.Inspect(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dbTestError{Error: err.Error(), Timestamp: h.now().UTC()})
	}
	if names == nil {
		names = []string{}
	}
	sort.Strings(names)
	return c.JSON(http.StatusOK, dbTestResponse{
		Database:       h.database,
		Collections:    names,
		DocumentCounts: counts,
		Timestamp:      h.now().UTC(),
	})
}

func (h *HealthHandler) databaseInfo(ctx context.Context) databaseInfo {
	status := "connected"
	if err := h.mongo.Ping(ctx); err != nil {
		status = "disconnected"
	}
	return databaseInfo{Status: status, Name: h.database}
}
