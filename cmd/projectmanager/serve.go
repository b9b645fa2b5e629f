package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/pmhub/project-manager/docs"
	"github.com/pmhub/project-manager/internal/api"
	"github.com/pmhub/project-manager/internal/api/handler"
	"github.com/pmhub/project-manager/internal/api/metrics"
	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/service"
	"github.com/pmhub/project-manager/internal/infrastructure/db/mongo"
	"github.com/pmhub/project-manager/internal/infrastructure/db/redis"
	"github.com/pmhub/project-manager/internal/infrastructure/queue"
	"github.com/pmhub/project-manager/internal/infrastructure/token"
	"github.com/pmhub/project-manager/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	users := mongo.NewUserRepository(db)
	projects := mongo.NewProjectRepository(db)
	tasks := mongo.NewTaskRepository(db)
	comments := mongo.NewCommentRepository(db)
	activities := mongo.NewActivityRepository(db)
	if err := mongo.EnsureIndexes(ctx, users, projects, tasks, comments, activities); err != nil {
		return err
	}

	activitySvc := service.NewActivityService(activities, logger.Component(log, "activity"))
	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, activitySvc, queue.Metrics{
		Depth:   metrics.ActivityQueueDepth,
		Dropped: metrics.ActivityDroppedTotal,
	}, logger.Component(log, "dispatcher"))
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workersCtx)

	tokens := token.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL)
	router := api.NewRouter(api.RouterDeps{
		Log:         logger.Component(log, "http"),
		FrontendURL: cfg.FrontendURL,
		Scope:       access.ScopePolicy{StrictFallthrough: cfg.Access.StrictScope},
		Identity:    service.NewIdentityResolver(users, tokens),
		Limiter:     redis.NewRateLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window),
		Auth:        service.NewAuthService(users, tokens, dispatcher, logger.Component(log, "auth")),
		Users:       service.NewUserService(users, logger.Component(log, "users")),
		Projects:    service.NewProjectService(projects, users, logger.Component(log, "projects")),
		Tasks:       service.NewTaskService(tasks, projects, dispatcher, logger.Component(log, "tasks")),
		Comments:    service.NewCommentService(comments, projects, dispatcher, logger.Component(log, "comments")),
		Activities:  activitySvc,
		Dashboard:   service.NewDashboardService(projects, tasks, users, activities),
		Health: handler.NewHealthHandler(version, cfg.Env, cfg.Mongo.Database, mongo.NewPinger(mongoClient),
			map[string]handler.Pinger{"redis": redis.NewPinger(rdb)}).WithInspector(mongo.NewInspector(db)),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Bool("strict_scope", cfg.Access.StrictScope).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			stopWorkers()
			dispatcher.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)

	// In-flight requests are done; flush queued activities before the store closes.
	stopWorkers()
	dispatcher.Wait()
	return err
}
