// Command projectmanager runs the project management API.
//
//	@title						Project Management API
//	@version					1.0.0
//	@description				Role-based project, task and activity management backend.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pmhub/project-manager/internal/infrastructure/config"
	"github.com/pmhub/project-manager/pkg/logger"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "projectmanager",
	Short:         "Project management API",
	Long:          "projectmanager serves the REST API for projects, tasks, comments and the activity feed, with role and scope based access control.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("projectmanager v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// bootstrap loads configuration and builds the root logger shared by every command.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "projectmanager",
	})
	return cfg, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
