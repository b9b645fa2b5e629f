package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmhub/project-manager/internal/core/access"
	"github.com/pmhub/project-manager/internal/core/domain"
	"github.com/pmhub/project-manager/internal/core/ports"
	"github.com/pmhub/project-manager/internal/core/service"
	"github.com/pmhub/project-manager/internal/infrastructure/db/mongo"
)

// systemActor creates the first admin, which no HTTP caller can.
var systemActor = access.Actor{ID: "system", Role: domain.RoleAdmin}

var adminFlags struct {
	email    string
	username string
	password string
	name     string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, err := bootstrap(ctx)
		if err != nil {
			return err
		}

		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)

		users := mongo.NewUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return err
		}
		u, err := service.NewUserService(users, log).Create(ctx, systemActor, ports.RegisterInput{
			Username: adminFlags.username,
			Email:    adminFlags.email,
			Password: adminFlags.password,
			Name:     adminFlags.name,
			Role:     domain.RoleAdmin,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&adminFlags.email, "email", "", "admin email")
	f.StringVar(&adminFlags.username, "username", "", "admin username")
	f.StringVar(&adminFlags.password, "password", "", "admin password")
	f.StringVar(&adminFlags.name, "name", "Administrator", "display name")
	for _, name := range []string{"email", "username", "password"} {
		_ = createAdminCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(createAdminCmd)
}
