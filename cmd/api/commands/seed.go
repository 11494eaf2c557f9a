package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/application/seed"
	"github.com/taskmaster/tracker/internal/application/services"
)

// NewSeedCommand creates the seed command
func NewSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a demo account with sample data",
		Long:  "Create the demo user with categories, tags and tasks. Does nothing when any user exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			store := repository.NewStore(env.db)
			result, err := seed.Run(ctx, seed.Services{
				Store:      store,
				Auth:       services.NewAuthService(store, env.cfg.JWT, env.logger),
				Categories: services.NewCategoryService(store, env.logger),
				Tags:       services.NewTagService(store, env.logger),
				Tasks:      services.NewTaskService(store, env.logger),
			}, time.Now())
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if result.Skipped {
				fmt.Fprintln(out, "Data already exists. Skipping seed.")
				return nil
			}

			fmt.Fprintf(out, "Created user: %s (password: %s)\n", result.User.Username, seed.DemoPassword)
			fmt.Fprintf(out, "Created %d categories\n", result.Categories)
			fmt.Fprintf(out, "Created %d tags\n", result.Tags)
			fmt.Fprintf(out, "Created %d tasks\n", result.Tasks)
			fmt.Fprintf(out, "\nDemo account:\n  Email: %s\n  Password: %s\n", seed.DemoEmail, seed.DemoPassword)
			return nil
		},
	}
}
