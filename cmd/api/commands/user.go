package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/application/services"
	"github.com/taskmaster/tracker/internal/ports"
)

// NewUserCommand creates the user management command
func NewUserCommand(opts *rootOptions) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create, deactivate and delete user accounts",
	}

	var req ports.RegisterRequest
	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			store := repository.NewStore(env.db)
			auth := services.NewAuthService(store, env.cfg.JWT, env.logger)

			user, err := auth.Register(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User created successfully:\n")
			fmt.Fprintf(out, "  ID: %s\n", user.ID)
			fmt.Fprintf(out, "  Username: %s\n", user.Username)
			fmt.Fprintf(out, "  Email: %s\n", user.Email)
			return nil
		},
	}

	createUserCmd.Flags().StringVar(&req.Username, "username", "", "Username (required)")
	createUserCmd.Flags().StringVar(&req.Email, "email", "", "User email (required)")
	createUserCmd.Flags().StringVar(&req.Password, "password", "", "User password (required)")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	var email string
	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a user; their tokens stop working immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			store := repository.NewStore(env.db)
			user, err := store.Users().GetByEmail(ctx, strings.TrimSpace(email))
			if err != nil {
				return fmt.Errorf("failed to find user: %w", err)
			}

			if err := services.NewUserService(store, env.logger).Deactivate(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to deactivate user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %s deactivated\n", user.Username)
			return nil
		},
	}
	deactivateCmd.Flags().StringVar(&email, "email", "", "User email (required)")
	_ = deactivateCmd.MarkFlagRequired("email")

	var deleteEmail string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user and everything they own",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer env.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			store := repository.NewStore(env.db)
			user, err := store.Users().GetByEmail(ctx, strings.TrimSpace(deleteEmail))
			if err != nil {
				return fmt.Errorf("failed to find user: %w", err)
			}

			if err := services.NewUserService(store, env.logger).Delete(ctx, user.ID); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", user.Username)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&deleteEmail, "email", "", "User email (required)")
	_ = deleteCmd.MarkFlagRequired("email")

	userCmd.AddCommand(createUserCmd, deactivateCmd, deleteCmd)
	return userCmd
}
