package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"projtrack/auth"
	"projtrack/config"
	"projtrack/database"
	"projtrack/logging"
	"projtrack/models"

	"github.com/spf13/cobra"
)

type userAdmin interface {
	CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*models.User, error)
	SetUserStaff(ctx context.Context, username string, isStaff bool) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	DeleteUser(ctx context.Context, userID int64) error
}

// newRootCmd builds the CLI. A nil store means connect to DATABASE_URL
// before each command.
func newRootCmd(store userAdmin) *cobra.Command {
	var db *database.DB

	root := &cobra.Command{
		Use:   "manage",
		Short: "Administer projtrack user accounts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if store != nil {
				return nil
			}

			cfg, err := config.LoadForCLI()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger, err := logging.New(logging.Options{Level: "warn"})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			db, err = database.Connect(ctx, cfg.DatabaseURL, logger)
			if err != nil {
				return err
			}
			store = db
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if db != nil {
				db.Close()
			}
		},
		SilenceUsage: true,
	}

	root.AddCommand(
		newCreateUserCmd(func() userAdmin { return store }),
		newSetStaffCmd(func() userAdmin { return store }),
		newListUsersCmd(func() userAdmin { return store }),
		newDeleteUserCmd(func() userAdmin { return store }),
	)
	return root
}

func newCreateUserCmd(store func() userAdmin) *cobra.Command {
	var (
		username string
		password string
		staff    bool
	)

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a login account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			user, err := store().CreateUser(cmd.Context(), username, hash, staff)
			if err != nil {
				if errors.Is(err, database.ErrUsernameTaken) {
					return fmt.Errorf("user %q already exists", username)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d, staff=%t)\n", user.Username, user.ID, user.IsStaff)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().BoolVar(&staff, "staff", false, "grant admin rights")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSetStaffCmd(store func() userAdmin) *cobra.Command {
	var staff bool

	cmd := &cobra.Command{
		Use:   "setstaff <username>",
		Short: "Grant or revoke admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := store().SetUserStaff(cmd.Context(), args[0], staff)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("user %q not found", args[0])
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %s staff=%t\n", user.Username, user.IsStaff)
			return nil
		},
	}

	cmd.Flags().BoolVar(&staff, "staff", true, "admin rights (use --staff=false to revoke)")
	return cmd
}

func newListUsersCmd(store func() userAdmin) *cobra.Command {
	return &cobra.Command{
		Use:   "listusers",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := store().ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-6s %-20s %-6s %-6s\n", "ID", "USERNAME", "STAFF", "ACTIVE")
			for _, u := range users {
				fmt.Fprintf(out, "%-6d %-20s %-6t %-6t\n", u.ID, u.Username, u.IsStaff, u.IsActive)
			}
			return nil
		},
	}
}

func newDeleteUserCmd(store func() userAdmin) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteuser <username>",
		Short: "Delete an account; its projects are deleted and its assignments cleared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := store().GetUserByUsername(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("user %q not found", args[0])
				}
				return err
			}

			if err := store().DeleteUser(cmd.Context(), user.ID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", user.Username)
			return nil
		},
	}
}
