package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cliLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// openDB connects with the API server's configuration.
func openDB() (*gorm.DB, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.OpenGorm(cfg, cliLogger)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.AutoMigrate(db, cliLogger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an active admin account with staff rights",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		username, _ := cmd.Flags().GetString("username")

		db, cfg, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		user, err := createAdmin(cmd.Context(), repository.NewUserRepository(db), email, username)
		if err != nil {
			return err
		}
		// the account has no pending code, so hand out a first token here
		token, err := service.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL).Issue(user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\nAccess token: %s\n", user.Username, token)
		return nil
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role [username] [user|moderator|admin]",
	Short: "Change the role of an existing account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		user, err := setRole(cmd.Context(), repository.NewUserRepository(db), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, user.Role)
		return nil
	},
}

func createAdmin(ctx context.Context, users repository.UserRepository, email, username string) (*models.User, error) {
	user := &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleAdmin,
		IsStaff:  true,
		IsActive: true,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("a user with email %s or username %s already exists", email, username)
		}
		return nil, err
	}
	return user, nil
}

func setRole(ctx context.Context, users repository.UserRepository, username, roleName string) (*models.User, error) {
	role, err := models.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	user, err := users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("no user named %s", username)
	}
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func init() {
	createAdminCmd.Flags().StringP("email", "e", "", "Email address of the admin")
	createAdminCmd.Flags().StringP("username", "u", "", "Username of the admin")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("username")
}
