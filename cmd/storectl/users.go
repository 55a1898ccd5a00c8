package main

import (
	"fmt"
	"time"

	"cleat-store/internal/database"
	"cleat-store/internal/domain"
	"cleat-store/internal/repository"
	"cleat-store/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var usersPromoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Change the role of an account",
	Long: `Set the role of the account registered with email. Existing
refresh tokens of the account are revoked so the new role takes effect at
the next login.`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersPromote,
}

var usersPurgeCmd = &cobra.Command{
	Use:   "purge-sessions",
	Short: "Delete expired and revoked refresh tokens",
	Args:  cobra.NoArgs,
	RunE:  runUsersPurge,
}

func init() {
	usersPromoteCmd.Flags().String("role", string(domain.RoleAdmin), "admin, seller or customer")
	usersCmd.AddCommand(usersPromoteCmd, usersPurgeCmd)
}

func newUserService(db database.Service) service.UserService {
	return service.NewUserService(
		repository.NewUserRepository(db.DB()),
		repository.NewRefreshTokenRepository(db.DB()),
		service.TokenConfig{
			Secret:     cfg.JWT.Secret,
			AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
			RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
		},
	)
}

func runUsersPromote(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := newUserService(db).PromoteByEmail(cmd.Context(), args[0], domain.Role(role))
	if err != nil {
		return fmt.Errorf("failed to promote %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
	return nil
}

func runUsersPurge(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	purged, err := newUserService(db).PurgeSessions(cmd.Context())
	if err != nil {
		return err
	}

	log.Info("Purged refresh tokens", zap.Int64("count", purged))
	fmt.Fprintf(cmd.OutOrStdout(), "%d sessions removed\n", purged)
	return nil
}
