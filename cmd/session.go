package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-posts/app/repository"
	"github.com/vibast-solutions/ms-go-posts/app/service"
	"github.com/vibast-solutions/ms-go-posts/config"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage user sessions",
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke <email>",
	Short: "Invalidate a user's refresh token, forcing a new login once the access token expires",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		userAuthService := service.NewUserAuthService(
			repository.NewUserRepository(db),
			service.NewTokenService(cfg.JWT),
			cfg,
		)

		email := service.NormalizeEmail(args[0])
		if err = userAuthService.RevokeSession(context.Background(), email); err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				return fmt.Errorf("no user with email %q", email)
			}
			return err
		}

		fmt.Printf("session revoked for %s\n", email)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionRevokeCmd)
	rootCmd.AddCommand(sessionCmd)
}
