package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/grams-server/internal/app"
)

var (
	userEmail    string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := app.OpenStore(cmd.Context(), &cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		user, err := app.NewAuthService(&cfg, st).Register(cmd.Context(), userEmail, userPassword)
		if err != nil {
			return fmt.Errorf("create user %s: %w", userEmail, err)
		}

		logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user created")
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "account email")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "account password (6 to 72 characters)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}
