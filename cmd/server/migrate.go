package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/grams-server/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := app.OpenStore(cmd.Context(), &cfg, logger)
		if err != nil {
			return err
		}
		return st.Close()
	},
}
