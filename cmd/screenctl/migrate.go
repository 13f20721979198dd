// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apathy-review/screenctl/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Add any schema columns missing from an older database",
	Long: `Migrate brings a database created by an earlier version up to the
current schema by adding missing columns (for example reviews.completed_at).
Migrations are additive only and safe to re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer st.Close()

		applied, err := st.Migrate(context.Background())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("schema already current")
			return nil
		}
		for _, column := range applied {
			fmt.Println("added", column)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
