// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the screenctl CLI, the operator
// toolkit for the literature-screening candidate store: audit manifest/store
// drift, reconcile it additively, and verify the application's display
// counts afterwards.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apathy-review/screenctl/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds deployment overrides loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the screenctl CLI.
var rootCmd = &cobra.Command{
	Use:   "screenctl",
	Short: "Operator tools for the literature-screening candidate store",
	Long: `screenctl keeps the screening candidate database consistent with the
externally supplied category manifests (CSV files of PMIDs per screening
category: physical, brain, psycho).

The intended pipeline is linear and each stage is independently re-runnable:

  screenctl audit      read-only drift report (manifests vs store)
  screenctl reconcile  preview with --dry-run, then repair with --apply
  screenctl verify     post-run gate comparing display counts to manifests

Reconciliation is strictly additive: category flags are only ever set true,
records are created only when no record exists at all, and reviewer decisions
are never touched.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./screenctl.yaml or ~/.config/screenctl/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the screening SQLite database")
	rootCmd.PersistentFlags().String("id-column", "", "manifest identifier column (default pmid)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("screenctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "screenctl"))
		}
	}

	viper.SetEnvPrefix("SCREENCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
