// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apathy-review/screenctl/internal/manifest"
	"github.com/apathy-review/screenctl/internal/secrets"
	"github.com/apathy-review/screenctl/pkg/types"
)

// storeConfig resolves the database path: --db flag, then config/env, then
// the database-path secret file, then the default. The resolved value is
// threaded into components explicitly; nothing below the command layer
// reads configuration on its own.
func storeConfig(cmd *cobra.Command) types.StoreConfig {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("database.path")
	}
	if path == "" {
		path = loadedSecrets.Get(secrets.DatabasePathKey, types.DefaultStorePath)
	}
	return types.StoreConfig{Path: path}
}

// manifestConfig resolves the identifier column name.
func manifestConfig(cmd *cobra.Command) types.ManifestConfig {
	column, _ := cmd.Flags().GetString("id-column")
	if column == "" {
		column = viper.GetString("manifest.id_column")
	}
	return types.ManifestConfig{IDColumn: column}
}

// loadManifests loads one manifest per category from the --physical,
// --brain, and --psycho flags. When required is true every flag must be
// set; otherwise categories without a flag are left out of the map.
func loadManifests(cmd *cobra.Command, required bool) (map[types.Category]*manifest.Manifest, error) {
	paths := map[types.Category]string{}
	for _, c := range types.Categories() {
		path, _ := cmd.Flags().GetString(string(c))
		if path == "" {
			if required {
				return nil, fmt.Errorf("--%s manifest path is required", c)
			}
			continue
		}
		paths[c] = path
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no manifest paths given: use --physical, --brain, --psycho")
	}

	mcfg := manifestConfig(cmd)
	manifests := make(map[types.Category]*manifest.Manifest, len(paths))
	for c, path := range paths {
		man, err := manifest.Load(path, mcfg)
		if err != nil {
			return nil, fmt.Errorf("loading %s manifest: %w", c, err)
		}
		manifests[c] = man
	}
	return manifests, nil
}

// addManifestFlags registers the per-category manifest path flags.
func addManifestFlags(cmd *cobra.Command) {
	for _, c := range types.Categories() {
		cmd.Flags().String(string(c), "", fmt.Sprintf("path to the %s category manifest CSV", c))
	}
}
