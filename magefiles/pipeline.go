//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// manifestEnv pairs each category flag with the environment variable
// holding its manifest path for a full pipeline run.
var manifestEnv = []struct {
	category string
	env      string
}{
	{"physical", "SCREENCTL_MANIFEST_PHYSICAL"},
	{"brain", "SCREENCTL_MANIFEST_BRAIN"},
	{"psycho", "SCREENCTL_MANIFEST_PSYCHO"},
}

// Pipeline runs the full reconciliation cycle against the configured
// database: audit, reconcile dry-run, reconcile apply, verify. Manifest
// paths come from SCREENCTL_MANIFEST_* environment variables.
func Pipeline() error {
	mg.Deps(Build)

	var manifestArgs []string
	for _, m := range manifestEnv {
		path := os.Getenv(m.env)
		if path == "" {
			return fmt.Errorf("%s is not set", m.env)
		}
		manifestArgs = append(manifestArgs, "--"+m.category, path)
	}

	bin := filepath.Join(binDir, binName)
	stages := [][]string{
		append([]string{"audit"}, manifestArgs...),
		append([]string{"reconcile", "--dry-run"}, manifestArgs...),
		append([]string{"reconcile", "--apply"}, manifestArgs...),
		append([]string{"verify"}, manifestArgs...),
	}

	for _, stage := range stages {
		fmt.Printf("==> screenctl %s\n", stage[0])
		if err := sh.RunV(bin, stage...); err != nil {
			return fmt.Errorf("screenctl %s: %w", stage[0], err)
		}
	}
	return nil
}
