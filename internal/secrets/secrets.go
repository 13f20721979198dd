// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads deployment-specific values from a directory of
// plain-text files, one value per file. The screening tools use it for the
// database-path override so the production path never has to live in a
// checked-in config file.
//
// Supported key files: database-path.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DatabasePathKey names the file holding the store path override.
const DatabasePathKey = "database-path"

// Secrets maps key file names to their trimmed contents.
type Secrets map[string]string

// Get returns the value for key, or fallback when the key is absent or
// empty.
func (s Secrets) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error; Load returns an empty map. Unreadable files produce a
// warning on stderr but do not abort, since the flags can still supply
// every value.
func Load(dir string) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Secrets)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[entry.Name()] = value
		}
	}

	return secrets, nil
}
