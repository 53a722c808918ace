package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by ResolvePath when no configuration file exists.
var ErrNotFound = errors.New("config: no configuration file found")

// FileName is the configuration file name searched for.
const FileName = "sealdrop.yaml"

// ResolvePath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/sealdrop/sealdrop.yaml → ~/.config/sealdrop/sealdrop.yaml → ./sealdrop.yaml
func ResolvePath() (string, error) {
	candidates := SearchPaths()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w (searched: %v)", ErrNotFound, candidates)
}

// SearchPaths returns the candidate configuration paths in search order.
func SearchPaths() []string {
	var candidates []string
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "sealdrop", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "sealdrop", FileName))
	}
	return append(candidates, FileName)
}
