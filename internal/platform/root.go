package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the project configuration file.
const ConfigFileName = "bpmx.yaml"

// FindRoot recursively looks upwards for a project root indicator.
// Indicators are: .bpmx directory, .git directory, or a bpmx.yaml file.
// If found, returns the absolute path to the root.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ".bpmx") || hasFile(dir, ".git") || hasFile(dir, ConfigFileName) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
