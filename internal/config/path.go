// Package config resolves the budgetbot configuration read through viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands $VAR references and then a leading ~ to the user's home
// directory. When the home directory is unknown the ~ is left in place.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
