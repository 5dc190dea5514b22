package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HomeEnv overrides every detected directory when set
const HomeEnv = "ATTENDANCE_HOME"

// StatePaths holds the detected locations of the client's local state
type StatePaths struct {
	ConfigDir string // config.yaml and .env
	DataDir   string // session database and result history
}

// DetectStatePaths detects the config and data directories based on the
// operating system
func DetectStatePaths() (StatePaths, error) {
	if root := os.Getenv(HomeEnv); root != "" {
		return StatePaths{ConfigDir: root, DataDir: root}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return StatePaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var configDir, dataDir string
	switch runtime.GOOS {
	case "darwin":
		configDir = filepath.Join(home, "Library/Application Support/attendance")
		dataDir = configDir
	case "linux":
		configDir = filepath.Join(home, ".config/attendance")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "attendance")
		}
		dataDir = filepath.Join(home, ".local/share/attendance")
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			dataDir = filepath.Join(xdg, "attendance")
		}
	case "windows":
		base, err := os.UserConfigDir()
		if err != nil {
			return StatePaths{}, fmt.Errorf("failed to get config directory: %w", err)
		}
		configDir = filepath.Join(base, "attendance")
		dataDir = configDir
	default:
		return StatePaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return StatePaths{ConfigDir: configDir, DataDir: dataDir}, nil
}

// ConfigFile returns the path of config.yaml
func (sp StatePaths) ConfigFile() string {
	return filepath.Join(sp.ConfigDir, "config.yaml")
}

// EnvFile returns the path of the optional .env file
func (sp StatePaths) EnvFile() string {
	return filepath.Join(sp.ConfigDir, ".env")
}

// SessionDBPath returns the default sqlite session store path
func (sp StatePaths) SessionDBPath() string {
	return filepath.Join(sp.DataDir, "session.db")
}

// HistoryDir returns the default result log directory
func (sp StatePaths) HistoryDir() string {
	return filepath.Join(sp.DataDir, "history")
}

// ConfigExists checks if config.yaml exists
func (sp StatePaths) ConfigExists() bool {
	_, err := os.Stat(sp.ConfigFile())
	return err == nil
}
