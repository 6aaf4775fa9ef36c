package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultAppName = "ordna"

// Paths holds the resolved per-user file locations.
type Paths struct {
	ConfigPath string
	DataDir    string
	CachePath  string
}

// Options adjusts path resolution.
type Options struct {
	AppName string
	DevMode bool
}

// DefaultPaths resolves paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths from the current process
// environment. DevMode suffixes the app name so dev state stays isolated.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	appName := strings.TrimSpace(opts.AppName)
	if appName == "" {
		appName = defaultAppName
	}
	if opts.DevMode {
		appName += "-dev"
	}

	configDir, dataDir, err := hostBaseDirs()
	if err != nil {
		return Paths{}, err
	}
	env := map[string]string{}
	for _, key := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "APPDATA", "LOCALAPPDATA"} {
		env[key] = os.Getenv(key)
	}
	return PathsFor(runtime.GOOS, env, configDir, dataDir, appName)
}

// hostBaseDirs asks the OS for the user-level config and data roots. On
// linux the data root follows the XDG default rather than the config dir
// the stdlib hands back.
func hostBaseDirs() (configDir, dataDir string, err error) {
	configDir, err = os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("user config dir: %w", err)
	}
	dataDir = configDir
	switch runtime.GOOS {
	case "linux":
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", "", fmt.Errorf("user home dir: %w", homeErr)
		}
		dataDir = filepath.Join(home, ".local", "share")
	case "windows":
		if v := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); v != "" {
			dataDir = v
		}
	}
	return configDir, dataDir, nil
}

// envOverride returns the env value for key when set, otherwise fallback.
func envOverride(env map[string]string, key, fallback string) string {
	if v := env[key]; v != "" {
		return v
	}
	return fallback
}

// PathsFor resolves paths for an explicit platform and environment. Split
// out from DefaultPathsWithOptions so tests can cover each OS.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, fmt.Errorf("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, fmt.Errorf("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	switch goos {
	case "linux":
		configBase = envOverride(env, "XDG_CONFIG_HOME", configBase)
		dataBase = envOverride(env, "XDG_DATA_HOME", dataBase)
	case "windows":
		configBase = envOverride(env, "APPDATA", configBase)
		dataBase = envOverride(env, "LOCALAPPDATA", dataBase)
	}
	// darwin and anything else keep the stdlib base dirs as-is.

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		CachePath:  filepath.Join(dataDir, appName+"-cache.db"),
	}, nil
}
