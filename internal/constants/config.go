package constants

import (
	"os"
	"path/filepath"
)

// ConfigDirName is the directory under the user's home that holds the
// config file.
const ConfigDirName = ".sandboxctl"

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "config.yaml"

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SANDBOXCTL"

// ConfigDirPermissions is the mode for the config directory.
const ConfigDirPermissions os.FileMode = 0o700

// ConfigFilePermissions is the mode for the config file.
const ConfigFilePermissions os.FileMode = 0o600

// ConfigDirPath returns the config directory under the given home dir.
func ConfigDirPath(homeDir string) string {
	return filepath.Join(homeDir, ConfigDirName)
}

// Provisioning defaults, overridable via config file, environment, or flags.
const (
	DefaultZone         = "us-central1-a"
	DefaultRegion       = "us-central1"
	DefaultMachineType  = "e2-standard-2"
	DefaultImageFamily  = "debian-12"
	DefaultImageProject = "debian-cloud"
)
