// Package config manages configuration for the sandboxctl CLI.
// It uses Viper for unified configuration management from the config file
// and environment variables. Values are loaded once into an immutable
// Config that is passed explicitly to every component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"sandboxctl/internal/constants"
)

// Config holds all settings the provisioning pipeline needs. Flags
// override file values; environment variables (SANDBOXCTL_*) override
// both.
type Config struct {
	// Project is the cloud project sandboxes are provisioned in.
	Project string `mapstructure:"project" yaml:"project"`

	// Zone is the compute zone for sandbox instances.
	Zone string `mapstructure:"zone" yaml:"zone"`

	// Region is the location of the managed cluster.
	Region string `mapstructure:"region" yaml:"region"`

	// MachineType is the instance size for new sandboxes.
	MachineType string `mapstructure:"machine_type" yaml:"machine_type"`

	// ImageFamily and ImageProject select the boot image.
	ImageFamily  string `mapstructure:"image_family" yaml:"image_family"`
	ImageProject string `mapstructure:"image_project" yaml:"image_project"`

	// VPC and Subnet, when both set, place the sandbox on a network other
	// than the cluster's own and trigger bidirectional peering.
	VPC    string `mapstructure:"vpc" yaml:"vpc"`
	Subnet string `mapstructure:"subnet" yaml:"subnet"`

	// SSHKeyPath is an optional private signing key pushed into the
	// sandbox after provisioning. Skipped entirely when unset.
	SSHKeyPath string `mapstructure:"ssh_key_path" yaml:"ssh_key_path"`

	// GitName and GitEmail, when set, configure global version-control
	// identity inside the sandbox.
	GitName  string `mapstructure:"git_name" yaml:"git_name"`
	GitEmail string `mapstructure:"git_email" yaml:"git_email" validate:"omitempty,email"`

	// StartupScriptPath points at a local script attached to new
	// instances as the opaque startup payload.
	StartupScriptPath string `mapstructure:"startup_script_path" yaml:"startup_script_path"`

	// LogLevel is the slog level name (DEBUG, INFO, WARN, ERROR).
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
}

var validate = validator.New()

// Load loads the configuration: defaults, then ~/.sandboxctl/config.yaml
// if present, then SANDBOXCTL_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the user's home directory,
// overwriting any existing config file.
func Save(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("error resolving home directory: %w", err)
	}

	configDir := constants.ConfigDirPath(homeDir)
	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	// Every Config field is written out so values the user edited by hand
	// survive a re-save.
	v := viper.New()
	v.Set("project", cfg.Project)
	v.Set("zone", cfg.Zone)
	v.Set("region", cfg.Region)
	v.Set("machine_type", cfg.MachineType)
	v.Set("image_family", cfg.ImageFamily)
	v.Set("image_project", cfg.ImageProject)
	v.Set("vpc", cfg.VPC)
	v.Set("subnet", cfg.Subnet)
	v.Set("ssh_key_path", cfg.SSHKeyPath)
	v.Set("git_name", cfg.GitName)
	v.Set("git_email", cfg.GitEmail)
	v.Set("startup_script_path", cfg.StartupScriptPath)
	v.Set("log_level", cfg.LogLevel)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error resolving home directory: %w", err)
	}
	return filepath.Join(constants.ConfigDirPath(homeDir), constants.ConfigFileName), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("zone", constants.DefaultZone)
	v.SetDefault("region", constants.DefaultRegion)
	v.SetDefault("machine_type", constants.DefaultMachineType)
	v.SetDefault("image_family", constants.DefaultImageFamily)
	v.SetDefault("image_project", constants.DefaultImageProject)
	v.SetDefault("log_level", "INFO")
}

func loadConfigFile(v *viper.Viper) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("error resolving home directory: %w", err)
	}

	v.SetConfigName(strings.TrimSuffix(constants.ConfigFileName, filepath.Ext(constants.ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(constants.ConfigDirPath(homeDir))

	return v.ReadInConfig()
}

func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"project", "zone", "region", "machine_type",
		"image_family", "image_project", "vpc", "subnet",
		"ssh_key_path", "git_name", "git_email",
		"startup_script_path", "log_level",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
