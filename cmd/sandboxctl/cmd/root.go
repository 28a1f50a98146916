package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sandboxctl/internal/config"
	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/logger"
	"sandboxctl/internal/output"
)

var (
	debug         bool
	verbose       bool
	timeout       string
	timeoutCancel context.CancelFunc

	projectFlag string
	zoneFlag    string
	regionFlag  string
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: constants.ProjectName,
	Long: fmt.Sprintf(`%s - %s
Short-lived admin sandboxes with network access to a private cluster`,
		constants.ProjectName, constants.GetVersion()),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		startTime := time.Now().UTC()
		cmd.SetContext(context.WithValue(cmd.Context(), constants.StartTimeCtxKey, startTime))

		if verbose {
			output.Info("CLI build: %s", output.Bold(constants.GetVersion()))
		}

		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger.Initialize(constants.CLI, logLevel)

		if timeout != "0" {
			timeoutDuration, err := parseTimeout(timeout)
			if err != nil {
				return fmt.Errorf("error parsing timeout: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeoutDuration)
			timeoutCancel = cancel // Store for cleanup in Execute()
			cmd.SetContext(ctx)
			if verbose {
				output.Info("Timeout: %s", timeoutDuration)
			}
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		applyOverrides(cfg)

		cmd.SetContext(context.WithValue(cmd.Context(), constants.ConfigCtxKey, cfg))
		if verbose {
			if configPath, err := config.GetConfigPath(); err == nil {
				output.Info("Configuration: %s", output.Bold(configPath))
			}
			output.Info("Project: %s", output.Bold(cfg.Project))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if verbose {
			startTime := getStartTimeFromContext(cmd)
			if !startTime.IsZero() {
				output.Info("Time elapsed: %s", output.Bold(time.Since(startTime).String()))
			}
		}
		if timeoutCancel != nil {
			timeoutCancel()
		}
	},
}

// Execute runs the root command. Cancelling at a prompt is a valid
// outcome and exits zero; every other error exits one.
func Execute() {
	err := rootCmd.Execute()
	if timeoutCancel != nil {
		timeoutCancel()
	}

	if err == nil {
		return
	}
	if apperrors.IsCancelled(err) {
		output.Info("Cancelled")
		return
	}
	output.Error("%v", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "15m",
		"Timeout for command execution (e.g., 15m, 30s, 1h)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")

	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "", "Cloud project (overrides config)")
	rootCmd.PersistentFlags().StringVar(&zoneFlag, "zone", "", "Compute zone (overrides config)")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "region", "", "Cluster region (overrides config)")
}

// applyOverrides layers persistent flag values over the loaded config.
func applyOverrides(cfg *config.Config) {
	if projectFlag != "" {
		cfg.Project = projectFlag
	}
	if zoneFlag != "" {
		cfg.Zone = zoneFlag
	}
	if regionFlag != "" {
		cfg.Region = regionFlag
	}
}

// parseTimeout parses timeout string to time.Duration.
// Supports formats: "15m", "30s", "1h", "600" (number of seconds).
func parseTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		timeoutStr = "15m"
	}

	duration, err := time.ParseDuration(timeoutStr)
	if err == nil {
		return duration, nil
	}

	seconds, err := strconv.Atoi(timeoutStr)
	if err != nil {
		errMsg := fmt.Sprintf(
			"invalid timeout format: %s (use duration like '15m' or '30s', or seconds like '600')",
			timeoutStr)
		return 0, errors.New(errMsg)
	}
	return time.Duration(seconds) * time.Second, nil
}

// requireProject refuses to run cloud-touching commands without a
// target project.
func requireProject(cfg *config.Config) error {
	if cfg.Project == "" {
		return apperrors.ErrInvalidConfig(
			"no project configured: run '"+constants.ProjectName+" init' or pass --project", nil)
	}
	return nil
}

// getConfigFromContext retrieves the config from the command context.
func getConfigFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(constants.ConfigCtxKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("config not found in context")
	}
	return cfg, nil
}

func getStartTimeFromContext(cmd *cobra.Command) time.Time {
	startTime, ok := cmd.Context().Value(constants.StartTimeCtxKey).(time.Time)
	if !ok {
		return time.Time{}
	}
	return startTime
}

// currentUser returns the operating system username the sandbox is
// attributed to.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// RootCmd returns the root command for use by tools like doc generators.
func RootCmd() *cobra.Command {
	return rootCmd
}
