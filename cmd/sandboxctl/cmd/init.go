package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sandboxctl/internal/config"
	"sandboxctl/internal/constants"
	"sandboxctl/internal/output"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the local configuration file",
	Long: fmt.Sprintf(`Interactively write ~/%s/%s. Existing values are shown as defaults
and kept when the answer is empty.`, constants.ConfigDirName, constants.ConfigFileName),
	RunE: initRun,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initRun(cmd *cobra.Command, _ []string) error {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	output.Header("Configure " + constants.ProjectName)
	ask(&cfg.Project, "Project")
	ask(&cfg.Zone, "Zone")
	ask(&cfg.Region, "Region")
	ask(&cfg.MachineType, "Machine type")
	ask(&cfg.SSHKeyPath, "Signing key path (optional)")
	ask(&cfg.GitName, "Git name (optional)")
	ask(&cfg.GitEmail, "Git email (optional)")

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	output.Success("Configuration written to %s", output.Bold(configPath))
	return nil
}

// ask prompts for one value, keeping the current one on empty input.
func ask(value *string, label string) {
	prompt := label
	if *value != "" {
		prompt = fmt.Sprintf("%s [%s]", label, *value)
	}
	answer, err := output.Prompt(os.Stdin, prompt)
	if err != nil || answer == "" {
		return
	}
	*value = answer
}
