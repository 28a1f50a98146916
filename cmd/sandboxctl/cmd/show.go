package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
	"sandboxctl/internal/sandbox"
)

var showCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one sandbox in detail",
	Long: `Show a sandbox's attributes. With no name, selects interactively
among your sandboxes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: showRun,
}

var showOutputFormat string

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showOutputFormat, "output", "o", "text", "output format (text, yaml)")
}

func showRun(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}
	if err := requireProject(cfg); err != nil {
		return err
	}

	clients, err := gcp.NewClients(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize cloud clients: %w", err)
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	selector := sandbox.NewSelector(clients.Instances, os.Stdin)
	sb, err := selector.Resolve(cmd.Context(), cfg.Project, cfg.Zone, currentUser(), name)
	if err != nil {
		return err
	}

	return renderSandbox(sb, showOutputFormat)
}

func renderSandbox(sb *sandbox.Sandbox, format string) error {
	switch format {
	case "yaml":
		encoded, err := yaml.Marshal(sb)
		if err != nil {
			return fmt.Errorf("failed to encode sandbox: %w", err)
		}
		output.Printf("%s", encoded)
	case "text":
		output.KeyValue("Name", sb.Name)
		output.KeyValue("Project", sb.Project)
		output.KeyValue("Zone", sb.Zone)
		output.KeyValue("Status", output.StatusBadge(sb.Status))
		if sb.Cluster != "" {
			output.KeyValue("Cluster", sb.Cluster)
		}
		output.KeyValue("Owner", sb.Owner)
		if sb.InternalIP != "" {
			output.KeyValue("Internal IP", sb.InternalIP)
		}
		if sb.Created != "" {
			output.KeyValue("Created", sb.Created)
		}
	default:
		return fmt.Errorf("unknown output format: %s (use text or yaml)", format)
	}
	return nil
}
