package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
	"sandboxctl/internal/sandbox"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your sandboxes",
	Long:  `List sandboxes you own in the configured project.`,
	RunE:  listRun,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func listRun(cmd *cobra.Command, _ []string) error {
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

	selector := sandbox.NewSelector(clients.Instances, os.Stdin)
	sandboxes, err := selector.List(cmd.Context(), cfg.Project, currentUser())
	if err != nil {
		return err
	}

	if len(sandboxes) == 0 {
		output.Info("No sandboxes found")
		return nil
	}

	rows := make([][]string, 0, len(sandboxes))
	for _, sb := range sandboxes {
		rows = append(rows, []string{
			output.Bold(sb.Name),
			output.StatusBadge(sb.Status),
			sb.Zone,
			sb.Cluster,
			sb.InternalIP,
			sb.Created,
		})
	}

	output.Table([]string{"Name", "Status", "Zone", "Cluster", "Internal IP", "Created"}, rows)
	return nil
}
