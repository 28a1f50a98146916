package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
	"sandboxctl/internal/sandbox"
)

var connectCmd = &cobra.Command{
	Use:   "connect [name]",
	Short: "Open an interactive shell in a sandbox",
	Long: `Open an interactive shell in a sandbox over the identity-aware
tunnel. With no name, selects interactively among your sandboxes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: connectRun,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func connectRun(cmd *cobra.Command, args []string) error {
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

	output.Info("Connecting to %s...", output.Bold(sb.Name))
	// The interactive session is not subject to the command timeout.
	return clients.Tunnel.Shell(context.Background(), sb.Project, sb.Zone, sb.Name)
}
