package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
	"sandboxctl/internal/sandbox"
)

var configureCmd = &cobra.Command{
	Use:   "configure [name]",
	Short: "Re-run post-provision configuration on a sandbox",
	Long: `Re-run post-provision configuration on an existing sandbox: fetch
cluster credentials and push the signing key. Useful after a degraded
create or when the local key changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: configureRun,
}

var configureCluster string

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringVar(&configureCluster, "cluster", "",
		"cluster to fetch credentials for (default: the sandbox's cluster label)")
}

func configureRun(cmd *cobra.Command, args []string) error {
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

	cluster := configureCluster
	if cluster == "" {
		cluster = sb.Cluster
	}
	if cluster == "" {
		return fmt.Errorf("sandbox %s has no cluster label, pass --cluster", sb.Name)
	}

	configurator := sandbox.NewConfigurator(clients.Tunnel, slog.Default())
	configurator.Apply(cmd.Context(), sb.Project, sb.Zone, sb.Name, cluster, cfg.Region,
		sandbox.ConfigureOptions{
			SSHKeyPath: cfg.SSHKeyPath,
			GitName:    cfg.GitName,
			GitEmail:   cfg.GitEmail,
		})

	output.Success("Configuration applied to %s", output.Bold(sb.Name))
	return nil
}
