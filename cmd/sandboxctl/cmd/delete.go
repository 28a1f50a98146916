package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sandboxctl/internal/gcp"
	"sandboxctl/internal/sandbox"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a sandbox",
	Long: `Delete a sandbox after explicit confirmation. With no name, selects
interactively among your sandboxes. The shared firewall rule is only
removed after a separate confirmation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: deleteRun,
}

var deleteNetwork string

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVar(&deleteNetwork, "network", "",
		"network whose shared ingress rule to offer for removal (default: the sandbox's own network)")
}

func deleteRun(cmd *cobra.Command, args []string) error {
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
	deleter := sandbox.NewDeleter(clients.Instances, clients.Firewalls, selector, os.Stdin, slog.Default())

	return deleter.Delete(cmd.Context(), sandbox.DeleteOptions{
		Name:    name,
		Network: deleteNetwork,
		Project: cfg.Project,
		Zone:    cfg.Zone,
		User:    currentUser(),
	})
}
