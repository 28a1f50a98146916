package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"sandboxctl/internal/constants"
	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
	"sandboxctl/internal/sandbox"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision a sandbox with network access to a cluster",
	Long: `Provision a sandbox VM with a network path to the cluster's private
control plane. Every step is idempotent: re-running after a failure
resumes where the previous run stopped.`,
	Example: fmt.Sprintf(`  # Sandbox on the cluster's own network
  %s create --cluster prod

  # Sandbox on a separate admin VPC, peered to the cluster
  %s create --cluster prod --vpc admin-vpc --subnet admin-subnet`,
		constants.ProjectName, constants.ProjectName),
	RunE: createRun,
}

var (
	createName          string
	createCluster       string
	createVPC           string
	createSubnet        string
	createMachineType   string
	createImageFamily   string
	createImageProject  string
	createStartupScript string
)

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createCluster, "cluster", "", "target cluster name")
	createCmd.Flags().StringVar(&createName, "name", "", "sandbox name (default: derived from your username)")
	createCmd.Flags().StringVar(&createVPC, "vpc", "", "place the sandbox on this VPC instead of the cluster's network")
	createCmd.Flags().StringVar(&createSubnet, "subnet", "", "subnet on the requested VPC")
	createCmd.Flags().StringVar(&createMachineType, "machine-type", "", "instance machine type (overrides config)")
	createCmd.Flags().StringVar(&createImageFamily, "image-family", "", "boot image family (overrides config)")
	createCmd.Flags().StringVar(&createImageProject, "image-project", "", "boot image project (overrides config)")
	createCmd.Flags().StringVar(&createStartupScript, "startup-script", "", "local startup script to attach (overrides config)")

	_ = createCmd.MarkFlagRequired("cluster")
	createCmd.MarkFlagsRequiredTogether("vpc", "subnet")
}

func createRun(cmd *cobra.Command, _ []string) error {
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

	opts := sandbox.ProvisionOptions{
		Project:           cfg.Project,
		Zone:              cfg.Zone,
		Region:            cfg.Region,
		User:              currentUser(),
		Name:              createName,
		Cluster:           createCluster,
		VPC:               createVPC,
		Subnet:            createSubnet,
		MachineType:       cfg.MachineType,
		ImageFamily:       cfg.ImageFamily,
		ImageProject:      cfg.ImageProject,
		StartupScriptPath: cfg.StartupScriptPath,
		SSHKeyPath:        cfg.SSHKeyPath,
		GitName:           cfg.GitName,
		GitEmail:          cfg.GitEmail,
	}
	if createMachineType != "" {
		opts.MachineType = createMachineType
	}
	if createImageFamily != "" {
		opts.ImageFamily = createImageFamily
	}
	if createImageProject != "" {
		opts.ImageProject = createImageProject
	}
	if createStartupScript != "" {
		opts.StartupScriptPath = createStartupScript
	}

	provisioner := sandbox.NewProvisioner(clients, slog.Default())
	report, err := provisioner.Provision(cmd.Context(), opts)
	if err != nil {
		return err
	}

	output.Blank()
	if report.State == sandbox.StateReady {
		output.Success("Sandbox %s is ready", output.Bold(report.Sandbox.Name))
	} else {
		output.Warning("Sandbox %s is usable but initialization is incomplete", output.Bold(report.Sandbox.Name))
	}
	output.Info("Connect with: %s connect %s", constants.ProjectName, report.Sandbox.Name)
	return nil
}
