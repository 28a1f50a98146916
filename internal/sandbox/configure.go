package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"

	"sandboxctl/internal/gcp"
)

// Configurator pushes cluster credentials and, optionally, a signing key
// into a running sandbox. Every sub-step is best-effort: failures warn
// and continue, never abort.
type Configurator struct {
	Tunnel gcp.TunnelClient
	Log    *slog.Logger

	// Stat is os.Stat, overridable in tests.
	Stat func(name string) (os.FileInfo, error)
}

// NewConfigurator returns a configurator over the given tunnel.
func NewConfigurator(tunnel gcp.TunnelClient, log *slog.Logger) *Configurator {
	return &Configurator{Tunnel: tunnel, Log: log, Stat: os.Stat}
}

// ConfigureOptions carries the optional post-provision settings.
type ConfigureOptions struct {
	// SSHKeyPath, when set and present locally, is copied into the
	// sandbox as a signing key. Unset skips key provisioning entirely.
	SSHKeyPath string
	GitName    string
	GitEmail   string
}

// Apply fetches cluster credentials inside the sandbox and provisions
// the optional signing key. Callers must only invoke it for a Ready
// sandbox; degraded sandboxes skip configuration at the pipeline level.
func (c *Configurator) Apply(
	ctx context.Context,
	project, zone, instance, cluster, region string,
	opts ConfigureOptions,
) {
	c.fetchClusterCredentials(ctx, project, zone, instance, cluster, region)

	if opts.SSHKeyPath == "" {
		c.Log.Debug("no signing key configured, skipping key provisioning")
		return
	}
	c.provisionKey(ctx, project, zone, instance, opts)
}

func (c *Configurator) fetchClusterCredentials(
	ctx context.Context,
	project, zone, instance, cluster, region string,
) {
	cmd := fmt.Sprintf(
		"gcloud container clusters get-credentials %s --region %s --project %s --internal-ip",
		cluster, region, project,
	)
	if _, err := c.Tunnel.RunCommand(ctx, project, zone, instance, cmd); err != nil {
		c.Log.Warn("failed to generate kubeconfig in sandbox, run get-credentials manually",
			"cluster", cluster, "error", err)
		return
	}
	c.Log.Info("kubeconfig generated in sandbox", "cluster", cluster)
}

func (c *Configurator) provisionKey(
	ctx context.Context,
	project, zone, instance string,
	opts ConfigureOptions,
) {
	if _, err := c.Stat(opts.SSHKeyPath); err != nil {
		c.Log.Warn("signing key not found locally, skipping", "path", opts.SSHKeyPath)
		return
	}

	remoteKey := "~/.ssh/" + path.Base(opts.SSHKeyPath)
	if err := c.Tunnel.CopyFile(ctx, project, zone, instance, opts.SSHKeyPath, remoteKey); err != nil {
		c.Log.Warn("failed to copy signing key", "error", err)
		return
	}

	steps := []string{
		fmt.Sprintf("chmod 600 %s", remoteKey),
		fmt.Sprintf("ssh-keygen -y -f %s > %s.pub", remoteKey, remoteKey),
	}
	if opts.GitName != "" {
		steps = append(steps, fmt.Sprintf("git config --global user.name %q", opts.GitName))
	}
	if opts.GitEmail != "" {
		steps = append(steps, fmt.Sprintf("git config --global user.email %q", opts.GitEmail))
	}

	for _, cmd := range steps {
		if _, err := c.Tunnel.RunCommand(ctx, project, zone, instance, cmd); err != nil {
			c.Log.Warn("post-provision command failed", "command", cmd, "error", err)
		}
	}
	c.Log.Info("signing key provisioned", "path", remoteKey)
}
