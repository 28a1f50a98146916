package gcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"sandboxctl/internal/constants"
)

// gcloudTunnelClient reaches instances with no external address by
// shelling out to gcloud's identity-aware SSH tunnel. There is no Go
// client for the IAP relay; the gcloud binary is a checked prerequisite.
type gcloudTunnelClient struct{}

// RunCommand executes a command on the instance over the tunnel and
// returns the combined output. A non-zero remote exit status surfaces as
// an error carrying that output.
func (c *gcloudTunnelClient) RunCommand(
	ctx context.Context,
	project, zone, instance, command string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.TunnelCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "gcloud", "compute", "ssh", instance,
		"--project", project,
		"--zone", zone,
		"--tunnel-through-iap",
		"--quiet",
		"--command", command,
	)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("remote command failed: %w: %s", err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}

// CopyFile copies a local file to the instance over the tunnel.
func (c *gcloudTunnelClient) CopyFile(
	ctx context.Context,
	project, zone, instance, localPath, remotePath string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.TunnelCopyTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "gcloud", "compute", "scp", localPath,
		fmt.Sprintf("%s:%s", instance, remotePath),
		"--project", project,
		"--zone", zone,
		"--tunnel-through-iap",
		"--quiet",
	)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("file copy failed: %w: %s", err, strings.TrimSpace(buf.String()))
	}
	return nil
}

// Shell opens an interactive session on the instance, wiring the
// operator's terminal straight through.
func (c *gcloudTunnelClient) Shell(ctx context.Context, project, zone, instance string) error {
	cmd := exec.CommandContext(ctx, "gcloud", "compute", "ssh", instance,
		"--project", project,
		"--zone", zone,
		"--tunnel-through-iap",
	)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
