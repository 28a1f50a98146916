package sandbox

import (
	"context"
	"io"
	"log/slog"
	"strings"

	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
)

// Deleter tears down a sandbox behind an explicit confirmation gate. The
// instance delete and the shared firewall rule cleanup are confirmed
// separately: the rule is shared by every sandbox on the network, so
// removing it is never implied by deleting one machine.
type Deleter struct {
	Instances gcp.InstancesClient
	Firewalls gcp.FirewallsClient
	Selector  *Selector
	Log       *slog.Logger

	// In is the interactive input stream, overridable in tests.
	In io.Reader
}

// NewDeleter returns a deleter reading confirmations from in.
func NewDeleter(instances gcp.InstancesClient, firewalls gcp.FirewallsClient, selector *Selector, in io.Reader, log *slog.Logger) *Deleter {
	return &Deleter{
		Instances: instances,
		Firewalls: firewalls,
		Selector:  selector,
		Log:       log,
		In:        in,
	}
}

// DeleteOptions carries the resolution inputs for a delete.
type DeleteOptions struct {
	// Name is the sandbox to delete; empty triggers interactive selection.
	Name string
	// Network overrides the network read from the sandbox's first
	// interface when deciding which shared firewall rule to offer for
	// cleanup after a successful instance delete.
	Network string

	Project string
	Zone    string
	User    string
}

// confirmed reports whether the operator answered exactly "yes",
// case-insensitively. Any other answer, including "y", declines.
func (d *Deleter) confirmed(prompt string) bool {
	answer, err := output.Prompt(d.In, prompt)
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// Delete resolves, confirms, and deletes a sandbox. Declining the
// confirmation returns ErrCancelled with nothing deleted. A failed
// instance delete stops the teardown before the firewall prompt.
func (d *Deleter) Delete(ctx context.Context, opts DeleteOptions) error {
	sb, err := d.Selector.Resolve(ctx, opts.Project, opts.Zone, opts.User, opts.Name)
	if err != nil {
		return err
	}

	output.Blank()
	output.Header("Delete sandbox")
	output.KeyValue("Name", sb.Name)
	output.KeyValue("Zone", sb.Zone)
	output.KeyValue("Status", output.StatusBadge(sb.Status))
	if sb.Cluster != "" {
		output.KeyValue("Cluster", sb.Cluster)
	}
	if sb.InternalIP != "" {
		output.KeyValue("Internal IP", sb.InternalIP)
	}
	output.Blank()

	if !d.confirmed("Type 'yes' to delete " + sb.Name) {
		return apperrors.ErrCancelled
	}

	if err := d.Instances.Delete(ctx, opts.Project, sb.Zone, sb.Name); err != nil {
		return apperrors.ErrCloud("failed to delete sandbox "+sb.Name, err)
	}
	d.Log.Info("sandbox deleted", "name", sb.Name, "zone", sb.Zone)
	output.Success("Deleted sandbox %s", sb.Name)

	network := opts.Network
	if network == "" {
		network = sb.Network
	}
	if network != "" {
		d.offerFirewallCleanup(ctx, opts.Project, network)
	}
	return nil
}

// offerFirewallCleanup prompts for removal of the network-wide ingress
// rule. Declining or any lookup/delete failure leaves the rule in place;
// the sandbox delete has already succeeded and is not rolled back.
func (d *Deleter) offerFirewallCleanup(ctx context.Context, project, network string) {
	name := RuleName(network)
	rule, err := d.Firewalls.Get(ctx, project, name)
	if err != nil {
		d.Log.Debug("firewall rule lookup failed, skipping cleanup", "rule", name, "error", err)
		return
	}
	if rule == nil {
		return
	}

	output.Blank()
	output.Warning("Firewall rule %s on network %s is shared by all sandboxes.", name, network)
	if !d.confirmed("Type 'yes' to also delete the firewall rule") {
		output.Info("Keeping firewall rule %s", name)
		return
	}

	if err := d.Firewalls.Delete(ctx, project, name); err != nil {
		output.Warning("Failed to delete firewall rule %s: %v", name, err)
		return
	}
	output.Success("Deleted firewall rule %s", name)
}
