package sandbox

import (
	"context"
	"log/slog"

	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
)

// FirewallProvisioner ensures exactly one ingress rule per network
// admitting the secure-tunnel SSH source range. The rule is shared by
// every sandbox on the network.
type FirewallProvisioner struct {
	Firewalls gcp.FirewallsClient
	Log       *slog.Logger
}

// NewFirewallProvisioner returns a provisioner over the given firewalls
// client.
func NewFirewallProvisioner(firewalls gcp.FirewallsClient, log *slog.Logger) *FirewallProvisioner {
	return &FirewallProvisioner{Firewalls: firewalls, Log: log}
}

// RuleName derives the deterministic ingress rule name for a network.
func RuleName(network string) string {
	return constants.FirewallRulePrefix + network
}

// EnsureIngressRule makes sure the network's tunnel-SSH ingress rule
// exists. An existing rule is a no-op; creation failure is fatal.
func (p *FirewallProvisioner) EnsureIngressRule(
	ctx context.Context,
	project, network string,
) (StepResult, error) {
	name := RuleName(network)
	result := StepResult{Name: "firewall rule " + name}

	existing, err := p.Firewalls.Get(ctx, project, name)
	if err != nil {
		return result, apperrors.ErrCloud("failed to look up firewall rule", err)
	}
	if existing != nil {
		p.Log.Debug("firewall rule exists", "rule", name, "network", network)
		result.Outcome = OutcomeReused
		return result, nil
	}

	rule := gcp.FirewallRule{
		Name:         name,
		Network:      network,
		Protocol:     "tcp",
		Ports:        []string{constants.SSHPort},
		SourceRanges: []string{constants.IAPSourceRange},
		Priority:     constants.FirewallPriority,
	}
	if err := p.Firewalls.Create(ctx, project, rule); err != nil {
		return result, apperrors.ErrCloud("failed to create firewall rule", err)
	}

	p.Log.Info("created firewall rule", "rule", name, "network", network)
	result.Outcome = OutcomeCreated
	return result, nil
}
