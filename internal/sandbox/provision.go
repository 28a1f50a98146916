package sandbox

import (
	"context"
	"log/slog"
	"os"
	"time"

	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
)

// Provisioner runs the full create pipeline. Each step is idempotent, so
// a failed run is always safe to re-run: completed steps resolve to
// reuse and the pipeline picks up where it stopped. Timeouts on the
// waiting steps demote the result instead of failing it.
type Provisioner struct {
	Prereq    *PrerequisiteChecker
	Topology  *TopologyResolver
	Identity  *IdentityProvisioner
	Firewall  *FirewallProvisioner
	Lifecycle *LifecycleManager
	Configure *Configurator
	Log       *slog.Logger

	// ReadFile is os.ReadFile, overridable in tests.
	ReadFile func(name string) ([]byte, error)
}

// NewProvisioner wires a pipeline over the given cloud clients.
func NewProvisioner(clients *gcp.Clients, log *slog.Logger) *Provisioner {
	return &Provisioner{
		Prereq:    NewPrerequisiteChecker(clients.Projects),
		Topology:  NewTopologyResolver(clients.Clusters, clients.Networks, clients.Subnetworks, log),
		Identity:  NewIdentityProvisioner(clients.Identity, log),
		Firewall:  NewFirewallProvisioner(clients.Firewalls, log),
		Lifecycle: NewLifecycleManager(clients.Instances, clients.Tunnel, log),
		Configure: NewConfigurator(clients.Tunnel, log),
		Log:       log,
		ReadFile:  os.ReadFile,
	}
}

// ProvisionOptions carries everything a create run needs.
type ProvisionOptions struct {
	Project string
	Zone    string
	Region  string
	User    string

	// Name overrides the derived sandbox name when set.
	Name string

	Cluster string
	// VPC and Subnet place the sandbox outside the cluster's own network;
	// both must be set together.
	VPC    string
	Subnet string

	MachineType  string
	ImageFamily  string
	ImageProject string

	// StartupScriptPath, when set, is read locally and attached as
	// instance metadata.
	StartupScriptPath string

	SSHKeyPath string
	GitName    string
	GitEmail   string
}

// Report summarizes a provisioning run.
type Report struct {
	Sandbox *Sandbox
	State   VMState
	Steps   []StepResult
}

const pipelineSteps = 7

// Provision runs the pipeline end to end and returns a report of what
// each step did. Fatal errors abort immediately; degradation (a VM that
// never confirmed readiness, a start that outran its ceiling) is
// reported, not raised.
func (p *Provisioner) Provision(ctx context.Context, opts ProvisionOptions) (*Report, error) {
	report := &Report{State: StateAbsent}

	name := opts.Name
	if name == "" {
		name = DefaultVMName(opts.User)
	}

	output.Step(1, pipelineSteps, "Checking prerequisites")
	if err := p.Prereq.Check(ctx, opts.Project); err != nil {
		return nil, err
	}
	output.StepSuccess(1, pipelineSteps, "Prerequisites satisfied")

	output.Step(2, pipelineSteps, "Resolving cluster topology")
	topo, err := p.Topology.Resolve(ctx, opts.Project, opts.Region, opts.Cluster, opts.VPC, opts.Subnet)
	if err != nil {
		return nil, err
	}
	output.StepSuccess(2, pipelineSteps, "Sandbox placed on network "+topo.Network)

	output.Step(3, pipelineSteps, "Ensuring sandbox identity")
	identity, err := p.Identity.EnsureIdentity(ctx, opts.Project, opts.User)
	if err != nil {
		return nil, err
	}
	report.Steps = append(report.Steps, StepResult{
		Name: "identity " + identity.Email, Outcome: identity.Outcome,
	})
	output.StepSuccess(3, pipelineSteps, "Identity "+string(identity.Outcome)+": "+identity.Email)

	output.Step(4, pipelineSteps, "Ensuring tunnel ingress rule")
	fwResult, err := p.Firewall.EnsureIngressRule(ctx, opts.Project, topo.Network)
	if err != nil {
		return nil, err
	}
	report.Steps = append(report.Steps, fwResult)
	output.StepSuccess(4, pipelineSteps, "Ingress rule "+string(fwResult.Outcome))

	spec, err := p.buildSpec(name, identity.Email, topo, opts)
	if err != nil {
		return nil, err
	}

	output.Step(5, pipelineSteps, "Ensuring sandbox instance "+name)
	instance, vmOutcome, err := p.Lifecycle.Ensure(ctx, opts.Project, spec)
	if err != nil {
		return nil, err
	}
	report.Steps = append(report.Steps, StepResult{Name: "instance " + name, Outcome: vmOutcome})
	report.State = StateCreating
	output.StepSuccess(5, pipelineSteps, "Instance "+string(vmOutcome))

	instance, pollResult, err := p.Lifecycle.WaitRunning(ctx, opts.Project, opts.Zone, name)
	if err != nil {
		return nil, err
	}
	if pollResult == PollOk {
		report.State = StateRunning
	} else {
		output.StepWarning(5, pipelineSteps, "Instance has not reached RUNNING yet, continuing")
		report.Steps = append(report.Steps,
			StepResult{Name: "instance start", Outcome: OutcomeDegraded, Detail: "did not reach RUNNING in time"})
	}

	output.Step(6, pipelineSteps, "Establishing cluster network path")
	if err := p.ensureNetworkPath(ctx, topo, instance, opts, report); err != nil {
		return nil, err
	}
	output.StepSuccess(6, pipelineSteps, "Cluster network path established")

	output.Step(7, pipelineSteps, "Waiting for sandbox readiness")
	report.State = StateReadinessPending
	state := p.Lifecycle.WaitReady(ctx, opts.Project, opts.Zone, name)
	report.State = state

	if state == StateReady {
		output.StepSuccess(7, pipelineSteps, "Sandbox ready")
		p.Configure.Apply(ctx, opts.Project, opts.Zone, name, opts.Cluster, opts.Region, ConfigureOptions{
			SSHKeyPath: opts.SSHKeyPath,
			GitName:    opts.GitName,
			GitEmail:   opts.GitEmail,
		})
	} else {
		output.StepWarning(7, pipelineSteps,
			"Readiness not confirmed; connect and finish initialization manually")
		report.Steps = append(report.Steps,
			StepResult{Name: "readiness", Outcome: OutcomeDegraded, Detail: "marker never appeared"})
	}

	report.Sandbox = &Sandbox{
		Name:    name,
		Zone:    opts.Zone,
		Project: opts.Project,
		Cluster: opts.Cluster,
		Owner:   SanitizeUser(opts.User),
		Created: time.Now().UTC().Format(constants.CreatedDateLayout),
	}
	if instance != nil {
		report.Sandbox.Status = instance.Status
		report.Sandbox.Network = instance.Network
		report.Sandbox.InternalIP = instance.InternalIP
	}
	return report, nil
}

// ensureNetworkPath peers the sandbox network with the cluster's when
// they differ and authorizes the sandbox address on the control plane.
// An instance without an address yet (degraded start) skips the
// allow-list merge with a warning; re-running the pipeline completes it.
func (p *Provisioner) ensureNetworkPath(
	ctx context.Context,
	topo *Topology,
	instance *gcp.Instance,
	opts ProvisionOptions,
	report *Report,
) error {
	if !topo.Peered {
		p.Log.Debug("sandbox shares the cluster network, no peering needed")
		return nil
	}

	peerResult, err := p.Topology.EnsureBidirectionalPeering(
		ctx, opts.Project, topo.Network, topo.Cluster.Network)
	if err != nil {
		return err
	}
	report.Steps = append(report.Steps, peerResult)

	if instance == nil || instance.InternalIP == "" {
		output.Warning("Sandbox address unknown, skipping control-plane authorization; re-run create to complete it")
		report.Steps = append(report.Steps,
			StepResult{Name: "authorized network", Outcome: OutcomeDegraded, Detail: "no internal address yet"})
		return nil
	}

	cidrResult, err := p.Topology.MergeAuthorizedCIDR(
		ctx, opts.Project, opts.Region, opts.Cluster, instance.InternalIP)
	if err != nil {
		return err
	}
	report.Steps = append(report.Steps, cidrResult)
	return nil
}

func (p *Provisioner) buildSpec(
	name, identityEmail string,
	topo *Topology,
	opts ProvisionOptions,
) (gcp.InstanceSpec, error) {
	spec := gcp.InstanceSpec{
		Name:           name,
		Zone:           opts.Zone,
		MachineType:    opts.MachineType,
		Network:        topo.Network,
		Subnet:         topo.Subnet,
		Region:         opts.Region,
		ImageFamily:    opts.ImageFamily,
		ImageProject:   opts.ImageProject,
		ServiceAccount: identityEmail,
		Labels: map[string]string{
			constants.LabelOwner:   SanitizeUser(opts.User),
			constants.LabelCluster: opts.Cluster,
			constants.LabelType:    constants.LabelTypeSandbox,
			constants.LabelCreated: time.Now().UTC().Format(constants.CreatedDateLayout),
		},
	}

	if opts.StartupScriptPath != "" {
		script, err := p.ReadFile(opts.StartupScriptPath)
		if err != nil {
			return spec, apperrors.ErrInvalidConfig(
				"failed to read startup script "+opts.StartupScriptPath, err)
		}
		spec.StartupScript = string(script)
	}
	return spec, nil
}
