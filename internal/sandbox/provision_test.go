package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sandboxctl/internal/gcp"
)

// provisionHarness wires a full pipeline over fakes simulating a live
// project, with counters for every mutating call.
type provisionHarness struct {
	provisioner *Provisioner

	identityCreates int
	firewallCreates int
	vmCreates       int
	peeringsAdded   []string
	allowlistCIDRs  []string

	// existing state the fakes report
	identityExists  bool
	firewallExists  bool
	instanceExists  bool
	instanceRunning bool
	ready           bool
	peerings        map[string][]gcp.Peering
}

func newProvisionHarness(t *testing.T) *provisionHarness {
	t.Helper()
	h := &provisionHarness{
		instanceRunning: true,
		ready:           true,
		peerings:        map[string][]gcp.Peering{},
	}

	projects := &fakeProjects{
		getProjectFn: func(ctx context.Context, projectID string) error { return nil },
	}
	identity := &fakeIdentity{
		getFn: func(ctx context.Context, project, email string) (*gcp.ServiceAccount, error) {
			if h.identityExists {
				return &gcp.ServiceAccount{Email: email}, nil
			}
			return nil, nil
		},
		createFn: func(ctx context.Context, project, accountID, displayName string) (*gcp.ServiceAccount, error) {
			h.identityCreates++
			h.identityExists = true
			return &gcp.ServiceAccount{Email: accountID + "@" + project + ".iam.gserviceaccount.com"}, nil
		},
		bindRoleFn: func(ctx context.Context, project, member, role string) error { return nil },
	}
	firewalls := &fakeFirewalls{
		getFn: func(ctx context.Context, project, name string) (*gcp.FirewallRule, error) {
			if h.firewallExists {
				return &gcp.FirewallRule{Name: name}, nil
			}
			return nil, nil
		},
		createFn: func(ctx context.Context, project string, rule gcp.FirewallRule) error {
			h.firewallCreates++
			h.firewallExists = true
			return nil
		},
	}
	instances := &fakeInstances{
		getFn: func(ctx context.Context, project, zone, name string) (*gcp.Instance, error) {
			if !h.instanceExists {
				return nil, nil
			}
			status := "STAGING"
			if h.instanceRunning {
				status = "RUNNING"
			}
			return &gcp.Instance{
				Name: name, Zone: zone, Status: status,
				MachineType: "e2-standard-2", InternalIP: "10.10.0.7",
			}, nil
		},
		createFn: func(ctx context.Context, project string, spec gcp.InstanceSpec) error {
			h.vmCreates++
			h.instanceExists = true
			return nil
		},
	}
	networks := &fakeNetworks{
		getFn: func(ctx context.Context, project, name string) (*gcp.Network, error) {
			return &gcp.Network{Name: name, SelfLink: "link/" + name}, nil
		},
		listPeeringsFn: func(ctx context.Context, project, network string) ([]gcp.Peering, error) {
			return h.peerings[network], nil
		},
		addPeeringFn: func(ctx context.Context, project, network, peeringName, peerNetworkLink string) error {
			h.peeringsAdded = append(h.peeringsAdded, network+"->"+peerNetworkLink)
			peer := strings.TrimPrefix(peerNetworkLink, "link/")
			h.peerings[network] = append(h.peerings[network],
				gcp.Peering{Name: peeringName, PeerNetwork: peer, State: "ACTIVE"})
			return nil
		},
	}
	subnets := &fakeSubnetworks{
		getFn: func(ctx context.Context, project, region, name string) (*gcp.Subnetwork, error) {
			return &gcp.Subnetwork{Name: name}, nil
		},
	}
	clusters := &fakeClusters{
		getFn: func(ctx context.Context, project, region, name string) (*gcp.Cluster, error) {
			return &gcp.Cluster{
				Name:             name,
				Network:          "cluster-net",
				Subnetwork:       "cluster-subnet",
				AllowlistEnabled: len(h.allowlistCIDRs) > 0,
				AllowlistCIDRs:   h.allowlistCIDRs,
			}, nil
		},
		updateAllowlistFn: func(ctx context.Context, project, region, name string, enabled bool, cidrs []string) error {
			h.allowlistCIDRs = cidrs
			return nil
		},
	}
	tunnel := &fakeTunnel{
		runCommandFn: func(ctx context.Context, project, zone, instance, command string) (string, error) {
			if h.ready {
				return "", nil
			}
			return "", context.DeadlineExceeded
		},
		copyFileFn: func(ctx context.Context, project, zone, instance, localPath, remotePath string) error {
			return nil
		},
	}

	p := NewProvisioner(&gcp.Clients{
		Projects:    projects,
		Instances:   instances,
		Firewalls:   firewalls,
		Networks:    networks,
		Subnetworks: subnets,
		Clusters:    clusters,
		Identity:    identity,
		Tunnel:      tunnel,
	}, discardLogger())

	p.Prereq.LookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	p.Identity.Sleep = func(time.Duration) {}
	p.Lifecycle.RunningPollInterval = time.Millisecond
	p.Lifecycle.RunningWaitCeiling = 5 * time.Millisecond
	p.Lifecycle.ReadinessPollInterval = time.Millisecond
	p.Lifecycle.ReadinessPollAttempts = 2

	h.provisioner = p
	return h
}

func provisionOpts() ProvisionOptions {
	return ProvisionOptions{
		Project:      "my-project",
		Zone:         "us-central1-a",
		Region:       "us-central1",
		User:         "alice",
		Cluster:      "prod",
		MachineType:  "e2-standard-2",
		ImageFamily:  "debian-12",
		ImageProject: "debian-cloud",
	}
}

func TestProvisionFreshRun(t *testing.T) {
	silenceOutput(t)
	h := newProvisionHarness(t)

	report, err := h.provisioner.Provision(context.Background(), provisionOpts())
	require.NoError(t, err)

	assert.Equal(t, 1, h.identityCreates)
	assert.Equal(t, 1, h.firewallCreates)
	assert.Equal(t, 1, h.vmCreates)
	assert.Empty(t, h.peeringsAdded, "same-network provisioning needs no peering")

	assert.Equal(t, StateReady, report.State)
	require.NotNil(t, report.Sandbox)
	assert.Equal(t, "sandboxctl-alice", report.Sandbox.Name)
	assert.Equal(t, "10.10.0.7", report.Sandbox.InternalIP)
	assert.Equal(t, "alice", report.Sandbox.Owner)
}

func TestProvisionRerunCreatesNothing(t *testing.T) {
	silenceOutput(t)
	h := newProvisionHarness(t)

	_, err := h.provisioner.Provision(context.Background(), provisionOpts())
	require.NoError(t, err)

	h.identityCreates, h.firewallCreates, h.vmCreates = 0, 0, 0

	report, err := h.provisioner.Provision(context.Background(), provisionOpts())
	require.NoError(t, err)

	assert.Zero(t, h.identityCreates, "re-run must reuse the identity")
	assert.Zero(t, h.firewallCreates, "re-run must reuse the firewall rule")
	assert.Zero(t, h.vmCreates, "re-run must reuse the instance")
	assert.Equal(t, StateReady, report.State)
}

func TestProvisionWithSeparateVPC(t *testing.T) {
	silenceOutput(t)
	h := newProvisionHarness(t)

	opts := provisionOpts()
	opts.VPC = "admin-vpc"
	opts.Subnet = "admin-subnet"

	report, err := h.provisioner.Provision(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"admin-vpc->link/cluster-net", "cluster-net->link/admin-vpc"}, h.peeringsAdded)
	assert.Equal(t, []string{"10.10.0.7/32"}, h.allowlistCIDRs)
	assert.Equal(t, StateReady, report.State)

	// Re-run: peering and allow-list are already satisfied.
	h.peeringsAdded = nil
	_, err = h.provisioner.Provision(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, h.peeringsAdded)
	assert.Equal(t, []string{"10.10.0.7/32"}, h.allowlistCIDRs)
}

func TestProvisionReadinessTimeoutDegrades(t *testing.T) {
	silenceOutput(t)
	h := newProvisionHarness(t)
	h.ready = false

	report, err := h.provisioner.Provision(context.Background(), provisionOpts())
	require.NoError(t, err, "an unready sandbox is a degraded result, not an error")
	assert.Equal(t, StateDegradedReady, report.State)
}

func TestProvisionCustomName(t *testing.T) {
	silenceOutput(t)
	h := newProvisionHarness(t)

	opts := provisionOpts()
	opts.Name = "scratchpad"

	report, err := h.provisioner.Provision(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "scratchpad", report.Sandbox.Name)
}
