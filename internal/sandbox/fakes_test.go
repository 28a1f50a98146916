package sandbox

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
)

// Func-field fakes for the cloud client interfaces. Unset fields panic,
// which keeps tests honest about which calls they expect.

type fakeProjects struct {
	getProjectFn func(ctx context.Context, projectID string) error
}

func (f *fakeProjects) GetProject(ctx context.Context, projectID string) error {
	return f.getProjectFn(ctx, projectID)
}

type fakeInstances struct {
	getFn    func(ctx context.Context, project, zone, name string) (*gcp.Instance, error)
	createFn func(ctx context.Context, project string, spec gcp.InstanceSpec) error
	listFn   func(ctx context.Context, project, filter string) ([]gcp.Instance, error)
	deleteFn func(ctx context.Context, project, zone, name string) error
}

func (f *fakeInstances) Get(ctx context.Context, project, zone, name string) (*gcp.Instance, error) {
	return f.getFn(ctx, project, zone, name)
}

func (f *fakeInstances) Create(ctx context.Context, project string, spec gcp.InstanceSpec) error {
	return f.createFn(ctx, project, spec)
}

func (f *fakeInstances) List(ctx context.Context, project, filter string) ([]gcp.Instance, error) {
	return f.listFn(ctx, project, filter)
}

func (f *fakeInstances) Delete(ctx context.Context, project, zone, name string) error {
	return f.deleteFn(ctx, project, zone, name)
}

type fakeFirewalls struct {
	getFn    func(ctx context.Context, project, name string) (*gcp.FirewallRule, error)
	createFn func(ctx context.Context, project string, rule gcp.FirewallRule) error
	deleteFn func(ctx context.Context, project, name string) error
}

func (f *fakeFirewalls) Get(ctx context.Context, project, name string) (*gcp.FirewallRule, error) {
	return f.getFn(ctx, project, name)
}

func (f *fakeFirewalls) Create(ctx context.Context, project string, rule gcp.FirewallRule) error {
	return f.createFn(ctx, project, rule)
}

func (f *fakeFirewalls) Delete(ctx context.Context, project, name string) error {
	return f.deleteFn(ctx, project, name)
}

type fakeNetworks struct {
	getFn          func(ctx context.Context, project, name string) (*gcp.Network, error)
	listPeeringsFn func(ctx context.Context, project, network string) ([]gcp.Peering, error)
	addPeeringFn   func(ctx context.Context, project, network, peeringName, peerNetworkLink string) error
}

func (f *fakeNetworks) Get(ctx context.Context, project, name string) (*gcp.Network, error) {
	return f.getFn(ctx, project, name)
}

func (f *fakeNetworks) ListPeerings(ctx context.Context, project, network string) ([]gcp.Peering, error) {
	return f.listPeeringsFn(ctx, project, network)
}

func (f *fakeNetworks) AddPeering(ctx context.Context, project, network, peeringName, peerNetworkLink string) error {
	return f.addPeeringFn(ctx, project, network, peeringName, peerNetworkLink)
}

type fakeSubnetworks struct {
	getFn func(ctx context.Context, project, region, name string) (*gcp.Subnetwork, error)
}

func (f *fakeSubnetworks) Get(ctx context.Context, project, region, name string) (*gcp.Subnetwork, error) {
	return f.getFn(ctx, project, region, name)
}

type fakeClusters struct {
	getFn             func(ctx context.Context, project, region, name string) (*gcp.Cluster, error)
	updateAllowlistFn func(ctx context.Context, project, region, name string, enabled bool, cidrs []string) error
}

func (f *fakeClusters) Get(ctx context.Context, project, region, name string) (*gcp.Cluster, error) {
	return f.getFn(ctx, project, region, name)
}

func (f *fakeClusters) UpdateAllowlist(ctx context.Context, project, region, name string, enabled bool, cidrs []string) error {
	return f.updateAllowlistFn(ctx, project, region, name, enabled, cidrs)
}

type fakeIdentity struct {
	getFn      func(ctx context.Context, project, email string) (*gcp.ServiceAccount, error)
	createFn   func(ctx context.Context, project, accountID, displayName string) (*gcp.ServiceAccount, error)
	bindRoleFn func(ctx context.Context, project, member, role string) error
}

func (f *fakeIdentity) Get(ctx context.Context, project, email string) (*gcp.ServiceAccount, error) {
	return f.getFn(ctx, project, email)
}

func (f *fakeIdentity) Create(ctx context.Context, project, accountID, displayName string) (*gcp.ServiceAccount, error) {
	return f.createFn(ctx, project, accountID, displayName)
}

func (f *fakeIdentity) BindRole(ctx context.Context, project, member, role string) error {
	return f.bindRoleFn(ctx, project, member, role)
}

type fakeTunnel struct {
	runCommandFn func(ctx context.Context, project, zone, instance, command string) (string, error)
	copyFileFn   func(ctx context.Context, project, zone, instance, localPath, remotePath string) error
	shellFn      func(ctx context.Context, project, zone, instance string) error
}

func (f *fakeTunnel) RunCommand(ctx context.Context, project, zone, instance, command string) (string, error) {
	return f.runCommandFn(ctx, project, zone, instance, command)
}

func (f *fakeTunnel) CopyFile(ctx context.Context, project, zone, instance, localPath, remotePath string) error {
	return f.copyFileFn(ctx, project, zone, instance, localPath, remotePath)
}

func (f *fakeTunnel) Shell(ctx context.Context, project, zone, instance string) error {
	return f.shellFn(ctx, project, zone, instance)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// silenceOutput redirects user-facing output for the duration of a test.
func silenceOutput(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	origOut, origErr := output.Stdout, output.Stderr
	output.Stdout, output.Stderr = stdout, stderr
	t.Cleanup(func() {
		output.Stdout, output.Stderr = origOut, origErr
	})
	return stdout, stderr
}
