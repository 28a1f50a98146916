// Package gcp implements the cloud resource client sandboxctl depends
// on. Each concern is a small interface so the orchestration core can be
// exercised against fakes; the default implementations wrap the Google
// Cloud REST APIs and return typed records.
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/compute/v1"
	"google.golang.org/api/container/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/option"

	"sandboxctl/internal/constants"
)

// ProjectsClient verifies the target project is reachable with the
// current credentials.
type ProjectsClient interface {
	GetProject(ctx context.Context, projectID string) error
}

// InstancesClient manages compute instances. Get returns (nil, nil) when
// the instance does not exist.
type InstancesClient interface {
	Get(ctx context.Context, project, zone, name string) (*Instance, error)
	Create(ctx context.Context, project string, spec InstanceSpec) error
	List(ctx context.Context, project, filter string) ([]Instance, error)
	Delete(ctx context.Context, project, zone, name string) error
}

// FirewallsClient manages ingress rules. Get returns (nil, nil) when the
// rule does not exist.
type FirewallsClient interface {
	Get(ctx context.Context, project, name string) (*FirewallRule, error)
	Create(ctx context.Context, project string, rule FirewallRule) error
	Delete(ctx context.Context, project, name string) error
}

// NetworksClient resolves networks and manages peerings.
type NetworksClient interface {
	Get(ctx context.Context, project, name string) (*Network, error)
	ListPeerings(ctx context.Context, project, network string) ([]Peering, error)
	AddPeering(ctx context.Context, project, network, peeringName, peerNetworkLink string) error
}

// SubnetworksClient resolves subnets.
type SubnetworksClient interface {
	Get(ctx context.Context, project, region, name string) (*Subnetwork, error)
}

// ClustersClient describes and updates managed clusters.
type ClustersClient interface {
	Get(ctx context.Context, project, region, name string) (*Cluster, error)
	UpdateAllowlist(ctx context.Context, project, region, name string, enabled bool, cidrs []string) error
}

// IdentityClient manages per-operator service accounts. Get returns
// (nil, nil) when the account does not exist.
type IdentityClient interface {
	Get(ctx context.Context, project, email string) (*ServiceAccount, error)
	Create(ctx context.Context, project, accountID, displayName string) (*ServiceAccount, error)
	BindRole(ctx context.Context, project, member, role string) error
}

// TunnelClient executes commands on and copies files to instances over
// the identity-aware SSH tunnel.
type TunnelClient interface {
	RunCommand(ctx context.Context, project, zone, instance, command string) (string, error)
	CopyFile(ctx context.Context, project, zone, instance, localPath, remotePath string) error
	Shell(ctx context.Context, project, zone, instance string) error
}

// Clients bundles every cloud capability the pipeline uses.
type Clients struct {
	Projects    ProjectsClient
	Instances   InstancesClient
	Firewalls   FirewallsClient
	Networks    NetworksClient
	Subnetworks SubnetworksClient
	Clusters    ClustersClient
	Identity    IdentityClient
	Tunnel      TunnelClient
}

// NewClients builds concrete service clients backed by the Google Cloud
// APIs using application default credentials.
func NewClients(ctx context.Context) (*Clients, error) {
	computeSvc, err := compute.NewService(ctx, option.WithScopes(compute.CloudPlatformScope))
	if err != nil {
		return nil, fmt.Errorf("create compute service: %w", err)
	}

	containerSvc, err := container.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create container service: %w", err)
	}

	iamSvc, err := iam.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam service: %w", err)
	}

	rmSvc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create resource manager service: %w", err)
	}

	projectsClient, err := resourcemanager.NewProjectsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create projects client: %w", err)
	}

	return &Clients{
		Projects:    &defaultProjectsClient{client: projectsClient},
		Instances:   &defaultInstancesClient{service: computeSvc},
		Firewalls:   &defaultFirewallsClient{service: computeSvc},
		Networks:    &defaultNetworksClient{service: computeSvc},
		Subnetworks: &defaultSubnetworksClient{service: computeSvc},
		Clusters:    &defaultClustersClient{service: containerSvc},
		Identity: &defaultIdentityClient{
			iamService:      iamSvc,
			resourceManager: rmSvc,
		},
		Tunnel: &gcloudTunnelClient{},
	}, nil
}

type defaultProjectsClient struct {
	client *resourcemanager.ProjectsClient
}

func (c *defaultProjectsClient) GetProject(ctx context.Context, projectID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	req := &resourcemanagerpb.GetProjectRequest{Name: "projects/" + projectID}
	_, err := c.client.GetProject(ctx, req)
	return wrapError("get project", err)
}

type defaultInstancesClient struct {
	service *compute.Service
}

func (c *defaultInstancesClient) Get(ctx context.Context, project, zone, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	inst, err := c.service.Instances.Get(project, zone, name).Context(ctx).Do()
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("get instance", err)
	}
	return toInstance(inst), nil
}

func (c *defaultInstancesClient) Create(ctx context.Context, project string, spec InstanceSpec) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	inst := &compute.Instance{
		Name:        spec.Name,
		MachineType: fmt.Sprintf("zones/%s/machineTypes/%s", spec.Zone, spec.MachineType),
		Labels:      spec.Labels,
		Disks: []*compute.AttachedDisk{
			{
				Boot:       true,
				AutoDelete: true,
				InitializeParams: &compute.AttachedDiskInitializeParams{
					SourceImage: fmt.Sprintf(
						"projects/%s/global/images/family/%s",
						spec.ImageProject, spec.ImageFamily,
					),
				},
			},
		},
		// No AccessConfigs: the sandbox gets no external address and is
		// reachable only through the tunnel.
		NetworkInterfaces: []*compute.NetworkInterface{
			{
				Subnetwork: fmt.Sprintf(
					"projects/%s/regions/%s/subnetworks/%s",
					project, spec.Region, spec.Subnet,
				),
			},
		},
	}

	if spec.ServiceAccount != "" {
		inst.ServiceAccounts = []*compute.ServiceAccount{
			{
				Email:  spec.ServiceAccount,
				Scopes: []string{constants.CloudPlatformScope},
			},
		}
	}

	if spec.StartupScript != "" {
		script := spec.StartupScript
		inst.Metadata = &compute.Metadata{
			Items: []*compute.MetadataItems{
				{Key: "startup-script", Value: &script},
			},
		}
	}

	op, err := c.service.Instances.Insert(project, spec.Zone, inst).Context(ctx).Do()
	if err != nil {
		return wrapError("create instance", err)
	}
	return wrapError("wait for instance creation", c.waitForZonalOperation(ctx, project, spec.Zone, op.Name))
}

func (c *defaultInstancesClient) List(ctx context.Context, project, filter string) ([]Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	var instances []Instance
	call := c.service.Instances.AggregatedList(project)
	if filter != "" {
		call = call.Filter(filter)
	}
	err := call.Pages(ctx, func(page *compute.InstanceAggregatedList) error {
		for _, scoped := range page.Items {
			for _, inst := range scoped.Instances {
				instances = append(instances, *toInstance(inst))
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapError("list instances", err)
	}
	return instances, nil
}

func (c *defaultInstancesClient) Delete(ctx context.Context, project, zone, name string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	op, err := c.service.Instances.Delete(project, zone, name).Context(ctx).Do()
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return wrapError("delete instance", err)
	}
	return wrapError("wait for instance deletion", c.waitForZonalOperation(ctx, project, zone, op.Name))
}

func (c *defaultInstancesClient) waitForZonalOperation(ctx context.Context, project, zone, opName string) error {
	for {
		op, err := c.service.ZoneOperations.Get(project, zone, opName).Context(ctx).Do()
		if err != nil {
			return wrapError("poll compute zonal operation", err)
		}
		if op.Status == computeOperationDone {
			return operationError(op)
		}
		if err := sleepCtx(ctx, constants.OperationPollInterval); err != nil {
			return err
		}
	}
}

func toInstance(inst *compute.Instance) *Instance {
	record := &Instance{
		Name:        inst.Name,
		Zone:        path.Base(inst.Zone),
		Status:      inst.Status,
		MachineType: path.Base(inst.MachineType),
		Labels:      inst.Labels,
	}
	if len(inst.NetworkInterfaces) > 0 {
		nic := inst.NetworkInterfaces[0]
		if nic.Network != "" {
			record.Network = path.Base(nic.Network)
		}
		record.InternalIP = nic.NetworkIP
	}
	return record
}

type defaultFirewallsClient struct {
	service *compute.Service
}

func (c *defaultFirewallsClient) Get(ctx context.Context, project, name string) (*FirewallRule, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	rule, err := c.service.Firewalls.Get(project, name).Context(ctx).Do()
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("get firewall rule", err)
	}

	record := &FirewallRule{
		Name:         rule.Name,
		Network:      path.Base(rule.Network),
		SourceRanges: rule.SourceRanges,
		Priority:     rule.Priority,
	}
	if len(rule.Allowed) > 0 {
		record.Protocol = rule.Allowed[0].IPProtocol
		record.Ports = rule.Allowed[0].Ports
	}
	return record, nil
}

func (c *defaultFirewallsClient) Create(ctx context.Context, project string, rule FirewallRule) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	fw := &compute.Firewall{
		Name:      rule.Name,
		Network:   fmt.Sprintf("projects/%s/global/networks/%s", project, rule.Network),
		Direction: "INGRESS",
		Priority:  rule.Priority,
		Allowed: []*compute.FirewallAllowed{
			{
				IPProtocol: rule.Protocol,
				Ports:      rule.Ports,
			},
		},
		SourceRanges: rule.SourceRanges,
	}

	op, err := c.service.Firewalls.Insert(project, fw).Context(ctx).Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create firewall rule", err)
	}
	return wrapError("wait for firewall creation", c.waitForGlobalOperation(ctx, project, op.Name))
}

func (c *defaultFirewallsClient) Delete(ctx context.Context, project, name string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	op, err := c.service.Firewalls.Delete(project, name).Context(ctx).Do()
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return wrapError("delete firewall rule", err)
	}
	return wrapError("wait for firewall deletion", c.waitForGlobalOperation(ctx, project, op.Name))
}

func (c *defaultFirewallsClient) waitForGlobalOperation(ctx context.Context, project, opName string) error {
	return waitForGlobalOperation(ctx, c.service, project, opName)
}

type defaultNetworksClient struct {
	service *compute.Service
}

func (c *defaultNetworksClient) Get(ctx context.Context, project, name string) (*Network, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	net, err := c.service.Networks.Get(project, name).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get network", err)
	}
	return &Network{Name: net.Name, SelfLink: net.SelfLink}, nil
}

func (c *defaultNetworksClient) ListPeerings(ctx context.Context, project, network string) ([]Peering, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	net, err := c.service.Networks.Get(project, network).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("list network peerings", err)
	}

	peerings := make([]Peering, 0, len(net.Peerings))
	for _, p := range net.Peerings {
		peerings = append(peerings, Peering{
			Name:        p.Name,
			PeerNetwork: path.Base(p.Network),
			State:       p.State,
		})
	}
	return peerings, nil
}

func (c *defaultNetworksClient) AddPeering(
	ctx context.Context,
	project, network, peeringName, peerNetworkLink string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	req := &compute.NetworksAddPeeringRequest{
		NetworkPeering: &compute.NetworkPeering{
			Name:                 peeringName,
			Network:              peerNetworkLink,
			ExchangeSubnetRoutes: true,
		},
	}

	op, err := c.service.Networks.AddPeering(project, network, req).Context(ctx).Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("add network peering", err)
	}
	return wrapError("wait for peering creation", waitForGlobalOperation(ctx, c.service, project, op.Name))
}

type defaultSubnetworksClient struct {
	service *compute.Service
}

func (c *defaultSubnetworksClient) Get(ctx context.Context, project, region, name string) (*Subnetwork, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	subnet, err := c.service.Subnetworks.Get(project, region, name).Context(ctx).Do()
	if err != nil {
		return nil, wrapError("get subnetwork", err)
	}
	return &Subnetwork{
		Name:     subnet.Name,
		Region:   path.Base(subnet.Region),
		SelfLink: subnet.SelfLink,
	}, nil
}

type defaultClustersClient struct {
	service *container.Service
}

func clusterName(project, region, name string) string {
	return fmt.Sprintf("projects/%s/locations/%s/clusters/%s", project, region, name)
}

func (c *defaultClustersClient) Get(ctx context.Context, project, region, name string) (*Cluster, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	cluster, err := c.service.Projects.Locations.Clusters.Get(clusterName(project, region, name)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("get cluster", err)
	}

	record := &Cluster{
		Name:       cluster.Name,
		Network:    path.Base(cluster.Network),
		Subnetwork: path.Base(cluster.Subnetwork),
		Endpoint:   cluster.Endpoint,
	}
	if man := cluster.MasterAuthorizedNetworksConfig; man != nil {
		record.AllowlistEnabled = man.Enabled
		for _, block := range man.CidrBlocks {
			record.AllowlistCIDRs = append(record.AllowlistCIDRs, block.CidrBlock)
		}
	}
	return record, nil
}

func (c *defaultClustersClient) UpdateAllowlist(
	ctx context.Context,
	project, region, name string,
	enabled bool,
	cidrs []string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	blocks := make([]*container.CidrBlock, 0, len(cidrs))
	for _, cidr := range cidrs {
		blocks = append(blocks, &container.CidrBlock{CidrBlock: cidr})
	}

	// The update is a full replace: always submit the complete config,
	// never a delta.
	req := &container.UpdateClusterRequest{
		Update: &container.ClusterUpdate{
			DesiredMasterAuthorizedNetworksConfig: &container.MasterAuthorizedNetworksConfig{
				Enabled:    enabled,
				CidrBlocks: blocks,
			},
		},
	}

	_, err := c.service.Projects.Locations.Clusters.Update(clusterName(project, region, name), req).
		Context(ctx).
		Do()
	return wrapError("update cluster authorized networks", err)
}

type defaultIdentityClient struct {
	iamService      *iam.Service
	resourceManager *cloudresourcemanager.Service
}

func (c *defaultIdentityClient) Get(ctx context.Context, project, email string) (*ServiceAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", project, email)
	sa, err := c.iamService.Projects.ServiceAccounts.Get(name).Context(ctx).Do()
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("get service account", err)
	}
	return &ServiceAccount{Email: sa.Email, DisplayName: sa.DisplayName}, nil
}

func (c *defaultIdentityClient) Create(
	ctx context.Context,
	project, accountID, displayName string,
) (*ServiceAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}

	sa, err := c.iamService.Projects.ServiceAccounts.Create("projects/"+project, req).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("create service account", err)
	}
	return &ServiceAccount{Email: sa.Email, DisplayName: sa.DisplayName}, nil
}

func (c *defaultIdentityClient) BindRole(ctx context.Context, project, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CloudOperationTimeout)
	defer cancel()

	resource := "projects/" + project
	policy, err := c.resourceManager.Projects.GetIamPolicy(resource, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	if !bindingExists(policy.Bindings, role, member) {
		policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
			Role:    role,
			Members: []string{member},
		})
	}

	_, err = c.resourceManager.Projects.SetIamPolicy(
		resource,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

func bindingExists(bindings []*cloudresourcemanager.Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role != role {
			continue
		}
		for _, m := range b.Members {
			if m == member {
				return true
			}
		}
	}
	return false
}

const computeOperationDone = "DONE"

func waitForGlobalOperation(ctx context.Context, service *compute.Service, project, opName string) error {
	for {
		op, err := service.GlobalOperations.Get(project, opName).Context(ctx).Do()
		if err != nil {
			return wrapError("poll compute global operation", err)
		}
		if op.Status == computeOperationDone {
			return operationError(op)
		}
		if err := sleepCtx(ctx, constants.OperationPollInterval); err != nil {
			return err
		}
	}
}

func operationError(op *compute.Operation) error {
	if op.Error != nil && len(op.Error.Errors) > 0 {
		return fmt.Errorf("operation error: %s", op.Error.Errors[0].Message)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func wrapError(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return false
}
