package gcp

// Instance is the typed record for a compute instance. List and describe
// results are deserialized into it so callers never split delimited text.
type Instance struct {
	Name        string
	Zone        string
	Status      string
	MachineType string
	Network     string
	InternalIP  string
	Labels      map[string]string
}

// InstanceSpec describes an instance to create. The startup script is
// opaque to this layer; it is attached as metadata verbatim.
type InstanceSpec struct {
	Name           string
	Zone           string
	MachineType    string
	Network        string
	Subnet         string
	Region         string
	ImageFamily    string
	ImageProject   string
	ServiceAccount string
	Labels         map[string]string
	StartupScript  string
}

// FirewallRule is the typed record for an ingress rule.
type FirewallRule struct {
	Name         string
	Network      string
	Protocol     string
	Ports        []string
	SourceRanges []string
	Priority     int64
}

// Peering is one direction of a VPC peering relationship.
type Peering struct {
	Name        string
	PeerNetwork string
	State       string
}

// Network is the typed record for a VPC network.
type Network struct {
	Name     string
	SelfLink string
}

// Subnetwork is the typed record for a subnet.
type Subnetwork struct {
	Name     string
	Region   string
	SelfLink string
}

// Cluster is the typed record for a managed cluster's topology and
// control-plane allow-list.
type Cluster struct {
	Name             string
	Network          string
	Subnetwork       string
	Endpoint         string
	AllowlistEnabled bool
	AllowlistCIDRs   []string
}

// ServiceAccount is the typed record for a service identity.
type ServiceAccount struct {
	Email       string
	DisplayName string
}
