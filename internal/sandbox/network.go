package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
)

// TopologyResolver resolves cluster network topology, bridges separate
// networks via peering, and maintains the cluster's control-plane
// allow-list.
type TopologyResolver struct {
	Clusters    gcp.ClustersClient
	Networks    gcp.NetworksClient
	Subnetworks gcp.SubnetworksClient
	Log         *slog.Logger
}

// NewTopologyResolver returns a resolver over the given clients.
func NewTopologyResolver(
	clusters gcp.ClustersClient,
	networks gcp.NetworksClient,
	subnetworks gcp.SubnetworksClient,
	log *slog.Logger,
) *TopologyResolver {
	return &TopologyResolver{
		Clusters:    clusters,
		Networks:    networks,
		Subnetworks: subnetworks,
		Log:         log,
	}
}

// Topology is the resolved placement for a sandbox.
type Topology struct {
	Cluster *gcp.Cluster
	// Network and Subnet are where the sandbox will live: the cluster's
	// own network by default, or the operator-requested VPC.
	Network string
	Subnet  string
	// Peered is true when the sandbox network differs from the cluster's
	// and bidirectional peering is required.
	Peered bool
}

// Resolve looks up the cluster and decides sandbox placement. Lookup
// failures are fatal. When vpc/subnet are set the pair is validated to
// exist before anything is created.
func (r *TopologyResolver) Resolve(
	ctx context.Context,
	project, region, cluster, vpc, subnet string,
) (*Topology, error) {
	cl, err := r.Clusters.Get(ctx, project, region, cluster)
	if err != nil {
		return nil, apperrors.ErrCloud("failed to describe cluster "+cluster, err)
	}

	topo := &Topology{
		Cluster: cl,
		Network: cl.Network,
		Subnet:  cl.Subnetwork,
	}

	if vpc != "" {
		if _, err := r.Networks.Get(ctx, project, vpc); err != nil {
			return nil, apperrors.ErrCloud("failed to describe network "+vpc, err)
		}
		if _, err := r.Subnetworks.Get(ctx, project, region, subnet); err != nil {
			return nil, apperrors.ErrCloud("failed to describe subnet "+subnet, err)
		}
		topo.Network = vpc
		topo.Subnet = subnet
		topo.Peered = vpc != cl.Network
	}

	r.Log.Debug("resolved topology",
		"cluster", cluster, "network", topo.Network, "subnet", topo.Subnet, "peered", topo.Peered)
	return topo, nil
}

// PeeringName derives the deterministic name for the peering from one
// network to another.
func PeeringName(from, to string) string {
	return constants.PeeringNamePrefix + from + "-to-" + to
}

// EnsureBidirectionalPeering makes both directions of the peering
// between netA and netB exist and counts a direction as satisfied only
// when an entry targeting the other network is ACTIVE. The two
// directions are independent: either or both may already exist.
func (r *TopologyResolver) EnsureBidirectionalPeering(
	ctx context.Context,
	project, netA, netB string,
) (StepResult, error) {
	result := StepResult{Name: fmt.Sprintf("peering %s <-> %s", netA, netB)}

	createdAny := false
	for _, dir := range []struct{ from, to string }{{netA, netB}, {netB, netA}} {
		satisfied, err := r.peeringSatisfied(ctx, project, dir.from, dir.to)
		if err != nil {
			return result, err
		}
		if satisfied {
			r.Log.Debug("peering direction satisfied", "from", dir.from, "to", dir.to)
			continue
		}

		peer, err := r.Networks.Get(ctx, project, dir.to)
		if err != nil {
			return result, apperrors.ErrCloud("failed to describe network "+dir.to, err)
		}
		if err := r.Networks.AddPeering(ctx, project, dir.from,
			PeeringName(dir.from, dir.to), peer.SelfLink); err != nil {
			return result, apperrors.ErrCloud(
				fmt.Sprintf("failed to peer %s to %s", dir.from, dir.to), err)
		}
		r.Log.Info("created peering", "from", dir.from, "to", dir.to)
		createdAny = true
	}

	if createdAny {
		result.Outcome = OutcomeCreated
	} else {
		result.Outcome = OutcomeReused
	}
	return result, nil
}

func (r *TopologyResolver) peeringSatisfied(ctx context.Context, project, from, to string) (bool, error) {
	peerings, err := r.Networks.ListPeerings(ctx, project, from)
	if err != nil {
		return false, apperrors.ErrCloud("failed to list peerings on "+from, err)
	}
	for _, p := range peerings {
		if p.PeerNetwork == to && p.State == constants.PeeringStateActive {
			return true, nil
		}
	}
	return false, nil
}

// ToCIDR32 converts a bare address to its /32 form. Addresses already
// carrying a suffix are returned unchanged.
func ToCIDR32(address string) string {
	if strings.ContainsRune(address, '/') {
		return address
	}
	return address + "/32"
}

// MergeCIDRs unions the new block into existing, preserving order and
// never duplicating. The second return value is false when the block was
// already present.
func MergeCIDRs(existing []string, block string) ([]string, bool) {
	for _, c := range existing {
		if c == block {
			return existing, false
		}
	}
	merged := make([]string, 0, len(existing)+1)
	merged = append(merged, existing...)
	return append(merged, block), true
}

// MergeAuthorizedCIDR adds the sandbox address (as a /32) to the
// cluster's control-plane allow-list. The update always submits the full
// resulting list and enables the feature if it was off, because the
// underlying update is a full replace. Already-present addresses are a
// no-op.
func (r *TopologyResolver) MergeAuthorizedCIDR(
	ctx context.Context,
	project, region, cluster, address string,
) (StepResult, error) {
	block := ToCIDR32(address)
	result := StepResult{Name: "authorized network " + block}

	cl, err := r.Clusters.Get(ctx, project, region, cluster)
	if err != nil {
		return result, apperrors.ErrCloud("failed to describe cluster "+cluster, err)
	}

	merged, added := MergeCIDRs(cl.AllowlistCIDRs, block)
	if !added && cl.AllowlistEnabled {
		r.Log.Debug("address already authorized", "cidr", block, "cluster", cluster)
		result.Outcome = OutcomeReused
		return result, nil
	}

	if err := r.Clusters.UpdateAllowlist(ctx, project, region, cluster, true, merged); err != nil {
		return result, apperrors.ErrCloud("failed to update cluster allow-list", err)
	}

	r.Log.Info("authorized sandbox address", "cidr", block, "cluster", cluster)
	result.Outcome = OutcomeCreated
	return result, nil
}
