package infra

import "fmt"

// NodeKind identifies one resource kind in the deployment graph. The
// topology is fixed: each kind appears exactly once, so kinds double as
// node references in DependsOn sets.
type NodeKind string

const (
	KindNetwork         NodeKind = "network"
	KindLogWorkspace    NodeKind = "log-workspace"
	KindStorageAccount  NodeKind = "storage-account"
	KindFileShare       NodeKind = "file-share"
	KindPrivateEndpoint NodeKind = "private-endpoint"
	KindDNSZone         NodeKind = "dns-zone"
	KindDNSLink         NodeKind = "dns-link"
	KindDNSZoneGroup    NodeKind = "dns-zone-group"
	KindRegistry        NodeKind = "registry"
	KindEnvironment     NodeKind = "environment"
	KindStorageLink     NodeKind = "storage-link"
	KindApp             NodeKind = "app"
)

// ResourceNode is one declared piece of infrastructure. A node may not
// be submitted before every kind in DependsOn has been applied.
type ResourceNode struct {
	Kind      NodeKind
	Name      string
	DependsOn []NodeKind
	Spec      any
}

// Typed per-kind specs. The graph is built as structured data and only
// rendered into ARM types at the platform-call boundary.

type SubnetSpec struct {
	Name string
	CIDR string
	// Delegation is the service the subnet is delegated to, empty for
	// none
	Delegation string
}

type NetworkSpec struct {
	AddressSpace      string
	ComputeSubnet     SubnetSpec
	PrivateLinkSubnet SubnetSpec
}

type LogWorkspaceSpec struct {
	RetentionDays int32
}

type StorageAccountSpec struct {
	// PublicNetworkAccess stays disabled; the file share is reached
	// through the private endpoint only
	AllowPublicAccess bool
}

type FileShareSpec struct {
	StorageAccount string
	QuotaGB        int32
}

type PrivateEndpointSpec struct {
	StorageAccount string
	NetworkName    string
	SubnetName     string
	GroupID        string
}

type DNSZoneSpec struct{}

type DNSLinkSpec struct {
	ZoneName    string
	NetworkName string
}

type DNSZoneGroupSpec struct {
	PrivateEndpointName string
	ZoneName            string
}

type RegistrySpec struct {
	AdminEnabled bool
}

type EnvironmentSpec struct {
	NetworkName       string
	ComputeSubnetName string
	LogWorkspaceName  string
}

type StorageLinkSpec struct {
	EnvironmentName string
	StorageAccount  string
	ShareName       string
}

type AppSpec struct {
	EnvironmentName string
	Image           string
	TargetPort      int32
}

// DeclareGraph returns the fixed deployment topology with names resolved
// from the seed. Pure: no I/O, no platform calls.
//
// Most edges mirror references the platform could follow on its own; the
// storage-link edges to dns-zone-group and dns-link are the exception.
// Mounting an Azure Files share into a Container Apps environment fails
// unless private DNS resolution for the storage endpoint is already
// wired, and nothing in the storage-link payload references the DNS
// resources, so the ordering must be declared explicitly.
func DeclareGraph(cfg DeploymentConfig, namer *Namer) []ResourceNode {
	return []ResourceNode{
		{
			Kind: KindNetwork,
			Name: namer.VNetName(),
			Spec: NetworkSpec{
				AddressSpace: vnetAddressSpace,
				ComputeSubnet: SubnetSpec{
					Name:       namer.ComputeSubnetName(),
					CIDR:       computeSubnetCIDR,
					Delegation: computeSubnetDelegation,
				},
				PrivateLinkSubnet: SubnetSpec{
					Name: namer.PrivateLinkSubnetName(),
					CIDR: privateLinkSubnetCIDR,
				},
			},
		},
		{
			Kind: KindLogWorkspace,
			Name: namer.LogWorkspaceName(),
			Spec: LogWorkspaceSpec{RetentionDays: 30},
		},
		{
			Kind: KindStorageAccount,
			Name: namer.StorageAccountName(),
			Spec: StorageAccountSpec{},
		},
		{
			Kind:      KindFileShare,
			Name:      namer.FileShareName(),
			DependsOn: []NodeKind{KindStorageAccount},
			Spec: FileShareSpec{
				StorageAccount: namer.StorageAccountName(),
				QuotaGB:        shareQuotaGB,
			},
		},
		{
			Kind:      KindPrivateEndpoint,
			Name:      namer.PrivateEndpointName(),
			DependsOn: []NodeKind{KindStorageAccount, KindNetwork},
			Spec: PrivateEndpointSpec{
				StorageAccount: namer.StorageAccountName(),
				NetworkName:    namer.VNetName(),
				SubnetName:     namer.PrivateLinkSubnetName(),
				GroupID:        privateLinkGroupID,
			},
		},
		{
			Kind: KindDNSZone,
			Name: fileDNSZoneName,
			Spec: DNSZoneSpec{},
		},
		{
			Kind:      KindDNSLink,
			Name:      namer.DNSLinkName(),
			DependsOn: []NodeKind{KindDNSZone, KindNetwork},
			Spec: DNSLinkSpec{
				ZoneName:    fileDNSZoneName,
				NetworkName: namer.VNetName(),
			},
		},
		{
			Kind:      KindDNSZoneGroup,
			Name:      namer.DNSZoneGroupName(),
			DependsOn: []NodeKind{KindPrivateEndpoint, KindDNSZone},
			Spec: DNSZoneGroupSpec{
				PrivateEndpointName: namer.PrivateEndpointName(),
				ZoneName:            fileDNSZoneName,
			},
		},
		{
			Kind: KindRegistry,
			Name: namer.RegistryName(),
			Spec: RegistrySpec{AdminEnabled: true},
		},
		{
			Kind:      KindEnvironment,
			Name:      namer.EnvironmentName(),
			DependsOn: []NodeKind{KindNetwork, KindLogWorkspace},
			Spec: EnvironmentSpec{
				NetworkName:       namer.VNetName(),
				ComputeSubnetName: namer.ComputeSubnetName(),
				LogWorkspaceName:  namer.LogWorkspaceName(),
			},
		},
		{
			Kind:      KindStorageLink,
			Name:      namer.StorageLinkName(),
			DependsOn: []NodeKind{KindDNSZoneGroup, KindDNSLink, KindFileShare, KindEnvironment},
			Spec: StorageLinkSpec{
				EnvironmentName: namer.EnvironmentName(),
				StorageAccount:  namer.StorageAccountName(),
				ShareName:       namer.FileShareName(),
			},
		},
		{
			Kind:      KindApp,
			Name:      namer.AppName(),
			DependsOn: []NodeKind{KindEnvironment, KindStorageLink},
			Spec: AppSpec{
				EnvironmentName: namer.EnvironmentName(),
				Image:           placeholderImage,
				TargetPort:      appTargetPort,
			},
		},
	}
}

// ValidateGraph checks that every DependsOn reference names a node
// present in the graph and that the graph is acyclic. Static, no
// platform calls.
func ValidateGraph(graph []ResourceNode) error {
	present := make(map[NodeKind]bool, len(graph))
	for _, node := range graph {
		if present[node.Kind] {
			return fmt.Errorf("duplicate node kind %q", node.Kind)
		}
		present[node.Kind] = true
	}
	for _, node := range graph {
		for _, dep := range node.DependsOn {
			if !present[dep] {
				return &DependencyUnresolvedError{Kind: node.Kind, Missing: string(dep)}
			}
		}
	}
	if _, err := TopologicalOrder(graph); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder returns the graph's nodes in an order satisfying
// every dependency edge. Ties are broken by declaration order so the
// submission sequence is deterministic across runs.
func TopologicalOrder(graph []ResourceNode) ([]ResourceNode, error) {
	indegree := make(map[NodeKind]int, len(graph))
	for _, node := range graph {
		indegree[node.Kind] = len(node.DependsOn)
	}

	ordered := make([]ResourceNode, 0, len(graph))
	done := make(map[NodeKind]bool, len(graph))
	for len(ordered) < len(graph) {
		progressed := false
		for _, node := range graph {
			if done[node.Kind] || indegree[node.Kind] != 0 {
				continue
			}
			ordered = append(ordered, node)
			done[node.Kind] = true
			for _, other := range graph {
				for _, dep := range other.DependsOn {
					if dep == node.Kind {
						indegree[other.Kind]--
					}
				}
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("dependency cycle in resource graph")
		}
	}
	return ordered, nil
}
