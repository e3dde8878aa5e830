package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
)

// azurePlatform implements PlatformClient against ARM. Every kind is
// applied with create-or-update semantics, so a second apply of an
// unchanged graph reconciles instead of erroring.
type azurePlatform struct {
	clients *AzureClients
	cfg     DeploymentConfig
	tags    map[string]*string
}

// NewAzurePlatform returns the ARM-backed platform client. Every created
// resource carries the deployment tags so the imperative phase can
// discover it later without the caller re-supplying names.
func NewAzurePlatform(clients *AzureClients, cfg DeploymentConfig, namer *Namer) PlatformClient {
	return &azurePlatform{
		clients: clients,
		cfg:     cfg,
		tags: map[string]*string{
			TagKeyDeployment: to.Ptr(namer.Digest()),
		},
	}
}

func (p *azurePlatform) EnsureGroup(ctx context.Context) error {
	_, err := p.clients.ResourceClient.CreateOrUpdate(ctx, p.cfg.ResourceGroup, armresources.ResourceGroup{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tags,
	}, nil)
	if err != nil {
		return fmt.Errorf("creating resource group %q: %w", p.cfg.ResourceGroup, err)
	}
	return nil
}

func (p *azurePlatform) ApplyNode(ctx context.Context, node ResourceNode) (ApplyResult, error) {
	switch spec := node.Spec.(type) {
	case NetworkSpec:
		return p.applyNetwork(ctx, node.Name, spec)
	case LogWorkspaceSpec:
		return p.applyLogWorkspace(ctx, node.Name, spec)
	case StorageAccountSpec:
		return p.applyStorageAccount(ctx, node.Name, spec)
	case FileShareSpec:
		return p.applyFileShare(ctx, node.Name, spec)
	case PrivateEndpointSpec:
		return p.applyPrivateEndpoint(ctx, node.Name, spec)
	case DNSZoneSpec:
		return p.applyDNSZone(ctx, node.Name)
	case DNSLinkSpec:
		return p.applyDNSLink(ctx, node.Name, spec)
	case DNSZoneGroupSpec:
		return p.applyDNSZoneGroup(ctx, node.Name, spec)
	case RegistrySpec:
		return p.applyRegistry(ctx, node.Name, spec)
	case EnvironmentSpec:
		return p.applyEnvironment(ctx, node.Name, spec)
	case StorageLinkSpec:
		return p.applyStorageLink(ctx, node.Name, spec)
	case AppSpec:
		return p.applyPlaceholderApp(ctx, node.Name, spec)
	default:
		return ApplyResult{}, fmt.Errorf("unknown spec type %T for node %q", node.Spec, node.Name)
	}
}

// tagged merges per-node role information into the deployment tags.
func (p *azurePlatform) tagged(kind NodeKind) map[string]*string {
	tags := make(map[string]*string, len(p.tags)+1)
	for k, v := range p.tags {
		tags[k] = v
	}
	tags[TagKeyRole] = to.Ptr(string(kind))
	return tags
}

// ARM resource IDs are a pure function of subscription, group and name,
// so cross-node references never need state carried between applies.
func (p *azurePlatform) resourceID(provider, resourceType, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s/%s",
		p.clients.SubscriptionID, p.clients.ResourceGroup, provider, resourceType, name)
}

func (p *azurePlatform) subnetID(vnetName, subnetName string) string {
	return p.resourceID("Microsoft.Network", "virtualNetworks", vnetName) + "/subnets/" + subnetName
}

// isNotFound reports whether err is an ARM 404, the signal that a
// create-or-update is a net-new creation.
func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// probeExistence interprets the pre-apply Get error: nil means the apply
// reconciles an existing resource, a 404 means it creates a new one, and
// any other failure aborts before a create is attempted.
func probeExistence(err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if isNotFound(err) {
		return true, nil
	}
	return false, err
}
