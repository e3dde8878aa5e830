package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
)

// Discovery is the set of phase-1 identifiers the imperative phase needs.
// All of them were auto-derived from the seed, so the operator never
// re-supplies them; they are located through the platform instead.
type Discovery struct {
	RegistryName    string
	RegistryID      string
	EnvironmentName string
	AppName         string
	AppID           string
	StorageLinkName string
}

// Discoverer locates the resources a prior declarative phase created.
type Discoverer interface {
	Discover(ctx context.Context) (*Discovery, error)
}

// azureDiscoverer queries Azure Resource Graph for resources carrying
// this deployment's tags.
type azureDiscoverer struct {
	clients *AzureClients
	namer   *Namer
}

// NewAzureDiscoverer returns the Resource-Graph-backed discoverer.
func NewAzureDiscoverer(clients *AzureClients, namer *Namer) Discoverer {
	return &azureDiscoverer{clients: clients, namer: namer}
}

const queryTaggedByType = `Resources
| where resourceGroup =~ '%s'
| where tags['%s'] =~ '%s'
| where type =~ '%s'
| project name, id, tags`

// taggedResource returns the single resource of the given type carrying
// this deployment's tag, or "" when none is visible yet.
func (d *azureDiscoverer) taggedResource(ctx context.Context, resourceType string) (name, id string, err error) {
	query := fmt.Sprintf(queryTaggedByType,
		d.clients.ResourceGroup,
		TagKeyDeployment,
		d.namer.Digest(),
		resourceType)
	slog.Debug("executing Resource Graph query", "query", query)

	result, err := d.clients.ResourceGraphClient.Resources(ctx, armresourcegraph.QueryRequest{
		Query: to.Ptr(query),
		Subscriptions: []*string{
			to.Ptr(d.clients.SubscriptionID),
		},
	}, nil)
	if err != nil {
		return "", "", fmt.Errorf("resource graph query for %s: %w", resourceType, err)
	}

	rows, ok := result.Data.([]interface{})
	if !ok || len(rows) == 0 {
		return "", "", nil
	}
	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return "", "", nil
	}
	name, _ = row["name"].(string)
	id, _ = row["id"].(string)
	return name, id, nil
}

// waitVisible polls lookup until it reports a resource. Resource Graph
// indexes new resources with a lag of seconds to minutes, so absence
// right after phase 1 is normal; only absence past the deadline is a
// missing dependency.
func waitVisible(ctx context.Context, lookup func(context.Context) (string, string, error), kind NodeKind, derivedName string, timeout, interval time.Duration) (string, string, error) {
	var name, id string
	err := RetryOperation(ctx, func(ctx context.Context) error {
		n, rid, err := lookup(ctx)
		if err != nil {
			return err
		}
		if n == "" {
			return &DependencyUnresolvedError{Kind: kind, Missing: derivedName}
		}
		name, id = n, rid
		return nil
	}, timeout, interval, fmt.Sprintf("%s visible in resource graph", kind))
	if err != nil {
		var depErr *DependencyUnresolvedError
		if errors.As(err, &depErr) {
			return "", "", depErr
		}
		return "", "", err
	}
	return name, id, nil
}

// Discover fails when phase-1 resources never become visible: a missing
// registry or application means the declarative phase never ran against
// this target, and a degraded partial deployment would be worse than an
// error.
func (d *azureDiscoverer) Discover(ctx context.Context) (*Discovery, error) {
	registryName, registryID, err := waitVisible(ctx, func(ctx context.Context) (string, string, error) {
		return d.taggedResource(ctx, AzureResourceTypeRegistry)
	}, KindRegistry, d.namer.RegistryName(), DiscoveryTimeout, DiscoveryInterval)
	if err != nil {
		return nil, err
	}

	envName, _, err := waitVisible(ctx, func(ctx context.Context) (string, string, error) {
		return d.taggedResource(ctx, AzureResourceTypeManagedEnv)
	}, KindEnvironment, d.namer.EnvironmentName(), DiscoveryTimeout, DiscoveryInterval)
	if err != nil {
		return nil, err
	}

	appName, appID, err := waitVisible(ctx, func(ctx context.Context) (string, string, error) {
		return d.taggedResource(ctx, AzureResourceTypeContainerApp)
	}, KindApp, d.namer.AppName(), DiscoveryTimeout, DiscoveryInterval)
	if err != nil {
		return nil, err
	}

	// The storage link is a child resource invisible to Resource Graph;
	// its derived name is verified directly against the environment.
	storageLinkName := d.namer.StorageLinkName()
	if _, err := d.clients.EnvStoragesClient.Get(ctx, d.clients.ResourceGroup, envName, storageLinkName, nil); err != nil {
		if isNotFound(err) {
			return nil, &DependencyUnresolvedError{Kind: KindStorageLink, Missing: storageLinkName}
		}
		return nil, fmt.Errorf("verifying storage link %q: %w", storageLinkName, err)
	}

	return &Discovery{
		RegistryName:    registryName,
		RegistryID:      registryID,
		EnvironmentName: envName,
		AppName:         appName,
		AppID:           appID,
		StorageLinkName: storageLinkName,
	}, nil
}
