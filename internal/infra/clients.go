package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appcontainers/armappcontainers/v3"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/operationalinsights/armoperationalinsights"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/privatedns/armprivatedns"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"golang.org/x/sync/errgroup"
)

func FatalOnError(err error, message string) {
	if err != nil {
		slog.Error(message, "error", err)
		os.Exit(1)
	}
}

// AzureClients holds all the Azure SDK clients needed for a deployment
type AzureClients struct {
	Cred           azcore.TokenCredential
	SubscriptionID string
	ResourceGroup  string

	ResourceClient      *armresources.ResourceGroupsClient
	NetworkClient       *armnetwork.VirtualNetworksClient
	EndpointClient      *armnetwork.PrivateEndpointsClient
	ZoneGroupClient     *armnetwork.PrivateDNSZoneGroupsClient
	StorageClient       *armstorage.AccountsClient
	SharesClient        *armstorage.FileSharesClient
	ZonesClient         *armprivatedns.PrivateZonesClient
	LinksClient         *armprivatedns.VirtualNetworkLinksClient
	RegistryClient      *armcontainerregistry.RegistriesClient
	WorkspacesClient    *armoperationalinsights.WorkspacesClient
	SharedKeysClient    *armoperationalinsights.SharedKeysClient
	EnvironmentsClient  *armappcontainers.ManagedEnvironmentsClient
	EnvStoragesClient   *armappcontainers.ManagedEnvironmentsStoragesClient
	AppsClient          *armappcontainers.ContainerAppsClient
	ResourceGraphClient *armresourcegraph.Client
}

func createAzureClients(clients *AzureClients) {
	sub, cred := clients.SubscriptionID, clients.Cred

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		clients.ResourceClient, err = armresources.NewResourceGroupsClient(sub, cred, nil)
		FatalOnError(err, "failed to create resource group client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.NetworkClient, err = armnetwork.NewVirtualNetworksClient(sub, cred, nil)
		FatalOnError(err, "failed to create network client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.EndpointClient, err = armnetwork.NewPrivateEndpointsClient(sub, cred, nil)
		FatalOnError(err, "failed to create private endpoint client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.ZoneGroupClient, err = armnetwork.NewPrivateDNSZoneGroupsClient(sub, cred, nil)
		FatalOnError(err, "failed to create DNS zone group client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.StorageClient, err = armstorage.NewAccountsClient(sub, cred, nil)
		FatalOnError(err, "failed to create storage client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.SharesClient, err = armstorage.NewFileSharesClient(sub, cred, nil)
		FatalOnError(err, "failed to create file shares client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.ZonesClient, err = armprivatedns.NewPrivateZonesClient(sub, cred, nil)
		FatalOnError(err, "failed to create private DNS zones client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.LinksClient, err = armprivatedns.NewVirtualNetworkLinksClient(sub, cred, nil)
		FatalOnError(err, "failed to create DNS network links client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.RegistryClient, err = armcontainerregistry.NewRegistriesClient(sub, cred, nil)
		FatalOnError(err, "failed to create registry client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.WorkspacesClient, err = armoperationalinsights.NewWorkspacesClient(sub, cred, nil)
		FatalOnError(err, "failed to create log workspaces client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.SharedKeysClient, err = armoperationalinsights.NewSharedKeysClient(sub, cred, nil)
		FatalOnError(err, "failed to create workspace keys client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.EnvironmentsClient, err = armappcontainers.NewManagedEnvironmentsClient(sub, cred, nil)
		FatalOnError(err, "failed to create environments client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.EnvStoragesClient, err = armappcontainers.NewManagedEnvironmentsStoragesClient(sub, cred, nil)
		FatalOnError(err, "failed to create environment storages client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.AppsClient, err = armappcontainers.NewContainerAppsClient(sub, cred, nil)
		FatalOnError(err, "failed to create container apps client")
		return nil
	})
	g.Go(func() error {
		var err error
		clients.ResourceGraphClient, err = armresourcegraph.NewClient(cred, nil)
		FatalOnError(err, "failed to create resource graph client")
		return nil
	})

	_ = g.Wait() // constructors fail through FatalOnError
}

// discoverSubscription waits for the credential to resolve to a usable
// subscription. Freshly assigned role bindings can take minutes to
// propagate, same as any other ARM eventual consistency.
func discoverSubscription(ctx context.Context, cred azcore.TokenCredential) string {
	var subscriptionID string
	err := RetryOperation(ctx, func(ctx context.Context) error {
		client, err := armsubscriptions.NewClient(cred, nil)
		if err != nil {
			return err
		}
		pager := client.NewListPager(nil)
		page, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		if len(page.Value) == 0 {
			return fmt.Errorf("no subscriptions found")
		}
		subscriptionID = *page.Value[0].SubscriptionID
		return nil
	}, 5*time.Minute, 5*time.Second, "discover subscription")
	FatalOnError(err, "subscription discovery failed")
	return subscriptionID
}

// NewAzureClients creates all Azure clients using credential-based
// subscription ID discovery
func NewAzureClients(cfg DeploymentConfig) *AzureClients {
	var cred azcore.TokenCredential
	var err error

	if cfg.UseAzureCLI {
		cred, err = azidentity.NewAzureCLICredential(nil)
		FatalOnError(err, "failed to create Azure CLI credential")
	} else {
		cred, err = azidentity.NewManagedIdentityCredential(nil)
		FatalOnError(err, "failed to create managed identity credential")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	subscriptionID := discoverSubscription(ctx, cred)
	slog.Info("subscription resolved", "subscription", subscriptionID)

	clients := &AzureClients{
		Cred:           cred,
		SubscriptionID: subscriptionID,
		ResourceGroup:  cfg.ResourceGroup,
	}
	createAzureClients(clients)
	return clients
}
