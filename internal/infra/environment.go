package infra

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appcontainers/armappcontainers/v3"
)

func (p *azurePlatform) applyEnvironment(ctx context.Context, name string, spec EnvironmentSpec) (ApplyResult, error) {
	_, err := p.clients.EnvironmentsClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	customerID, sharedKey, err := p.workspaceLogCredentials(ctx, spec.LogWorkspaceName)
	if err != nil {
		return ApplyResult{}, err
	}

	env := armappcontainers.ManagedEnvironment{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindEnvironment),
		Properties: &armappcontainers.ManagedEnvironmentProperties{
			AppLogsConfiguration: &armappcontainers.AppLogsConfiguration{
				Destination: to.Ptr("log-analytics"),
				LogAnalyticsConfiguration: &armappcontainers.LogAnalyticsConfiguration{
					CustomerID: to.Ptr(customerID),
					SharedKey:  to.Ptr(sharedKey),
				},
			},
			VnetConfiguration: &armappcontainers.VnetConfiguration{
				InfrastructureSubnetID: to.Ptr(p.subnetID(spec.NetworkName, spec.ComputeSubnetName)),
			},
		},
	}

	poller, err := p.clients.EnvironmentsClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, name, env, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.ManagedEnvironment.ID, Created: created}, nil
}

// applyStorageLink attaches the file share to the environment. Its graph
// node depends on the DNS zone group and network link explicitly: the
// mount payload never references the DNS resources, yet mounting fails
// until private name resolution for the storage endpoint is in place.
func (p *azurePlatform) applyStorageLink(ctx context.Context, name string, spec StorageLinkSpec) (ApplyResult, error) {
	_, err := p.clients.EnvStoragesClient.Get(ctx, p.clients.ResourceGroup, spec.EnvironmentName, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	accountKey, err := p.storageAccountKey(ctx, spec.StorageAccount)
	if err != nil {
		return ApplyResult{}, err
	}

	storage := armappcontainers.ManagedEnvironmentStorage{
		Properties: &armappcontainers.ManagedEnvironmentStorageProperties{
			AzureFile: &armappcontainers.AzureFileProperties{
				AccountName: to.Ptr(spec.StorageAccount),
				AccountKey:  to.Ptr(accountKey),
				ShareName:   to.Ptr(spec.ShareName),
				AccessMode:  to.Ptr(armappcontainers.AccessModeReadWrite),
			},
		},
	}

	result, err := p.clients.EnvStoragesClient.CreateOrUpdate(ctx, p.clients.ResourceGroup, spec.EnvironmentName, name, storage, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.ManagedEnvironmentStorage.ID, Created: created}, nil
}
