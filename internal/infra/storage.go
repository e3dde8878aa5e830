package infra

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
)

func (p *azurePlatform) applyStorageAccount(ctx context.Context, name string, spec StorageAccountSpec) (ApplyResult, error) {
	_, err := p.clients.StorageClient.GetProperties(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	publicAccess := armstorage.PublicNetworkAccessDisabled
	if spec.AllowPublicAccess {
		publicAccess = armstorage.PublicNetworkAccessEnabled
	}

	params := armstorage.AccountCreateParameters{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindStorageAccount),
		Kind:     to.Ptr(armstorage.KindStorageV2),
		SKU: &armstorage.SKU{
			Name: to.Ptr(armstorage.SKUNameStandardLRS),
		},
		Properties: &armstorage.AccountPropertiesCreateParameters{
			AllowBlobPublicAccess: to.Ptr(false),
			MinimumTLSVersion:     to.Ptr(armstorage.MinimumTLSVersionTLS12),
			PublicNetworkAccess:   to.Ptr(publicAccess),
		},
	}

	poller, err := p.clients.StorageClient.BeginCreate(ctx, p.clients.ResourceGroup, name, params, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.Account.ID, Created: created}, nil
}

func (p *azurePlatform) applyFileShare(ctx context.Context, name string, spec FileShareSpec) (ApplyResult, error) {
	_, err := p.clients.SharesClient.Get(ctx, p.clients.ResourceGroup, spec.StorageAccount, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	share := armstorage.FileShare{
		FileShareProperties: &armstorage.FileShareProperties{
			ShareQuota:       to.Ptr(spec.QuotaGB),
			EnabledProtocols: to.Ptr(armstorage.EnabledProtocolsSMB),
		},
	}

	result, err := p.clients.SharesClient.Create(ctx, p.clients.ResourceGroup, spec.StorageAccount, name, share, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.FileShare.ID, Created: created}, nil
}

// storageAccountKey fetches the primary access key, needed to attach the
// file share to the Container Apps environment.
func (p *azurePlatform) storageAccountKey(ctx context.Context, account string) (string, error) {
	keys, err := p.clients.StorageClient.ListKeys(ctx, p.clients.ResourceGroup, account, nil)
	if err != nil {
		return "", fmt.Errorf("listing keys for storage account %q: %w", account, err)
	}
	if len(keys.Keys) == 0 || keys.Keys[0].Value == nil {
		return "", fmt.Errorf("storage account %q returned no keys", account)
	}
	return *keys.Keys[0].Value, nil
}
