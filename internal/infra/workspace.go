package infra

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/operationalinsights/armoperationalinsights"
)

func (p *azurePlatform) applyLogWorkspace(ctx context.Context, name string, spec LogWorkspaceSpec) (ApplyResult, error) {
	_, err := p.clients.WorkspacesClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	workspace := armoperationalinsights.Workspace{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindLogWorkspace),
		Properties: &armoperationalinsights.WorkspaceProperties{
			SKU: &armoperationalinsights.WorkspaceSKU{
				Name: to.Ptr(armoperationalinsights.WorkspaceSKUNameEnumPerGB2018),
			},
			RetentionInDays: to.Ptr(spec.RetentionDays),
		},
	}

	poller, err := p.clients.WorkspacesClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, name, workspace, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.Workspace.ID, Created: created}, nil
}

// workspaceLogCredentials returns the workspace customer ID and primary
// shared key, which the Container Apps environment needs for its log
// sink.
func (p *azurePlatform) workspaceLogCredentials(ctx context.Context, name string) (customerID, sharedKey string, err error) {
	workspace, err := p.clients.WorkspacesClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	if err != nil {
		return "", "", fmt.Errorf("reading log workspace %q: %w", name, err)
	}
	if workspace.Properties == nil || workspace.Properties.CustomerID == nil {
		return "", "", fmt.Errorf("log workspace %q has no customer ID", name)
	}

	keys, err := p.clients.SharedKeysClient.GetSharedKeys(ctx, p.clients.ResourceGroup, name, nil)
	if err != nil {
		return "", "", fmt.Errorf("reading shared keys for workspace %q: %w", name, err)
	}
	if keys.PrimarySharedKey == nil {
		return "", "", fmt.Errorf("log workspace %q has no primary shared key", name)
	}
	return *workspace.Properties.CustomerID, *keys.PrimarySharedKey, nil
}
