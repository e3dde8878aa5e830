package infra

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"
)

func (p *azurePlatform) applyNetwork(ctx context.Context, name string, spec NetworkSpec) (ApplyResult, error) {
	_, err := p.clients.NetworkClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	subnets := []*armnetwork.Subnet{
		{
			Name: to.Ptr(spec.ComputeSubnet.Name),
			Properties: &armnetwork.SubnetPropertiesFormat{
				AddressPrefix: to.Ptr(spec.ComputeSubnet.CIDR),
				Delegations: []*armnetwork.Delegation{
					{
						Name: to.Ptr("appenv"),
						Properties: &armnetwork.ServiceDelegationPropertiesFormat{
							ServiceName: to.Ptr(spec.ComputeSubnet.Delegation),
						},
					},
				},
			},
		},
		{
			Name: to.Ptr(spec.PrivateLinkSubnet.Name),
			Properties: &armnetwork.SubnetPropertiesFormat{
				AddressPrefix: to.Ptr(spec.PrivateLinkSubnet.CIDR),
				// Required for private endpoint placement
				PrivateEndpointNetworkPolicies: to.Ptr(armnetwork.VirtualNetworkPrivateEndpointNetworkPoliciesDisabled),
			},
		},
	}

	vnetParams := armnetwork.VirtualNetwork{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindNetwork),
		Properties: &armnetwork.VirtualNetworkPropertiesFormat{
			AddressSpace: &armnetwork.AddressSpace{
				AddressPrefixes: []*string{to.Ptr(spec.AddressSpace)},
			},
			Subnets: subnets,
		},
	}

	poller, err := p.clients.NetworkClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, name, vnetParams, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}

	outputs := map[string]string{}
	for _, subnet := range result.VirtualNetwork.Properties.Subnets {
		switch *subnet.Name {
		case spec.ComputeSubnet.Name:
			outputs[OutputComputeSubnetID] = *subnet.ID
		case spec.PrivateLinkSubnet.Name:
			outputs[OutputPrivateSubnetID] = *subnet.ID
		}
	}
	if outputs[OutputComputeSubnetID] == "" || outputs[OutputPrivateSubnetID] == "" {
		return ApplyResult{}, fmt.Errorf("missing subnets in virtual network %q", name)
	}

	return ApplyResult{ID: *result.VirtualNetwork.ID, Created: created, Outputs: outputs}, nil
}

func (p *azurePlatform) applyPrivateEndpoint(ctx context.Context, name string, spec PrivateEndpointSpec) (ApplyResult, error) {
	_, err := p.clients.EndpointClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	storageID := p.resourceID("Microsoft.Storage", "storageAccounts", spec.StorageAccount)
	params := armnetwork.PrivateEndpoint{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindPrivateEndpoint),
		Properties: &armnetwork.PrivateEndpointProperties{
			Subnet: &armnetwork.Subnet{
				ID: to.Ptr(p.subnetID(spec.NetworkName, spec.SubnetName)),
			},
			PrivateLinkServiceConnections: []*armnetwork.PrivateLinkServiceConnection{
				{
					Name: to.Ptr(name),
					Properties: &armnetwork.PrivateLinkServiceConnectionProperties{
						PrivateLinkServiceID: to.Ptr(storageID),
						GroupIDs:             []*string{to.Ptr(spec.GroupID)},
					},
				},
			},
		},
	}

	poller, err := p.clients.EndpointClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, name, params, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.PrivateEndpoint.ID, Created: created}, nil
}

func (p *azurePlatform) applyDNSZoneGroup(ctx context.Context, name string, spec DNSZoneGroupSpec) (ApplyResult, error) {
	_, err := p.clients.ZoneGroupClient.Get(ctx, p.clients.ResourceGroup, spec.PrivateEndpointName, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	zoneID := p.resourceID("Microsoft.Network", "privateDnsZones", spec.ZoneName)
	params := armnetwork.PrivateDNSZoneGroup{
		Properties: &armnetwork.PrivateDNSZoneGroupPropertiesFormat{
			PrivateDNSZoneConfigs: []*armnetwork.PrivateDNSZoneConfig{
				{
					Name: to.Ptr("files"),
					Properties: &armnetwork.PrivateDNSZonePropertiesFormat{
						PrivateDNSZoneID: to.Ptr(zoneID),
					},
				},
			},
		},
	}

	poller, err := p.clients.ZoneGroupClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, spec.PrivateEndpointName, name, params, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.PrivateDNSZoneGroup.ID, Created: created}, nil
}
