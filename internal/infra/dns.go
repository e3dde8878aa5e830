package infra

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/privatedns/armprivatedns"
)

// Private DNS zones are location-less; ARM requires the literal "global"
const dnsZoneLocation = "global"

func (p *azurePlatform) applyDNSZone(ctx context.Context, name string) (ApplyResult, error) {
	_, err := p.clients.ZonesClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	zone := armprivatedns.PrivateZone{
		Location: to.Ptr(dnsZoneLocation),
		Tags:     p.tagged(KindDNSZone),
	}

	poller, err := p.clients.ZonesClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, name, zone, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.PrivateZone.ID, Created: created}, nil
}

func (p *azurePlatform) applyDNSLink(ctx context.Context, name string, spec DNSLinkSpec) (ApplyResult, error) {
	_, err := p.clients.LinksClient.Get(ctx, p.clients.ResourceGroup, spec.ZoneName, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	link := armprivatedns.VirtualNetworkLink{
		Location: to.Ptr(dnsZoneLocation),
		Tags:     p.tagged(KindDNSLink),
		Properties: &armprivatedns.VirtualNetworkLinkProperties{
			VirtualNetwork: &armprivatedns.SubResource{
				ID: to.Ptr(p.resourceID("Microsoft.Network", "virtualNetworks", spec.NetworkName)),
			},
			RegistrationEnabled: to.Ptr(false),
		},
	}

	poller, err := p.clients.LinksClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, spec.ZoneName, name, link, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}
	return ApplyResult{ID: *result.VirtualNetworkLink.ID, Created: created}, nil
}
