package infra

import (
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
)

// Default deployment configuration
const (
	DefaultLocation  = "westus2"
	DefaultSourceDir = "./app"
	DefaultModel     = "small"
)

// Network configuration
const (
	vnetAddressSpace = "10.0.0.0/16"

	// Container Apps environments require a delegated subnet of at
	// least /23
	computeSubnetCIDR     = "10.0.0.0/23"
	privateLinkSubnetCIDR = "10.0.2.0/24"

	computeSubnetDelegation = "Microsoft.App/environments"
)

// Private DNS configuration. The zone name for Azure Files private
// endpoints is fixed by the platform and must not be derived.
const (
	fileDNSZoneName    = "privatelink.file.core.windows.net"
	privateLinkGroupID = "file"
)

// Application configuration
const (
	appContainerName = "modelbox"
	appMountPath     = "/data"
	appTargetPort    = 8080

	// Container Apps secret names
	registrySecretName = "registry-password"
	tokenSecretName    = "api-token"

	// Environment variable the app reads the access token from
	tokenEnvName = "MODELBOX_API_TOKEN"

	// Image used by the declarative phase before the real image exists
	// in the registry
	placeholderImage = "mcr.microsoft.com/k8se/quickstart:latest"
)

// Resource tags. Discovery in the imperative phase queries by these.
const (
	TagKeyDeployment = "modelbox:deployment"
	TagKeyRole       = "modelbox:role"
	TagKeyRun        = "modelbox:run"
)

// Azure resource types for Resource Graph queries
const (
	AzureResourceTypeRegistry     = "microsoft.containerregistry/registries"
	AzureResourceTypeContainerApp = "microsoft.app/containerapps"
	AzureResourceTypeManagedEnv   = "microsoft.app/managedenvironments"
)

// Sizing defaults for the application container
const (
	appCPUCores  = 1.0
	appMemoryGi  = "2Gi"
	shareQuotaGB = 100
)

// Timeout constants
const (
	// Maximum wait for the app to report a ready revision after a
	// full-replace update
	AppReadyTimeout  = 10 * time.Minute
	AppReadyInterval = 10 * time.Second

	// Maximum wait for phase-1 resources to be visible in Resource Graph
	DiscoveryTimeout  = 2 * time.Minute
	DiscoveryInterval = 5 * time.Second
)

// Default polling options for Azure long-running operations
var DefaultPollOptions = runtime.PollUntilDoneOptions{
	Frequency: 2 * time.Second,
}
