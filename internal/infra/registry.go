package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
)

func (p *azurePlatform) applyRegistry(ctx context.Context, name string, spec RegistrySpec) (ApplyResult, error) {
	_, err := p.clients.RegistryClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	created, err := probeExistence(err)
	if err != nil {
		return ApplyResult{}, err
	}

	registry := armcontainerregistry.Registry{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindRegistry),
		SKU: &armcontainerregistry.SKU{
			Name: to.Ptr(armcontainerregistry.SKUNameBasic),
		},
		Properties: &armcontainerregistry.RegistryProperties{
			// Admin credentials are what phase 2 threads into the app's
			// registry secret
			AdminUserEnabled: to.Ptr(spec.AdminEnabled),
		},
	}

	poller, err := p.clients.RegistryClient.BeginCreate(ctx, p.clients.ResourceGroup, name, registry, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}

	outputs := map[string]string{}
	if result.Registry.Properties != nil && result.Registry.Properties.LoginServer != nil {
		outputs[OutputLoginServer] = *result.Registry.Properties.LoginServer
	}
	return ApplyResult{ID: *result.Registry.ID, Created: created, Outputs: outputs}, nil
}

// RegistryCredential is the admin credential of the deployment's
// registry, retrieved after creation.
type RegistryCredential struct {
	LoginServer string
	Username    string
	Password    string
}

// RegistryService is the imperative half of the registry: building an
// artifact into it and retrieving its credentials.
type RegistryService interface {
	Build(ctx context.Context, registryName, imageRef, sourceDir string) error
	Credentials(ctx context.Context, registryName string) (RegistryCredential, error)
}

type azureRegistryService struct {
	clients *AzureClients
}

// NewAzureRegistryService returns the ACR-backed registry service. The
// build itself runs remotely in ACR via the az CLI, the same way the
// subscription tooling drives other one-shot az operations.
func NewAzureRegistryService(clients *AzureClients) RegistryService {
	return &azureRegistryService{clients: clients}
}

func (s *azureRegistryService) Build(ctx context.Context, registryName, imageRef, sourceDir string) error {
	slog.Info("building image", "registry", registryName, "image", imageRef, "source", sourceDir)

	cmd := exec.CommandContext(ctx, "az", "acr", "build",
		"--registry", registryName,
		"--image", imageRef,
		sourceDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &ArtifactBuildError{Registry: registryName, Output: string(output), Err: err}
	}
	return nil
}

func (s *azureRegistryService) Credentials(ctx context.Context, registryName string) (RegistryCredential, error) {
	registry, err := s.clients.RegistryClient.Get(ctx, s.clients.ResourceGroup, registryName, nil)
	if err != nil {
		return RegistryCredential{}, &CredentialDiscoveryError{Registry: registryName, Err: err}
	}
	if registry.Properties == nil || registry.Properties.LoginServer == nil {
		return RegistryCredential{}, &CredentialDiscoveryError{Registry: registryName, Err: fmt.Errorf("registry has no login server")}
	}

	creds, err := s.clients.RegistryClient.ListCredentials(ctx, s.clients.ResourceGroup, registryName, nil)
	if err != nil {
		return RegistryCredential{}, &CredentialDiscoveryError{Registry: registryName, Err: err}
	}
	if creds.Username == nil || len(creds.Passwords) == 0 || creds.Passwords[0].Value == nil {
		return RegistryCredential{}, &CredentialDiscoveryError{Registry: registryName, Err: fmt.Errorf("admin credentials not enabled")}
	}

	return RegistryCredential{
		LoginServer: *registry.Properties.LoginServer,
		Username:    *creds.Username,
		Password:    *creds.Passwords[0].Value,
	}, nil
}
