package infra

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appcontainers/armappcontainers/v3"
)

const appVolumeName = "data"

// applyPlaceholderApp creates the application with a placeholder image.
// The real image cannot exist yet: it is built into the registry this
// same apply creates, so the runtime spec is owned by the imperative
// phase. If the app already exists the node is left untouched rather
// than reset to the placeholder.
func (p *azurePlatform) applyPlaceholderApp(ctx context.Context, name string, spec AppSpec) (ApplyResult, error) {
	existing, err := p.clients.AppsClient.Get(ctx, p.clients.ResourceGroup, name, nil)
	if err == nil {
		outputs := map[string]string{}
		if fqdn := appFQDN(existing.ContainerApp); fqdn != "" {
			outputs[OutputFQDN] = fqdn
		}
		return ApplyResult{ID: *existing.ContainerApp.ID, Created: false, Outputs: outputs}, nil
	}
	if !isNotFound(err) {
		return ApplyResult{}, err
	}

	envID := p.resourceID("Microsoft.App", "managedEnvironments", spec.EnvironmentName)
	app := armappcontainers.ContainerApp{
		Location: to.Ptr(p.cfg.Location),
		Tags:     p.tagged(KindApp),
		Properties: &armappcontainers.ContainerAppProperties{
			ManagedEnvironmentID: to.Ptr(envID),
			Configuration: &armappcontainers.Configuration{
				Ingress: &armappcontainers.Ingress{
					External:   to.Ptr(true),
					TargetPort: to.Ptr(spec.TargetPort),
				},
			},
			Template: &armappcontainers.Template{
				Containers: []*armappcontainers.Container{
					{
						Name:  to.Ptr(appContainerName),
						Image: to.Ptr(spec.Image),
						Resources: &armappcontainers.ContainerResources{
							CPU:    to.Ptr(appCPUCores),
							Memory: to.Ptr(appMemoryGi),
						},
					},
				},
				Scale: &armappcontainers.Scale{
					MinReplicas: to.Ptr(int32(1)),
					MaxReplicas: to.Ptr(int32(1)),
				},
			},
		},
	}

	poller, err := p.clients.AppsClient.BeginCreateOrUpdate(ctx, p.clients.ResourceGroup, name, app, nil)
	if err != nil {
		return ApplyResult{}, err
	}
	result, err := poller.PollUntilDone(ctx, &DefaultPollOptions)
	if err != nil {
		return ApplyResult{}, err
	}

	outputs := map[string]string{}
	if fqdn := appFQDN(result.ContainerApp); fqdn != "" {
		outputs[OutputFQDN] = fqdn
	}
	return ApplyResult{ID: *result.ContainerApp.ID, Created: true, Outputs: outputs}, nil
}

func appFQDN(app armappcontainers.ContainerApp) string {
	if app.Properties == nil ||
		app.Properties.Configuration == nil ||
		app.Properties.Configuration.Ingress == nil ||
		app.Properties.Configuration.Ingress.Fqdn == nil {
		return ""
	}
	return *app.Properties.Configuration.Ingress.Fqdn
}

// AppRuntimeSpec is the complete desired runtime state of the
// application. Phase 2 always submits the whole spec as a replacement;
// partial patches would let the running app drift from what the run
// intended.
type AppRuntimeSpec struct {
	EnvironmentName string
	Image           string
	Command         []string
	Registry        RegistryCredential
	AccessToken     string
	StorageName     string
	MountPath       string
	TargetPort      int32
	Env             map[string]string
}

// AppService is the imperative surface of the application node:
// full-replace updates, readiness, and remote command execution inside
// the running container.
type AppService interface {
	Replace(ctx context.Context, appName string, spec *AppRuntimeSpec) error
	WaitReady(ctx context.Context, appName string) (string, error)
	Exec(ctx context.Context, appName string, command []string) (string, error)
}

type azureAppService struct {
	clients  *AzureClients
	location string
	tags     map[string]*string
}

// NewAzureAppService returns the Container-Apps-backed app service.
func NewAzureAppService(clients *AzureClients, cfg DeploymentConfig, namer *Namer, runID string) AppService {
	return &azureAppService{
		clients:  clients,
		location: cfg.Location,
		tags: map[string]*string{
			TagKeyDeployment: to.Ptr(namer.Digest()),
			TagKeyRole:       to.Ptr(string(KindApp)),
			TagKeyRun:        to.Ptr(runID),
		},
	}
}

func (s *azureAppService) Replace(ctx context.Context, appName string, spec *AppRuntimeSpec) error {
	envID := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.App/managedEnvironments/%s",
		s.clients.SubscriptionID, s.clients.ResourceGroup, spec.EnvironmentName)

	env := []*armappcontainers.EnvironmentVar{
		{Name: to.Ptr(tokenEnvName), SecretRef: to.Ptr(tokenSecretName)},
	}
	for _, name := range sortedKeys(spec.Env) {
		env = append(env, &armappcontainers.EnvironmentVar{
			Name:  to.Ptr(name),
			Value: to.Ptr(spec.Env[name]),
		})
	}

	var command []*string
	for _, arg := range spec.Command {
		command = append(command, to.Ptr(arg))
	}

	app := armappcontainers.ContainerApp{
		Location: to.Ptr(s.location),
		Tags:     s.tags,
		Properties: &armappcontainers.ContainerAppProperties{
			ManagedEnvironmentID: to.Ptr(envID),
			Configuration: &armappcontainers.Configuration{
				Ingress: &armappcontainers.Ingress{
					External:   to.Ptr(true),
					TargetPort: to.Ptr(spec.TargetPort),
				},
				Secrets: []*armappcontainers.Secret{
					{Name: to.Ptr(registrySecretName), Value: to.Ptr(spec.Registry.Password)},
					{Name: to.Ptr(tokenSecretName), Value: to.Ptr(spec.AccessToken)},
				},
				Registries: []*armappcontainers.RegistryCredentials{
					{
						Server:            to.Ptr(spec.Registry.LoginServer),
						Username:          to.Ptr(spec.Registry.Username),
						PasswordSecretRef: to.Ptr(registrySecretName),
					},
				},
			},
			Template: &armappcontainers.Template{
				Containers: []*armappcontainers.Container{
					{
						Name:    to.Ptr(appContainerName),
						Image:   to.Ptr(spec.Image),
						Command: command,
						Env:     env,
						Resources: &armappcontainers.ContainerResources{
							CPU:    to.Ptr(appCPUCores),
							Memory: to.Ptr(appMemoryGi),
						},
						VolumeMounts: []*armappcontainers.VolumeMount{
							{VolumeName: to.Ptr(appVolumeName), MountPath: to.Ptr(spec.MountPath)},
						},
					},
				},
				Volumes: []*armappcontainers.Volume{
					{
						Name:        to.Ptr(appVolumeName),
						StorageType: to.Ptr(armappcontainers.StorageTypeAzureFile),
						StorageName: to.Ptr(spec.StorageName),
					},
				},
				Scale: &armappcontainers.Scale{
					MinReplicas: to.Ptr(int32(1)),
					MaxReplicas: to.Ptr(int32(1)),
				},
			},
		},
	}

	poller, err := s.clients.AppsClient.BeginCreateOrUpdate(ctx, s.clients.ResourceGroup, appName, app, nil)
	if err != nil {
		return fmt.Errorf("updating application %q: %w", appName, err)
	}
	if _, err := poller.PollUntilDone(ctx, &DefaultPollOptions); err != nil {
		return fmt.Errorf("updating application %q: %w", appName, err)
	}
	return nil
}

// WaitReady polls the app until the platform reports the update
// provisioned and an ingress address exists. Convergence after an update
// call returns is eventually consistent, so this is a bounded poll, not
// a fixed sleep.
func (s *azureAppService) WaitReady(ctx context.Context, appName string) (string, error) {
	var fqdn string
	err := RetryOperation(ctx, func(ctx context.Context) error {
		app, err := s.clients.AppsClient.Get(ctx, s.clients.ResourceGroup, appName, nil)
		if err != nil {
			return err
		}
		if app.Properties == nil || app.Properties.ProvisioningState == nil ||
			*app.Properties.ProvisioningState != armappcontainers.ContainerAppProvisioningStateSucceeded {
			return fmt.Errorf("application %q not yet provisioned", appName)
		}
		fqdn = appFQDN(app.ContainerApp)
		if fqdn == "" {
			return fmt.Errorf("application %q has no ingress address yet", appName)
		}
		return nil
	}, AppReadyTimeout, AppReadyInterval, "application ready")
	if err != nil {
		return "", err
	}
	return fqdn, nil
}

func (s *azureAppService) Exec(ctx context.Context, appName string, command []string) (string, error) {
	slog.Info("executing command in application", "app", appName, "command", strings.Join(command, " "))

	cmd := exec.CommandContext(ctx, "az", "containerapp", "exec",
		"--name", appName,
		"--resource-group", s.clients.ResourceGroup,
		"--command", strings.Join(command, " "))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("exec in %q failed: %w", appName, err)
	}
	return string(output), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
