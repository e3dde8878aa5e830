package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// FinalState is what the operator gets back from the imperative phase.
// AccessToken is a live secret: it is surfaced here and nowhere else.
type FinalState struct {
	Endpoint    string
	AccessToken string
	ConfigState ConfigureState
}

// Deployer coordinates the two deployment phases against one target.
//
// The split is the one structural decision in this design: the app's
// desired image cannot exist before the registry does, and the registry
// is created by the same declarative apply that creates the app. Phase 1
// therefore deploys a placeholder app; phase 2 builds the artifact into
// the now-existing registry and replaces the app's runtime spec.
type Deployer struct {
	cfg   DeploymentConfig
	namer *Namer
	runID string

	platform PlatformClient
	registry RegistryService
	apps     AppService
	discover Discoverer
}

// NewDeployer wires a Deployer against live Azure services.
func NewDeployer(cfg DeploymentConfig, clients *AzureClients) (*Deployer, error) {
	namer, err := NewNamer(cfg.ResourceGroup)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &Deployer{
		cfg:      cfg,
		namer:    namer,
		runID:    runID,
		platform: NewAzurePlatform(clients, cfg, namer),
		registry: NewAzureRegistryService(clients),
		apps:     NewAzureAppService(clients, cfg, namer, runID),
		discover: NewAzureDiscoverer(clients, namer),
	}, nil
}

// newDeployerWith wires a Deployer against explicit collaborators.
func newDeployerWith(cfg DeploymentConfig, platform PlatformClient, registry RegistryService, apps AppService, discover Discoverer) (*Deployer, error) {
	namer, err := NewNamer(cfg.ResourceGroup)
	if err != nil {
		return nil, err
	}
	return &Deployer{
		cfg:      cfg,
		namer:    namer,
		runID:    uuid.NewString(),
		platform: platform,
		registry: registry,
		apps:     apps,
		discover: discover,
	}, nil
}

// Namer exposes the deployment's identity resolver.
func (d *Deployer) Namer() *Namer { return d.namer }

// Provision is the declarative phase: ensure the resource group exists,
// then submit the full resource graph in dependency order. Re-running
// against an already-created graph is an idempotent reconcile.
func (d *Deployer) Provision(ctx context.Context) (*Outcome, error) {
	slog.Info("starting declarative phase",
		"resourceGroup", d.cfg.ResourceGroup,
		"deployment", d.namer.Digest(),
		"run", d.runID)

	if err := d.platform.EnsureGroup(ctx); err != nil {
		return nil, err
	}

	graph := DeclareGraph(d.cfg, d.namer)
	outcome, err := Apply(ctx, graph, d.platform)
	if err != nil {
		return outcome, err
	}

	slog.Info("declarative phase complete",
		"nodes", len(outcome.Results),
		"created", outcome.Created())
	return outcome, nil
}

// Configure is the imperative phase: locate phase-1 resources, build the
// image, rotate the access credential, replace the app's runtime spec,
// wait for convergence, then push configuration into the running app.
//
// Safe to re-run; each run generates a fresh access token, invalidating
// the previous one.
func (d *Deployer) Configure(ctx context.Context) (*FinalState, error) {
	slog.Info("starting imperative phase",
		"resourceGroup", d.cfg.ResourceGroup,
		"run", d.runID)

	discovery, err := d.discover.Discover(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("discovered phase-1 resources",
		"registry", discovery.RegistryName,
		"app", discovery.AppName,
		"environment", discovery.EnvironmentName)

	if err := d.registry.Build(ctx, discovery.RegistryName, d.cfg.ImageRef(), d.cfg.SourceDir); err != nil {
		return nil, err
	}

	credential, err := d.registry.Credentials(ctx, discovery.RegistryName)
	if err != nil {
		return nil, err
	}

	token, err := NewAccessToken()
	if err != nil {
		return nil, err
	}

	spec := &AppRuntimeSpec{
		EnvironmentName: discovery.EnvironmentName,
		Image:           fmt.Sprintf("%s/%s", credential.LoginServer, d.cfg.ImageRef()),
		Command:         []string{"/usr/local/bin/mbserve", "--data-dir", appMountPath},
		Registry:        credential,
		AccessToken:     token,
		StorageName:     discovery.StorageLinkName,
		MountPath:       appMountPath,
		TargetPort:      appTargetPort,
		Env: map[string]string{
			"MODELBOX_MODEL": d.cfg.Model,
		},
	}
	if err := d.apps.Replace(ctx, discovery.AppName, spec); err != nil {
		return nil, err
	}

	endpoint, err := d.apps.WaitReady(ctx, discovery.AppName)
	if err != nil {
		return nil, err
	}

	configurator := NewConfigurator(&appExecRunner{apps: d.apps, appName: discovery.AppName})
	if err := configurator.Run(ctx, d.cfg); err != nil {
		return &FinalState{Endpoint: endpoint, AccessToken: token, ConfigState: configurator.State()}, err
	}

	slog.Info("imperative phase complete", "endpoint", endpoint)
	return &FinalState{
		Endpoint:    endpoint,
		AccessToken: token,
		ConfigState: configurator.State(),
	}, nil
}

// Deploy runs both phases in order.
func (d *Deployer) Deploy(ctx context.Context) (*FinalState, error) {
	if _, err := d.Provision(ctx); err != nil {
		return nil, err
	}
	return d.Configure(ctx)
}
