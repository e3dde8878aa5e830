package infra

import (
	"context"
	"errors"
	"testing"
)

type fakeRegistry struct {
	builds []string
	cred   RegistryCredential
}

func (f *fakeRegistry) Build(ctx context.Context, registryName, imageRef, sourceDir string) error {
	f.builds = append(f.builds, registryName+"/"+imageRef)
	return nil
}

func (f *fakeRegistry) Credentials(ctx context.Context, registryName string) (RegistryCredential, error) {
	return f.cred, nil
}

type fakeApps struct {
	lastSpec *AppRuntimeSpec
	replaces int
	fqdn     string
	execs    [][]string
}

func (f *fakeApps) Replace(ctx context.Context, appName string, spec *AppRuntimeSpec) error {
	copied := *spec
	f.lastSpec = &copied
	f.replaces++
	return nil
}

func (f *fakeApps) WaitReady(ctx context.Context, appName string) (string, error) {
	return f.fqdn, nil
}

func (f *fakeApps) Exec(ctx context.Context, appName string, command []string) (string, error) {
	f.execs = append(f.execs, command)
	return "ok", nil
}

type fakeDiscoverer struct {
	discovery *Discovery
	err       error
}

func (f *fakeDiscoverer) Discover(ctx context.Context) (*Discovery, error) {
	return f.discovery, f.err
}

func testDeployer(t *testing.T, discover Discoverer) (*Deployer, *fakeRegistry, *fakeApps, *mockPlatform) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ResourceGroup = "deployer-test-rg"
	cfg.Model = "large"

	registry := &fakeRegistry{
		cred: RegistryCredential{
			LoginServer: "mbacr0123456789.azurecr.io",
			Username:    "mbacr0123456789",
			Password:    "registry-password-value",
		},
	}
	apps := &fakeApps{fqdn: "modelbox-app.example.azurecontainerapps.io"}
	platform := newMockPlatform()

	deployer, err := newDeployerWith(cfg, platform, registry, apps, discover)
	if err != nil {
		t.Fatal(err)
	}
	return deployer, registry, apps, platform
}

func testDiscovery() *Discovery {
	return &Discovery{
		RegistryName:    "mbacr0123456789",
		EnvironmentName: "modelbox-env-0123456789",
		AppName:         "modelbox-app-0123456789",
		StorageLinkName: "modelbox-mount-0123456789",
	}
}

func TestProvisionAppliesWholeGraph(t *testing.T) {
	deployer, _, _, platform := testDeployer(t, &fakeDiscoverer{discovery: testDiscovery()})

	outcome, err := deployer.Provision(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if platform.groups != 1 {
		t.Errorf("resource group ensured %d times, want 1", platform.groups)
	}
	if len(outcome.Results) != 12 {
		t.Errorf("applied %d nodes, want 12", len(outcome.Results))
	}
	if outcome.Created() != 12 {
		t.Errorf("first provision created %d nodes, want 12", outcome.Created())
	}
}

// Re-running the imperative phase rotates the credential and replaces
// the whole runtime spec, leaving nothing stale from the previous run.
func TestConfigureRotatesTokenAndReplacesSpec(t *testing.T) {
	deployer, registry, apps, _ := testDeployer(t, &fakeDiscoverer{discovery: testDiscovery()})
	ctx := context.Background()

	first, err := deployer.Configure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := deployer.Configure(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if first.AccessToken == second.AccessToken {
		t.Error("re-running configure did not rotate the access token")
	}
	if apps.replaces != 2 {
		t.Fatalf("app replaced %d times, want 2", apps.replaces)
	}

	spec := apps.lastSpec
	if spec.AccessToken != second.AccessToken {
		t.Error("final spec carries a stale access token")
	}
	wantImage := registry.cred.LoginServer + "/modelbox/app:latest"
	if spec.Image != wantImage {
		t.Errorf("final spec image = %q, want %q", spec.Image, wantImage)
	}
	if spec.Registry != registry.cred {
		t.Errorf("final spec registry credential = %+v, want %+v", spec.Registry, registry.cred)
	}
	if spec.StorageName != "modelbox-mount-0123456789" {
		t.Errorf("final spec storage name = %q", spec.StorageName)
	}
	if spec.Env["MODELBOX_MODEL"] != "large" {
		t.Errorf("final spec model env = %q, want %q", spec.Env["MODELBOX_MODEL"], "large")
	}
	if second.ConfigState != StateDone {
		t.Errorf("config state = %s, want %s", second.ConfigState, StateDone)
	}
	if second.Endpoint != apps.fqdn {
		t.Errorf("endpoint = %q, want %q", second.Endpoint, apps.fqdn)
	}
}

func TestConfigureRunsConfigurationSteps(t *testing.T) {
	deployer, _, apps, _ := testDeployer(t, &fakeDiscoverer{discovery: testDiscovery()})

	if _, err := deployer.Configure(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(apps.execs) != 2 {
		t.Fatalf("ran %d remote commands, want 2", len(apps.execs))
	}
}

// Phase 2 against a target phase 1 never touched must fail fast, before
// any build is attempted.
func TestConfigureFailsFastWithoutPhaseOne(t *testing.T) {
	missing := &fakeDiscoverer{err: &DependencyUnresolvedError{Kind: KindRegistry, Missing: "mbacr0123456789"}}
	deployer, registry, apps, _ := testDeployer(t, missing)

	_, err := deployer.Configure(context.Background())
	var depErr *DependencyUnresolvedError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyUnresolvedError, got %v", err)
	}
	if len(registry.builds) != 0 {
		t.Error("image build attempted despite missing phase-1 resources")
	}
	if apps.replaces != 0 {
		t.Error("app updated despite missing phase-1 resources")
	}
}
