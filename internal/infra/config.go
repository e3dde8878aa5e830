package infra

// DeploymentConfig is the complete, immutable configuration for one
// deployment run. It is built once by the CLI and passed in; nothing in
// this package reads process-wide state.
type DeploymentConfig struct {
	// ResourceGroup is the deployment seed: all derived resource names
	// are a deterministic function of it.
	ResourceGroup string
	Location      string

	// SourceDir is the build context for the application image
	SourceDir string
	// ImageRepository and ImageTag form the image reference pushed into
	// the deployment's registry
	ImageRepository string
	ImageTag        string

	// Model is the model the configuration phase selects inside the
	// running app
	Model string

	// UseAzureCLI selects Azure CLI credentials instead of managed
	// identity
	UseAzureCLI bool
}

// DefaultConfig returns a config with every field except the resource
// group filled with defaults.
func DefaultConfig() DeploymentConfig {
	return DeploymentConfig{
		Location:        DefaultLocation,
		SourceDir:       DefaultSourceDir,
		ImageRepository: "modelbox/app",
		ImageTag:        "latest",
		Model:           DefaultModel,
	}
}

// ImageRef returns the repository:tag reference relative to a registry
// login server.
func (c DeploymentConfig) ImageRef() string {
	return c.ImageRepository + ":" + c.ImageTag
}
