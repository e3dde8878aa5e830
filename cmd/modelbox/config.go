package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"modelbox/internal/infra"
)

// loadConfig layers configuration: defaults, then an optional config
// file, then MODELBOX_* environment variables, then explicit flags
// (bound by the command).
func loadConfig(v *viper.Viper, configPath string) (infra.DeploymentConfig, error) {
	defaults := infra.DefaultConfig()
	v.SetDefault("location", defaults.Location)
	v.SetDefault("source", defaults.SourceDir)
	v.SetDefault("image", defaults.ImageRepository)
	v.SetDefault("tag", defaults.ImageTag)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("use_azure_cli", false)

	// The config file is only ever user-supplied; a path that cannot be
	// read is an error, not a fallback to defaults.
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return infra.DeploymentConfig{}, fmt.Errorf("reading config file %q: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("MODELBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := infra.DeploymentConfig{
		ResourceGroup:   v.GetString("resource-group"),
		Location:        v.GetString("location"),
		SourceDir:       v.GetString("source"),
		ImageRepository: v.GetString("image"),
		ImageTag:        v.GetString("tag"),
		Model:           v.GetString("model"),
		UseAzureCLI:     v.GetBool("use-azure-cli"),
	}
	if cfg.ResourceGroup == "" {
		return infra.DeploymentConfig{}, fmt.Errorf("--resource-group is required")
	}
	return cfg, nil
}
