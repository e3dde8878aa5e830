package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfigRejectsMissingExplicitFile(t *testing.T) {
	v := viper.New()
	v.Set("resource-group", "test-rg")

	_, err := loadConfig(v, filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("missing config file passed via --config was not reported")
	}
}

func TestLoadConfigReadsExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelbox.yaml")
	if err := os.WriteFile(path, []byte("location: eastus2\nmodel: large\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	v.Set("resource-group", "test-rg")
	cfg, err := loadConfig(v, path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Location != "eastus2" {
		t.Errorf("location = %q, want %q", cfg.Location, "eastus2")
	}
	if cfg.Model != "large" {
		t.Errorf("model = %q, want %q", cfg.Model, "large")
	}
}

func TestLoadConfigRequiresResourceGroup(t *testing.T) {
	if _, err := loadConfig(viper.New(), ""); err == nil {
		t.Error("missing resource group was accepted")
	}
}
