package infra

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNamerDeterminism(t *testing.T) {
	seeds := []string{"modelbox-prod-rg", "rg-test-123", "a"}
	for _, seed := range seeds {
		first, err := NewNamer(seed)
		if err != nil {
			t.Fatalf("NewNamer(%q): %v", seed, err)
		}
		second, err := NewNamer(seed)
		if err != nil {
			t.Fatalf("NewNamer(%q): %v", seed, err)
		}

		names := map[string][2]string{
			"VNetName":           {first.VNetName(), second.VNetName()},
			"StorageAccountName": {first.StorageAccountName(), second.StorageAccountName()},
			"RegistryName":       {first.RegistryName(), second.RegistryName()},
			"AppName":            {first.AppName(), second.AppName()},
			"EnvironmentName":    {first.EnvironmentName(), second.EnvironmentName()},
			"StorageLinkName":    {first.StorageLinkName(), second.StorageLinkName()},
		}
		for method, pair := range names {
			if pair[0] != pair[1] {
				t.Errorf("seed %q: %s not deterministic: %q vs %q", seed, method, pair[0], pair[1])
			}
		}
	}
}

func TestNamerRejectsEmptySeed(t *testing.T) {
	if _, err := NewNamer(""); err == nil {
		t.Error("NewNamer(\"\") should fail")
	}
}

func TestNamerCollisionResistance(t *testing.T) {
	const sampleSize = 10000
	seen := make(map[string]string, sampleSize)
	for i := 0; i < sampleSize; i++ {
		seed := fmt.Sprintf("resource-group-%d", i)
		namer, err := NewNamer(seed)
		if err != nil {
			t.Fatalf("NewNamer(%q): %v", seed, err)
		}
		name := namer.StorageAccountName()
		if prev, ok := seen[name]; ok {
			t.Fatalf("collision: seeds %q and %q both derive %q", prev, seed, name)
		}
		seen[name] = seed
	}
}

func TestResolveStrictPolicyStripsSeparators(t *testing.T) {
	namer, err := NewNamer("my-project_rg.01")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		role   string
		policy CharPolicy
	}{
		{"mb-store", PolicyStorageAccount},
		{"mb_acr", PolicyRegistry},
		{"model.box", PolicyStorageAccount},
	}
	for _, tc := range cases {
		name, err := namer.Resolve(tc.role, tc.policy)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tc.role, err)
		}
		if strings.ContainsAny(name, "-_.") {
			t.Errorf("Resolve(%q) = %q, contains forbidden separator", tc.role, name)
		}
	}
}

func TestResolveLengthViolation(t *testing.T) {
	namer, err := NewNamer("seed")
	if err != nil {
		t.Fatal(err)
	}

	// 20 chars of role + 10 digest chars exceeds the 24-char storage bound
	_, err = namer.Resolve("verylongstorageprefix", PolicyStorageAccount)
	var derivErr *InvalidNameDerivationError
	if !errors.As(err, &derivErr) {
		t.Fatalf("expected InvalidNameDerivationError, got %v", err)
	}
	if derivErr.MaxLength != PolicyStorageAccount.MaxLength {
		t.Errorf("error reports max length %d, want %d", derivErr.MaxLength, PolicyStorageAccount.MaxLength)
	}
}

// A permissive role and a strict role derived from the same seed: the
// strict one must be separator-free even though the seed and permissive
// rendering both carry hyphens.
func TestPerKindPolicies(t *testing.T) {
	namer, err := NewNamer("team-alpha-rg")
	if err != nil {
		t.Fatal(err)
	}

	storage := namer.StorageAccountName()
	if strings.Contains(storage, "-") {
		t.Errorf("storage account name %q contains a hyphen", storage)
	}
	if !strings.HasPrefix(storage, "mbst") {
		t.Errorf("storage account name %q should start with role prefix", storage)
	}
	if len(storage) > PolicyStorageAccount.MaxLength {
		t.Errorf("storage account name %q exceeds %d chars", storage, PolicyStorageAccount.MaxLength)
	}

	vnet := namer.VNetName()
	if !strings.Contains(vnet, "-") {
		t.Errorf("vnet name %q lost its separators under the permissive policy", vnet)
	}
	if !strings.HasSuffix(vnet, namer.Digest()) {
		t.Errorf("vnet name %q should end with the seed digest %q", vnet, namer.Digest())
	}

	registry := namer.RegistryName()
	if strings.Contains(registry, "-") {
		t.Errorf("registry name %q contains a hyphen", registry)
	}

	app := namer.AppName()
	if len(app) > PolicyContainerApp.MaxLength {
		t.Errorf("app name %q exceeds %d chars", app, PolicyContainerApp.MaxLength)
	}
}

func TestDigestIsLowercaseAlphanumeric(t *testing.T) {
	namer, err := NewNamer("Mixed-Case-SEED")
	if err != nil {
		t.Fatal(err)
	}
	digest := namer.Digest()
	if len(digest) != digestLength {
		t.Fatalf("digest length = %d, want %d", len(digest), digestLength)
	}
	for _, c := range digest {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			t.Errorf("digest %q contains illegal character %q", digest, c)
		}
	}
}
