package infra

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// digestLength is the number of lowercase hex characters taken from the
// seed digest. 10 chars give a 40-bit namespace, far beyond the handful
// of deployments sharing a subscription.
const digestLength = 10

// CharPolicy describes the legality rules of one resource kind. Azure
// enforces different character sets per kind: storage accounts and
// registries reject separators outright, most other kinds allow hyphens.
type CharPolicy struct {
	MaxLength       int
	AllowSeparators bool
}

// Character policies for the resource kinds this deployment creates.
var (
	PolicyDefault        = CharPolicy{MaxLength: 64, AllowSeparators: true}
	PolicyStorageAccount = CharPolicy{MaxLength: 24, AllowSeparators: false}
	PolicyRegistry       = CharPolicy{MaxLength: 50, AllowSeparators: false}
	PolicyContainerApp   = CharPolicy{MaxLength: 32, AllowSeparators: true}
	PolicyFileShare      = CharPolicy{MaxLength: 63, AllowSeparators: true}
)

// Namer derives globally-unique, platform-legal resource names from the
// deployment seed. The same seed always yields the same names, so
// re-running a deployment resolves to the same resource set.
type Namer struct {
	seed   string
	digest string
}

// NewNamer builds a Namer from the deployment seed (the target resource
// group name).
func NewNamer(seed string) (*Namer, error) {
	if seed == "" {
		return nil, fmt.Errorf("deployment seed must not be empty")
	}
	sum := sha256.Sum256([]byte(seed))
	return &Namer{
		seed:   seed,
		digest: hex.EncodeToString(sum[:])[:digestLength],
	}, nil
}

// Digest returns the stable lowercase alphanumeric digest of the seed.
func (n *Namer) Digest() string {
	return n.digest
}

// Resolve derives a name from a role prefix and the seed digest, then
// applies the kind's character policy. Sanitization is per kind, not
// global: a role containing separators stays readable for permissive
// kinds and collapses to bare alphanumerics for strict ones.
func (n *Namer) Resolve(role string, policy CharPolicy) (string, error) {
	var name string
	if policy.AllowSeparators {
		name = role + "-" + n.digest
	} else {
		name = stripSeparators(role) + n.digest
	}
	if policy.MaxLength > 0 && len(name) > policy.MaxLength {
		return "", &InvalidNameDerivationError{Role: role, Derived: name, MaxLength: policy.MaxLength}
	}
	return name, nil
}

// resolve is Resolve for the fixed built-in roles below, whose lengths
// are statically within every policy bound.
func (n *Namer) resolve(role string, policy CharPolicy) string {
	name, err := n.Resolve(role, policy)
	if err != nil {
		panic(fmt.Sprintf("built-in role broke its policy: %v", err))
	}
	return name
}

func (n *Namer) VNetName() string {
	return n.resolve("modelbox-vnet", PolicyDefault)
}

func (n *Namer) ComputeSubnetName() string {
	return n.resolve("modelbox-appenv-subnet", PolicyDefault)
}

func (n *Namer) PrivateLinkSubnetName() string {
	return n.resolve("modelbox-privatelink-subnet", PolicyDefault)
}

// StorageAccountName is strict: 3-24 chars, lowercase letters and
// numbers only, no separators.
func (n *Namer) StorageAccountName() string {
	return n.resolve("mbst", PolicyStorageAccount)
}

func (n *Namer) FileShareName() string {
	return n.resolve("modelbox-data", PolicyFileShare)
}

func (n *Namer) PrivateEndpointName() string {
	return n.resolve("modelbox-files-pe", PolicyDefault)
}

func (n *Namer) DNSLinkName() string {
	return n.resolve("modelbox-dnslink", PolicyDefault)
}

func (n *Namer) DNSZoneGroupName() string {
	return n.resolve("modelbox-zonegroup", PolicyDefault)
}

// RegistryName is strict: 5-50 alphanumeric characters, no separators.
func (n *Namer) RegistryName() string {
	return n.resolve("mbacr", PolicyRegistry)
}

func (n *Namer) LogWorkspaceName() string {
	return n.resolve("modelbox-logs", PolicyDefault)
}

func (n *Namer) EnvironmentName() string {
	return n.resolve("modelbox-env", PolicyDefault)
}

func (n *Namer) StorageLinkName() string {
	return n.resolve("modelbox-mount", PolicyDefault)
}

func (n *Namer) AppName() string {
	return n.resolve("modelbox-app", PolicyContainerApp)
}

// stripSeparators removes everything outside lowercase letters and
// digits. Uppercase is dropped rather than folded so a strict name can
// never differ from its rendered form.
func stripSeparators(s string) string {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			clean = append(clean, c)
		}
	}
	return string(clean)
}
