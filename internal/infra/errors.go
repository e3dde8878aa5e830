package infra

import "fmt"

// InvalidNameDerivationError reports that the identity resolver could not
// produce a platform-legal name. Truncating into a collision-prone short
// name is never acceptable, so this is a hard failure.
type InvalidNameDerivationError struct {
	Role      string
	Derived   string
	MaxLength int
}

func (e *InvalidNameDerivationError) Error() string {
	return fmt.Sprintf("derived name %q for role %q exceeds maximum length %d", e.Derived, e.Role, e.MaxLength)
}

// DependencyUnresolvedError reports that a required predecessor resource
// was not found, either statically in the declared graph or at runtime
// when the imperative phase cannot locate phase-1 resources.
type DependencyUnresolvedError struct {
	Kind    NodeKind
	Missing string
}

func (e *DependencyUnresolvedError) Error() string {
	return fmt.Sprintf("%s: unresolved dependency %q", e.Kind, e.Missing)
}

// PlatformApplyError reports the node whose creation or update the
// platform rejected. Previously created nodes are left in place.
type PlatformApplyError struct {
	Kind NodeKind
	Name string
	Err  error
}

func (e *PlatformApplyError) Error() string {
	return fmt.Sprintf("apply %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *PlatformApplyError) Unwrap() error { return e.Err }

// ArtifactBuildError reports a failed image build. Output carries the
// build tool's combined output verbatim for the operator.
type ArtifactBuildError struct {
	Registry string
	Output   string
	Err      error
}

func (e *ArtifactBuildError) Error() string {
	return fmt.Sprintf("image build into registry %q failed: %v", e.Registry, e.Err)
}

func (e *ArtifactBuildError) Unwrap() error { return e.Err }

// CredentialDiscoveryError reports that registry credentials could not be
// retrieved after creation.
type CredentialDiscoveryError struct {
	Registry string
	Err      error
}

func (e *CredentialDiscoveryError) Error() string {
	return fmt.Sprintf("retrieving credentials for registry %q: %v", e.Registry, e.Err)
}

func (e *CredentialDiscoveryError) Unwrap() error { return e.Err }
