package infra

import (
	"errors"
	"testing"
)

func testGraph(t *testing.T) []ResourceNode {
	t.Helper()
	namer, err := NewNamer("graph-test-rg")
	if err != nil {
		t.Fatal(err)
	}
	return DeclareGraph(DefaultConfig(), namer)
}

func kindIndex(t *testing.T, ordered []ResourceNode, kind NodeKind) int {
	t.Helper()
	for i, node := range ordered {
		if node.Kind == kind {
			return i
		}
	}
	t.Fatalf("kind %q not present in ordered graph", kind)
	return -1
}

func TestDeclaredGraphIsValid(t *testing.T) {
	if err := ValidateGraph(testGraph(t)); err != nil {
		t.Fatalf("declared graph invalid: %v", err)
	}
}

func TestDeclaredGraphDependenciesPresent(t *testing.T) {
	graph := testGraph(t)
	present := map[NodeKind]bool{}
	for _, node := range graph {
		present[node.Kind] = true
	}
	for _, node := range graph {
		for _, dep := range node.DependsOn {
			if !present[dep] {
				t.Errorf("%s depends on %s, which is not declared", node.Kind, dep)
			}
		}
	}
}

func TestTopologicalOrderSatisfiesEdges(t *testing.T) {
	graph := testGraph(t)
	ordered, err := TopologicalOrder(graph)
	if err != nil {
		t.Fatal(err)
	}
	if len(ordered) != len(graph) {
		t.Fatalf("ordered %d nodes, want %d", len(ordered), len(graph))
	}

	position := map[NodeKind]int{}
	for i, node := range ordered {
		position[node.Kind] = i
	}
	for _, node := range graph {
		for _, dep := range node.DependsOn {
			if position[dep] >= position[node.Kind] {
				t.Errorf("%s (pos %d) ordered before its dependency %s (pos %d)",
					node.Kind, position[node.Kind], dep, position[dep])
			}
		}
	}
}

// The storage mount needs DNS resolution wired before it is submitted,
// an ordering the platform cannot infer from the mount payload.
func TestStorageLinkOrderedAfterDNSAndShare(t *testing.T) {
	ordered, err := TopologicalOrder(testGraph(t))
	if err != nil {
		t.Fatal(err)
	}

	link := kindIndex(t, ordered, KindStorageLink)
	for _, dep := range []NodeKind{KindDNSZoneGroup, KindDNSLink, KindFileShare, KindEnvironment} {
		if kindIndex(t, ordered, dep) >= link {
			t.Errorf("storage-link submitted before %s", dep)
		}
	}
}

func TestTopologicalOrderIsDeterministic(t *testing.T) {
	graph := testGraph(t)
	first, err := TopologicalOrder(graph)
	if err != nil {
		t.Fatal(err)
	}
	second, err := TopologicalOrder(graph)
	if err != nil {
		t.Fatal(err)
	}

	want := []NodeKind{
		KindNetwork, KindLogWorkspace, KindStorageAccount, KindFileShare,
		KindPrivateEndpoint, KindDNSZone, KindDNSLink, KindDNSZoneGroup,
		KindRegistry, KindEnvironment, KindStorageLink, KindApp,
	}
	for i := range want {
		if first[i].Kind != want[i] {
			t.Errorf("position %d: got %s, want %s", i, first[i].Kind, want[i])
		}
		if first[i].Kind != second[i].Kind {
			t.Errorf("position %d differs between runs: %s vs %s", i, first[i].Kind, second[i].Kind)
		}
	}
}

func TestValidateGraphRejectsUnknownDependency(t *testing.T) {
	graph := []ResourceNode{
		{Kind: KindNetwork, Name: "net"},
		{Kind: KindApp, Name: "app", DependsOn: []NodeKind{KindEnvironment}},
	}
	err := ValidateGraph(graph)
	var depErr *DependencyUnresolvedError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyUnresolvedError, got %v", err)
	}
	if depErr.Kind != KindApp {
		t.Errorf("error names kind %s, want %s", depErr.Kind, KindApp)
	}
}

func TestValidateGraphRejectsCycle(t *testing.T) {
	graph := []ResourceNode{
		{Kind: KindNetwork, Name: "net", DependsOn: []NodeKind{KindEnvironment}},
		{Kind: KindEnvironment, Name: "env", DependsOn: []NodeKind{KindNetwork}},
	}
	if err := ValidateGraph(graph); err == nil {
		t.Error("cyclic graph should fail validation")
	}
}

func TestValidateGraphRejectsDuplicateKind(t *testing.T) {
	graph := []ResourceNode{
		{Kind: KindNetwork, Name: "net-a"},
		{Kind: KindNetwork, Name: "net-b"},
	}
	if err := ValidateGraph(graph); err == nil {
		t.Error("duplicate kinds should fail validation")
	}
}
