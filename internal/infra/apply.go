package infra

import (
	"context"
	"log/slog"
)

// ApplyResult describes one applied node. Created reports whether the
// node was net-new on this run; a re-run against a fully created graph
// reports Created=false for every node.
type ApplyResult struct {
	ID      string
	Created bool
	Outputs map[string]string
}

// Output keys populated by the Azure applier
const (
	OutputFQDN            = "fqdn"
	OutputLoginServer     = "loginServer"
	OutputComputeSubnetID = "computeSubnetID"
	OutputPrivateSubnetID = "privateSubnetID"
)

// PlatformClient is the declarative half of the external platform: it
// accepts typed resource specs keyed by (kind, name) and reconciles them
// with create-or-update semantics.
type PlatformClient interface {
	EnsureGroup(ctx context.Context) error
	ApplyNode(ctx context.Context, node ResourceNode) (ApplyResult, error)
}

// Outcome is the externally observable result of a declarative apply.
type Outcome struct {
	Results map[NodeKind]ApplyResult
}

// Created returns how many nodes were net-new in this apply.
func (o *Outcome) Created() int {
	n := 0
	for _, r := range o.Results {
		if r.Created {
			n++
		}
	}
	return n
}

// Output returns a named output of one node, or "" when absent.
func (o *Outcome) Output(kind NodeKind, key string) string {
	return o.Results[kind].Outputs[key]
}

// Apply submits the graph to the platform strictly sequentially, in
// topological order with declaration-order tie-breaks. The platform does
// not infer ordering from embedded references, so submission order is
// the correctness mechanism here, not an optimization.
//
// On failure the error names the failing node and the returned Outcome
// still lists every node applied before it; nothing is rolled back.
func Apply(ctx context.Context, graph []ResourceNode, platform PlatformClient) (*Outcome, error) {
	if err := ValidateGraph(graph); err != nil {
		return nil, err
	}
	ordered, err := TopologicalOrder(graph)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Results: make(map[NodeKind]ApplyResult, len(ordered))}
	for _, node := range ordered {
		slog.Info("applying resource", "kind", node.Kind, "name", node.Name)
		result, err := platform.ApplyNode(ctx, node)
		if err != nil {
			return outcome, &PlatformApplyError{Kind: node.Kind, Name: node.Name, Err: err}
		}
		outcome.Results[node.Kind] = result
		slog.Info("resource ready", "kind", node.Kind, "name", node.Name, "created", result.Created)
	}
	return outcome, nil
}
