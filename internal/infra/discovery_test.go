package infra

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Resources created moments ago may not be indexed yet; the lookup must
// be retried until they appear.
func TestWaitVisibleToleratesIndexingLag(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) (string, string, error) {
		calls++
		if calls < 3 {
			return "", "", nil
		}
		return "mbacr0123456789", "/registries/mbacr0123456789", nil
	}

	name, id, err := waitVisible(context.Background(), lookup, KindRegistry, "mbacr0123456789", time.Second, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if name != "mbacr0123456789" || id != "/registries/mbacr0123456789" {
		t.Errorf("resolved name %q id %q", name, id)
	}
	if calls != 3 {
		t.Errorf("lookup called %d times, want 3", calls)
	}
}

func TestWaitVisibleTimesOutAsMissingDependency(t *testing.T) {
	lookup := func(ctx context.Context) (string, string, error) {
		return "", "", nil
	}

	_, _, err := waitVisible(context.Background(), lookup, KindEnvironment, "modelbox-env-0123456789", 20*time.Millisecond, 5*time.Millisecond)
	var depErr *DependencyUnresolvedError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyUnresolvedError, got %v", err)
	}
	if depErr.Kind != KindEnvironment || depErr.Missing != "modelbox-env-0123456789" {
		t.Errorf("missing dependency = %s %q", depErr.Kind, depErr.Missing)
	}
}

func TestWaitVisibleRetriesQueryFailures(t *testing.T) {
	calls := 0
	lookup := func(ctx context.Context) (string, string, error) {
		calls++
		if calls == 1 {
			return "", "", errors.New("throttled")
		}
		return "modelbox-app-0123456789", "", nil
	}

	name, _, err := waitVisible(context.Background(), lookup, KindApp, "modelbox-app-0123456789", time.Second, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if name != "modelbox-app-0123456789" {
		t.Errorf("resolved name %q", name)
	}
}
