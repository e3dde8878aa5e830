package infra

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRunner struct {
	commands [][]string
	failOn   string
}

func (r *fakeRunner) Run(ctx context.Context, command []string) (string, error) {
	if r.failOn != "" && strings.Contains(strings.Join(command, " "), r.failOn) {
		return "", errors.New("remote command failed")
	}
	r.commands = append(r.commands, command)
	return "ok", nil
}

func TestConfiguratorRunsAllSteps(t *testing.T) {
	runner := &fakeRunner{}
	c := NewConfigurator(runner)

	cfg := DefaultConfig()
	cfg.Model = "medium"
	if err := c.Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateDone {
		t.Errorf("final state = %s, want %s", c.State(), StateDone)
	}
	if len(runner.commands) != 2 {
		t.Fatalf("ran %d commands, want 2", len(runner.commands))
	}
	if got := strings.Join(runner.commands[0], " "); got != "mbctl model set medium" {
		t.Errorf("first step command = %q", got)
	}
	if got := strings.Join(runner.commands[1], " "); got != "mbctl ui enable" {
		t.Errorf("second step command = %q", got)
	}
}

func TestConfiguratorFailureIsAbsorbing(t *testing.T) {
	runner := &fakeRunner{failOn: "model set"}
	c := NewConfigurator(runner)

	if err := c.Run(context.Background(), DefaultConfig()); err == nil {
		t.Fatal("expected failure on first step")
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s, want %s", c.State(), StateFailed)
	}
	if c.FailedStep() != "set-model" {
		t.Errorf("failed step = %q, want %q", c.FailedStep(), "set-model")
	}

	// Absorbing: a failed configurator does not run again
	runner.failOn = ""
	if err := c.Run(context.Background(), DefaultConfig()); err == nil {
		t.Error("failed configurator accepted a second run")
	}
	if len(runner.commands) != 0 {
		t.Errorf("ran %d commands after failure, want 0", len(runner.commands))
	}
}

func TestConfiguratorRunsOnlyOnce(t *testing.T) {
	c := NewConfigurator(&fakeRunner{})
	if err := c.Run(context.Background(), DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background(), DefaultConfig()); err == nil {
		t.Error("completed configurator accepted a second run")
	}
}
