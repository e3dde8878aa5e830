package infra

import (
	"context"
	"fmt"
	"log/slog"
)

// ConfigureState tracks progress of the post-deployment configuration
// sequence. Failed is absorbing: once a step fails the configurator
// refuses further work until a fresh run is started.
type ConfigureState string

const (
	StateIdle        ConfigureState = "idle"
	StateConfiguring ConfigureState = "configuring"
	StateModelSet    ConfigureState = "model-set"
	StateUIEnabled   ConfigureState = "ui-enabled"
	StateDone        ConfigureState = "done"
	StateFailed      ConfigureState = "failed"
)

// StepRunner executes one command inside the running application and
// returns its output.
type StepRunner interface {
	Run(ctx context.Context, command []string) (string, error)
}

type configStep struct {
	name    string
	command []string
	next    ConfigureState
}

// configSteps is the fixed configuration sequence pushed into the
// running app after an update: select the serving model, then enable
// the web UI.
func configSteps(cfg DeploymentConfig) []configStep {
	return []configStep{
		{
			name:    "set-model",
			command: []string{"mbctl", "model", "set", cfg.Model},
			next:    StateModelSet,
		},
		{
			name:    "enable-ui",
			command: []string{"mbctl", "ui", "enable"},
			next:    StateUIEnabled,
		},
	}
}

// Configurator drives the configuration steps as a small state machine
// instead of bare sequential calls, so a failure names its step and the
// sequence cannot be resumed from a half-configured state.
type Configurator struct {
	runner     StepRunner
	state      ConfigureState
	failedStep string
}

func NewConfigurator(runner StepRunner) *Configurator {
	return &Configurator{runner: runner, state: StateIdle}
}

func (c *Configurator) State() ConfigureState { return c.state }

// FailedStep returns the name of the step that failed, or "".
func (c *Configurator) FailedStep() string { return c.failedStep }

// Run executes the configuration sequence once. A configurator that has
// already run, in any terminal state, returns an error.
func (c *Configurator) Run(ctx context.Context, cfg DeploymentConfig) error {
	if c.state != StateIdle {
		return fmt.Errorf("configurator already ran (state %s)", c.state)
	}
	c.state = StateConfiguring

	for _, step := range configSteps(cfg) {
		slog.Info("running configuration step", "step", step.name)
		output, err := c.runner.Run(ctx, step.command)
		if err != nil {
			c.state = StateFailed
			c.failedStep = step.name
			return fmt.Errorf("configuration step %q: %w", step.name, err)
		}
		slog.Debug("configuration step complete", "step", step.name, "output", output)
		c.state = step.next
	}

	c.state = StateDone
	return nil
}

// appExecRunner runs configuration commands through the app service's
// remote exec surface.
type appExecRunner struct {
	apps    AppService
	appName string
}

func (r *appExecRunner) Run(ctx context.Context, command []string) (string, error) {
	return r.apps.Exec(ctx, r.appName, command)
}
