// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/gomanip/environment/envconfig"
	"github.com/samuelfneumann/gomanip/environment/mujoco/sawyer"
	"github.com/samuelfneumann/gomanip/experiment/checkpointer"
	"github.com/samuelfneumann/gomanip/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments track environment TimeSteps, caching each TimeStep's
// data in RAM to be later saved to disk. The Save() function
// will then take all cached data and save it to disk. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes until the maximum timestep limit is reached. The
// RunEpisode() function will run a single episode.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. New Trackers can
// be registered with an Experiment through the constructor or through
// an Experiment's Register() function.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode returns whether the experiment's step limit was reached
	RunEpisode(ctx context.Context) (bool, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// PolicyType names the policies an experiment can run
type PolicyType string

const (
	RandomPolicy   PolicyType = "random"
	ScriptedPolicy PolicyType = "scripted"
)

var validate = validator.New()

// Config represents a configuration of an experiment
type Config struct {
	Type     Type             `json:"type" yaml:"type" validate:"oneof=OnlineExperiment"`
	MaxSteps uint             `json:"max_steps" yaml:"max_steps" validate:"gt=0"`
	Policy   PolicyType       `json:"policy" yaml:"policy" validate:"oneof=random scripted"`
	EnvConf  envconfig.Config `json:"env" yaml:"env" validate:"-"`
}

// LoadConfig loads an experiment configuration from a YAML file
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: %w", err)
	}

	c := Config{Type: OnlineExp, Policy: RandomPolicy,
		EnvConf: envconfig.Default("")}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %w", err)
	}
	return c, nil
}

// Validate returns an error if the configuration is malformed
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// CreateExp creates the experiment described by the configuration. The
// experiment owns the environment it creates, which is returned so
// that it can be closed once the experiment is done.
func (c Config) CreateExp(logger *slog.Logger, t []tracker.Tracker,
	check []checkpointer.Checkpointer) (Experiment, *sawyer.Env, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	env, _, err := c.EnvConf.Create(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	var policy Policy
	switch c.Policy {
	case ScriptedPolicy:
		policy = NewScripted()
	default:
		policy = NewRandom(env.ActionSpec(), c.EnvConf.Seed)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, policy, c.MaxSteps, t, check, logger), env, nil
	}

	env.Close()
	return nil, nil, fmt.Errorf("createExp: no such experiment type %v",
		c.Type)
}
