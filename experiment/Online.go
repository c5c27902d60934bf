package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/experiment/checkpointer"
	"github.com/samuelfneumann/gomanip/experiment/tracker"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

// Online is an Experiment that runs a policy online only. No offline
// evaluation is performed.
type Online struct {
	environment.Environment
	Policy
	maxSteps      uint
	currentSteps  uint
	episodes      int
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	hooks         []func(ts.TimeStep)
	logger        *slog.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given policy. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter
// is a slice of tracker.Tracker which determine what data is saved.
// A nil logger logs to slog.Default().
func NewOnline(e environment.Environment, p Policy, steps uint,
	t []tracker.Tracker, c []checkpointer.Checkpointer,
	logger *slog.Logger) *Online {
	if logger == nil {
		logger = slog.Default()
	}
	return &Online{
		Environment:   e,
		Policy:        p,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: c,
		logger:        logger,
	}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// OnStep registers a function called with every TimeStep of the
// experiment, after the trackers
func (o *Online) OnStep(f func(ts.TimeStep)) {
	o.hooks = append(o.hooks, f)
}

// Steps returns the number of steps taken so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// Episodes returns the number of episodes started so far
func (o *Online) Episodes() int {
	return o.episodes
}

// RunEpisode runs a single episode of the experiment and returns
// whether the step limit of the experiment has been reached. The
// episode is abandoned when ctx is cancelled.
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return true, fmt.Errorf("runEpisode: %w", err)
	}
	o.episodes++
	if err := o.track(step); err != nil {
		return true, fmt.Errorf("runEpisode: %w", err)
	}

	var episodeReturn float64
	for !step.Last() && o.currentSteps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}
		o.currentSteps++

		action := o.Policy.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}
		episodeReturn += step.Reward

		if err := o.track(step); err != nil {
			return true, fmt.Errorf("runEpisode: %w", err)
		}
	}

	if step.Last() {
		o.logger.Debug("episode finished", "episode", o.episodes,
			"steps", step.Number, "return", episodeReturn,
			"end", step.EndType().String())
	}
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps, or until ctx is
// cancelled
func (o *Online) Run(ctx context.Context) error {
	o.logger.Info("starting experiment", "max_steps", o.maxSteps)
	for {
		done, err := o.RunEpisode(ctx)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if done {
			break
		}
	}
	o.logger.Info("finished experiment", "steps", o.currentSteps,
		"episodes", o.episodes)
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	var errs []error
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker and checkpointing
func (o *Online) track(t ts.TimeStep) error {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
	for _, hook := range o.hooks {
		hook(t)
	}
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return fmt.Errorf("track: %w", err)
		}
	}
	return nil
}
