// Package envconfig implements serializable configurations of
// environments, which can be loaded from YAML or JSON files and used
// to construct the environments they describe.
package envconfig

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/sawyer"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("variant", validateVariant)
	_ = validate.RegisterValidation("backend", validateBackend)
}

// validateVariant reports whether a field names a task variant
func validateVariant(fl validator.FieldLevel) bool {
	_, err := sawyer.VariantByName(fl.Field().String())
	return err == nil
}

// validateBackend reports whether a field names a compiled-in
// simulator backend
func validateBackend(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	for _, b := range sawyer.Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// Box is a serializable axis-aligned box
type Box struct {
	Low  [3]float64 `json:"low" yaml:"low"`
	High [3]float64 `json:"high" yaml:"high"`
}

// bounds converts the Box to a bounding box, nil boxes stay nil
func (b *Box) bounds() *environment.BoundingBox {
	if b == nil {
		return nil
	}
	box := environment.NewBoundingBox(
		r3.Vec{X: b.Low[0], Y: b.Low[1], Z: b.Low[2]},
		r3.Vec{X: b.High[0], Y: b.High[1], Z: b.High[2]},
	)
	return &box
}

// Config describes a Sawyer environment
type Config struct {
	Env       string `json:"env" yaml:"env" validate:"required,variant"`
	Backend   string `json:"backend" yaml:"backend" validate:"required,backend"`
	ModelPath string `json:"model_path,omitempty" yaml:"model_path,omitempty"`

	MaxPathLength int     `json:"max_path_length" yaml:"max_path_length" validate:"gte=0"`
	FrameSkip     int     `json:"frame_skip" yaml:"frame_skip" validate:"gte=0"`
	Discount      float64 `json:"discount" yaml:"discount" validate:"gte=0,lte=1"`
	Seed          uint64  `json:"seed" yaml:"seed"`

	HandBounds *Box `json:"hand_bounds,omitempty" yaml:"hand_bounds,omitempty"`
	ObjBounds  *Box `json:"obj_bounds,omitempty" yaml:"obj_bounds,omitempty"`
	GoalBounds *Box `json:"goal_bounds,omitempty" yaml:"goal_bounds,omitempty"`

	RenderMode string `json:"render_mode" yaml:"render_mode" validate:"omitempty,oneof=rgb_array depth_array"`
	Camera     string `json:"camera" yaml:"camera"`
	Width      int    `json:"width" yaml:"width" validate:"gte=0"`
	Height     int    `json:"height" yaml:"height" validate:"gte=0"`

	PartiallyObservable   bool `json:"partially_observable" yaml:"partially_observable"`
	TerminateOnSuccess    bool `json:"terminate_on_success" yaml:"terminate_on_success"`
	TerminateOnObjectLost bool `json:"terminate_on_object_lost" yaml:"terminate_on_object_lost"`
	SamplerMaxTries       int  `json:"sampler_max_tries" yaml:"sampler_max_tries" validate:"gte=0"`

	// Task, if set, fixes the task instance of every episode
	Task *sawyer.Task `json:"task,omitempty" yaml:"task,omitempty"`
}

// Default returns the default configuration of the named variant on
// the planar backend
func Default(env string) Config {
	opts := sawyer.DefaultOptions()
	return Config{
		Env:           env,
		Backend:       sawyer.PlanarBackend,
		MaxPathLength: opts.MaxPathLength,
		FrameSkip:     opts.FrameSkip,
		Discount:      opts.Discount,
		RenderMode:    string(opts.RenderMode),
		Camera:        opts.CameraName,
		Width:         opts.Width,
		Height:        opts.Height,
	}
}

// Load loads a configuration from a YAML or JSON file. Fields missing
// from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c := Default("")
	if err := yaml.Unmarshal(data, &c); err != nil {
		c = Default("")
		if jsonErr := json.Unmarshal(data, &c); jsonErr != nil {
			return Config{}, fmt.Errorf("load: parse %v (tried YAML and "+
				"JSON): YAML error: %v, JSON error: %w", path, err, jsonErr)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Save writes the configuration to path as YAML
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Validate returns an error if the configuration is malformed
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	for _, b := range []*Box{c.HandBounds, c.ObjBounds, c.GoalBounds} {
		if b == nil {
			continue
		}
		if err := b.bounds().Validate(); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
	}
	if c.Task != nil && c.Task.EnvName != c.Env {
		return fmt.Errorf("validate: %w: have %q, want %q",
			sawyer.ErrWrongTask, c.Task.EnvName, c.Env)
	}
	return nil
}

// Options returns the environment options described by the
// configuration
func (c Config) Options(logger *slog.Logger) sawyer.Options {
	return sawyer.Options{
		MaxPathLength:         c.MaxPathLength,
		FrameSkip:             c.FrameSkip,
		Discount:              c.Discount,
		Seed:                  c.Seed,
		HandBounds:            c.HandBounds.bounds(),
		ObjBounds:             c.ObjBounds.bounds(),
		GoalBounds:            c.GoalBounds.bounds(),
		RenderMode:            simulator.RenderMode(c.RenderMode),
		CameraName:            c.Camera,
		Width:                 c.Width,
		Height:                c.Height,
		PartiallyObservable:   c.PartiallyObservable,
		TerminateOnSuccess:    c.TerminateOnSuccess,
		TerminateOnObjectLost: c.TerminateOnObjectLost,
		SamplerMaxTries:       c.SamplerMaxTries,
		Logger:                logger,
	}
}

// Create creates the environment described by the configuration along
// with the first step of its first episode. If the configuration fixes
// a task, the returned step already belongs to that task.
func (c Config) Create(logger *slog.Logger) (*sawyer.Env, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	v, err := sawyer.VariantByName(c.Env)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	sim, err := sawyer.NewSimulator(c.Backend, v, c.ModelPath)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	env, step, err := sawyer.New(v, sim, c.Options(logger))
	if err != nil {
		sim.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	if c.Task != nil {
		if err := env.SetTask(*c.Task); err != nil {
			env.Close()
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
		if step, err = env.Reset(); err != nil {
			env.Close()
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
	}
	return env, step, nil
}
