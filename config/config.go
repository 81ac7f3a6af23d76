// Package config loads vehicle and controller parameters from JSON5
// documents and validates them before the controllers are built.
package config

import (
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"github.com/steven-swanbeck/autonomous-robots/control"
	"github.com/steven-swanbeck/autonomous-robots/vehicle"
)

// Controller holds the reactive controller parameters. Zero Horizon
// and Goal select the controller defaults of 10 m and (10, 0).
type Controller struct {
	ControlInterval           float64 `json:"control_interval"`
	Margin                    float64 `json:"margin"`
	MaxClearance              float64 `json:"max_clearance"`
	CurvatureSamplingInterval float64 `json:"curvature_sampling_interval"`
	Latency                   float64 `json:"latency"`
	Horizon                   float64 `json:"horizon"`
	Goal                      Point   `json:"goal"`
	UseCorrectedClearance     bool    `json:"use_corrected_clearance"`
}

// Point is a 2D point in the robot body frame.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config aggregates everything needed to run the controllers.
type Config struct {
	Vehicle    vehicle.Car `json:"vehicle"`
	Controller Controller  `json:"controller"`
}

// Default returns a runnable configuration for a small indoor car.
func Default() *Config {
	return &Config{
		Vehicle: vehicle.Car{
			Dimensions: vehicle.Dimensions{Width: 0.28, Length: 0.5, Wheelbase: 0.32},
			Limits:     vehicle.Limits{MaxSpeed: 1.0, MaxAcceleration: 4.0, MaxCurvature: 1.0},
		},
		Controller: Controller{
			ControlInterval:           0.05,
			Margin:                    0.05,
			MaxClearance:              0.5,
			CurvatureSamplingInterval: 0.05,
			Latency:                   0.15,
		},
	}
}

// Read loads and validates a configuration file.
func Read(path string) (*Config, error) {
	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg, err := FromReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	return cfg, nil
}

// FromReader parses and validates a JSON5 configuration document.
func FromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := json5.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns all constraint violations in the document at once.
func (c *Config) Validate() error {
	err := errors.Wrap(c.Vehicle.Validate(), "vehicle")
	if c.Controller.ControlInterval <= 0 {
		err = multierr.Append(err, errors.New("controller: control_interval must be positive"))
	}
	if c.Controller.Margin < 0 {
		err = multierr.Append(err, errors.New("controller: margin cannot be negative"))
	}
	if c.Controller.MaxClearance <= 0 {
		err = multierr.Append(err, errors.New("controller: max_clearance must be positive"))
	}
	if c.Controller.CurvatureSamplingInterval <= 0 {
		err = multierr.Append(err, errors.New("controller: curvature_sampling_interval must be positive"))
	}
	if c.Controller.Latency <= 0 {
		err = multierr.Append(err, errors.New("controller: latency must be positive"))
	}
	if c.Controller.Horizon < 0 {
		err = multierr.Append(err, errors.New("controller: horizon cannot be negative"))
	}
	return err
}

// SamplerOptions converts the controller parameters for control.NewSampler.
func (c *Config) SamplerOptions() control.SamplerOptions {
	return control.SamplerOptions{
		ControlInterval:           c.Controller.ControlInterval,
		Margin:                    c.Controller.Margin,
		MaxClearance:              c.Controller.MaxClearance,
		CurvatureSamplingInterval: c.Controller.CurvatureSamplingInterval,
		Horizon:                   c.Controller.Horizon,
		Goal:                      r2.Point{X: c.Controller.Goal.X, Y: c.Controller.Goal.Y},
		UseCorrectedClearance:     c.Controller.UseCorrectedClearance,
	}
}

// CompensatorOptions converts the controller parameters for
// control.NewCompensator.
func (c *Config) CompensatorOptions() control.CompensatorOptions {
	return control.CompensatorOptions{
		SamplerOptions: c.SamplerOptions(),
		Latency:        c.Controller.Latency,
	}
}
