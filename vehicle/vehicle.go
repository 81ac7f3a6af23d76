// Package vehicle describes the geometry and actuation limits of a
// car-like ground vehicle.
package vehicle

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Dimensions is the rectangular footprint of the car in meters. The
// rear axle sits (Length-Wheelbase)/2 ahead of the rear bumper.
type Dimensions struct {
	Width     float64 `json:"width"`
	Length    float64 `json:"length"`
	Wheelbase float64 `json:"wheelbase"`
}

// Limits are the actuation limits of the car.
type Limits struct {
	MaxSpeed        float64 `json:"max_speed"`
	MaxAcceleration float64 `json:"max_acceleration"`
	MaxCurvature    float64 `json:"max_curvature"`
}

// Car aggregates the dimensions and limits of one vehicle. It never
// mutates during a run; controllers borrow it for their lifetime.
type Car struct {
	Dimensions Dimensions `json:"dimensions"`
	Limits     Limits     `json:"limits"`
}

// Validate returns all constraint violations on the car at once.
func (c *Car) Validate() error {
	var err error
	if c.Dimensions.Width <= 0 {
		err = multierr.Append(err, errors.New("width must be positive"))
	}
	if c.Dimensions.Length <= 0 {
		err = multierr.Append(err, errors.New("length must be positive"))
	}
	if c.Dimensions.Wheelbase <= 0 {
		err = multierr.Append(err, errors.New("wheelbase must be positive"))
	}
	if c.Dimensions.Wheelbase > c.Dimensions.Length {
		err = multierr.Append(err, errors.Errorf(
			"wheelbase %v cannot exceed length %v", c.Dimensions.Wheelbase, c.Dimensions.Length))
	}
	if c.Limits.MaxSpeed <= 0 {
		err = multierr.Append(err, errors.New("max_speed must be positive"))
	}
	if c.Limits.MaxAcceleration <= 0 {
		err = multierr.Append(err, errors.New("max_acceleration must be positive"))
	}
	if c.Limits.MaxCurvature <= 0 {
		err = multierr.Append(err, errors.New("max_curvature must be positive"))
	}
	return err
}
