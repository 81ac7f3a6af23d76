package control

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/steven-swanbeck/autonomous-robots/kinematics"
	"github.com/steven-swanbeck/autonomous-robots/pointcloud"
	"github.com/steven-swanbeck/autonomous-robots/utils"
	"github.com/steven-swanbeck/autonomous-robots/vehicle"
)

const (
	// StraightCurvatureThreshold is the curvature magnitude below which
	// a primitive is treated as a straight line rather than an arc.
	StraightCurvatureThreshold = 0.01

	// SpeedSnapTolerance is the band around the speed limit within
	// which the current speed is treated as exactly the limit.
	SpeedSnapTolerance = 0.05

	defaultHorizon = 10.0

	sentinelScore      = -100.0
	clearanceWeight    = 8.0
	goalDistanceWeight = -0.5
)

// defaultGoal is the fixed forward goal a short horizon ahead of the
// robot, used when the surrounding system supplies none.
var defaultGoal = r2.Point{X: 10, Y: 0}

// SamplerOptions configure a Sampler. The zero Horizon and Goal select
// the defaults of 10 m and (10, 0).
type SamplerOptions struct {
	// ControlInterval is the time in seconds each emitted command is
	// applied for.
	ControlInterval float64
	// Margin is the additive lateral safety buffer around the footprint.
	Margin float64
	// MaxClearance caps the lateral clearance search.
	MaxClearance float64
	// CurvatureSamplingInterval is the step between sampled curvatures.
	CurvatureSamplingInterval float64
	// Horizon bounds the free path length of an unobstructed primitive.
	Horizon float64
	// Goal is the forward goal the sampler steers toward.
	Goal r2.Point
	// UseCorrectedClearance swaps the swept-arc clearance expression
	// |r·cosθ − R| for the radial distance |r − R|.
	UseCorrectedClearance bool
}

func (o *SamplerOptions) applyDefaults() {
	if o.Horizon == 0 {
		o.Horizon = defaultHorizon
	}
	if o.Goal == (r2.Point{}) {
		o.Goal = defaultGoal
	}
}

// Validate returns all constraint violations on the options at once.
func (o SamplerOptions) Validate() error {
	var err error
	if o.ControlInterval <= 0 {
		err = multierr.Append(err, errors.New("control interval must be positive"))
	}
	if o.Margin < 0 {
		err = multierr.Append(err, errors.New("margin cannot be negative"))
	}
	if o.MaxClearance <= 0 {
		err = multierr.Append(err, errors.New("max clearance must be positive"))
	}
	if o.CurvatureSamplingInterval <= 0 {
		err = multierr.Append(err, errors.New("curvature sampling interval must be positive"))
	}
	if o.Horizon <= 0 {
		err = multierr.Append(err, errors.New("horizon must be positive"))
	}
	return err
}

// Sampler is the time-optimal 1D controller. Each call to
// GenerateCommand sweeps the admissible curvature range, scores every
// constant-curvature primitive against the obstacle cloud, and emits a
// speed along the best one. A Sampler must be used from a single
// goroutine.
type Sampler struct {
	car    *vehicle.Car
	opts   SamplerOptions
	logger golog.Logger
}

// NewSampler returns a sampler borrowing the given car, which must
// outlive it.
func NewSampler(car *vehicle.Car, opts SamplerOptions, logger golog.Logger) (*Sampler, error) {
	if car == nil {
		return nil, errors.New("car is required")
	}
	if err := car.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid car")
	}
	opts.applyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid sampler options")
	}
	return &Sampler{car: car, opts: opts, logger: logger}, nil
}

// GenerateCommand selects the best primitive for the cloud and returns
// the next motion command. It always answers: rejected inputs and
// imminent collisions yield a decelerating command rather than an
// error.
func (s *Sampler) GenerateCommand(cloud pointcloud.Cloud, currentSpeed float64) Command {
	if err := validateInputs(cloud, currentSpeed); err != nil {
		s.logger.Debugw("rejecting control inputs, braking", "error", err)
		return s.brakingCommand(currentSpeed)
	}
	path := s.evaluatePaths(cloud)
	speed := s.controlSpeed(currentSpeed, path.FreePathLength)
	return Command{Velocity: speed, Curvature: path.Curvature}
}

func validateInputs(cloud pointcloud.Cloud, currentSpeed float64) error {
	if math.IsNaN(currentSpeed) || math.IsInf(currentSpeed, 0) {
		return errors.Errorf("current speed %v is not finite", currentSpeed)
	}
	if currentSpeed < 0 {
		return errors.Errorf("current speed %v is negative", currentSpeed)
	}
	return cloud.Validate()
}

func (s *Sampler) brakingCommand(currentSpeed float64) Command {
	if math.IsNaN(currentSpeed) || math.IsInf(currentSpeed, 0) {
		currentSpeed = 0
	}
	speed := currentSpeed - s.car.Limits.MaxAcceleration*s.opts.ControlInterval
	return Command{Velocity: utils.Clamp(speed, 0, s.car.Limits.MaxSpeed)}
}

// evaluatePaths scores every sampled curvature and returns the best
// candidate. Ties keep the first candidate seen, so the sweep order
// from -max to +max curvature makes selection deterministic.
func (s *Sampler) evaluatePaths(cloud pointcloud.Cloud) PathCandidate {
	best := PathCandidate{Score: sentinelScore}
	bestRaw := 0.0

	maxCurvature := s.car.Limits.MaxCurvature
	for curvature := -maxCurvature; curvature <= maxCurvature; curvature += s.opts.CurvatureSamplingInterval {
		raw := s.freePathLength(cloud, curvature)
		candidate := PathCandidate{
			Curvature:      curvature,
			FreePathLength: math.Max(0, raw),
		}
		candidate.Clearance = s.clearance(cloud, curvature, candidate.FreePathLength)
		candidate.GoalDistance = s.distanceToGoal(curvature)
		candidate.Score = candidate.FreePathLength +
			clearanceWeight*candidate.Clearance +
			goalDistanceWeight*candidate.GoalDistance
		if candidate.Score > best.Score {
			best = candidate
			bestRaw = raw
		}
	}

	if bestRaw < 0 {
		s.logger.Warnw("free path length is negative, collision may be unavoidable",
			"free_path_length", bestRaw, "curvature", best.Curvature)
	}
	return best
}

// freePathLength returns the distance the car can travel along the
// primitive of the given curvature before its swept footprint contacts
// a cloud point. The value is uncapped below zero so callers can tell
// how far into the footprint an obstacle already sits.
func (s *Sampler) freePathLength(cloud pointcloud.Cloud, curvature float64) float64 {
	frontOffset := s.opts.Margin + (s.car.Dimensions.Length+s.car.Dimensions.Wheelbase)/2
	halfWidth := s.car.Dimensions.Width/2 + s.opts.Margin
	freePathLength := s.opts.Horizon - frontOffset

	if math.Abs(curvature) < StraightCurvatureThreshold {
		for _, pt := range cloud {
			if math.Abs(pt.Y) <= halfWidth && pt.X > 0 {
				if candidate := pt.X - frontOffset; candidate < freePathLength {
					freePathLength = candidate
				}
			}
		}
		return freePathLength
	}

	radius := kinematics.ArcRadius(curvature)

	// Swept radii of the footprint corners about the center of rotation
	// at (0, radius).
	innerRear := radius - halfWidth
	innerFront := math.Sqrt(utils.Square(innerRear) + utils.Square(frontOffset))
	outerFront := math.Sqrt(utils.Square(radius+halfWidth) + utils.Square(frontOffset))
	rearOffset := s.opts.Margin + (s.car.Dimensions.Length-s.car.Dimensions.Wheelbase)/2
	outerRear := math.Sqrt(utils.Square(radius+halfWidth) + utils.Square(rearOffset))

	for _, pt := range cloud {
		x, y := pt.X, pt.Y
		// Right turns reduce to left turns by reflection.
		if curvature < 0 {
			y = -y
		}

		r := math.Sqrt(utils.Square(x) + utils.Square(radius-y))
		theta := math.Atan2(x, radius-y)

		// Points outside the swept annulus can never be struck.
		if r < innerRear || r > math.Max(outerFront, outerRear) {
			continue
		}

		switch {
		case r < innerFront && theta > 0:
			// The point strikes the inner side of the car.
			psi := math.Acos(innerRear / r)
			if phi := theta - psi; radius*phi < freePathLength {
				freePathLength = radius * phi
			}
		case r < outerFront && theta > 0:
			// The point strikes the front of the car.
			psi := math.Asin(frontOffset / r)
			if phi := theta - psi; radius*phi < freePathLength {
				freePathLength = radius * phi
			}
		}
		// A point between the outer rear axle radius (radius+halfWidth)
		// and the outer rear corner radius, beside the rear overhang, is
		// not tested for a strike: outerRear only widens the cull above,
		// and such points never shorten the free path.
	}
	return freePathLength
}

// clearance returns the lateral distance from the swept footprint to
// the nearest obstacle over the free path, capped at the configured
// maximum.
func (s *Sampler) clearance(cloud pointcloud.Cloud, curvature, freePathLength float64) float64 {
	halfWidth := s.car.Dimensions.Width/2 + s.opts.Margin
	wheelbase := s.car.Dimensions.Wheelbase
	minClearance := s.opts.MaxClearance

	if math.Abs(curvature) < StraightCurvatureThreshold {
		for _, pt := range cloud {
			absY := math.Abs(pt.Y)
			if halfWidth <= absY && absY <= s.opts.MaxClearance &&
				0 <= pt.X && pt.X <= freePathLength+wheelbase {
				if c := absY - wheelbase/2 - s.opts.Margin; c < minClearance {
					minClearance = c
				}
			}
		}
		return utils.Clamp(minClearance, 0, s.opts.MaxClearance)
	}

	radius := kinematics.ArcRadius(curvature)
	phi := freePathLength / radius

	for _, pt := range cloud {
		x, y := pt.X, pt.Y
		if curvature < 0 {
			y = -y
		}

		r := math.Sqrt(utils.Square(x) + utils.Square(radius-y))
		theta := math.Atan2(x, radius-y)

		// Points swept past while the car travels the free path.
		if 0 <= theta && theta <= phi &&
			radius-halfWidth-s.opts.MaxClearance <= r &&
			r <= radius+halfWidth+s.opts.MaxClearance {
			swept := math.Abs(r*math.Cos(theta) - radius)
			if s.opts.UseCorrectedClearance {
				swept = math.Abs(r - radius)
			}
			if c := swept - halfWidth; c < minClearance {
				minClearance = c
			}
		}

		// Points beside the car at the end of the swept arc.
		end := kinematics.ICRTransform(x, y, phi, radius)
		absY := math.Abs(end.Y)
		if halfWidth <= absY && absY <= s.opts.MaxClearance &&
			0 <= end.X && end.X <= wheelbase/2 {
			if c := absY - halfWidth; c < minClearance {
				minClearance = c
			}
		}
	}
	return utils.Clamp(minClearance, 0, s.opts.MaxClearance)
}

// distanceToGoal measures how far from the goal the robot would end up
// after following the primitive at full speed for one control interval.
func (s *Sampler) distanceToGoal(curvature float64) float64 {
	advance := s.car.Limits.MaxSpeed * s.opts.ControlInterval
	projected := r2.Point{X: advance}
	if math.Abs(curvature) >= StraightCurvatureThreshold {
		radius := 1 / curvature
		projected = kinematics.ArcAdvance(advance/radius, radius)
	}
	return s.opts.Goal.Sub(projected).Norm()
}

// controlSpeed is the time-optimal 1D speed rule: accelerate while the
// free path still fits the post-acceleration stopping distance, cruise
// at the limit, otherwise decelerate. The branch order matters; the
// accelerate test already excludes cases that must brake.
func (s *Sampler) controlSpeed(currentSpeed, freePathLength float64) float64 {
	maxSpeed := s.car.Limits.MaxSpeed
	maxAccel := s.car.Limits.MaxAcceleration
	interval := s.opts.ControlInterval

	if scalar.EqualWithinAbs(currentSpeed, maxSpeed, SpeedSnapTolerance) {
		currentSpeed = maxSpeed
	}

	accelStep := maxAccel * interval
	var controlSpeed float64
	switch {
	case currentSpeed < maxSpeed &&
		freePathLength >= currentSpeed*interval+accelStep*interval/2+
			utils.Square(currentSpeed+accelStep)/(2*maxAccel):
		controlSpeed = currentSpeed + accelStep
	case currentSpeed == maxSpeed &&
		freePathLength >= currentSpeed*interval+utils.Square(maxSpeed)/(2*maxAccel):
		controlSpeed = currentSpeed
	case freePathLength < utils.Square(currentSpeed)/(2*maxAccel):
		controlSpeed = currentSpeed - accelStep
	default:
		controlSpeed = currentSpeed - accelStep
		s.logger.Warnw("not enough room to decelerate, expecting collision",
			"free_path_length", freePathLength)
	}

	return utils.Clamp(controlSpeed, 0, maxSpeed)
}
