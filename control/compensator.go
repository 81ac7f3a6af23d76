package control

import (
	"math"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/steven-swanbeck/autonomous-robots/pointcloud"
	"github.com/steven-swanbeck/autonomous-robots/vehicle"
)

// CompensatorOptions configure a Compensator. The zero Clock selects
// the real monotonic clock.
type CompensatorOptions struct {
	SamplerOptions
	// Latency is the delay in seconds between issuing a command and
	// seeing its effect in sensor data.
	Latency float64
	// Clock stamps and prunes the command history.
	Clock clock.Clock
}

// Compensator wraps a Sampler with forward simulation of the commands
// that have been issued but are not yet reflected in sensor data. Each
// tick it projects the robot state through the in-flight commands,
// re-expresses the cloud in that predicted frame, and delegates to the
// sampler. A Compensator must be owned by exactly one goroutine.
type Compensator struct {
	latency float64
	sampler *Sampler
	clock   clock.Clock
	logger  golog.Logger

	// history holds the commands still in flight, oldest first, with
	// non-decreasing timestamps.
	history []CommandStamped
}

// NewCompensator returns a compensator owning a new inner sampler. The
// borrowed car must outlive it.
func NewCompensator(car *vehicle.Car, opts CompensatorOptions, logger golog.Logger) (*Compensator, error) {
	if opts.Latency <= 0 {
		return nil, errors.New("latency must be positive")
	}
	sampler, err := NewSampler(car, opts.SamplerOptions, logger)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Compensator{
		latency: opts.Latency,
		sampler: sampler,
		clock:   opts.Clock,
		logger:  logger,
	}, nil
}

// now returns monotonic seconds since the clock epoch.
func (c *Compensator) now() float64 {
	return float64(c.clock.Now().UnixNano()) / 1e9
}

// RecordCommand appends a command stamped with the current time.
func (c *Compensator) RecordCommand(cmd Command) {
	c.RecordCommandStamped(CommandStamped{Command: cmd, Timestamp: c.now()})
}

// RecordCommandStamped appends a stamped command to the history. A
// timestamp earlier than the history tail is clamped to the tail so
// timestamps stay non-decreasing.
func (c *Compensator) RecordCommandStamped(cmd CommandStamped) {
	if n := len(c.history); n > 0 && cmd.Timestamp < c.history[n-1].Timestamp {
		c.logger.Debugw("clamping non-monotonic command timestamp",
			"timestamp", cmd.Timestamp, "tail", c.history[n-1].Timestamp)
		cmd.Timestamp = c.history[n-1].Timestamp
	}
	c.history = append(c.history, cmd)
}

// GenerateCommand projects the robot state through the in-flight
// command history, transforms the cloud into the predicted frame, and
// emits the sampler's command for it. The emitted command is recorded
// so later ticks compensate for it in turn.
func (c *Compensator) GenerateCommand(cloud pointcloud.Cloud, currentSpeed, sensorTimestamp float64) Command {
	state := c.projectState(currentSpeed, sensorTimestamp)

	transformed, err := pointcloud.TransformToFrame(cloud, state.Pose)
	if err != nil {
		c.logger.Debugw("cannot transform cloud into predicted frame, braking", "error", err)
		cmd := c.sampler.brakingCommand(currentSpeed)
		c.RecordCommand(cmd)
		return cmd
	}

	cmd := c.sampler.GenerateCommand(transformed, state.Speed)
	c.RecordCommand(cmd)
	return cmd
}

// FreePathLength probes the free path along one curvature as seen from
// the predicted frame, for diagnostics and fallback control. The
// projection is seeded with zero speed.
func (c *Compensator) FreePathLength(cloud pointcloud.Cloud, curvature, sensorTimestamp float64) float64 {
	state := c.projectState(0, sensorTimestamp)
	transformed, err := pointcloud.TransformToFrame(cloud, state.Pose)
	if err != nil {
		c.logger.Debugw("cannot transform cloud into predicted frame", "error", err)
		transformed = cloud.Clone()
	}
	return c.sampler.freePathLength(transformed, curvature)
}

// projectState advances the seed state through every command still in
// flight. Commands older than the latency window have already taken
// effect in the sensor data and are pruned first.
func (c *Compensator) projectState(currentSpeed, sensorTimestamp float64) State2D {
	state := State2D{Speed: currentSpeed}
	if len(c.history) == 0 {
		return state
	}

	threshold := c.now()
	for len(c.history) > 0 && threshold-c.history[0].Timestamp >= c.latency {
		c.history = c.history[1:]
	}

	interval := c.sampler.opts.ControlInterval
	for _, stamped := range c.history {
		distance := stamped.Command.Velocity * interval
		if math.Abs(stamped.Command.Curvature) > StraightCurvatureThreshold {
			radius := 1 / stamped.Command.Curvature
			dtheta := distance / radius
			state.Pose.X += distance * math.Cos(dtheta)
			state.Pose.Y += distance * math.Sin(dtheta)
			state.Pose.Theta += dtheta
		} else {
			state.Pose.X += distance
		}
		state.Speed = stamped.Command.Velocity
	}

	c.logger.Debugw("projected state through in-flight commands",
		"x", state.Pose.X, "y", state.Pose.Y, "theta", state.Pose.Theta,
		"speed", state.Speed, "commands", len(c.history),
		"sensor_timestamp", sensorTimestamp)
	return state
}
