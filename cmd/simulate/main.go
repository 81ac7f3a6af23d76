// Package main runs the reactive controllers against a synthetic
// world: a static obstacle wall observed from a moving robot, stepped
// at the control interval with a mock clock so latency compensation is
// deterministic.
package main

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	"github.com/steven-swanbeck/autonomous-robots/config"
	"github.com/steven-swanbeck/autonomous-robots/control"
	"github.com/steven-swanbeck/autonomous-robots/kinematics"
	"github.com/steven-swanbeck/autonomous-robots/pointcloud"
	"github.com/steven-swanbeck/autonomous-robots/utils"
)

var logger = golog.NewDevelopmentLogger("simulate")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=path to a JSON5 config file"`
	Ticks      int    `flag:"ticks,default=200,usage=number of control ticks to run"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	cfg := config.Default()
	if argsParsed.ConfigFile != "" {
		var err error
		cfg, err = config.Read(argsParsed.ConfigFile)
		if err != nil {
			return err
		}
	}

	return simulate(ctx, cfg, argsParsed.Ticks, logger)
}

// buildWorld places an obstacle wall across the robot's path with a
// gap offset to one side, plus scattered clutter.
func buildWorld() pointcloud.Cloud {
	var world pointcloud.Cloud
	for deg := -60.0; deg <= 60.0; deg += 2.5 {
		if deg > 10 && deg < 35 {
			continue // the gap
		}
		ang := utils.DegToRad(deg)
		world = append(world, pointcloud.NewPoint(
			6.0+0.4*math.Cos(ang),
			1.2*math.Sin(ang),
		))
	}
	world = append(world,
		pointcloud.NewPoint(3.0, 1.0),
		pointcloud.NewPoint(4.5, -0.9),
	)
	return world
}

func simulate(ctx context.Context, cfg *config.Config, ticks int, logger golog.Logger) error {
	mock := clock.NewMock()
	opts := cfg.CompensatorOptions()
	opts.Clock = mock

	compensator, err := control.NewCompensator(&cfg.Vehicle, opts, logger)
	if err != nil {
		return err
	}

	world := buildWorld()
	interval := cfg.Controller.ControlInterval
	var robot kinematics.Pose
	var speed float64

	for tick := 0; tick < ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := float64(mock.Now().UnixNano()) / 1e9
		cloud, err := observe(world, robot)
		if err != nil {
			return err
		}

		cmd := compensator.GenerateCommand(cloud, speed, now)
		freePath := compensator.FreePathLength(cloud, cmd.Curvature, now)

		logger.Infow("tick",
			"n", tick,
			"t", now,
			"speed", cmd.Velocity,
			"curvature", cmd.Curvature,
			"free_path", freePath,
			"x", robot.X,
			"y", robot.Y,
			"heading_deg", utils.RadToDeg(robot.Theta),
		)

		robot = advance(robot, cmd, interval)
		speed = cmd.Velocity
		mock.Add(time.Duration(interval * float64(time.Second)))
	}
	return nil
}

// observe expresses the world points in the robot body frame.
func observe(world pointcloud.Cloud, robot kinematics.Pose) (pointcloud.Cloud, error) {
	return pointcloud.TransformToFrame(world, robot)
}

// advance integrates one command over the control interval in the
// world frame.
func advance(robot kinematics.Pose, cmd control.Command, interval float64) kinematics.Pose {
	distance := cmd.Velocity * interval
	sin, cos := math.Sin(robot.Theta), math.Cos(robot.Theta)
	if math.Abs(cmd.Curvature) < control.StraightCurvatureThreshold {
		robot.X += distance * cos
		robot.Y += distance * sin
		return robot
	}
	body := kinematics.ArcAdvance(distance*cmd.Curvature, 1/cmd.Curvature)
	robot.X += cos*body.X - sin*body.Y
	robot.Y += sin*body.X + cos*body.Y
	robot.Theta += distance * cmd.Curvature
	return robot
}
