// Package pointcloud holds the planar obstacle clouds consumed by the
// motion controllers, along with frame transforms between body frames.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/steven-swanbeck/autonomous-robots/kinematics"
)

// NewPoint convenience method for creating a point.
func NewPoint(x, y float64) r2.Point {
	return r2.Point{X: x, Y: y}
}

// Cloud is a series of two-dimensional obstacle points expressed in
// the robot body frame, +x forward and +y left.
type Cloud []r2.Point

// Len returns the number of points.
func (c Cloud) Len() int {
	return len(c)
}

// Clone returns a copy of the cloud that shares no storage with the
// original.
func (c Cloud) Clone() Cloud {
	out := make(Cloud, len(c))
	copy(out, c)
	return out
}

// Validate rejects clouds containing non-finite coordinates.
func (c Cloud) Validate() error {
	for i, pt := range c {
		if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) || math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
			return errors.Errorf("point %d is not finite: (%v, %v)", i, pt.X, pt.Y)
		}
	}
	return nil
}

// TransformToFrame expresses the cloud in the body frame given by pose,
// where pose is the new frame's origin and heading in the cloud's
// current frame. The input cloud is never mutated.
func TransformToFrame(c Cloud, pose kinematics.Pose) (Cloud, error) {
	var inv mat.Dense
	if err := inv.Inverse(pose.Matrix()); err != nil {
		return nil, errors.Wrap(err, "cannot invert pose transform")
	}
	out := make(Cloud, len(c))
	for i, pt := range c {
		out[i] = kinematics.TransformPoint(&inv, pt)
	}
	return out, nil
}
