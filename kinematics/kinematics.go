// Package kinematics provides the planar arc and frame primitives used
// by the motion controllers: instantaneous-center-of-rotation
// transforms, arc advancement, and homogeneous 2D pose composition.
package kinematics

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// ArcRadius returns the turning radius for a curvature. Right turns
// are handled by reflecting point y-coordinates, so the radius is
// always positive. The caller must branch away curvatures below the
// straight-line threshold before calling this.
func ArcRadius(curvature float64) float64 {
	return 1 / math.Abs(curvature)
}

// ArcAdvance returns the position reached after sweeping an arc angle
// phi on a circle of (signed) radius centered at (0, radius).
func ArcAdvance(phi, radius float64) r2.Point {
	return r2.Point{X: radius * math.Sin(phi), Y: radius - radius*math.Cos(phi)}
}

// ICRTransform expresses the point (x, y) in the body frame the robot
// occupies after advancing by arc angle phi about the instantaneous
// center of rotation at (0, radius).
func ICRTransform(x, y, phi, radius float64) r2.Point {
	origin := ArcAdvance(phi, radius)
	dx := x - origin.X
	dy := y - origin.Y
	sin, cos := math.Sin(phi), math.Cos(phi)
	return r2.Point{
		X: cos*dx + sin*dy,
		Y: -sin*dx + cos*dy,
	}
}

// Pose is a planar rigid transform: a translation and a heading.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Matrix returns the 3x3 homogeneous transform mapping points in the
// pose's frame into the frame the pose is expressed in.
func (p Pose) Matrix() *mat.Dense {
	sin, cos := math.Sin(p.Theta), math.Cos(p.Theta)
	return mat.NewDense(3, 3, []float64{
		cos, -sin, p.X,
		sin, cos, p.Y,
		0, 0, 1,
	})
}

// TransformPoint applies a homogeneous transform to a 2D point.
func TransformPoint(m *mat.Dense, pt r2.Point) r2.Point {
	augmented := mat.NewVecDense(3, []float64{pt.X, pt.Y, 1})
	var out mat.VecDense
	out.MulVec(m, augmented)
	return r2.Point{X: out.AtVec(0), Y: out.AtVec(1)}
}
