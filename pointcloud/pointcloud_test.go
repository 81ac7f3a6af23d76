package pointcloud

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/steven-swanbeck/autonomous-robots/kinematics"
)

func TestCloudClone(t *testing.T) {
	c := Cloud{NewPoint(1, 2), NewPoint(3, 4)}
	clone := c.Clone()
	test.That(t, clone.Len(), test.ShouldEqual, 2)
	clone[0].X = 99
	test.That(t, c[0].X, test.ShouldEqual, 1)
}

func TestCloudValidate(t *testing.T) {
	test.That(t, Cloud{}.Validate(), test.ShouldBeNil)
	test.That(t, Cloud{NewPoint(1, -2)}.Validate(), test.ShouldBeNil)

	err := Cloud{NewPoint(1, 2), NewPoint(math.NaN(), 0)}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "point 1")

	err = Cloud{NewPoint(0, math.Inf(1))}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransformToFrameTranslation(t *testing.T) {
	c := Cloud{NewPoint(1, 0), NewPoint(2, 1)}
	out, err := TransformToFrame(c, kinematics.Pose{X: 0.05})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].X, test.ShouldAlmostEqual, 0.95, 1e-9)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, out[1].X, test.ShouldAlmostEqual, 1.95, 1e-9)
	test.That(t, out[1].Y, test.ShouldAlmostEqual, 1, 1e-9)

	// Input untouched.
	test.That(t, c[0].X, test.ShouldEqual, 1.0)
}

func TestTransformToFrameRotation(t *testing.T) {
	// A frame rotated a quarter turn left sees a forward point on its
	// right side.
	c := Cloud{NewPoint(1, 0)}
	out, err := TransformToFrame(c, kinematics.Pose{Theta: math.Pi / 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, -1, 1e-9)
}

func TestTransformToFrameIdentity(t *testing.T) {
	c := Cloud{NewPoint(1.5, -0.5)}
	out, err := TransformToFrame(c, kinematics.Pose{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].X, test.ShouldAlmostEqual, 1.5, 1e-12)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, -0.5, 1e-12)
}
