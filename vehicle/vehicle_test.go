package vehicle

import (
	"testing"

	"go.viam.com/test"
)

func validCar() Car {
	return Car{
		Dimensions: Dimensions{Width: 0.28, Length: 0.5, Wheelbase: 0.32},
		Limits:     Limits{MaxSpeed: 1.0, MaxAcceleration: 4.0, MaxCurvature: 1.0},
	}
}

func TestCarValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(c *Car)
		err    string
	}{
		{"valid", func(c *Car) {}, ""},
		{"zero width", func(c *Car) { c.Dimensions.Width = 0 }, "width must be positive"},
		{"negative length", func(c *Car) { c.Dimensions.Length = -1 }, "length must be positive"},
		{"zero wheelbase", func(c *Car) { c.Dimensions.Wheelbase = 0 }, "wheelbase must be positive"},
		{"wheelbase exceeds length", func(c *Car) { c.Dimensions.Wheelbase = 0.6 }, "cannot exceed length"},
		{"zero max speed", func(c *Car) { c.Limits.MaxSpeed = 0 }, "max_speed must be positive"},
		{"negative max acceleration", func(c *Car) { c.Limits.MaxAcceleration = -4 }, "max_acceleration must be positive"},
		{"zero max curvature", func(c *Car) { c.Limits.MaxCurvature = 0 }, "max_curvature must be positive"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			car := validCar()
			tc.mutate(&car)
			err := car.Validate()
			if tc.err == "" {
				test.That(t, err, test.ShouldBeNil)
			} else {
				test.That(t, err, test.ShouldNotBeNil)
				test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
			}
		})
	}
}

func TestCarValidateCombinesErrors(t *testing.T) {
	car := Car{}
	err := car.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "width must be positive")
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_curvature must be positive")
}
