package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

// axisAngle builds a rotation of angle radians around a unit axis.
func axisAngle(axis Vec3, angle float64) Quat {
	s := float32(math.Sin(angle / 2))
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: float32(math.Cos(angle / 2))}
}

// rotate applies q to v.
func rotate(q Quat, v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func TestQuatFlipHandedness(t *testing.T) {
	axes := []Vec3{{Y: 1}, {X: 1}, Vec3{X: 0.3, Y: 0.5, Z: 0.8}.Normalize()}
	v := Vec3{X: 1, Y: 2, Z: 3}

	for _, axis := range axes {
		q := axisAngle(axis, 0.7)

		// Rotating a mirrored vector with the mirrored rotation must equal
		// mirroring the rotated vector.
		got := rotate(q.FlipHandedness(), v.FlipX())
		want := rotate(q, v).FlipX()
		if got.Sub(want).Length() > 0.0001 {
			t.Errorf("FlipHandedness around %v: expected %v, got %v", axis, want, got)
		}
	}
}
