package nvc

import (
	gomath "math"

	"golang.org/x/exp/constraints"

	"github.com/Faultbox/vertexcache/pkg/math"
)

const unorm16Max = 65535

// AABB is an axis aligned bounding box. Quantised points are stored
// relative to the box of their frame.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// BuildAABB returns the bounds of points. An empty slice yields a zero box.
func BuildAABB(points []math.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// Extent returns Max - Min.
func (b AABB) Extent() math.Vec3 {
	return b.Max.Sub(b.Min)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PackUNorm16 maps [0, 1] onto the full uint16 range. Out of range
// values are clamped.
func PackUNorm16(v float32) uint16 {
	return uint16(gomath.Round(float64(clamp(v, 0, 1) * unorm16Max)))
}

// UnpackUNorm16 is the inverse of PackUNorm16.
func UnpackUNorm16(v uint16) float32 {
	return float32(v) / unorm16Max
}

// PackPoint quantises p relative to box. Degenerate axes pack to zero.
func PackPoint(box AABB, p math.Vec3) [3]uint16 {
	ext := box.Extent()
	rel := p.Sub(box.Min)
	return [3]uint16{
		PackUNorm16(safeDiv(rel.X, ext.X)),
		PackUNorm16(safeDiv(rel.Y, ext.Y)),
		PackUNorm16(safeDiv(rel.Z, ext.Z)),
	}
}

// UnpackPoint is the inverse of PackPoint.
func UnpackPoint(box AABB, q [3]uint16) math.Vec3 {
	ext := box.Extent()
	return math.Vec3{
		X: box.Min.X + UnpackUNorm16(q[0])*ext.X,
		Y: box.Min.Y + UnpackUNorm16(q[1])*ext.Y,
		Z: box.Min.Z + UnpackUNorm16(q[2])*ext.Z,
	}
}

func safeDiv(a, b float32) float32 {
	if b == 0 {
		return 0
	}
	return a / b
}

func signNotZero(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// OctEncode maps a direction onto the octahedron and packs the result
// into two unorm16 values.
func OctEncode(n math.Vec3) [2]uint16 {
	l1 := abs(n.X) + abs(n.Y) + abs(n.Z)
	if l1 == 0 {
		return [2]uint16{PackUNorm16(0.5), PackUNorm16(0.5)}
	}
	x, y := n.X/l1, n.Y/l1
	if n.Z < 0 {
		x, y = (1-abs(y))*signNotZero(x), (1-abs(x))*signNotZero(y)
	}
	return [2]uint16{PackUNorm16(x*0.5 + 0.5), PackUNorm16(y*0.5 + 0.5)}
}

// OctDecode is the inverse of OctEncode and returns a unit vector.
func OctDecode(e [2]uint16) math.Vec3 {
	x := UnpackUNorm16(e[0])*2 - 1
	y := UnpackUNorm16(e[1])*2 - 1
	z := 1 - abs(x) - abs(y)
	if z < 0 {
		x, y = (1-abs(y))*signNotZero(x), (1-abs(x))*signNotZero(y)
	}
	return math.Vec3{X: x, Y: y, Z: z}.Normalize()
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
