package common

import "math"

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Vec3 is a world-space point or direction. Y is up; roads live in the XZ plane.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var (
	Up      = Vec3{Y: 1}
	Forward = Vec3{Z: 1}
)

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns the unit vector, or the zero vector when v has no length.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 {
	return Vec3{X: v.X, Z: v.Z}
}

func (v Vec3) Distance(o Vec3) float64 {
	return o.Sub(v).Length()
}

// FlatDistance is the distance measured in the XZ plane.
func (v Vec3) FlatDistance(o Vec3) float64 {
	return o.Sub(v).Flat().Length()
}

func LerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t), Z: Lerp(a.Z, b.Z, t)}
}

// Right returns the right-hand vector for a forward direction (forward x up negated,
// so that +Z forward gives +X right).
func Right(forward Vec3) Vec3 {
	return Up.Cross(forward).Normalized()
}

// YawOf returns the heading in radians that looks along dir; 0 faces +Z.
func YawOf(dir Vec3) float64 {
	return math.Atan2(dir.X, dir.Z)
}

// YawForward returns the unit forward vector for a heading.
func YawForward(yaw float64) Vec3 {
	return Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// RotateYaw rotates v around the up axis by yaw radians.
func RotateYaw(v Vec3, yaw float64) Vec3 {
	s, c := math.Sincos(yaw)
	return Vec3{
		X: v.X*c + v.Z*s,
		Y: v.Y,
		Z: -v.X*s + v.Z*c,
	}
}

// DeltaAngle is the shortest signed difference between two headings in radians.
func DeltaAngle(from, to float64) float64 {
	d := math.Mod(to-from, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// SlerpYaw interpolates along the shortest arc. For rotations about a single axis this
// matches quaternion slerp.
func SlerpYaw(from, to, t float64) float64 {
	return from + DeltaAngle(from, to)*Clamp01(t)
}
