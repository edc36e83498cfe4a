package spatial

import "math"

// Vec3 is a 3-vector.
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3   { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3   { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vec3) Dot(o Vec3) float64   { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Mat3 is a 3×3 matrix stored row-major: [r0c0, r0c1, r0c2, r1c0, ...].
// Value type for zero heap allocation.
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mul returns m × o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3+0]*o[0*3+c] + m[r*3+1]*o[1*3+c] + m[r*3+2]*o[2*3+c]
		}
	}
	return out
}

// MulVec returns m × v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

func (m Mat3) Add(o Mat3) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = m[i] + o[i]
	}
	return out
}

func (m Mat3) Scale(s float64) Mat3 {
	var out Mat3
	for i := range m {
		out[i] = m[i] * s
	}
	return out
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// RotationAxisAngle returns the rotation of angle radians about a unit axis
// (Rodrigues' formula).
func RotationAxisAngle(axis Vec3, angle float64) Mat3 {
	s, c := math.Sin(angle), math.Cos(angle)
	k := Skew(axis)
	return Mat3Identity().Add(k.Scale(s)).Add(k.Mul(k).Scale(1 - c))
}

// Mat4 is a 4×4 homogeneous transform stored row-major.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4FromRotationTranslation assembles [[R, p], [0 0 0 1]].
func Mat4FromRotationTranslation(r Mat3, p Vec3) Mat4 {
	return Mat4{
		r[0], r[1], r[2], p[0],
		r[3], r[4], r[5], p[1],
		r[6], r[7], r[8], p[2],
		0, 0, 0, 1,
	}
}

func (m Mat4) Rotation() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// Mul returns m × o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * o[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// ApplyPoint transforms a point: R·v + p.
func (m Mat4) ApplyPoint(v Vec3) Vec3 {
	return m.Rotation().MulVec(v).Add(m.Translation())
}

// Mat6 is a 6×6 spatial matrix stored row-major.
type Mat6 [36]float64

func Mat6Identity() Mat6 {
	var m Mat6
	for i := 0; i < 6; i++ {
		m[i*6+i] = 1
	}
	return m
}

// MulVec returns m × v for a 6-dimensional spatial vector.
func (m Mat6) MulVec(v [6]float64) [6]float64 {
	var out [6]float64
	for r := 0; r < 6; r++ {
		sum := 0.0
		for c := 0; c < 6; c++ {
			sum += m[r*6+c] * v[c]
		}
		out[r] = sum
	}
	return out
}

// Block returns the 3×3 block whose top-left element is (r0, c0).
func (m Mat6) Block(r0, c0 int) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[(r0+r)*6+c0+c]
		}
	}
	return out
}

// mat6FromBlocks assembles [[a, b], [c, d]].
func mat6FromBlocks(a, b, c, d Mat3) Mat6 {
	var m Mat6
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			m[r*6+col] = a[r*3+col]
			m[r*6+col+3] = b[r*3+col]
			m[(r+3)*6+col] = c[r*3+col]
			m[(r+3)*6+col+3] = d[r*3+col]
		}
	}
	return m
}
