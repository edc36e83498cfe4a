package spatial

// Skew maps a 3-vector to its cross-product matrix, so that
// Skew(a).MulVec(b) == a.Cross(b).
func Skew(v Vec3) Mat3 {
	return Mat3{
		0, -v[2], v[1],
		v[2], 0, -v[0],
		-v[1], v[0], 0,
	}
}

// Vee extracts the 3-vector from a skew-symmetric matrix. Only the
// antisymmetric part of m contributes; any symmetric component is dropped.
func Vee(m Mat3) Vec3 {
	return Vec3{
		0.5 * (m[7] - m[5]),
		0.5 * (m[2] - m[6]),
		0.5 * (m[3] - m[1]),
	}
}
