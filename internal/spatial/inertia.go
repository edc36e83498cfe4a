package spatial

// SpatialInertia assembles the 6×6 spatial inertia of a body with the given
// mass, center of mass (in the body frame) and 3×3 rotational inertia about
// the center of mass:
//
//	[[Ic + m·S·Sᵀ, m·S], [m·Sᵀ, m·1]]  with S = skew(com)
func SpatialInertia(mass float64, com Vec3, ic Mat3) Mat6 {
	s := Skew(com)
	st := s.Transpose()

	upperLeft := ic.Add(s.Mul(st).Scale(mass))
	upperRight := s.Scale(mass)
	lowerLeft := st.Scale(mass)
	lowerRight := Mat3Identity().Scale(mass)

	return mat6FromBlocks(upperLeft, upperRight, lowerLeft, lowerRight)
}
