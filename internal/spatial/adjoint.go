package spatial

// The two Plücker adjoint constructors below use opposite sign conventions
// for the lower-left block and are NOT interchangeable:
//
//	AdjointFromRotationTranslation: [[R, 0], [-R·skew(p), R]]
//	AdjointFromTransform:           [[R, 0], [ skew(p)·R, R]]
//
// They are therefore exposed as two distinct named types, so a transform
// built under one convention cannot be consumed under the other.

// WorldToBodyAdjoint is a 6×6 spatial transform built from a rotation and a
// translation, with lower-left block -R·skew(p).
type WorldToBodyAdjoint Mat6

// BodyPoseAdjoint is a 6×6 spatial transform built from a homogeneous pose,
// with lower-left block skew(p)·R.
type BodyPoseAdjoint Mat6

// AdjointFromRotationTranslation builds [[R, 0], [-R·skew(p), R]].
// R must be orthonormal; this is not re-validated.
func AdjointFromRotationTranslation(r Mat3, p Vec3) WorldToBodyAdjoint {
	lower := r.Mul(Skew(p)).Scale(-1)
	return WorldToBodyAdjoint(mat6FromBlocks(r, Mat3{}, lower, r))
}

// RotationTranslation recovers (R, p) from the adjoint. The translation is
// read from the antisymmetric part of Rᵀ·X_lowerLeft.
func (x WorldToBodyAdjoint) RotationTranslation() (Mat3, Vec3) {
	m := Mat6(x)
	r := m.Block(0, 0)
	p := Vee(r.Transpose().Mul(m.Block(3, 0))).Scale(-1)
	return r, p
}

// AdjointFromTransform builds [[R, 0], [skew(p)·R, R]] from a rigid
// homogeneous transform H = [[R, p], [0 0 0 1]].
func AdjointFromTransform(h Mat4) BodyPoseAdjoint {
	r := h.Rotation()
	p := h.Translation()
	lower := Skew(p).Mul(r)
	return BodyPoseAdjoint(mat6FromBlocks(r, Mat3{}, lower, r))
}

// Transform recovers the homogeneous transform from the adjoint.
func (x BodyPoseAdjoint) Transform() Mat4 {
	m := Mat6(x)
	r := m.Block(0, 0)
	p := Vee(m.Block(3, 0).Mul(r.Transpose()))
	return Mat4FromRotationTranslation(r, p)
}

func (x WorldToBodyAdjoint) Mat6() Mat6 { return Mat6(x) }
func (x BodyPoseAdjoint) Mat6() Mat6    { return Mat6(x) }
