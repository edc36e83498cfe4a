package physics

import "github.com/kvats/rigidsim/internal/spatial"

// SoftContactsParams bundles the constants of the soft-contact force law:
// normal spring stiffness K, normal damping D and friction coefficient Mu.
type SoftContactsParams struct {
	K  float64
	D  float64
	Mu float64
}

func DefaultSoftContactsParams() SoftContactsParams {
	return SoftContactsParams{K: 1e6, D: 2000.0, Mu: 0.5}
}

// NormalForce returns the normal contact force for a point at the given
// penetration depth (positive below the surface) moving with the given normal
// velocity. Zero outside contact; the spring-damper force never pulls.
func (p SoftContactsParams) NormalForce(penetration, normalVelocity float64) float64 {
	if penetration <= 0 {
		return 0
	}
	f := p.K*penetration - p.D*normalVelocity
	if f < 0 {
		return 0
	}
	return f
}

// DefaultGravity is the standard downward gravity vector.
func DefaultGravity() spatial.Vec3 {
	return spatial.Vec3{0, 0, -StandardGravity}
}

// StandardGravity is the standard gravitational acceleration magnitude.
const StandardGravity = 9.80665
