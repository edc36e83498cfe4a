package model

import "fmt"

// VelRepr enumerates the frame in which 6D velocities are expressed.
type VelRepr int

const (
	VelReprInertial VelRepr = iota
	VelReprBody
	VelReprMixed
)

func (v VelRepr) String() string {
	switch v {
	case VelReprInertial:
		return "inertial"
	case VelReprBody:
		return "body"
	case VelReprMixed:
		return "mixed"
	}
	return "unknown"
}

// ParseVelRepr maps a configuration string to a velocity representation.
func ParseVelRepr(s string) (VelRepr, error) {
	switch s {
	case "inertial":
		return VelReprInertial, nil
	case "body":
		return VelReprBody, nil
	case "mixed":
		return VelReprMixed, nil
	}
	return 0, fmt.Errorf("model: unknown velocity representation %q", s)
}
