package physics

import "github.com/kvats/rigidsim/internal/spatial"

// Terrain describes the world support surface queried by contact resolution.
type Terrain interface {
	// Height returns the terrain height at the given world (x, y).
	Height(x, y float64) float64
	// Normal returns the outward surface normal at the given world (x, y).
	Normal(x, y float64) spatial.Vec3
}

// FlatTerrain is a horizontal plane at a fixed height.
type FlatTerrain struct {
	Z float64
}

func (t FlatTerrain) Height(x, y float64) float64 { return t.Z }

func (t FlatTerrain) Normal(x, y float64) spatial.Vec3 { return spatial.Vec3{0, 0, 1} }
