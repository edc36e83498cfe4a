package tui

import (
	"github.com/kvats/rigidsim/internal/model"
	"github.com/kvats/rigidsim/internal/spatial"
)

type canvas struct {
	grid [][]rune
	w, h int
}

func newCanvas(w, h int) *canvas {
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = make([]rune, w)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}
	return &canvas{grid: grid, w: w, h: h}
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.grid[y][x] = r
	}
}

func (c *canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// drawChain projects the link frames of the model onto the x-z plane and
// draws the kinematic tree, with a ground line at z=0 when in view.
func drawChain(c *canvas, m *model.Model) {
	d := m.Data()
	world, err := m.Physics().ForwardKinematics(d.BasePose, d.JointPositions)
	if err != nil {
		return
	}

	pts := make([]spatial.Vec3, len(world))
	for i, h := range world {
		pts[i] = h.Translation()
	}

	minX, maxX := pts[0][0], pts[0][0]
	minZ, maxZ := pts[0][2], pts[0][2]
	for _, p := range pts {
		if p[0] < minX {
			minX = p[0]
		}
		if p[0] > maxX {
			maxX = p[0]
		}
		if p[2] < minZ {
			minZ = p[2]
		}
		if p[2] > maxZ {
			maxZ = p[2]
		}
	}

	// Keep a minimum 2.4m window so a swinging chain stays in frame.
	grow(&minX, &maxX, 2.4)
	grow(&minZ, &maxZ, 2.4)

	col := func(x float64) int {
		return int((x - minX) / (maxX - minX) * float64(c.w-1))
	}
	row := func(z float64) int {
		return c.h - 1 - int((z-minZ)/(maxZ-minZ)*float64(c.h-1))
	}

	if minZ <= 0 && 0 <= maxZ {
		gy := row(0)
		for x := 0; x < c.w; x++ {
			c.set(x, gy, '─')
		}
	}

	links := m.Physics().Links()
	for i, link := range links {
		if link.Parent < 0 {
			continue
		}
		p := pts[link.Parent]
		q := pts[i]
		c.line(col(p[0]), row(p[2]), col(q[0]), row(q[2]), '│')
	}
	for i, link := range links {
		if link.Parent < 0 {
			c.set(col(pts[i][0]), row(pts[i][2]), '▼')
		} else {
			c.set(col(pts[i][0]), row(pts[i][2]), '●')
		}
	}
}

func grow(lo, hi *float64, span float64) {
	if *hi-*lo >= span {
		pad := (*hi - *lo) * 0.1
		*lo -= pad
		*hi += pad
		return
	}
	mid := (*lo + *hi) / 2
	*lo = mid - span/2
	*hi = mid + span/2
}
