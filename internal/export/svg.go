package export

import (
	"fmt"
	"strings"
)

type Point struct {
	X, Y float64
}

// SeriesToSVG plots one value against time as an SVG polyline.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	n := len(times)
	if len(values) < n {
		n = len(values)
	}
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{X: times[i], Y: values[i]}
	}
	return PathToSVG(points, width, height, strokeColor)
}

// PhaseToSVG plots position against velocity as an SVG polyline.
func PhaseToSVG(positions, velocities []float64, width, height int, strokeColor string) string {
	n := len(positions)
	if len(velocities) < n {
		n = len(velocities)
	}
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{X: positions[i], Y: velocities[i]}
	}
	return PathToSVG(points, width, height, strokeColor)
}

// PathToSVG creates an SVG from a point trace.
func PathToSVG(points []Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	// Find bounds
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
