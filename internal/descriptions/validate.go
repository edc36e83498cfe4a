package descriptions

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants of the description: unique names,
// resolvable joint endpoints, exactly one root link, positive masses and
// unit-length movable-joint axes. All failures wrap ErrMalformedDescription.
func (d *ModelDescription) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty model name", ErrMalformedDescription)
	}
	if len(d.Links) == 0 {
		return fmt.Errorf("%w: model %q has no links", ErrMalformedDescription, d.Name)
	}

	links := make(map[string]bool, len(d.Links))
	for _, l := range d.Links {
		if l.Name == "" {
			return fmt.Errorf("%w: link with empty name", ErrMalformedDescription)
		}
		if links[l.Name] {
			return fmt.Errorf("%w: duplicate link name %q", ErrMalformedDescription, l.Name)
		}
		links[l.Name] = true

		if l.Mass <= 0 {
			return fmt.Errorf("%w: link %q has non-positive mass %g", ErrMalformedDescription, l.Name, l.Mass)
		}
	}

	joints := make(map[string]bool, len(d.Joints))
	childCount := make(map[string]int, len(d.Links))
	for _, j := range d.Joints {
		if j.Name == "" {
			return fmt.Errorf("%w: joint with empty name", ErrMalformedDescription)
		}
		if joints[j.Name] {
			return fmt.Errorf("%w: duplicate joint name %q", ErrMalformedDescription, j.Name)
		}
		joints[j.Name] = true

		if !links[j.Parent] {
			return fmt.Errorf("%w: joint %q references unknown parent link %q", ErrMalformedDescription, j.Name, j.Parent)
		}
		if !links[j.Child] {
			return fmt.Errorf("%w: joint %q references unknown child link %q", ErrMalformedDescription, j.Name, j.Child)
		}
		if j.Parent == j.Child {
			return fmt.Errorf("%w: joint %q connects link %q to itself", ErrMalformedDescription, j.Name, j.Parent)
		}

		childCount[j.Child]++
		if childCount[j.Child] > 1 {
			return fmt.Errorf("%w: link %q has more than one parent joint", ErrMalformedDescription, j.Child)
		}

		if j.Type != JointFixed {
			if n := j.Axis.Norm(); math.Abs(n-1) > 1e-6 {
				return fmt.Errorf("%w: joint %q axis has norm %g, expected 1", ErrMalformedDescription, j.Name, n)
			}
		}
	}

	roots := 0
	for _, l := range d.Links {
		if childCount[l.Name] == 0 {
			roots++
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: model %q has %d root links, expected exactly 1", ErrMalformedDescription, d.Name, roots)
	}

	for _, c := range d.Collisions {
		if !links[c.Link] {
			return fmt.Errorf("%w: collision references unknown link %q", ErrMalformedDescription, c.Link)
		}
		switch c.Shape {
		case ShapeSphere, ShapeBox, ShapePlane:
		default:
			return fmt.Errorf("%w: unknown collision shape %q", ErrMalformedDescription, c.Shape)
		}
	}

	return nil
}
