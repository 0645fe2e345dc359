/*
Copyright © 2025 the sectprep authors.
This file is part of sectprep.

sectprep is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

sectprep is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with sectprep.  If not, see <http://www.gnu.org/licenses/>.
*/

package sectprep

import (
	"math"

	"github.com/ctessum/geom"
)

// Section is the planimetric trace of one vertical cross-section. The
// section's local coordinate system has its origin at the first vertex,
// with the first axis measuring distance along the section and the
// second axis measuring elevation relative to the datum.
type Section struct {
	Geom geom.LineString

	// Name identifies the section (attribute column "name") and also
	// names the per-section feature shapefile.
	Name string
}

// Distance returns the straight-line distance from the section origin
// (its first vertex) to p, in map units.
func (s *Section) Distance(p geom.Point) float64 {
	o := s.Geom[0]
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// IntersectsBoundary reports whether any part of the section trace lies
// within the boundary polygon.
func (s *Section) IntersectsBoundary(boundary geom.Polygon) (bool, error) {
	return intersectsBoundary(s.Geom, boundary)
}

// chordAngle returns the angle in degrees, within [0°, 180°], between
// the chord vectors of two polylines. Each chord runs from the line's
// first vertex to its last vertex, ignoring the shape in between.
func chordAngle(a, b geom.LineString) (float64, error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, GeometryError{Reason: "chord angle needs lines with at least two vertices"}
	}
	v1 := geom.Point{X: a[len(a)-1].X - a[0].X, Y: a[len(a)-1].Y - a[0].Y}
	v2 := geom.Point{X: b[len(b)-1].X - b[0].X, Y: b[len(b)-1].Y - b[0].Y}
	m1 := math.Hypot(v1.X, v1.Y)
	m2 := math.Hypot(v2.X, v2.Y)
	if m1 == 0 || m2 == 0 {
		return 0, GeometryError{Reason: "chord angle of zero-length line"}
	}
	// Rounding can push the cosine slightly outside [-1, 1].
	cos := (v1.X*v2.X + v1.Y*v2.Y) / (m1 * m2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, nil
}
