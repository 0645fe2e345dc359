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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/op"
	"github.com/sirupsen/logrus"
)

// FaultTrace is one mapped fault segment. Faults belonging to the same
// named structure share a Name and may consist of several disjoint
// traces.
type FaultTrace struct {
	Geom geom.LineString

	// Name identifies the fault system this trace belongs to
	// (attribute column "Fault").
	Name string

	// Dip is the true dip angle of the fault plane in degrees (0–90).
	Dip float64

	// Azimuth is the strike azimuth of the trace in degrees.
	Azimuth float64

	// DipSide indicates which lateral direction, relative to section
	// orientation, the fault plane dips toward: "L" or "R".
	DipSide string

	// DipDirection is the compass direction of dip in degrees.
	DipDirection float64
}

// endpoints returns the first and last vertices of the trace.
func (t *FaultTrace) endpoints() (geom.Point, geom.Point) {
	return t.Geom[0], t.Geom[len(t.Geom)-1]
}

// chord returns the vector from the first vertex of the trace to its
// last vertex.
func (t *FaultTrace) chord() geom.Point {
	start, end := t.endpoints()
	return geom.Point{X: end.X - start.X, Y: end.Y - start.Y}
}

const (
	// defaultExtendFactor is the multiple of a trace's chord by which a
	// dangling endpoint is extended. It is chosen to exceed any
	// realistic model extent so that the boundary clip, not the
	// factor, determines the final length.
	defaultExtendFactor = 1000

	// defaultConnectTolerance is the coordinate tolerance within which
	// two trace endpoints are considered coincident. Exact floating
	// equality is unreliable after reprojection.
	defaultConnectTolerance = 1e-6
)

// An Extender lengthens fault traces whose mapped extent likely
// under-represents their true extent. A trace endpoint that coincides
// with no other trace endpoint in the same fault system is treated as
// a mapping truncation and extended outward along the trace chord,
// clipped back to the zone boundary.
type Extender struct {
	// Boundary is the polygon defining the valid modeling extent.
	Boundary geom.Polygon

	// Factor is the chord multiple used for extension.
	Factor float64

	// Tolerance is the endpoint coincidence tolerance in coordinate
	// units.
	Tolerance float64

	Log logrus.FieldLogger
}

// NewExtender creates an Extender for the given zone boundary with
// default settings.
func NewExtender(boundary geom.Polygon) *Extender {
	return &Extender{
		Boundary:  boundary,
		Factor:    defaultExtendFactor,
		Tolerance: defaultConnectTolerance,
		Log:       logrus.StandardLogger(),
	}
}

// Extend extends every dangling trace endpoint and clips every
// retained trace to the zone boundary. Endpoint connectivity is judged
// on the surveyed geometry before clipping, so traces meeting outside
// the boundary still count as connected. Traces entirely outside the
// boundary are dropped; traces whose extension cannot be computed keep
// their original geometry, clipped. The input is not modified.
func (ex *Extender) Extend(faults []*FaultTrace) ([]*FaultTrace, error) {
	if len(ex.Boundary) == 0 {
		return nil, fmt.Errorf("sectprep: fault extender: empty boundary polygon")
	}

	// Group traces by fault system; systems never interact.
	groups := make(map[string][]*FaultTrace)
	var names []string
	for _, f := range faults {
		if _, ok := groups[f.Name]; !ok {
			names = append(names, f.Name)
		}
		groups[f.Name] = append(groups[f.Name], f)
	}

	out := make([]*FaultTrace, 0, len(faults))
	for _, name := range names {
		group := groups[name]
		conns := ex.connectivity(group)
		for i, f := range group {
			in, err := intersectsBoundary(f.Geom, ex.Boundary)
			if err != nil {
				return nil, fmt.Errorf("sectprep: testing fault %s against boundary: %v", f.Name, err)
			}
			if !in {
				// Wholly outside the modeling extent. The trace still
				// contributed to connectivity above, but it is of no
				// use to the model and must not be extended into it.
				continue
			}
			var g geom.LineString
			if conns[i][0] > 1 && conns[i][1] > 1 {
				// Connected at both ends: no extension, but the trace
				// can still stick out of the boundary.
				g, err = clipTrace(f.Geom, ex.Boundary)
			} else if g, err = ex.extendTrace(f, conns[i]); err != nil {
				ex.Log.WithFields(logrus.Fields{
					"fault": f.Name,
					"error": err,
				}).Warn("keeping original fault geometry")
				g, err = clipTrace(f.Geom, ex.Boundary)
			}
			if err != nil {
				return nil, fmt.Errorf("sectprep: clipping fault %s to boundary: %v", f.Name, err)
			}
			if len(g) < 2 {
				continue
			}
			t := *f
			t.Geom = g
			out = append(out, &t)
		}
	}
	return out, nil
}

// connectivity counts, for each trace in a fault-system group, how many
// trace endpoints in the group coincide with its start and end points.
// A trace always touches itself, so every count is at least 1; a count
// of exactly 1 marks a dangling endpoint.
func (ex *Extender) connectivity(group []*FaultTrace) [][2]int {
	index := rtree.NewTree(25, 50)
	for _, f := range group {
		start, end := f.endpoints()
		index.Insert(start)
		index.Insert(end)
	}
	counts := make([][2]int, len(group))
	for i, f := range group {
		start, end := f.endpoints()
		counts[i][0] = len(index.SearchIntersect(rtree.ToRect(start, ex.Tolerance)))
		counts[i][1] = len(index.SearchIntersect(rtree.ToRect(end, ex.Tolerance)))
	}
	return counts
}

// extendTrace extends the dangling endpoints of f and clips the result
// back to the boundary. The caller guarantees that at least one
// endpoint is dangling and that the trace intersects the boundary.
func (ex *Extender) extendTrace(f *FaultTrace, conn [2]int) (geom.LineString, error) {
	d := f.chord()
	if math.Hypot(d.X, d.Y) == 0 {
		return nil, GeometryError{Reason: "fault trace has zero-length chord"}
	}
	start, end := f.endpoints()

	var ext geom.LineString
	if conn[0] == 1 {
		ext = append(ext, geom.Point{
			X: start.X - d.X*ex.Factor,
			Y: start.Y - d.Y*ex.Factor,
		})
	}
	ext = append(ext, f.Geom...)
	if conn[1] == 1 {
		ext = append(ext, geom.Point{
			X: end.X + d.X*ex.Factor,
			Y: end.Y + d.Y*ex.Factor,
		})
	}

	parts, err := clipToBoundary(ext, ex.Boundary)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, GeometryError{Reason: "boundary clip left no usable geometry"}
	}
	// The extension can be cut into several pieces where the boundary
	// is concave; keep the piece containing the original trace, which
	// is always the longest since the trace itself survives the clip.
	return longestPart(parts), nil
}

// intersectsBoundary reports whether any part of the polyline lies
// within the boundary polygon. Vertices are tested directly and
// segments are tested against the boundary rings, so short traces are
// judged exactly instead of going through the clipper.
func intersectsBoundary(l geom.LineString, boundary geom.Polygon) (bool, error) {
	for _, p := range l {
		in, err := op.Within(p, boundary)
		if err != nil {
			return false, err
		}
		if in {
			return true, nil
		}
	}
	// Every vertex is outside, but a segment can still pass through
	// the polygon by crossing one of its rings.
	return crossesRing(l, boundary), nil
}

// withinBoundary reports whether the polyline lies entirely inside the
// boundary polygon.
func withinBoundary(l geom.LineString, boundary geom.Polygon) (bool, error) {
	for _, p := range l {
		in, err := op.Within(p, boundary)
		if err != nil {
			return false, err
		}
		if !in {
			return false, nil
		}
	}
	// All vertices inside; a segment can still leave and re-enter a
	// concave polygon through a ring.
	return !crossesRing(l, boundary), nil
}

// crossesRing reports whether any segment of the polyline crosses a
// boundary ring segment.
func crossesRing(l geom.LineString, boundary geom.Polygon) bool {
	for i := 0; i < len(l)-1; i++ {
		for _, ring := range boundary {
			for j := range ring {
				k := (j + 1) % len(ring)
				if _, ok := segmentCrossing(l[i], l[i+1], ring[j], ring[k]); ok {
					return true
				}
			}
		}
	}
	return false
}

// clipTrace clips a trace to the boundary, returning it unchanged when
// it already lies entirely inside. Two-point lines are densified with
// their midpoint first: the clipper pads them with a synthetic
// off-line vertex otherwise, shifting the clipped endpoints. When the
// clip splits the trace the longest part is kept.
func clipTrace(l geom.LineString, boundary geom.Polygon) (geom.LineString, error) {
	in, err := withinBoundary(l, boundary)
	if err != nil {
		return nil, err
	}
	if in {
		return l, nil
	}
	if len(l) == 2 {
		l = geom.LineString{
			l[0],
			{X: (l[0].X + l[1].X) / 2, Y: (l[0].Y + l[1].Y) / 2},
			l[1],
		}
	}
	parts, err := clipToBoundary(l, boundary)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return longestPart(parts), nil
}

// clipToBoundary intersects a polyline with the boundary polygon,
// returning the surviving parts. A line entirely outside the boundary
// yields no parts.
func clipToBoundary(l geom.LineString, boundary geom.Polygon) ([]geom.LineString, error) {
	g, err := op.Construct(l, boundary, op.INTERSECTION)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}
	switch c := g.(type) {
	case geom.LineString:
		if len(c) < 2 {
			return nil, nil
		}
		return []geom.LineString{c}, nil
	case geom.MultiLineString:
		var out []geom.LineString
		for _, ls := range c {
			if len(ls) >= 2 {
				out = append(out, ls)
			}
		}
		return out, nil
	default:
		return nil, GeometryError{Reason: fmt.Sprintf("unexpected clip result type %T", g)}
	}
}

func longestPart(parts []geom.LineString) geom.LineString {
	var best geom.LineString
	bestLen := -1.
	for _, p := range parts {
		if l := p.Length(); l > bestLen {
			best, bestLen = p, l
		}
	}
	return best
}
