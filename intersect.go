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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/sirupsen/logrus"
)

// An Intersection records one point where a cross-section crosses a
// fault, together with the geological quantities derived at that point.
// Records are immutable once created; the Engine retains exactly one
// per (section, fault) pair.
type Intersection struct {
	geom.Point

	// Elevation is the ground elevation at the crossing, sampled from
	// the DEM.
	Elevation float64 `shp:"elevation"`

	// Distance is the straight-line distance from the section origin
	// to the crossing, in map units.
	Distance float64 `shp:"distance"`

	// Angle is the angle between the section and fault chords in
	// degrees, within [0°, 180°].
	Angle float64 `shp:"angle"`

	// Azimuth is the strike azimuth of the fault trace.
	Azimuth float64 `shp:"azimuth"`

	// ApparentDip is the dip of the fault plane as observed in the
	// vertical plane of the section, in degrees.
	ApparentDip float64 `shp:"apparent_d"`

	// TrueDip is the fault's true dip in degrees.
	TrueDip float64 `shp:"true_dip"`

	// DipSide is "L" or "R".
	DipSide string `shp:"dip_side"`

	SectionID string `shp:"section_id"`
	FaultID   string `shp:"fault_id"`

	// DipDirection is the compass direction of dip in degrees.
	DipDirection float64 `shp:"dip_direct"`
}

// ApparentDip calculates the apparent dip in degrees of a fault plane
// with true dip trueDip (degrees, 0–90) observed in a vertical section
// meeting the fault trace at the given angle (degrees, 0–180):
//
//	α = atan(sin θ · tan δ)
//
// The formula is exact for a planar fault intersected by a vertical
// section; it does not account for the dip direction relative to the
// section azimuth beyond the separately-tracked dip side.
func ApparentDip(angle, trueDip float64) (float64, error) {
	if angle < 0 || angle > 180 {
		return 0, RangeError{Quantity: "intersection angle", Value: angle}
	}
	if trueDip < 0 || trueDip > 90 {
		return 0, RangeError{Quantity: "true dip", Value: trueDip}
	}
	θ := angle * math.Pi / 180
	δ := trueDip * math.Pi / 180
	return math.Atan(math.Sin(θ)*math.Tan(δ)) * 180 / math.Pi, nil
}

// An Engine finds crossings between cross-sections and faults and
// computes the derived geological quantities for each.
type Engine struct {
	// DEM supplies ground elevations at crossing points.
	DEM *DEM

	Log logrus.FieldLogger
}

// NewEngine creates an Engine sampling elevations from dem.
func NewEngine(dem *DEM) *Engine {
	return &Engine{DEM: dem, Log: logrus.StandardLogger()}
}

// faultItem indexes one fault trace in an rtree together with its
// position in the input, so query results can be returned in a
// deterministic order.
type faultItem struct {
	geom.LineString
	fault *FaultTrace
	order int
}

// Intersections finds every point where a section crosses a fault and
// derives elevation, along-section distance, intersection angle, and
// apparent dip for it, retaining exactly one record per
// (section, fault) pair. Geometry and range failures on a single pair
// are logged and skipped; an elevation sample outside the DEM coverage
// discards that point only. The output keeps the input section order.
func (e *Engine) Intersections(sections []*Section, faults []*FaultTrace) []*Intersection {
	index := rtree.NewTree(25, 50)
	for i, f := range faults {
		index.Insert(&faultItem{LineString: f.Geom, fault: f, order: i})
	}

	var out []*Intersection
	for _, sec := range sections {
		candidates := index.SearchIntersect(sec.Geom.Bounds())
		items := make([]*faultItem, len(candidates))
		for i, c := range candidates {
			items[i] = c.(*faultItem)
		}
		sort.Slice(items, func(i, j int) bool { return items[i].order < items[j].order })

		seen := make(map[string]bool)
		for _, item := range items {
			f := item.fault
			if seen[f.Name] {
				// A fault system with several traces contributes at
				// most one dip sample per section.
				continue
			}
			x := e.intersect(sec, f)
			if x != nil {
				seen[f.Name] = true
				out = append(out, x)
			}
		}
	}
	return out
}

// intersect computes the retained Intersection for one
// (section, fault) pair, or nil if the pair has no usable crossing.
// When a pair crosses at several points, the crossing nearest the
// section origin is kept.
func (e *Engine) intersect(sec *Section, f *FaultTrace) *Intersection {
	points := lineCrossings(sec.Geom, f.Geom)
	if len(points) == 0 {
		return nil
	}
	sort.Slice(points, func(i, j int) bool {
		return sec.Distance(points[i]) < sec.Distance(points[j])
	})

	angle, err := chordAngle(sec.Geom, f.Geom)
	if err != nil {
		e.Log.WithFields(logrus.Fields{
			"section": sec.Name,
			"fault":   f.Name,
			"error":   err,
		}).Warn("skipping section-fault pair")
		return nil
	}
	apparent, err := ApparentDip(angle, f.Dip)
	if err != nil {
		e.Log.WithFields(logrus.Fields{
			"section": sec.Name,
			"fault":   f.Name,
			"error":   err,
		}).Warn("skipping section-fault pair")
		return nil
	}

	for _, p := range points {
		elev, err := e.DEM.Elevation(p)
		if err != nil {
			// Fatal for this point, not for the run.
			e.Log.WithFields(logrus.Fields{
				"section": sec.Name,
				"fault":   f.Name,
				"error":   err,
			}).Warn("skipping crossing point")
			continue
		}
		return &Intersection{
			Point:        p,
			Elevation:    elev,
			Distance:     sec.Distance(p),
			Angle:        angle,
			Azimuth:      f.Azimuth,
			ApparentDip:  apparent,
			TrueDip:      f.Dip,
			DipSide:      f.DipSide,
			SectionID:    sec.Name,
			FaultID:      f.Name,
			DipDirection: f.DipDirection,
		}
	}
	return nil
}

// crossingTolerance merges crossing points closer together than this
// distance, which arise when a fault passes exactly through a shared
// vertex of two adjacent section segments.
const crossingTolerance = 1e-9

// lineCrossings returns the points where polylines a and b cross.
// Collinear overlaps are not point-type crossings and contribute
// nothing.
func lineCrossings(a, b geom.LineString) []geom.Point {
	var out []geom.Point
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			p, ok := segmentCrossing(a[i], a[i+1], b[j], b[j+1])
			if !ok {
				continue
			}
			dup := false
			for _, q := range out {
				if math.Hypot(p.X-q.X, p.Y-q.Y) < crossingTolerance {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, p)
			}
		}
	}
	return out
}

// segmentCrossing solves for the crossing of segments p0→p1 and q0→q1
// parametrically. Parallel segments, including collinear overlapping
// ones, report no crossing.
func segmentCrossing(p0, p1, q0, q1 geom.Point) (geom.Point, bool) {
	d0 := geom.Point{X: p1.X - p0.X, Y: p1.Y - p0.Y}
	d1 := geom.Point{X: q1.X - q0.X, Y: q1.Y - q0.Y}
	kross := d0.X*d1.Y - d0.Y*d1.X
	if kross == 0 {
		return geom.Point{}, false
	}
	e := geom.Point{X: q0.X - p0.X, Y: q0.Y - p0.Y}
	s := (e.X*d1.Y - e.Y*d1.X) / kross
	if s < 0 || s > 1 {
		return geom.Point{}, false
	}
	t := (e.X*d0.Y - e.Y*d0.X) / kross
	if t < 0 || t > 1 {
		return geom.Point{}, false
	}
	return geom.Point{X: p0.X + s*d0.X, Y: p0.Y + s*d0.Y}, true
}
