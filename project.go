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
	"github.com/sirupsen/logrus"
)

// DefaultMaxDepth is the depth in meters below the reference datum to
// which faults are projected.
const DefaultMaxDepth = -2000

// A SectionFeature is one polyline in a section's local
// (distance, elevation) plane, tagged with the identifier of the
// hydrogeological unit or fault it represents.
type SectionFeature struct {
	geom.MultiLineString

	// Uni identifies the unit or fault.
	Uni string
}

// SectionFeatures is the feature collection of one cross-section file.
type SectionFeatures struct {
	Name     string
	Features []*SectionFeature
}

// HasUnit reports whether the collection already contains a feature
// with the given identifier.
func (sf *SectionFeatures) HasUnit(id string) bool {
	for _, f := range sf.Features {
		if f.Uni == id {
			return true
		}
	}
	return false
}

// tanTolerance is the smallest tangent of an apparent dip that can
// still be projected to a finite run at the maximum depth.
const tanTolerance = 1e-6

// A Projector materializes dip intersections as fault segments in a
// section's local coordinate plane.
type Projector struct {
	// MaxDepth is the depth to which faults are drawn, conventionally
	// negative (meters below the datum).
	MaxDepth float64

	Log logrus.FieldLogger
}

// NewProjector creates a Projector drawing faults down to the default
// maximum depth.
func NewProjector() *Projector {
	return &Projector{MaxDepth: DefaultMaxDepth, Log: logrus.StandardLogger()}
}

// Project appends one fault segment to sec for every crossing whose
// fault is not already present in the collection, and returns the
// number of features added. Each segment is anchored at the crossing's
// (distance, elevation) coordinates and descends to MaxDepth, leaning
// left when the dip side is "L" and right otherwise. Crossings with a
// horizontal apparent dip cannot reach the maximum depth at any finite
// distance and are skipped with a diagnostic. Running Project twice
// with the same inputs adds nothing the second time.
func (pr *Projector) Project(sec *SectionFeatures, crossings []*Intersection) int {
	added := 0
	for _, x := range crossings {
		if x.SectionID != sec.Name {
			continue
		}
		if sec.HasUnit(x.FaultID) {
			pr.Log.WithFields(logrus.Fields{
				"section": sec.Name,
				"fault":   x.FaultID,
			}).Debug("fault already present in section")
			continue
		}
		seg, err := pr.segment(x)
		if err != nil {
			pr.Log.WithFields(logrus.Fields{
				"section": sec.Name,
				"fault":   x.FaultID,
				"error":   err,
			}).Warn("skipping fault projection")
			continue
		}
		sec.Features = append(sec.Features, &SectionFeature{
			MultiLineString: geom.MultiLineString{seg},
			Uni:             x.FaultID,
		})
		added++
	}
	return added
}

// segment builds the two-vertex fault line for one crossing in the
// section's local plane.
func (pr *Projector) segment(x *Intersection) (geom.LineString, error) {
	rad := x.ApparentDip * math.Pi / 180
	tan := math.Tan(rad)
	if math.Abs(tan) < tanTolerance {
		return nil, GeometryError{Reason: "apparent dip too close to horizontal to project"}
	}

	// MaxDepth is negative, so the raw run is too; the dip side alone
	// decides which way the fault leans.
	run := math.Abs(pr.MaxDepth / tan)
	direction := 1.
	if x.DipSide == "L" {
		direction = -1
	}
	return geom.LineString{
		{X: x.Distance, Y: x.Elevation},
		{X: x.Distance + direction*run, Y: pr.MaxDepth},
	}, nil
}
