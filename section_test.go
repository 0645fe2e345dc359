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
	"testing"

	"github.com/ctessum/geom"
)

func TestSectionDistance(t *testing.T) {
	s := &Section{
		Geom: geom.LineString{{X: 10, Y: 10}, {X: 110, Y: 10}},
		Name: "S1",
	}
	if d := s.Distance(geom.Point{X: 13, Y: 14}); absDifferent(d, 5, 1e-12) {
		t.Errorf("distance = %g; want 5", d)
	}
	if d := s.Distance(s.Geom[0]); d != 0 {
		t.Errorf("distance to origin = %g; want 0", d)
	}
}

func TestSectionIntersectsBoundary(t *testing.T) {
	boundary := testBoundary()
	tests := []struct {
		name string
		geom geom.LineString
		want bool
	}{
		{"inside", geom.LineString{{X: 10, Y: 10}, {X: 90, Y: 90}}, true},
		{"crossing", geom.LineString{{X: -50, Y: 50}, {X: 50, Y: 50}}, true},
		{"outside", geom.LineString{{X: 200, Y: 200}, {X: 300, Y: 200}}, false},
	}
	for _, test := range tests {
		s := &Section{Geom: test.geom, Name: test.name}
		got, err := s.IntersectsBoundary(boundary)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestChordAngle(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.LineString
		want float64
	}{
		{
			"perpendicular",
			geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
			geom.LineString{{X: 5, Y: -5}, {X: 5, Y: 5}},
			90,
		},
		{
			"parallel",
			geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
			geom.LineString{{X: 0, Y: 1}, {X: 10, Y: 1}},
			0,
		},
		{
			"opposite",
			geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
			geom.LineString{{X: 10, Y: 1}, {X: 0, Y: 1}},
			180,
		},
		{
			// Only the chord from first to last vertex matters, not
			// the shape in between.
			"zigzag",
			geom.LineString{{X: 0, Y: 0}, {X: 5, Y: 3}, {X: 10, Y: 0}},
			geom.LineString{{X: 3, Y: -5}, {X: 2, Y: 0}, {X: 3, Y: 5}},
			90,
		},
		{
			"oblique",
			geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
			geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 10}},
			45,
		},
	}
	for _, test := range tests {
		got, err := chordAngle(test.a, test.b)
		if err != nil {
			t.Fatalf("%s: %v", test.name, err)
		}
		if absDifferent(got, test.want, 1e-9) {
			t.Errorf("%s: got %g, want %g", test.name, got, test.want)
		}
	}
}

func TestChordAngleErrors(t *testing.T) {
	ok := geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}
	short := geom.LineString{{X: 0, Y: 0}}
	degenerate := geom.LineString{{X: 2, Y: 2}, {X: 2, Y: 2}}

	if _, err := chordAngle(short, ok); err == nil {
		t.Error("expected an error for a single-vertex line")
	}
	_, err := chordAngle(ok, degenerate)
	if err == nil {
		t.Fatal("expected an error for a zero-length chord")
	}
	if _, isGeom := err.(GeometryError); !isGeom {
		t.Errorf("expected a GeometryError, got %T", err)
	}
}
