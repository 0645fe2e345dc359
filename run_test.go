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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// setupTestZone lays out a complete synthetic zone in dir: a square
// boundary, one fault crossed by two sections, a third section with no
// fault, per-section feature files, and a flat DEM.
func setupTestZone(t *testing.T, dir string) *Pipeline {
	p := NewPipeline("Test", filepath.Join(dir, "Shapefiles"))
	p.FaultsFile = filepath.Join(dir, "Faults.shp")
	p.SectionsFile = filepath.Join(dir, "Sections.shp")
	p.SectionDir = filepath.Join(dir, "Lineal")
	p.DEMFile = filepath.Join(dir, "dem.nc")

	if err := os.MkdirAll(filepath.Join(p.WorkDir, "Test"), os.ModePerm); err != nil {
		t.Fatal(err)
	}
	if err := WriteBoundary(filepath.Join(p.WorkDir, "Test", "Test.shp"), testBoundary()); err != nil {
		t.Fatal(err)
	}

	faults := []*FaultTrace{{
		Geom:         geom.LineString{{X: 40, Y: 50}, {X: 60, Y: 50}},
		Name:         "F1",
		Dip:          45,
		Azimuth:      90,
		DipSide:      "R",
		DipDirection: 180,
	}}
	if err := WriteFaults(p.FaultsFile, faults); err != nil {
		t.Fatal(err)
	}

	// S1 and S2 cross the extended fault; S3 runs parallel to it and
	// is only touched by the inventory check.
	sections := []*Section{
		{Geom: geom.LineString{{X: 50, Y: 0}, {X: 50, Y: 100}}, Name: "S1"},
		{Geom: geom.LineString{{X: 80, Y: 0}, {X: 80, Y: 100}}, Name: "S2"},
		{Geom: geom.LineString{{X: 10, Y: 95}, {X: 90, Y: 95}}, Name: "S3"},
	}
	if err := WriteSections(p.SectionsFile, sections); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(p.SectionDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	for _, s := range sections {
		sf := testSectionFeatures(s.Name)
		if err := WriteSectionFeatures(filepath.Join(p.SectionDir, s.Name+".shp"), sf); err != nil {
			t.Fatal(err)
		}
	}

	data := sparse.ZerosDense(11, 11)
	for i := range data.Elements {
		data.Elements[i] = 1200
	}
	if err := writeDEMFile(p.DEMFile, data, 0, 0, 10, 10); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPipelineRun(t *testing.T) {
	dir, err := ioutil.TempDir("", "sectprep_run")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := setupTestZone(t, dir)
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	// The single fault had two dangling endpoints and must now span
	// the boundary.
	extended, err := ReadFaults(p.ExtendedFaultsFile())
	if err != nil {
		t.Fatal(err)
	}
	if len(extended) != 1 {
		t.Fatalf("read %d extended faults; want 1", len(extended))
	}
	b := extended[0].Geom.Bounds()
	if absDifferent(b.Min.X, 0, 1e-6) || absDifferent(b.Max.X, 100, 1e-6) {
		t.Errorf("extended fault spans x=[%g, %g]; want [0, 100]", b.Min.X, b.Max.X)
	}

	// Both crossing sections yield one intersection each.
	xs, err := ReadIntersections(p.DipFile())
	if err != nil {
		t.Fatal(err)
	}
	if len(xs) != 2 {
		t.Fatalf("read %d intersections; want 2", len(xs))
	}
	for _, x := range xs {
		if x.FaultID != "F1" {
			t.Errorf("intersection fault = %s; want F1", x.FaultID)
		}
		if absDifferent(x.Elevation, 1200, 1e-4) {
			t.Errorf("elevation = %g; want 1200", x.Elevation)
		}
		if absDifferent(x.ApparentDip, 45, 1e-6) {
			t.Errorf("apparent dip = %g; want 45", x.ApparentDip)
		}
		if absDifferent(x.Distance, 50, 1e-6) {
			t.Errorf("distance = %g; want 50", x.Distance)
		}
	}
	if xs[0].SectionID != "S1" || xs[1].SectionID != "S2" {
		t.Errorf("intersections identify %s, %s; want S1, S2",
			xs[0].SectionID, xs[1].SectionID)
	}

	if _, err := os.Stat(p.OrientationsFile()); err != nil {
		t.Errorf("orientation file missing: %v", err)
	}

	// The crossed sections got a fault feature.
	for _, id := range []string{"S1", "S2"} {
		sf, err := ReadSectionFeatures(filepath.Join(p.ModifiedDir(), id+".shp"))
		if err != nil {
			t.Fatal(err)
		}
		if len(sf.Features) != 2 {
			t.Errorf("section %s has %d features; want 2", id, len(sf.Features))
		}
		if !sf.HasUnit("F1") {
			t.Errorf("section %s is missing fault F1", id)
		}
	}

	// S3 intersects the boundary but no fault; the inventory check
	// must have restored it untouched.
	sf, err := ReadSectionFeatures(filepath.Join(p.ModifiedDir(), "S3.shp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sf.Features) != 1 {
		t.Errorf("section S3 has %d features; want 1", len(sf.Features))
	}
}

// Re-running the whole pipeline over its own outputs must change
// nothing: faults already drawn into sections are recognized and
// skipped.
func TestPipelineRestart(t *testing.T) {
	dir, err := ioutil.TempDir("", "sectprep_run")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := setupTestZone(t, dir)
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"S1", "S2"} {
		sf, err := ReadSectionFeatures(filepath.Join(p.ModifiedDir(), id+".shp"))
		if err != nil {
			t.Fatal(err)
		}
		if len(sf.Features) != 2 {
			t.Errorf("section %s has %d features after restart; want 2", id, len(sf.Features))
		}
	}
}

// A pipeline's configured projection depth reaches the drawn fault
// geometry.
func TestPipelineMaxDepth(t *testing.T) {
	dir, err := ioutil.TempDir("", "sectprep_run")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := setupTestZone(t, dir)
	p.MaxDepth = -500
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	sf, err := ReadSectionFeatures(filepath.Join(p.ModifiedDir(), "S1.shp"))
	if err != nil {
		t.Fatal(err)
	}
	var fault *SectionFeature
	for _, f := range sf.Features {
		if f.Uni == "F1" {
			fault = f
		}
	}
	if fault == nil {
		t.Fatal("section S1 is missing fault F1")
	}
	b := fault.Bounds()
	if absDifferent(b.Min.Y, -500, 1e-6) {
		t.Errorf("fault drawn down to %g; want -500", b.Min.Y)
	}
}

func TestPipelineMissingSectionFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "sectprep_run")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	p := setupTestZone(t, dir)
	// Remove one section's input file; the projector must report and
	// skip it without failing the run.
	for _, ext := range sidecarExts {
		os.Remove(filepath.Join(p.SectionDir, "S2"+ext))
	}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(p.ModifiedDir(), "S1.shp")); err != nil {
		t.Errorf("section S1 missing from output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(p.ModifiedDir(), "S2.shp")); err == nil {
		t.Error("section S2 should not appear in the output")
	}
}
