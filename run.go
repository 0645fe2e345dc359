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
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// A Pipeline runs the three processing stages for one modeling zone
// against a directory layout of shapefiles. Outputs for the zone are
// kept under WorkDir/Zone. Each stage fully consumes its inputs and
// writes a complete output before the next stage runs; all stages are
// safe to re-run over partially produced outputs of a prior run.
type Pipeline struct {
	// Zone is the name of the modeling zone, for example "North".
	Zone string

	// WorkDir is the directory holding per-zone outputs. The zone
	// boundary polygon is expected at WorkDir/Zone/Zone.shp unless
	// BoundaryFile is set.
	WorkDir string

	// BoundaryFile optionally overrides the zone boundary shapefile
	// location.
	BoundaryFile string

	// FaultsFile is the surveyed fault shapefile.
	FaultsFile string

	// SectionsFile is the shapefile of planimetric section traces.
	SectionsFile string

	// SectionDir holds the per-section feature shapefiles, one file
	// per section named <name>.shp.
	SectionDir string

	// BackupDir holds pristine copies of the per-section shapefiles,
	// used to restore sections the projector did not touch. When empty
	// SectionDir is used.
	BackupDir string

	// DEMFile is the NetCDF elevation surface.
	DEMFile string

	// MaxDepth is the modeling depth faults are projected to,
	// conventionally negative.
	MaxDepth float64

	// ExtendFactor is the chord multiple used when extending dangling
	// fault endpoints.
	ExtendFactor float64

	Log logrus.FieldLogger
}

// NewPipeline creates a Pipeline for the given zone with default
// settings.
func NewPipeline(zone, workDir string) *Pipeline {
	return &Pipeline{
		Zone:         zone,
		WorkDir:      workDir,
		MaxDepth:     DefaultMaxDepth,
		ExtendFactor: defaultExtendFactor,
		Log:          logrus.StandardLogger(),
	}
}

func (p *Pipeline) zoneDir() string {
	return filepath.Join(p.WorkDir, p.Zone)
}

func (p *Pipeline) boundaryFile() string {
	if p.BoundaryFile != "" {
		return p.BoundaryFile
	}
	return filepath.Join(p.zoneDir(), p.Zone+".shp")
}

// ExtendedFaultsFile returns the path of the extended-fault shapefile
// produced by Extend.
func (p *Pipeline) ExtendedFaultsFile() string {
	return filepath.Join(p.zoneDir(), "Extent_faults.shp")
}

// DipFile returns the path of the dip intersection shapefile produced
// by Dip.
func (p *Pipeline) DipFile() string {
	return filepath.Join(p.zoneDir(), "Dip.shp")
}

// OrientationsFile returns the path of the orientation CSV produced by
// Dip.
func (p *Pipeline) OrientationsFile() string {
	return filepath.Join(p.zoneDir(), "Orientations.csv")
}

// ModifiedDir returns the directory of per-section shapefiles with
// projected faults added, produced by Project.
func (p *Pipeline) ModifiedDir() string {
	return filepath.Join(p.zoneDir(), "Modified")
}

// Extend clips the surveyed faults to the zone boundary, extends
// dangling fault endpoints, and writes the result to
// ExtendedFaultsFile.
func (p *Pipeline) Extend() error {
	boundary, err := ReadBoundary(p.boundaryFile())
	if err != nil {
		return err
	}
	faults, err := ReadFaults(p.FaultsFile)
	if err != nil {
		return err
	}
	if err := transformFaults(faults, p.FaultsFile, p.SectionsFile); err != nil {
		return err
	}

	ex := NewExtender(boundary)
	ex.Log = p.Log
	if p.ExtendFactor > 0 {
		ex.Factor = p.ExtendFactor
	}
	extended, err := ex.Extend(faults)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.zoneDir(), os.ModePerm); err != nil {
		return fmt.Errorf("sectprep: creating zone directory: %v", err)
	}
	if err := WriteFaults(p.ExtendedFaultsFile(), extended); err != nil {
		return err
	}
	p.Log.WithFields(logrus.Fields{
		"zone":   p.Zone,
		"faults": len(extended),
	}).Info("extended faults written")
	return nil
}

// Dip intersects the sections with the extended faults, derives the
// geological quantities for every crossing, and writes the retained
// records to DipFile and OrientationsFile.
func (p *Pipeline) Dip() error {
	sections, err := ReadSections(p.SectionsFile)
	if err != nil {
		return err
	}
	faults, err := ReadFaults(p.ExtendedFaultsFile())
	if err != nil {
		return err
	}
	dem, err := ReadDEM(p.DEMFile)
	if err != nil {
		return err
	}
	lo, hi := dem.Range()
	p.Log.WithFields(logrus.Fields{
		"zone": p.Zone,
		"min":  lo,
		"max":  hi,
	}).Debug("elevation surface loaded")

	e := NewEngine(dem)
	e.Log = p.Log
	xs := e.Intersections(sections, faults)

	if err := os.MkdirAll(p.zoneDir(), os.ModePerm); err != nil {
		return fmt.Errorf("sectprep: creating zone directory: %v", err)
	}
	if err := WriteIntersections(p.DipFile(), xs); err != nil {
		return err
	}
	if err := WriteOrientations(p.OrientationsFile(), xs); err != nil {
		return err
	}
	p.Log.WithFields(logrus.Fields{
		"zone":          p.Zone,
		"intersections": len(xs),
	}).Info("dip intersections written")
	return nil
}

// Project adds a projected fault segment to every section crossed by a
// fault and writes the updated per-section shapefiles to ModifiedDir.
// Sections already processed by a prior run are read back from
// ModifiedDir so that re-running adds nothing; sections whose input
// file is absent are reported and skipped.
func (p *Pipeline) Project() error {
	xs, err := ReadIntersections(p.DipFile())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.ModifiedDir(), os.ModePerm); err != nil {
		return fmt.Errorf("sectprep: creating output directory: %v", err)
	}

	pr := NewProjector()
	pr.Log = p.Log
	pr.MaxDepth = p.MaxDepth

	var ids []string
	seen := make(map[string]bool)
	for _, x := range xs {
		if !seen[x.SectionID] {
			seen[x.SectionID] = true
			ids = append(ids, x.SectionID)
		}
	}

	for _, id := range ids {
		out := filepath.Join(p.ModifiedDir(), id+".shp")
		src := out
		restart := true
		if _, err := os.Stat(src); err != nil {
			src = filepath.Join(p.SectionDir, id+".shp")
			restart = false
		}
		if _, err := os.Stat(src); err != nil {
			p.Log.WithFields(logrus.Fields{
				"zone":    p.Zone,
				"section": id,
			}).Warn("section file not found, skipping")
			continue
		}
		sf, err := ReadSectionFeatures(src)
		if err != nil {
			return err
		}
		added := pr.Project(sf, xs)
		if restart && added == 0 {
			continue
		}
		if err := WriteSectionFeatures(out, sf); err != nil {
			return err
		}
		p.Log.WithFields(logrus.Fields{
			"zone":    p.Zone,
			"section": id,
			"added":   added,
		}).Info("faults added to section")
	}
	return nil
}

// sidecarExts lists the files making up one shapefile.
var sidecarExts = []string{".shp", ".shx", ".dbf", ".prj"}

// Verify checks that every section intersecting the zone boundary has
// a file in ModifiedDir, restoring missing ones from the backup
// directory. Sections the projector never touched still belong in the
// zone's section inventory.
func (p *Pipeline) Verify() error {
	boundary, err := ReadBoundary(p.boundaryFile())
	if err != nil {
		return err
	}
	sections, err := ReadSections(p.SectionsFile)
	if err != nil {
		return err
	}
	backup := p.BackupDir
	if backup == "" {
		backup = p.SectionDir
	}
	if err := os.MkdirAll(p.ModifiedDir(), os.ModePerm); err != nil {
		return fmt.Errorf("sectprep: creating output directory: %v", err)
	}

	for _, s := range sections {
		in, err := s.IntersectsBoundary(boundary)
		if err != nil {
			return fmt.Errorf("sectprep: checking section %s against boundary: %v", s.Name, err)
		}
		if !in {
			continue
		}
		dst := filepath.Join(p.ModifiedDir(), s.Name+".shp")
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		restored := false
		for _, ext := range sidecarExts {
			src := filepath.Join(backup, s.Name+ext)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			if err := copyFile(src, filepath.Join(p.ModifiedDir(), s.Name+ext)); err != nil {
				return fmt.Errorf("sectprep: restoring section %s: %v", s.Name, err)
			}
			restored = true
		}
		if restored {
			p.Log.WithFields(logrus.Fields{
				"zone":    p.Zone,
				"section": s.Name,
			}).Info("restored section from backup")
		} else {
			p.Log.WithFields(logrus.Fields{
				"zone":    p.Zone,
				"section": s.Name,
			}).Warn("no backup found for missing section")
		}
	}
	return nil
}

// Run executes all stages for the zone in order.
func (p *Pipeline) Run() error {
	if err := p.Extend(); err != nil {
		return err
	}
	if err := p.Dip(); err != nil {
		return err
	}
	if err := p.Project(); err != nil {
		return err
	}
	return p.Verify()
}
