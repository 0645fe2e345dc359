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
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
)

// flattenLines converts a decoded shapefile geometry to its component
// line strings, dropping degenerate parts. Shapefile polylines always
// decode as multi-part geometries even when they hold a single part.
func flattenLines(g geom.Geom) []geom.LineString {
	var out []geom.LineString
	switch t := g.(type) {
	case geom.LineString:
		if len(t) >= 2 {
			out = append(out, t)
		}
	case geom.MultiLineString:
		for _, ls := range t {
			if len(ls) >= 2 {
				out = append(out, ls)
			}
		}
	}
	return out
}

// trimAttr strips the NUL and space padding that DBF string attributes
// carry; the decoder only strips padding from numeric fields.
func trimAttr(s string) string {
	return strings.Trim(s, "\x00 ")
}

// ReadFaults reads fault traces from a shapefile. Multi-part rows are
// exploded into one FaultTrace per part, each keeping the row's
// attributes.
func ReadFaults(filename string) ([]*FaultTrace, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("sectprep: opening fault shapefile %s: %v", filename, err)
	}
	defer d.Close()

	type faultRow struct {
		Geom      geom.Geom
		Fault     string
		Dip       float64
		Azimuth   float64
		SideDip   string  `shp:"Side_Dip"`
		DipDirect float64 `shp:"dip_direct"`
	}

	var faults []*FaultTrace
	for {
		var row faultRow
		if !d.DecodeRow(&row) {
			break
		}
		for _, ls := range flattenLines(row.Geom) {
			faults = append(faults, &FaultTrace{
				Geom:         ls,
				Name:         trimAttr(row.Fault),
				Dip:          row.Dip,
				Azimuth:      row.Azimuth,
				DipSide:      trimAttr(row.SideDip),
				DipDirection: row.DipDirect,
			})
		}
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("sectprep: reading fault shapefile %s: %v", filename, err)
	}
	return faults, nil
}

// WriteFaults writes fault traces to a shapefile with the same
// attribute columns ReadFaults consumes.
func WriteFaults(filename string, faults []*FaultTrace) error {
	e, err := shp.NewEncoderFromFields(filename, goshp.POLYLINE,
		goshp.StringField("Fault", 50),
		goshp.FloatField("Dip", 14, 8),
		goshp.FloatField("azimuth", 14, 8),
		goshp.StringField("Side_Dip", 50),
		goshp.FloatField("dip_direct", 14, 8),
	)
	if err != nil {
		return fmt.Errorf("sectprep: creating fault shapefile %s: %v", filename, err)
	}
	for _, f := range faults {
		err := e.EncodeFields(geom.MultiLineString{f.Geom},
			f.Name, f.Dip, f.Azimuth, f.DipSide, f.DipDirection)
		if err != nil {
			e.Close()
			return fmt.Errorf("sectprep: writing fault %s: %v", f.Name, err)
		}
	}
	e.Close()
	return nil
}

// ReadSections reads named cross-section traces from a shapefile. For
// multi-part rows the longest part is used as the section trace.
func ReadSections(filename string) ([]*Section, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("sectprep: opening section shapefile %s: %v", filename, err)
	}
	defer d.Close()

	type sectionRow struct {
		Geom geom.Geom
		Name string `shp:"name"`
	}

	var sections []*Section
	for {
		var row sectionRow
		if !d.DecodeRow(&row) {
			break
		}
		parts := flattenLines(row.Geom)
		if len(parts) == 0 {
			continue
		}
		sections = append(sections, &Section{
			Geom: longestPart(parts),
			Name: trimAttr(row.Name),
		})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("sectprep: reading section shapefile %s: %v", filename, err)
	}
	return sections, nil
}

// WriteSections writes section traces to a shapefile.
func WriteSections(filename string, sections []*Section) error {
	e, err := shp.NewEncoderFromFields(filename, goshp.POLYLINE,
		goshp.StringField("name", 50))
	if err != nil {
		return fmt.Errorf("sectprep: creating section shapefile %s: %v", filename, err)
	}
	for _, s := range sections {
		if err := e.EncodeFields(geom.MultiLineString{s.Geom}, s.Name); err != nil {
			e.Close()
			return fmt.Errorf("sectprep: writing section %s: %v", s.Name, err)
		}
	}
	e.Close()
	return nil
}

// ReadBoundary reads the modeling-extent polygon from a shapefile. The
// file must contain at least one polygon; only the first row is used.
func ReadBoundary(filename string) (geom.Polygon, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("sectprep: opening boundary shapefile %s: %v", filename, err)
	}
	defer d.Close()

	var row struct {
		Geom geom.Geom
	}
	if !d.DecodeRow(&row) {
		if err := d.Error(); err != nil {
			return nil, fmt.Errorf("sectprep: reading boundary shapefile %s: %v", filename, err)
		}
		return nil, fmt.Errorf("sectprep: boundary shapefile %s is empty", filename)
	}
	switch t := row.Geom.(type) {
	case geom.Polygon:
		return t, nil
	case geom.MultiPolygon:
		var p geom.Polygon
		for _, pp := range t {
			p = append(p, pp...)
		}
		return p, nil
	default:
		return nil, GeometryError{Reason: fmt.Sprintf("boundary must be a polygon, not %T", row.Geom)}
	}
}

// WriteBoundary writes the modeling-extent polygon to a shapefile.
func WriteBoundary(filename string, boundary geom.Polygon) error {
	e, err := shp.NewEncoderFromFields(filename, goshp.POLYGON,
		goshp.StringField("name", 50))
	if err != nil {
		return fmt.Errorf("sectprep: creating boundary shapefile %s: %v", filename, err)
	}
	name := strings.TrimSuffix(filepath.Base(filename), ".shp")
	if err := e.EncodeFields(boundary, name); err != nil {
		e.Close()
		return fmt.Errorf("sectprep: writing boundary shapefile %s: %v", filename, err)
	}
	e.Close()
	return nil
}

// WriteIntersections writes dip intersection records to a point
// shapefile with the attribute columns ReadIntersections consumes.
func WriteIntersections(filename string, xs []*Intersection) error {
	e, err := shp.NewEncoderFromFields(filename, goshp.POINT,
		goshp.FloatField("elevation", 14, 8),
		goshp.FloatField("distance", 14, 8),
		goshp.FloatField("angle", 14, 8),
		goshp.FloatField("azimuth", 14, 8),
		goshp.FloatField("apparent_d", 14, 8),
		goshp.FloatField("true_dip", 14, 8),
		goshp.StringField("dip_side", 50),
		goshp.StringField("section_id", 50),
		goshp.StringField("fault_id", 50),
		goshp.FloatField("dip_direct", 14, 8),
	)
	if err != nil {
		return fmt.Errorf("sectprep: creating dip shapefile %s: %v", filename, err)
	}
	for _, x := range xs {
		err := e.EncodeFields(x.Point,
			x.Elevation, x.Distance, x.Angle, x.Azimuth, x.ApparentDip,
			x.TrueDip, x.DipSide, x.SectionID, x.FaultID, x.DipDirection)
		if err != nil {
			e.Close()
			return fmt.Errorf("sectprep: writing intersection %s/%s: %v", x.SectionID, x.FaultID, err)
		}
	}
	e.Close()
	return nil
}

// ReadIntersections reads dip intersection records from a shapefile
// written by WriteIntersections.
func ReadIntersections(filename string) ([]*Intersection, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("sectprep: opening dip shapefile %s: %v", filename, err)
	}
	defer d.Close()

	var xs []*Intersection
	for {
		x := new(Intersection)
		if !d.DecodeRow(x) {
			break
		}
		x.DipSide = trimAttr(x.DipSide)
		x.SectionID = trimAttr(x.SectionID)
		x.FaultID = trimAttr(x.FaultID)
		xs = append(xs, x)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("sectprep: reading dip shapefile %s: %v", filename, err)
	}
	return xs, nil
}

// ReadSectionFeatures reads the feature collection of one cross-section
// file. The collection is named after the file.
func ReadSectionFeatures(filename string) (*SectionFeatures, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("sectprep: opening section file %s: %v", filename, err)
	}
	defer d.Close()

	sf := &SectionFeatures{
		Name: strings.TrimSuffix(filepath.Base(filename), ".shp"),
	}
	for {
		var row struct {
			Geom geom.Geom
			Uni  string
		}
		if !d.DecodeRow(&row) {
			break
		}
		parts := flattenLines(row.Geom)
		if len(parts) == 0 {
			continue
		}
		sf.Features = append(sf.Features, &SectionFeature{
			MultiLineString: geom.MultiLineString(parts),
			Uni:             trimAttr(row.Uni),
		})
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("sectprep: reading section file %s: %v", filename, err)
	}
	return sf, nil
}

// WriteSectionFeatures writes a section feature collection to a
// shapefile, preserving feature order.
func WriteSectionFeatures(filename string, sf *SectionFeatures) error {
	e, err := shp.NewEncoder(filename, SectionFeature{})
	if err != nil {
		return fmt.Errorf("sectprep: creating section file %s: %v", filename, err)
	}
	for _, f := range sf.Features {
		if err := e.Encode(f); err != nil {
			e.Close()
			return fmt.Errorf("sectprep: writing section file %s: %v", filename, err)
		}
	}
	e.Close()
	return nil
}

// WriteOrientations writes the retained intersections as an orientation
// CSV for downstream structural-modeling input. Each record carries the
// crossing's map coordinates and elevation, the fault's dip direction
// as azimuth, its true dip, and a constant polarity of 1.
func WriteOrientations(filename string, xs []*Intersection) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("sectprep: creating orientation file %s: %v", filename, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"X", "Y", "Z", "azimuth", "dip", "polarity", "formation", "name"}); err != nil {
		return err
	}
	for _, x := range xs {
		rec := []string{
			strconv.FormatFloat(x.X, 'f', 2, 64),
			strconv.FormatFloat(x.Y, 'f', 2, 64),
			strconv.FormatFloat(x.Elevation, 'f', 2, 64),
			strconv.FormatFloat(x.DipDirection, 'f', 2, 64),
			strconv.FormatFloat(x.TrueDip, 'f', 2, 64),
			"1",
			x.FaultID,
			x.SectionID,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// shpSR reads the spatial reference of a shapefile from its .prj
// sidecar, returning nil without error when the sidecar is absent.
func shpSR(filename string) (*proj.SR, error) {
	prj := strings.TrimSuffix(filename, ".shp") + ".prj"
	b, err := ioutil.ReadFile(prj)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return proj.Parse(string(b))
}

// transformFaults reprojects fault geometry from the spatial reference
// of the fault source to that of the section source. When either .prj
// sidecar is absent the faults are assumed to already share the
// sections' reference.
func transformFaults(faults []*FaultTrace, faultsFile, sectionsFile string) error {
	fsr, err := shpSR(faultsFile)
	if err != nil {
		return fmt.Errorf("sectprep: reading fault spatial reference: %v", err)
	}
	ssr, err := shpSR(sectionsFile)
	if err != nil {
		return fmt.Errorf("sectprep: reading section spatial reference: %v", err)
	}
	if fsr == nil || ssr == nil {
		return nil
	}
	trans, err := fsr.NewTransform(ssr)
	if err != nil {
		return fmt.Errorf("sectprep: creating fault transform: %v", err)
	}
	for _, f := range faults {
		g, err := f.Geom.Transform(trans)
		if err != nil {
			return fmt.Errorf("sectprep: reprojecting fault %s: %v", f.Name, err)
		}
		f.Geom = g.(geom.LineString)
	}
	return nil
}

// copyFile copies one file, creating or truncating dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
