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
	"os"
	"strconv"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
)

// demVar is the NetCDF variable holding the elevation grid, with
// dimensions (y, x).
const demVar = "elevation"

// A DEM is a single-band elevation raster with an affine georeferencing
// transform. It is opened once per run and queried many times; lookups
// are read-only.
type DEM struct {
	data *sparse.DenseArray

	// xo and yo are the map coordinates of the center of cell (0, 0);
	// dx and dy are the cell sizes.
	xo, yo, dx, dy float64
	nx, ny         int
}

// NewDEM wraps an elevation grid in a DEM. data must be
// two-dimensional with shape (ny, nx); xo and yo locate the center of
// the first cell and dx and dy give the cell sizes in map units.
func NewDEM(data *sparse.DenseArray, xo, yo, dx, dy float64) (*DEM, error) {
	if len(data.Shape) != 2 {
		return nil, fmt.Errorf("sectprep: DEM grid must have 2 dimensions but has %d", len(data.Shape))
	}
	if dx == 0 || dy == 0 {
		return nil, fmt.Errorf("sectprep: DEM cell size must be nonzero")
	}
	return &DEM{
		data: data,
		xo:   xo,
		yo:   yo,
		dx:   dx,
		dy:   dy,
		ny:   data.Shape[0],
		nx:   data.Shape[1],
	}, nil
}

// ReadDEM reads an elevation surface from a NetCDF file. The file must
// contain the variable "elevation" with dimensions (y, x) and global
// attributes x0, y0, dx, and dy describing the affine transform.
func ReadDEM(filename string) (*DEM, error) {
	ff, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("sectprep: opening DEM file: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Open(ff)
	if err != nil {
		return nil, fmt.Errorf("sectprep: reading DEM file %s: %v", filename, err)
	}

	var affine [4]float64
	for i, attr := range []string{"x0", "y0", "dx", "dy"} {
		affine[i], err = attrFloat(f, attr)
		if err != nil {
			return nil, err
		}
	}

	dims := f.Header.Lengths(demVar)
	if len(dims) != 2 {
		return nil, fmt.Errorf("sectprep: DEM variable %s must have 2 dimensions but has %d", demVar, len(dims))
	}
	ny, nx := dims[0], dims[1]

	r := f.Reader(demVar, nil, nil)
	buf := r.Zero(nx * ny)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("sectprep: reading DEM variable %s: %v", demVar, err)
	}
	data := sparse.ZerosDense(ny, nx)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	default:
		return nil, fmt.Errorf("sectprep: DEM variable %s has unsupported type %T", demVar, buf)
	}
	return NewDEM(data, affine[0], affine[1], affine[2], affine[3])
}

// attrFloat reads a global NetCDF attribute that may be stored either
// as a numeric array or as a string.
func attrFloat(f *cdf.File, name string) (float64, error) {
	a := f.Header.GetAttribute("", name)
	if a == nil {
		return 0, fmt.Errorf("sectprep: DEM file is missing attribute %s", name)
	}
	switch v := a.(type) {
	case string:
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("sectprep: parsing DEM attribute %s: %v", name, err)
		}
		return val, nil
	case []float64:
		if len(v) > 0 {
			return v[0], nil
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0]), nil
		}
	}
	return 0, fmt.Errorf("sectprep: DEM attribute %s has unsupported type %T", name, a)
}

// Elevation samples the raster at the map coordinates of p using
// nearest-cell lookup. If p falls outside the raster coverage a
// DataMissingError is returned; callers must treat that as fatal for
// the point rather than substituting a default elevation.
func (d *DEM) Elevation(p geom.Point) (float64, error) {
	ix := int(math.Round((p.X - d.xo) / d.dx))
	iy := int(math.Round((p.Y - d.yo) / d.dy))
	if ix < 0 || ix >= d.nx || iy < 0 || iy >= d.ny {
		return 0, DataMissingError{
			What: fmt.Sprintf("elevation at point (%g, %g) outside DEM coverage", p.X, p.Y),
		}
	}
	return d.data.Get(iy, ix), nil
}

// Range returns the lowest and highest elevations in the raster.
func (d *DEM) Range() (min, max float64) {
	return floats.Min(d.data.Elements), floats.Max(d.data.Elements)
}

// Bounds returns the spatial extent covered by the raster.
func (d *DEM) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	b.Extend(geom.NewBoundsPoint(geom.Point{X: d.xo - d.dx/2, Y: d.yo - d.dy/2}))
	b.Extend(geom.NewBoundsPoint(geom.Point{
		X: d.xo + d.dx*(float64(d.nx)-0.5),
		Y: d.yo + d.dy*(float64(d.ny)-0.5),
	}))
	return b
}
