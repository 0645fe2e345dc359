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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// writeDEMFile writes an elevation grid to a NetCDF file in the layout
// ReadDEM expects.
func writeDEMFile(filename string, data *sparse.DenseArray, x0, y0, dx, dy float64) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{data.Shape[0], data.Shape[1]})
	h.AddAttribute("", "x0", fmt.Sprint(x0))
	h.AddAttribute("", "y0", fmt.Sprint(y0))
	h.AddAttribute("", "dx", fmt.Sprint(dx))
	h.AddAttribute("", "dy", fmt.Sprint(dy))
	h.AddVariable(demVar, []string{"y", "x"}, []float32{0})
	h.Define()

	ff, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return err
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(demVar)
	start := make([]int, len(end))
	w := f.Writer(demVar, start, end)
	if _, err := w.Write(data32); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(ff)
}

func TestDEMElevation(t *testing.T) {
	data := sparse.ZerosDense(2, 3)
	for iy := 0; iy < 2; iy++ {
		for ix := 0; ix < 3; ix++ {
			data.Set(float64(iy*10+ix), iy, ix)
		}
	}
	d, err := NewDEM(data, 100, 200, 10, 10)
	if err != nil {
		t.Fatal(err)
	}

	// Exact cell center and a point that rounds to the same cell.
	if v, err := d.Elevation(geom.Point{X: 110, Y: 210}); err != nil || v != 11 {
		t.Errorf("elevation at cell (1, 1) = %g, %v; want 11", v, err)
	}
	if v, err := d.Elevation(geom.Point{X: 113, Y: 207}); err != nil || v != 11 {
		t.Errorf("elevation near cell (1, 1) = %g, %v; want 11", v, err)
	}
	if v, err := d.Elevation(geom.Point{X: 100, Y: 200}); err != nil || v != 0 {
		t.Errorf("elevation at origin = %g, %v; want 0", v, err)
	}

	// Outside the coverage the lookup must fail rather than guess.
	_, err = d.Elevation(geom.Point{X: 500, Y: 200})
	if err == nil {
		t.Fatal("expected an error outside coverage")
	}
	if _, isMissing := err.(DataMissingError); !isMissing {
		t.Errorf("expected a DataMissingError, got %T", err)
	}
}

func TestNewDEMErrors(t *testing.T) {
	if _, err := NewDEM(sparse.ZerosDense(4), 0, 0, 1, 1); err == nil {
		t.Error("expected an error for a 1-D grid")
	}
	if _, err := NewDEM(sparse.ZerosDense(2, 2), 0, 0, 0, 1); err == nil {
		t.Error("expected an error for a zero cell size")
	}
}

func TestDEMRange(t *testing.T) {
	data := sparse.ZerosDense(2, 2)
	data.Set(-12, 0, 0)
	data.Set(2240, 1, 1)
	d, err := NewDEM(data, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := d.Range()
	if lo != -12 || hi != 2240 {
		t.Errorf("range = [%g, %g]; want [-12, 2240]", lo, hi)
	}
}

func TestDEMBounds(t *testing.T) {
	d, err := NewDEM(sparse.ZerosDense(2, 3), 100, 200, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	b := d.Bounds()
	const tol = 1e-12
	if absDifferent(b.Min.X, 95, tol) || absDifferent(b.Max.X, 125, tol) ||
		absDifferent(b.Min.Y, 195, tol) || absDifferent(b.Max.Y, 215, tol) {
		t.Errorf("bounds = %+v; want [95, 125] × [195, 215]", b)
	}
}

func TestReadDEM(t *testing.T) {
	dir, err := ioutil.TempDir("", "sectprep_dem")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	data := sparse.ZerosDense(3, 4)
	for i := range data.Elements {
		data.Elements[i] = float64(i) * 2.5
	}
	file := filepath.Join(dir, "dem.nc")
	if err := writeDEMFile(file, data, -50, 30, 5, 5); err != nil {
		t.Fatal(err)
	}

	d, err := ReadDEM(file)
	if err != nil {
		t.Fatal(err)
	}
	for iy := 0; iy < 3; iy++ {
		for ix := 0; ix < 4; ix++ {
			p := geom.Point{X: -50 + float64(ix)*5, Y: 30 + float64(iy)*5}
			v, err := d.Elevation(p)
			if err != nil {
				t.Fatal(err)
			}
			if absDifferent(v, data.Get(iy, ix), 1e-4) {
				t.Errorf("cell (%d, %d) = %g; want %g", iy, ix, v, data.Get(iy, ix))
			}
		}
	}
}

func TestReadDEMMissing(t *testing.T) {
	if _, err := ReadDEM("no_such_file.nc"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
