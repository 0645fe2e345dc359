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

import "fmt"

// GeometryError is returned when an input geometry is degenerate or of
// the wrong type for the requested calculation, for example a
// zero-length line used for an angle computation.
type GeometryError struct {
	Reason string
}

func (e GeometryError) Error() string {
	return "sectprep: geometry error: " + e.Reason
}

// RangeError is returned when a geological quantity falls outside its
// valid domain, for example a true dip greater than 90°.
type RangeError struct {
	Quantity string
	Value    float64
}

func (e RangeError) Error() string {
	return fmt.Sprintf("sectprep: %s out of valid range: %g", e.Quantity, e.Value)
}

// DataMissingError is returned when required data is absent: an
// elevation sample outside the DEM coverage, or a referenced section
// file that does not exist on disk. Callers must not substitute a
// sentinel value for the missing datum.
type DataMissingError struct {
	What string
}

func (e DataMissingError) Error() string {
	return "sectprep: missing data: " + e.What
}
