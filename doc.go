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

// Package sectprep prepares surveyed fault traces and vertical
// cross-sections for three-dimensional structural modeling.
//
// The package combines fault polylines, named cross-section traces, and
// a digital elevation model to work out, at every point where a fault
// crosses a section, the apparent dip of the fault in the plane of that
// section, and to materialize each fault as a line segment drawn down
// through the section to a configured maximum modeling depth.
//
// Processing happens in three stages which are normally run in order
// for one modeling zone at a time:
//
//  1. The Extender (fault.go) lengthens faults whose mapped extent
//     likely under-represents their true extent. A fault endpoint that
//     touches no other fault in its fault system is assumed to be a
//     mapping truncation rather than a real termination, and the trace
//     is continued outward along its own direction until it leaves the
//     zone boundary polygon.
//
//  2. The Engine (intersect.go) finds every point where a section
//     crosses a fault and derives, for each crossing, the ground
//     elevation, the distance along the section, the angle between the
//     two lines, and the apparent dip of the fault in the section
//     plane.
//
//  3. The Projector (project.go) converts each retained crossing into a
//     two-vertex segment in the section's local (distance, elevation)
//     coordinate system, running from the ground surface down to the
//     maximum modeling depth, leaning left or right according to the
//     fault's dip side.
//
// The Pipeline type (run.go) ties the stages together against a
// per-zone directory layout of shapefiles and is safe to re-run over
// partially produced outputs.
package sectprep

// Version gives the version number.
const Version = "1.2.1"
