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

// Command sectprep is a command-line interface for preparing
// cross-section and fault data for structural modeling.
package main

import (
	"fmt"
	"os"

	"github.com/geomodel/sectprep/sectpreputil"
)

func main() {
	if err := sectpreputil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
