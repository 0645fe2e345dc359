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

package sectpreputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/geomodel/sectprep"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for getStringMapString variable %s: %#v", varName, i))
	}
}

// expandString expands environment variables in s.
func expandString(s string) string {
	return os.ExpandEnv(s)
}

// PipelineFromConfig creates a Pipeline for the configured zone from
// the given configuration. Strings in the configuration may contain
// environment variables which will be expanded.
func PipelineFromConfig(cfg *viper.Viper) (*sectprep.Pipeline, error) {
	zone := cfg.GetString("zone")
	if zone == "" {
		return nil, fmt.Errorf("sectprep: no zone specified; set the --zone flag " +
			"or the SECTPREP_ZONE environment variable")
	}

	p := sectprep.NewPipeline(zone, expandString(cfg.GetString("WorkDir")))
	p.FaultsFile = expandString(cfg.GetString("FaultsFile"))
	p.SectionsFile = expandString(cfg.GetString("SectionsFile"))
	p.SectionDir = expandString(cfg.GetString("SectionDir"))
	p.BackupDir = expandString(cfg.GetString("BackupDir"))
	p.DEMFile = expandString(cfg.GetString("DEMFile"))
	p.MaxDepth = cfg.GetFloat64("MaxDepth")
	p.ExtendFactor = cfg.GetFloat64("ExtendFactor")

	if boundaries := GetStringMapString("ZoneBoundaries", cfg); boundaries != nil {
		if b, ok := boundaries[zone]; ok {
			p.BoundaryFile = expandString(b)
		}
	}
	return p, nil
}
