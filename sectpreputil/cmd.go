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

// Package sectpreputil holds configuration and command-line glue for
// the sectprep geological cross-section preparation pipeline.
package sectpreputil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/geomodel/sectprep"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to sectprep.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "zone",
			usage: `
              zone names the modeling zone to process, for example
              North, Middle, or South. The zone boundary polygon is
              expected at <WorkDir>/<zone>/<zone>.shp unless overridden
              by ZoneBoundaries.`,
			shorthand:  "z",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "WorkDir",
			usage: `
              WorkDir is the directory holding per-zone outputs. It can
              include environment variables.`,
			defaultVal: "Shapefiles",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ZoneBoundaries",
			usage: `
              ZoneBoundaries optionally maps zone names to boundary
              shapefile locations, overriding the default
              <WorkDir>/<zone>/<zone>.shp layout.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "FaultsFile",
			usage: `
              FaultsFile is the shapefile of surveyed fault traces. It
              must carry the attribute columns Fault, Dip, azimuth,
              Side_Dip, and dip_direct. It can include environment
              variables.`,
			defaultVal: "Dataset/Surface/Faults.shp",
			flagsets:   []*pflag.FlagSet{extendCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "SectionsFile",
			usage: `
              SectionsFile is the shapefile of planimetric cross-section
              traces, with a "name" attribute column. It can include
              environment variables.`,
			defaultVal: "Dataset/Surface/Sections.shp",
			flagsets: []*pflag.FlagSet{extendCmd.Flags(), dipCmd.Flags(),
				verifyCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "SectionDir",
			usage: `
              SectionDir is the directory of per-section feature
              shapefiles, one file per section named <name>.shp. It can
              include environment variables.`,
			defaultVal: "Dataset/Hydrogeological_Units/Lineal",
			flagsets: []*pflag.FlagSet{projectCmd.Flags(), verifyCmd.Flags(),
				runCmd.Flags()},
		},
		{
			name: "BackupDir",
			usage: `
              BackupDir is a directory of pristine per-section
              shapefiles used to restore sections missing from the
              output. When empty, SectionDir is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{verifyCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "DEMFile",
			usage: `
              DEMFile is the NetCDF elevation surface with variable
              "elevation" and affine attributes x0, y0, dx, and dy. It
              can include environment variables.`,
			defaultVal: "Dataset/Raster/dem.nc",
			flagsets:   []*pflag.FlagSet{dipCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "MaxDepth",
			usage: `
              MaxDepth is the depth in meters below the reference datum
              to which faults are projected. It is conventionally
              negative.`,
			defaultVal: float64(sectprep.DefaultMaxDepth),
			flagsets:   []*pflag.FlagSet{projectCmd.Flags(), runCmd.Flags()},
		},
		{
			name: "ExtendFactor",
			usage: `
              ExtendFactor is the multiple of a fault trace's chord by
              which dangling endpoints are extended before clipping to
              the zone boundary.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{extendCmd.Flags(), runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SECTPREP")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(extendCmd)
	Root.AddCommand(dipCmd)
	Root.AddCommand(projectCmd)
	Root.AddCommand(verifyCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("sectprep: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "sectprep",
	Short: "Prepare cross-section and fault data for structural modeling.",
	Long: `sectprep prepares surveyed fault traces and vertical cross-sections
for three-dimensional structural modeling. Use the subcommands specified
below to run the processing stages for one modeling zone.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'SECTPREP_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of sectprep.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("sectprep v%s\n", sectprep.Version)
	},
	DisableAutoGenTag: true,
}

// extendCmd extends dangling fault endpoints within the zone boundary.
var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Extend dangling fault endpoints to the zone boundary.",
	Long: `extend clips the surveyed faults to the zone boundary and continues
every fault endpoint that touches no other fault in its system outward
along its own direction until it leaves the boundary. The result is
written to <WorkDir>/<zone>/Extent_faults.shp.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		return p.Extend()
	},
	DisableAutoGenTag: true,
}

// dipCmd computes fault-section intersections and apparent dips.
var dipCmd = &cobra.Command{
	Use:   "dip",
	Short: "Compute fault-section intersections and apparent dips.",
	Long: `dip intersects the cross-sections with the extended faults and
derives ground elevation, along-section distance, intersection angle,
and apparent dip for every crossing, retaining one record per
(section, fault) pair. Results are written to <WorkDir>/<zone>/Dip.shp
and <WorkDir>/<zone>/Orientations.csv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		return p.Dip()
	},
	DisableAutoGenTag: true,
}

// projectCmd draws projected fault segments into the section files.
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project dip intersections into the section files.",
	Long: `project adds, for every dip intersection, a fault segment drawn
from the ground surface down to MaxDepth in the section's local
(distance, elevation) plane. Updated section files are written to
<WorkDir>/<zone>/Modified; sections already containing a fault are left
untouched, so re-running adds nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		return p.Project()
	},
	DisableAutoGenTag: true,
}

// verifyCmd restores sections missing from the output inventory.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the zone's section inventory.",
	Long: `verify checks that every section intersecting the zone boundary has
a file in <WorkDir>/<zone>/Modified and restores missing ones from the
backup directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		return p.Verify()
	},
	DisableAutoGenTag: true,
}

// runCmd runs all stages in order.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all processing stages for a zone.",
	Long: `run executes extend, dip, project, and verify in order for the
configured zone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := PipelineFromConfig(Cfg)
		if err != nil {
			return err
		}
		return p.Run()
	},
	DisableAutoGenTag: true,
}
