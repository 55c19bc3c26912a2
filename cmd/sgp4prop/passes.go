package main

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edpier/sky-sub002/ephemeris"
	"github.com/edpier/sky-sub002/sgp4"
	"github.com/edpier/sky-sub002/tle"
)

var passHeader = []string{
	"name", "norad_id", "aos_utc", "tca_utc", "los_utc",
	"max_elevation_deg", "aos_azimuth_deg", "tca_azimuth_deg", "los_azimuth_deg",
}

func newPassesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passes <elements-file>",
		Short: "List passes of every element set over a ground site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasses(cmd, v, args[0])
		},
	}
	f := cmd.Flags()
	f.Float64("lat", 0, "site geodetic latitude, degrees north")
	f.Float64("lon", 0, "site longitude, degrees east")
	f.Float64("alt", 0, "site altitude, meters")
	f.Float64("min-elevation", 10, "lowest elevation that counts as visible, degrees")
	f.Float64("window", 1440, "search length in minutes")
	f.String("from", "", "search start, RFC 3339 (default each element set's epoch)")
	for _, name := range []string{"lat", "lon", "alt", "min-elevation", "window", "from"} {
		_ = v.BindPFlag("passes."+strings.ReplaceAll(name, "-", "_"), f.Lookup(name))
	}
	return cmd
}

func runPasses(cmd *cobra.Command, v *viper.Viper, path string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), v.GetString("log_level"))
	if err != nil {
		return err
	}
	obs := ephemeris.Observer{
		Latitude:  v.GetFloat64("passes.lat"),
		Longitude: v.GetFloat64("passes.lon"),
		Altitude:  v.GetFloat64("passes.alt"),
	}
	window := time.Duration(v.GetFloat64("passes.window") * float64(time.Minute))
	if window <= 0 {
		return errors.New("window must be positive")
	}
	var from time.Time
	if s := v.GetString("passes.from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			return errors.Wrap(err, "parsing --from")
		}
	}
	sets, err := loadElementSets(path, logger)
	if err != nil {
		return err
	}

	out := csv.NewWriter(cmd.OutOrStdout())
	if err := out.Write(passHeader); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	total := 0
	for _, set := range sets {
		p, err := set.Propagator(sgp4.WithLogger(logger))
		if err != nil {
			level.Warn(logger).Log("msg", "skipping element set", "norad_id", set.SatelliteNumber, "err", err)
			continue
		}
		start := from
		if start.IsZero() {
			start = p.Epoch()
		}
		passes, err := ephemeris.FindPasses(cmd.Context(), p, obs, start, start.Add(window), v.GetFloat64("passes.min_elevation"))
		if err != nil {
			if !errors.Is(err, sgp4.ErrDecayed) {
				return errors.Wrapf(err, "satellite %05d", set.SatelliteNumber)
			}
			level.Warn(logger).Log("msg", "pass search stopped", "norad_id", set.SatelliteNumber, "err", err)
		}
		if err := writePasses(out, set, passes); err != nil {
			return err
		}
		total += len(passes)
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	level.Info(logger).Log("msg", "pass search complete", "objects", len(sets), "passes", total)
	return nil
}

func writePasses(out *csv.Writer, set *tle.TLE, passes []ephemeris.Pass) error {
	deg := func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
	stamp := func(t time.Time) string { return t.UTC().Format(time.RFC3339) }
	for _, p := range passes {
		record := []string{
			set.Name, strconv.Itoa(set.SatelliteNumber),
			stamp(p.AOS), stamp(p.TCA), stamp(p.LOS),
			deg(p.MaxElevation), deg(p.AOSLook.Azimuth), deg(p.TCALook.Azimuth), deg(p.LOSLook.Azimuth),
		}
		if err := out.Write(record); err != nil {
			return errors.Wrap(err, "writing csv")
		}
	}
	return nil
}
