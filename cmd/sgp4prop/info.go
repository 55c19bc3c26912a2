package main

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edpier/sky-sub002/sgp4"
	"github.com/edpier/sky-sub002/tle"
)

func newInfoCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "info <elements-file>",
		Short: "Describe the element sets in a TLE or OMM JSON file and the model each one selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), v.GetString("log_level"))
			if err != nil {
				return err
			}
			sets, err := loadElementSets(args[0], logger)
			if err != nil {
				return err
			}
			for _, set := range sets {
				p, perr := set.Propagator(sgp4.WithLogger(logger))
				if err := writeInfo(cmd.OutOrStdout(), set, p, perr); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// writeInfo prints one element set. perr is the error from building its
// propagator, in which case p is nil.
func writeInfo(w io.Writer, set *tle.TLE, p *sgp4.Propagator, perr error) error {
	name := set.Name
	if name == "" {
		name = "(unnamed)"
	}
	lines := []struct {
		label string
		value interface{}
	}{
		{"object", fmt.Sprintf("%s %05d%c %s", name, set.SatelliteNumber, set.Classification, set.International)},
		{"epoch", set.Epoch().Format(time.RFC3339Nano)},
		{"inclination", sexa.FmtAngle(unit.AngleFromDeg(set.Inclination))},
		{"ascending node", sexa.FmtAngle(unit.AngleFromDeg(set.RightAscension))},
		{"arg of perigee", sexa.FmtAngle(unit.AngleFromDeg(set.ArgOfPerigee))},
		{"mean anomaly", sexa.FmtAngle(unit.AngleFromDeg(set.MeanAnomaly))},
		{"eccentricity", fmt.Sprintf("%.7f", set.Eccentricity)},
		{"mean motion", fmt.Sprintf("%.8f rev/day", set.MeanMotion)},
		{"period", fmt.Sprintf("%.2f min", set.Period())},
		{"bstar", fmt.Sprintf("%.5e", set.Bstar)},
		{"geostationary", set.IsGeostationary()},
		{"model", modelSummary(p, perr)},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-15s %v\n", l.label, l.value); err != nil {
			return errors.Wrap(err, "writing info")
		}
	}
	_, err := fmt.Fprintln(w)
	return errors.Wrap(err, "writing info")
}

func modelSummary(p *sgp4.Propagator, perr error) string {
	switch {
	case perr != nil:
		return "unusable: " + perr.Error()
	case p.IsDeepSpace():
		return "deep space, resonance " + p.Resonance().String()
	case p.IsSimple():
		return "near earth, reduced drag"
	default:
		return "near earth"
	}
}
