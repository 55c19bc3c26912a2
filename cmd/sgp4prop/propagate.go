package main

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edpier/sky-sub002/ephemeris"
	"github.com/edpier/sky-sub002/sgp4"
	"github.com/edpier/sky-sub002/tle"
)

var csvHeader = []string{
	"name", "norad_id", "tsince_min", "time_utc",
	"x_m", "y_m", "z_m", "vx_mps", "vy_mps", "vz_mps", "error",
}

func newPropagateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "propagate <elements-file>",
		Short: "Print a CSV state table for every element set in a TLE or OMM JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropagate(cmd, v, args[0])
		},
	}
	f := cmd.Flags()
	f.Float64("start", 0, "first sample, minutes since each element set's epoch")
	f.Float64("step", 60, "sample spacing in minutes")
	f.Float64("span", 1440, "time covered after start, in minutes")
	f.Int("workers", 0, "propagation goroutines (0 means one per CPU)")
	f.String("frame", "teme", "output frame: teme or earth-fixed")
	f.String("metrics-file", "", "write Prometheus metrics in text format to this file")
	for _, name := range []string{"start", "step", "span", "workers", "frame", "metrics-file"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f.Lookup(name))
	}
	return cmd
}

func runPropagate(cmd *cobra.Command, v *viper.Viper, path string) error {
	cfg, err := configFrom(v)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	grid, err := cfg.grid()
	if err != nil {
		return err
	}
	sets, err := loadElementSets(path, logger)
	if err != nil {
		return err
	}

	jobs := make([]ephemeris.Job, 0, len(sets))
	for _, set := range sets {
		p, err := set.Propagator(sgp4.WithLogger(log.With(logger, "norad_id", set.SatelliteNumber)))
		if err != nil {
			level.Warn(logger).Log("msg", "skipping element set", "norad_id", set.SatelliteNumber, "err", err)
			continue
		}
		jobs = append(jobs, ephemeris.Job{ID: set.SatelliteNumber, Name: set.Name, Propagator: p})
	}

	reg := prometheus.NewRegistry()
	pool := ephemeris.NewPool(cfg.Workers,
		ephemeris.WithLogger(logger),
		ephemeris.WithMetrics(ephemeris.NewMetrics(reg)),
		ephemeris.WithFrame(cfg.Frame),
	)
	rows, err := pool.Run(cmd.Context(), jobs, grid)
	if err != nil {
		return err
	}
	if err := writeRows(cmd.OutOrStdout(), rows); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}
	level.Info(logger).Log("msg", "propagation complete", "objects", len(jobs), "rows", len(rows), "frame", cfg.Frame)
	return nil
}

// loadElementSets reads OMM JSON when the file name ends in .json and two-line
// element sets otherwise. Sets that cannot be read are logged and skipped.
func loadElementSets(path string, logger log.Logger) ([]*tle.TLE, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening element sets")
	}
	defer f.Close()

	skip := func(err error, keyvals ...interface{}) {
		level.Warn(logger).Log(append([]interface{}{"msg", "skipping unusable element set", "file", path, "err", err}, keyvals...)...)
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		sets, err := tle.ParseAll(f, func(err error) { skip(err) })
		return sets, errors.Wrap(err, path)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading element sets")
	}
	omms, err := tle.ParseOMMs(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	sets := make([]*tle.TLE, 0, len(omms))
	for i := range omms {
		set, err := omms[i].ToTLE()
		if err != nil {
			skip(err, "object", omms[i].ObjectName, "norad_id", omms[i].NoradCatID)
			continue
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func writeRows(w io.Writer, rows []ephemeris.Row) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	record := make([]string, len(csvHeader))
	for _, row := range rows {
		record[0] = row.Name
		record[1] = strconv.Itoa(row.JobID)
		record[2] = strconv.FormatFloat(row.Tsince, 'f', -1, 64)
		record[3] = row.Time.UTC().Format(time.RFC3339Nano)
		if row.Err != nil {
			for i := 4; i < 10; i++ {
				record[i] = ""
			}
			record[10] = row.Err.Error()
		} else {
			for i := 0; i < 3; i++ {
				record[4+i] = strconv.FormatFloat(row.State.Position[i], 'f', 3, 64)
				record[7+i] = strconv.FormatFloat(row.State.Velocity[i], 'f', 6, 64)
			}
			record[10] = ""
		}
		if err := out.Write(record); err != nil {
			return errors.Wrap(err, "writing csv")
		}
	}
	out.Flush()
	return errors.Wrap(out.Error(), "writing csv")
}
