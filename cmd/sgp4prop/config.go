package main

import (
	"io"
	"math"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/edpier/sky-sub002/ephemeris"
)

const envPrefix = "SGP4PROP"

// config is the resolved run configuration. Precedence is flag, environment
// (SGP4PROP_*), config file, then flag default.
type config struct {
	Start       float64 // minutes since epoch
	Step        float64 // minutes
	Span        float64 // minutes
	Workers     int
	Frame       ephemeris.Frame
	LogLevel    string
	MetricsFile string
}

// readConfig loads the TOML file named by path, $SGP4PROP_CONFIG or
// ./sgp4prop.toml. Only an explicitly named file is required to exist.
func readConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sgp4prop")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "reading config")
	}
	return nil
}

func configFrom(v *viper.Viper) (config, error) {
	cfg := config{
		Start:       v.GetFloat64("start"),
		Step:        v.GetFloat64("step"),
		Span:        v.GetFloat64("span"),
		Workers:     v.GetInt("workers"),
		LogLevel:    v.GetString("log_level"),
		MetricsFile: v.GetString("metrics_file"),
	}
	frame, err := ephemeris.ParseFrame(v.GetString("frame"))
	if err != nil {
		return cfg, err
	}
	cfg.Frame = frame
	return cfg, nil
}

// grid covers [Start, Start+Span] inclusive in steps of Step.
func (c config) grid() (ephemeris.Grid, error) {
	if c.Step == 0 || math.IsNaN(c.Step) {
		return ephemeris.Grid{}, errors.New("step must be non-zero")
	}
	if c.Span != 0 && math.Signbit(c.Span) != math.Signbit(c.Step) {
		return ephemeris.Grid{}, errors.Errorf("span %v and step %v have opposite signs", c.Span, c.Step)
	}
	// slack so that a span that is a multiple of step includes its end
	count := int(math.Floor(c.Span/c.Step+1e-9)) + 1
	return ephemeris.Grid{Start: c.Start, Step: c.Step, Count: count}, nil
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var allow level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		allow = level.AllowDebug()
	case "", "info":
		allow = level.AllowInfo()
	case "warn", "warning":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	case "none":
		allow = level.AllowNone()
	default:
		return nil, errors.Errorf("unknown log level %q", lvl)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, allow), nil
}
