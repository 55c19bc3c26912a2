// Command sgp4prop propagates NORAD element sets with the SGP4/SDP4 model.
//
//	sgp4prop propagate --step 10 --span 1440 stations.tle
//	sgp4prop passes --lat 51.48 --lon 0 --window 2880 stations.tle
//	sgp4prop info active.json
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:          "sgp4prop",
		Short:        "Propagate NORAD element sets with SGP4/SDP4",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return readConfig(v, cfgFile)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file (default $SGP4PROP_CONFIG or ./sgp4prop.toml)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error or none")
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newPropagateCmd(v), newPassesCmd(v), newInfoCmd(v))
	return root
}
