// Command satgirg generates SAT random geometric graphs and measures their
// clustering. Without a subcommand it runs the configured sweep.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gilchrisn/satgirg-clustering/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg        *config.Config
	configPath string
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.NewConfig(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "satgirg",
		Short:         "SAT random geometric graph generator and clustering measurement",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath != "" {
				if err := a.cfg.LoadFromFile(a.configPath); err != nil {
					return err
				}
			}
			if err := bindFlags(cmd.Flags(), a.cfg.Viper(), map[string]string{"log-level": "logging.level"}); err != nil {
				return err
			}
			a.logger = a.cfg.CreateLoggerTo(cmd.ErrOrStderr())
			log.Logger = a.logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSweep(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSweepCmd(a),
		newRunCmd(a),
		newGenerateCmd(a),
		newClusterCmd(a),
		newServeCmd(a),
	)
	return root
}

// bindFlags binds the named flags of fs to viper keys. Only flags set on the
// command line override file, environment and default values.
func bindFlags(fs *pflag.FlagSet, v *viper.Viper, keys map[string]string) error {
	for name, key := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

var generatorKeys = map[string]string{
	"n":       "generator.n",
	"m":       "generator.m",
	"k":       "generator.k",
	"ple":     "generator.ple",
	"plot":    "generator.plot",
	"threads": "performance.threads",
}

func addGeneratorFlags(fs *pflag.FlagSet) {
	fs.Int("n", 1000, "number of variables")
	fs.Int("m", 4000, "number of clauses")
	fs.Int("k", 3, "expected variables per clause")
	fs.Float64("ple", 2.5, "power-law exponent of variable weights")
	fs.Int("plot", 2, "plot label copied into every row")
	fs.Int("threads", 1, "edge sampler worker count")
}
