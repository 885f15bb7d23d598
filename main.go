package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vast/config"
)

var (
	configPath string
	envFile    string
	logLevel   string
	directory  string
	algorithm  string
	renderFlag bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("vast failed")
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vast",
		Short:         "Train and evaluate multi-agent controllers on simulated domains",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML params file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with VAST_* overrides")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&directory, "directory", "d", "", "output directory for results and weights")
	root.PersistentFlags().StringVar(&algorithm, "algorithm", "", "controller to use (random, tabular-q)")
	root.PersistentFlags().BoolVar(&renderFlag, "render", false, "log a text frame of every step at debug level")

	root.AddCommand(trainCmd(), evaluateCmd())
	return root
}

// loadParams resolves the params from defaults, the YAML file, the dotenv
// file and finally the command line flags.
func loadParams() (config.Params, error) {
	params := config.Default()
	if configPath != "" {
		var err error
		params, err = config.Load(configPath)
		if err != nil {
			return params, err
		}
	}
	if err := params.ApplyEnv(envFile); err != nil {
		return params, err
	}
	if directory != "" {
		params.Directory = directory
	}
	if algorithm != "" {
		params.AlgorithmName = algorithm
	}
	if renderFlag {
		params.Render = true
	}
	return params, params.Validate()
}
