/*
Copyright 2023 mpapenbr
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/cmd/check"
	importCmd "github.com/mpapenbr/go-dashsim/pkg/cmd/logimport"
	recordCmd "github.com/mpapenbr/go-dashsim/pkg/cmd/record"
	replayCmd "github.com/mpapenbr/go-dashsim/pkg/cmd/replay"
	sessionsCmd "github.com/mpapenbr/go-dashsim/pkg/cmd/sessions"
	simulateCmd "github.com/mpapenbr/go-dashsim/pkg/cmd/simulate"
	synthCmd "github.com/mpapenbr/go-dashsim/pkg/cmd/synth"
	"github.com/mpapenbr/go-dashsim/pkg/config"
	"github.com/mpapenbr/go-dashsim/pkg/util"
	"github.com/mpapenbr/go-dashsim/version"
)

const envPrefix = "dashsim"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dashsim",
	Short: "Vehicle dashboard simulator",
	Long: `Simulates engine and vehicle telemetry driven by throttle, clutch and
gear inputs, records it and plays back recorded journeys.`,
	Version:      version.FullVersion,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := util.SetupLogger(config.DefaultCliArgs())
		if err != nil {
			return fmt.Errorf("could not setup logger: %w", err)
		}
		cmd.SetContext(log.AddToContext(cmd.Context(), logger))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		//nolint:errcheck // nothing left to do on error
		log.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.dashsim.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DefaultCliArgs().LogLevel,
		"log-level",
		"",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.DefaultCliArgs().LogFormat,
		"log-format",
		"text",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.DefaultCliArgs().LogFile,
		"log-file",
		"",
		"if present logs are written to this file, otherwise to stderr")
	rootCmd.PersistentFlags().StringVar(&config.DefaultCliArgs().LogConfig,
		"log-config",
		"",
		"yaml file with the logger configuration (levels per logger)")

	rootCmd.AddCommand(simulateCmd.NewSimulateCmd())
	rootCmd.AddCommand(replayCmd.NewReplayCmd())
	rootCmd.AddCommand(recordCmd.NewRecordCmd())
	rootCmd.AddCommand(synthCmd.NewSynthCmd())
	rootCmd.AddCommand(importCmd.NewImportCmd())
	rootCmd.AddCommand(sessionsCmd.NewSessionsCmd())
	rootCmd.AddCommand(check.NewSchemaCheckCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name "dashsim" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("dashsim")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Could not read config file: %v\n", err)
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --max-rpm to DASHSIM_MAX_RPM
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", strings.ToUpper(envPrefix), envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
