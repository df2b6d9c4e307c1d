/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/lexbridge/internal/engine"
)

// Global variables to store command-line flags and configuration
var (
	cfgFile string // Path to configuration file
	dataDir string // Directory holding the JSONL repositories and memory cache
	debug   bool   // Force debug mode regardless of config file
	version bool   // Print version of the application
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lexbridge",
	Short: "Offline multi-stage text translation engine",
	Long: `lexbridge translates text through an offline pipeline of layers
(preprocessing, phrase, dictionary, grammar, word order, post-processing)
backed by a JSONL-file repository layer. No network access or external
translation API is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if version {
			fmt.Println("lexbridge v0.1.0")
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd. The process exit code follows engine.ExitCode: an
// *engine.Error maps by its kind, errors wrapped by engine.UsageError or
// engine.NoInputError map to 64 or 66, and any other error exits with 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(engine.ExitCode(err))
		return
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lexbridge.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "./data", "data directory for dictionaries, phrases, rules and history")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "force debug mode (verbose per-layer trace in results)")
	rootCmd.Flags().BoolVarP(&version, "version", "v", false, "print the version of the application")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lexbridge")
	}

	viper.SetEnvPrefix("LEXBRIDGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		cobra.CheckErr(fmt.Errorf("fatal error config file: %w", err))
	}
}

// loadEngineConfig unmarshals whatever config file/env vars viper picked up
// into an engine.Config via the struct's mapstructure tags, then applies the
// --debug flag on top. A caller with no config file at all still gets a
// valid Config: Initialize fills every unset field from DefaultConfig.
func loadEngineConfig() (engine.Config, error) {
	var cfg engine.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return engine.Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// newEngine builds an Engine rooted at the --data directory using whatever
// configuration loadEngineConfig assembled. Every subcommand that needs the
// full pipeline (as opposed to a direct repository/store read) goes through
// this helper so flag handling stays in one place.
func newEngine() (*engine.Engine, error) {
	cfg, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}
	return engine.Initialize(dataDir, cfg)
}
