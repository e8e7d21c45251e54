// Package cmd provides the command-line interface for the sigclock application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/connorhough/sigclock/internal/patch"
	"github.com/connorhough/sigclock/internal/version"
)

var (
	cfgFile string
	verbose bool
	rootCmd *cobra.Command
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.go. It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if rootCmd == nil {
		rootCmd = NewRootCmd()
	}
	return rootCmd.ExecuteContext(ctx)
}

// NewRootCmd creates and returns the root command for sigclock
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sigclock",
		Short: "Sign AWS requests with the real time under libfaketime",
		Long: `sigclock signs AWS-style API requests with a timestamp corrected for a
libfaketime relative offset (FAKETIME, FAKETIME_TIMESTAMP_FILE, ~/.faketimerc
or /etc/faketimerc). Everything else in the process keeps seeing the faked clock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default locations: $XDG_CONFIG_HOME/sigclock/config.yaml, ~/.config/sigclock/config.yaml, or ~/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newOffsetCmd())
	rootCmd.AddCommand(newSignCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newCheckCmd())

	// PersistentPreRun handles configuration initialization
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		ConfigureVerbosity()
		return nil
	}

	return rootCmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find config file in standard locations
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "sigclock"))
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			viper.AddConfigPath(filepath.Join(home, ".config", "sigclock"))
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("SIGCLOCK")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; 'config init' may be about to create it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

// ConfigureVerbosity sets the log level from the log_level setting and the
// --verbose flag.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if level, err := log.ParseLevel(viper.GetString("log_level")); err == nil {
		log.SetLevel(level)
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// patchSigning installs the corrected signing clock. Every command that signs
// requests calls it before doing anything else.
func patchSigning() error {
	if err := patch.Patch(); err != nil {
		return err
	}
	log.Debug("Signing clock ready")
	return nil
}
