// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"bashify-cli/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the resolved configuration, loaded before any subcommand runs.
	cfg = config.DefaultConfig()

	// logger writes diagnostics to stderr; payload text always goes to the
	// selected output sink, never here.
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "bashify",
	})

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "bashify",
		Short: "Build self-extracting shell archives",
		Long: TitleStyle.Render("bashify") + SubtitleStyle.Render(" - build self-extracting shell archives") + `

bashify packs files and a command sequence into a single portable shell
script. When run, the script extracts its files into a private temporary
directory, executes the commands in order, and removes the directory
again whether it succeeds or fails. The receiving end needs nothing
beyond a POSIX shell and the base64, mktemp and chmod utilities, so the
result survives any channel that carries plain text.

` + SubtitleStyle.Render("Examples:") + `
  bashify script deploy.sh --prod > archive.sh
  bashify build --file data.gz --run 'gunzip data.gz' --script process.py -o archive.sh
  bashify check archive.sh`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/bashify/config.cue)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(checkCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initRootConfig reads the config file and environment before a subcommand
// runs, then wires verbosity into the logger.
func initRootConfig() {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
	} else {
		cfg = loaded
	}

	if verbose || cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
}
