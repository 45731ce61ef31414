// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"bashify-cli/internal/archive"
	"bashify-cli/internal/render"

	"github.com/spf13/cobra"
)

var (
	buildFiles      []string
	buildRuns       []string
	buildScript     string
	buildScriptName string
	buildScriptArgs []string
	buildStdin      bool
	buildOutput     string
	buildShell      string

	// buildCmd assembles an archive from the full flag surface.
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build an archive from files, commands and an optional script",
		Long: `Build a self-extracting archive from any mix of embedded files, raw
commands and one optional script.

Files are embedded with --file SRC or --file SRC=DEST to rename the file
at the destination. Commands given with --run execute in flag order,
after extraction, inside the temporary directory. A --script is embedded,
made executable (mode 700) and invoked last, with --arg tokens escaped
individually and --stdin piping this process's standard input into the
invocation.`,
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringArrayVar(&buildFiles, "file", nil, "embed a file, optionally renamed (SRC or SRC=DEST)")
	buildCmd.Flags().StringArrayVar(&buildRuns, "run", nil, "shell command to run after extraction (in flag order)")
	buildCmd.Flags().StringVar(&buildScript, "script", "", "embed this executable and invoke it as the final step")
	buildCmd.Flags().StringVar(&buildScriptName, "script-name", "", "destination name for --script (default: base name)")
	buildCmd.Flags().StringArrayVar(&buildScriptArgs, "arg", nil, "argument token for the script invocation (escaped individually)")
	buildCmd.Flags().BoolVar(&buildStdin, "stdin", false, "pipe this process's stdin into the script invocation")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "write the archive to this file with mode 700 (default: stdout)")
	buildCmd.Flags().StringVar(&buildShell, "shell", "", "interpreter for the generated script (default from config)")
}

// buildOptions is the canonicalized input of archive assembly, factored out
// of flag handling so it can be exercised directly in tests.
type buildOptions struct {
	files      []string
	runs       []string
	script     string
	scriptName string
	scriptArgs []string
	stdin      []byte
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts := buildOptions{
		files:      buildFiles,
		runs:       buildRuns,
		script:     buildScript,
		scriptName: buildScriptName,
		scriptArgs: buildScriptArgs,
	}

	if buildStdin {
		if buildScript == "" {
			return fmt.Errorf("--stdin requires --script")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		opts.stdin = data
	}

	a, err := assembleArchive(opts)
	if err != nil {
		return err
	}
	return writeArchive(a, buildShell, buildOutput)
}

// assembleArchive populates an archive model from canonicalized options.
func assembleArchive(opts buildOptions) (*archive.Archive, error) {
	a := archive.New()

	for _, spec := range opts.files {
		src, dest := parseFileSpec(spec)
		if src == "" {
			return nil, fmt.Errorf("invalid --file spec %q: empty source path", spec)
		}
		if err := a.AddFile(src, dest); err != nil {
			return nil, err
		}
		logger.Debug("embedded file", "source", src, "dest", dest)
	}

	for _, line := range opts.runs {
		a.AddCommand(archive.RawLine(line), nil)
		logger.Debug("added command", "line", line)
	}

	if opts.script != "" {
		scriptOpts := archive.ScriptOptions{
			Dest:  opts.scriptName,
			Stdin: opts.stdin,
		}
		if len(opts.scriptArgs) > 0 {
			scriptOpts.Args = archive.Tokens(opts.scriptArgs)
		}
		if err := a.AddScript(opts.script, scriptOpts); err != nil {
			return nil, err
		}
		logger.Debug("embedded script", "source", opts.script, "args", len(opts.scriptArgs), "stdin", len(opts.stdin))
	}

	if a.Empty() {
		return nil, fmt.Errorf("nothing to archive: add at least one --file, --run or --script")
	}
	return a, nil
}

// parseFileSpec splits a SRC or SRC=DEST file spec. An empty destination
// means "derive from the source base name".
func parseFileSpec(spec string) (src, dest string) {
	if i := strings.Index(spec, "="); i >= 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}

// writeArchive renders the archive to stdout, or to a file created with
// mode 700 so the result is immediately executable.
func writeArchive(a *archive.Archive, shell, output string) error {
	if shell == "" {
		shell = cfg.Shell
	}
	r := render.New(shell)

	if output == "" {
		return r.Render(os.Stdout, a)
	}

	f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o700)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	// O_TRUNC keeps a pre-existing file's mode; enforce 700 either way.
	if err := f.Chmod(0o700); err != nil {
		f.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", output, err)
	}
	if err := r.Render(f, a); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Fprintf(os.Stderr, "%s Wrote %s\n", SuccessStyle.Render("✓"), output)
	return nil
}
