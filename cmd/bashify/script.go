// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"bashify-cli/internal/archive"

	"github.com/spf13/cobra"
)

var (
	scriptStdin  bool
	scriptOutput string
	scriptShell  string

	// scriptCmd is the short path: one executable plus its arguments.
	scriptCmd = &cobra.Command{
		Use:   "script [--stdin] <file> [args...]",
		Short: "Archive a single executable and its arguments",
		Long: `Archive one executable: the file is embedded, made executable (mode
700) on the target and invoked with the given arguments, each escaped as
a single shell word. With --stdin, this process's standard input is
captured and piped into the invocation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScript,
	}
)

func init() {
	scriptCmd.Flags().BoolVar(&scriptStdin, "stdin", false, "pipe this process's stdin into the invocation")
	scriptCmd.Flags().StringVarP(&scriptOutput, "output", "o", "", "write the archive to this file with mode 700 (default: stdout)")
	scriptCmd.Flags().StringVar(&scriptShell, "shell", "", "interpreter for the generated script (default from config)")

	// Everything after the script path belongs to the script, including
	// tokens that look like flags.
	scriptCmd.Flags().SetInterspersed(false)
}

func runScript(cmd *cobra.Command, args []string) error {
	opts := archive.ScriptOptions{}
	if len(args) > 1 {
		opts.Args = archive.Tokens(args[1:])
	}

	if scriptStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		opts.Stdin = data
	}

	a := archive.New()
	if err := a.AddScript(args[0], opts); err != nil {
		return err
	}
	return writeArchive(a, scriptShell, scriptOutput)
}
