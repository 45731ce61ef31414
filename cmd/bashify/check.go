// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"
)

// checkCmd validates a generated archive (or any shell script) before it
// is transmitted, using a real shell parser rather than pattern matching.
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse an archive script and report syntax errors",
	Long: `Parse a generated archive (or any shell script) with a bash-compatible
parser and report syntax errors. Use "-" to read the script from stdin.

A script that fails here would also fail on the receiving end, so check
archives before sending them through a lossy channel.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	name := args[0]
	f := os.Stdin
	if name != "-" {
		var err error
		f, err = os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer f.Close()
	} else {
		name = "stdin"
	}

	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(f, name); err != nil {
		return fmt.Errorf("script syntax error: %w", err)
	}

	fmt.Printf("%s %s parses as valid shell\n", SuccessStyle.Render("✓"), name)
	return nil
}
