// SPDX-License-Identifier: MPL-2.0

package archive

import "bashify-cli/internal/shellquote"

// CommandSpec is a command-line specification: either a pre-formed line
// passed through verbatim, or a list of discrete tokens that are escaped
// individually. The spec is resolved to a single string when the step is
// appended and never re-interpreted afterwards.
type CommandSpec interface {
	// commandLine resolves the spec to the final command-line string.
	commandLine() string
}

// RawLine is a caller-supplied shell command line used verbatim. The caller
// is responsible for its quoting and word splitting.
type RawLine string

func (r RawLine) commandLine() string { return string(r) }

// Tokens is a sequence of discrete arguments. Every token is shell-quoted
// and the results are joined with single spaces, so each token reaches the
// target shell as exactly one word.
type Tokens []string

func (t Tokens) commandLine() string { return shellquote.Join(t) }
