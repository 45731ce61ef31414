// SPDX-License-Identifier: MPL-2.0

// Package shellquote escapes strings for use as single literal words in
// POSIX shell command lines.
package shellquote

import "strings"

// Quote returns s wrapped so that a POSIX shell treats it as exactly one
// literal argument equal to s, regardless of content. The input is
// surrounded with single quotes and every embedded single quote is replaced
// with the sequence '\'' (end quoting, escaped literal quote, resume
// quoting). This holds for arbitrary content including spaces, $, backticks
// and newlines.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join quotes each argument with Quote and joins them with single spaces,
// producing a command-line fragment where every token stays a single word.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}
