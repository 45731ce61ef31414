// SPDX-License-Identifier: MPL-2.0

// Package render turns a populated archive model into the final text of a
// portable self-extracting shell script.
//
// The emitted script needs only a POSIX shell plus the base64, mktemp and
// chmod utilities on the receiving end. It has three fixed sections: INIT
// (strict mode, private temp directory, unconditional cleanup trap), FILES
// (one base64 heredoc per embedded file, sorted by destination name) and
// COMMANDS (the declared steps in insertion order, with stdin payloads fed
// through piped base64 heredocs). Rendering the same model twice yields
// byte-identical output.
package render

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"

	"bashify-cli/internal/archive"
)

// DefaultShell is the interpreter used when none is configured.
const DefaultShell = "/bin/bash"

// Sentinel terminates every base64 heredoc. The underscore keeps it outside
// the base64 alphabet, so it can never collide with encoded payload lines.
const Sentinel = "EOF_b64"

// exitNoTmpDir is the exit status the generated script uses when mktemp
// did not produce a directory.
const exitNoTmpDir = 255

// Renderer emits self-extracting scripts for archive models. The zero value
// renders with DefaultShell.
type Renderer struct {
	// Shell is the interpreter path placed on the first line.
	Shell string
}

// New returns a renderer for the given interpreter path; empty falls back
// to DefaultShell.
func New(shell string) *Renderer {
	return &Renderer{Shell: shell}
}

// Render writes the complete script for a to w in a single pass. The model
// is not mutated; the only failure source is the sink itself.
func (r *Renderer) Render(w io.Writer, a *archive.Archive) error {
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "#!%s\n", shell)
	fmt.Fprintln(bw, "# SECTION: INIT")
	writeInit(bw)
	fmt.Fprintln(bw, "# SECTION: FILES")
	for _, f := range a.Files() {
		writeFile(bw, f)
	}
	fmt.Fprintln(bw, "# SECTION: COMMANDS")
	for _, c := range a.Commands() {
		writeCommand(bw, c)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	return nil
}

// writeInit emits strict mode, temp-directory creation with an explicit
// existence check, the EXIT trap that always removes the directory, and the
// cd into it. Every later step runs with the temp directory as its working
// directory.
func writeInit(w *bufio.Writer) {
	fmt.Fprintln(w, "set -e")
	fmt.Fprintln(w, "mytmpdir=`mktemp -d`")
	fmt.Fprintf(w, "test -d \"$mytmpdir\" || exit %d\n", exitNoTmpDir)
	fmt.Fprintln(w, `function bashify_cleanup { cd /; rm -rf "$mytmpdir"; }`)
	fmt.Fprintln(w, "trap bashify_cleanup EXIT")
	fmt.Fprintln(w, `cd "$mytmpdir"`)
	fmt.Fprintln(w)
}

// writeFile emits one decode-to-file command followed by the quoted heredoc
// holding the standard padded base64 of the file bytes.
func writeFile(w *bufio.Writer, f archive.FileEntry) {
	fmt.Fprintf(w, "base64 -d > %s <<\"%s\"\n", f.Dest, Sentinel)
	w.WriteString(base64.StdEncoding.EncodeToString(f.Data))
	fmt.Fprintf(w, "\n%s\n", Sentinel)
}

// writeCommand emits the command line verbatim, or, when stdin is attached,
// a heredoc-fed base64 -d piped into it.
func writeCommand(w *bufio.Writer, c archive.CommandStep) {
	if len(c.Stdin) > 0 {
		fmt.Fprintf(w, "base64 -d <<\"%s\" | %s\n", Sentinel, c.Line)
		w.WriteString(base64.StdEncoding.EncodeToString(c.Stdin))
		fmt.Fprintf(w, "\n%s\n", Sentinel)
		return
	}
	fmt.Fprintln(w, c.Line)
}
