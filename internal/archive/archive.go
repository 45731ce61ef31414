// SPDX-License-Identifier: MPL-2.0

// Package archive holds the in-memory model of a self-extracting shell
// archive: a set of files to materialize on the target plus an ordered
// sequence of commands to run after extraction.
//
// An Archive is owned by a single caller and is not safe for concurrent
// mutation; populate it fully, then hand it to the renderer for a one-shot
// read-only pass.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileEntry is a file to be materialized on the target: a destination name
// relative to the extraction directory plus the raw bytes to write there.
// Data is opaque; no text decoding or line-ending transformation is ever
// applied, so binary payloads round-trip exactly.
type FileEntry struct {
	Dest string
	Data []byte
}

// CommandStep is one execution step: a resolved shell command line and an
// optional byte string piped to it as standard input. Empty stdin means no
// stdin is attached.
type CommandStep struct {
	Line  string
	Stdin []byte
}

// ScriptOptions configures AddScript.
type ScriptOptions struct {
	// Dest is the destination filename; empty derives the base name of the
	// local path. Destination names containing a single quote are not
	// supported: they are embedded inside single quotes in the generated
	// chmod and invocation lines and would break the emitted quoting.
	Dest string
	// Args are appended to the invocation. Tokens are escaped per token; a
	// RawLine is appended verbatim and may split into multiple words.
	Args CommandSpec
	// Stdin is piped to the invocation step (not to the chmod step).
	Stdin []byte
}

// Archive is the aggregate owning the destination-name -> content mapping
// and the ordered command sequence. Adding a file under an existing
// destination name replaces the earlier content (last write wins). Commands
// are append-only; their insertion order is the execution order contract.
type Archive struct {
	files    map[string][]byte
	commands []CommandStep
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{files: make(map[string][]byte)}
}

// AddFileData inserts content under the given destination name, replacing
// any earlier entry with the same name.
func (a *Archive) AddFileData(dest string, data []byte) {
	a.files[dest] = data
}

// AddFile reads localPath and stores its contents under dest. An empty dest
// derives the base name of localPath. A read failure surfaces immediately
// and leaves the file mapping untouched for that entry.
func (a *Archive) AddFile(localPath, dest string) error {
	if dest == "" {
		dest = filepath.Base(localPath)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	a.AddFileData(dest, data)
	return nil
}

// AddCommand appends an execution step. The spec is resolved to its final
// command-line string here; stdin, if non-empty, is piped to the command
// when the generated script runs.
func (a *Archive) AddCommand(cmd CommandSpec, stdin []byte) {
	a.commands = append(a.commands, CommandStep{Line: cmd.commandLine(), Stdin: stdin})
}

// AddScript embeds an executable: it adds the file, appends a step that
// makes the destination executable for the owner only (mode 700), and
// appends the invocation step ./<dest> with the optional args and stdin
// from opts.
func (a *Archive) AddScript(localPath string, opts ScriptOptions) error {
	dest := opts.Dest
	if dest == "" {
		dest = filepath.Base(localPath)
	}
	if err := a.AddFile(localPath, dest); err != nil {
		return err
	}
	a.AddCommand(RawLine("chmod 700 '"+dest+"'"), nil)
	invocation := "./'" + dest + "'"
	if opts.Args != nil {
		if line := opts.Args.commandLine(); line != "" {
			invocation += " " + line
		}
	}
	a.AddCommand(RawLine(invocation), opts.Stdin)
	return nil
}

// Files returns the file entries sorted lexicographically by destination
// name, independent of insertion order.
func (a *Archive) Files() []FileEntry {
	entries := make([]FileEntry, 0, len(a.files))
	for dest, data := range a.files {
		entries = append(entries, FileEntry{Dest: dest, Data: data})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Dest < entries[j].Dest })
	return entries
}

// Commands returns the execution steps in insertion order.
func (a *Archive) Commands() []CommandStep {
	return a.commands
}

// Empty reports whether the archive holds no files and no commands.
func (a *Archive) Empty() bool {
	return len(a.files) == 0 && len(a.commands) == 0
}
