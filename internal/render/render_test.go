// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"bashify-cli/internal/archive"

	"mvdan.cc/sh/v3/syntax"
)

// renderToString renders a with the default shell and fails the test on a
// sink error.
func renderToString(t *testing.T, a *archive.Archive) string {
	t.Helper()
	var buf bytes.Buffer
	if err := New("").Render(&buf, a); err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	return buf.String()
}

// heredocBody returns the lines between the heredoc opener matched by
// prefix and the next sentinel line, joined back together.
func heredocBody(t *testing.T, script, prefix string) string {
	t.Helper()
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		var body []string
		for _, l := range lines[i+1:] {
			if l == Sentinel {
				return strings.Join(body, "\n")
			}
			body = append(body, l)
		}
		t.Fatalf("heredoc opened by %q has no sentinel", prefix)
	}
	t.Fatalf("no heredoc opener with prefix %q in script:\n%s", prefix, script)
	return ""
}

// TestRender_InitSection verifies the fixed preamble: interpreter line,
// strict mode, temp-dir creation with the 255 exit check, the EXIT trap and
// the cd into the temp directory.
func TestRender_InitSection(t *testing.T) {
	t.Parallel()

	script := renderToString(t, archive.New())
	want := `#!/bin/bash
# SECTION: INIT
set -e
mytmpdir=` + "`mktemp -d`" + `
test -d "$mytmpdir" || exit 255
function bashify_cleanup { cd /; rm -rf "$mytmpdir"; }
trap bashify_cleanup EXIT
cd "$mytmpdir"

# SECTION: FILES
# SECTION: COMMANDS
`
	if script != want {
		t.Errorf("empty-model script = %q, want %q", script, want)
	}
}

// TestRender_CustomShell verifies the interpreter override.
func TestRender_CustomShell(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New("/bin/sh").Render(&buf, archive.New()); err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "#!/bin/sh\n") {
		t.Errorf("script does not start with custom interpreter: %q", buf.String())
	}
}

// TestRender_SingleFileNoCommands verifies the single binary file scenario:
// one FILES block whose decoded content is byte-exact, and an empty
// COMMANDS section.
func TestRender_SingleFileNoCommands(t *testing.T) {
	t.Parallel()

	content := []byte{0x00, 0xFF, 0x10}
	a := archive.New()
	a.AddFileData("data.bin", content)

	script := renderToString(t, a)

	opener := `base64 -d > data.bin <<"` + Sentinel + `"`
	if !strings.Contains(script, opener+"\n") {
		t.Fatalf("script missing file heredoc opener %q:\n%s", opener, script)
	}

	decoded, err := base64.StdEncoding.DecodeString(heredocBody(t, script, "base64 -d > data.bin"))
	if err != nil {
		t.Fatalf("emitted block is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, content) {
		t.Errorf("decoded file content = %v, want %v", decoded, content)
	}

	if !strings.HasSuffix(script, "# SECTION: COMMANDS\n") {
		t.Errorf("COMMANDS section should be empty, script ends with %q", script[len(script)-40:])
	}
}

// TestRender_RoundTrip verifies byte-exact base64 round-trips for empty,
// NUL-bearing and non-UTF8 payloads, both as files and as command stdin.
func TestRender_RoundTrip(t *testing.T) {
	t.Parallel()

	payloads := [][]byte{
		{},
		[]byte("plain text\n"),
		{0x00, 0x00, 0x00},
		{0xFE, 0xFF, 0xC0, 0x80},
		bytes.Repeat([]byte{0xAA, 0x00, 0x55}, 100),
	}

	for _, p := range payloads {
		a := archive.New()
		a.AddFileData("f", p)
		a.AddCommand(archive.RawLine("cat"), p)

		script := renderToString(t, a)

		fileBody := heredocBody(t, script, "base64 -d > f")
		decoded, err := base64.StdEncoding.DecodeString(fileBody)
		if err != nil {
			t.Fatalf("file block not valid base64: %v", err)
		}
		if !bytes.Equal(decoded, p) {
			t.Errorf("file round-trip: got %v, want %v", decoded, p)
		}

		if len(p) > 0 {
			stdinBody := heredocBody(t, script, `base64 -d <<"`+Sentinel+`" | cat`)
			decoded, err = base64.StdEncoding.DecodeString(stdinBody)
			if err != nil {
				t.Fatalf("stdin block not valid base64: %v", err)
			}
			if !bytes.Equal(decoded, p) {
				t.Errorf("stdin round-trip: got %v, want %v", decoded, p)
			}
		}
	}
}

// TestRender_EmptyStdinIsNoPipe verifies that an empty stdin payload emits
// the bare command line, matching the model's "empty means absent" rule.
func TestRender_EmptyStdinIsNoPipe(t *testing.T) {
	t.Parallel()

	a := archive.New()
	a.AddCommand(archive.RawLine("true"), []byte{})

	script := renderToString(t, a)
	if !strings.Contains(script, "# SECTION: COMMANDS\ntrue\n") {
		t.Errorf("empty stdin should render a bare command line:\n%s", script)
	}
}

// TestRender_Deterministic verifies that rendering twice is byte-identical
// and that file ordering is lexicographic regardless of insertion order.
func TestRender_Deterministic(t *testing.T) {
	t.Parallel()

	build := func(names []string) *archive.Archive {
		a := archive.New()
		for _, n := range names {
			a.AddFileData(n, []byte(n))
		}
		a.AddCommand(archive.RawLine("echo done"), nil)
		return a
	}

	a := build([]string{"zz", "aa", "mm"})
	first := renderToString(t, a)
	second := renderToString(t, a)
	if first != second {
		t.Error("two renders of the same model differ")
	}

	reordered := renderToString(t, build([]string{"mm", "zz", "aa"}))
	if first != reordered {
		t.Error("file-section ordering depends on insertion order")
	}

	idxAA := strings.Index(first, "base64 -d > aa ")
	idxMM := strings.Index(first, "base64 -d > mm ")
	idxZZ := strings.Index(first, "base64 -d > zz ")
	if !(idxAA >= 0 && idxAA < idxMM && idxMM < idxZZ) {
		t.Errorf("files not in lexicographic order: aa=%d mm=%d zz=%d", idxAA, idxMM, idxZZ)
	}
}

// TestRender_CommandOrderPreserved verifies that the COMMANDS section keeps
// insertion order even though the FILES section is sorted.
func TestRender_CommandOrderPreserved(t *testing.T) {
	t.Parallel()

	a := archive.New()
	a.AddFileData("z-last.bin", nil)
	a.AddCommand(archive.RawLine("echo one"), nil)
	a.AddFileData("a-first.bin", nil)
	a.AddCommand(archive.RawLine("echo two"), nil)
	a.AddCommand(archive.RawLine("echo three"), nil)

	script := renderToString(t, a)
	cmdSection := script[strings.Index(script, "# SECTION: COMMANDS"):]
	want := "# SECTION: COMMANDS\necho one\necho two\necho three\n"
	if cmdSection != want {
		t.Errorf("COMMANDS section = %q, want %q", cmdSection, want)
	}
}

// TestRender_ScriptWithArgsAndStdin verifies the full add-script scenario:
// chmod line, then a base64 pipe feeding the quoted invocation.
func TestRender_ScriptWithArgsAndStdin(t *testing.T) {
	t.Parallel()

	a := archive.New()
	a.AddFileData("do_stuff.py", []byte("#!/usr/bin/env python\n"))
	a.AddCommand(archive.RawLine("chmod 700 'do_stuff.py'"), nil)
	a.AddCommand(archive.RawLine(`./'do_stuff.py' '-i' 'important.data'`), []byte("hello"))

	script := renderToString(t, a)

	if !strings.Contains(script, "chmod 700 'do_stuff.py'\n") {
		t.Errorf("missing chmod line:\n%s", script)
	}

	opener := `base64 -d <<"` + Sentinel + `" | ./'do_stuff.py' '-i' 'important.data'`
	if !strings.Contains(script, opener+"\n") {
		t.Fatalf("missing piped invocation %q:\n%s", opener, script)
	}
	decoded, err := base64.StdEncoding.DecodeString(heredocBody(t, script, opener))
	if err != nil {
		t.Fatalf("stdin block not valid base64: %v", err)
	}
	if string(decoded) != "hello" {
		t.Errorf("stdin decodes to %q, want %q", decoded, "hello")
	}
}

// TestRender_OutputParsesAsBash feeds a representative rendered script to
// the mvdan/sh parser to confirm the generated shell code is syntactically
// valid, including an argument with an embedded single quote.
func TestRender_OutputParsesAsBash(t *testing.T) {
	t.Parallel()

	a := archive.New()
	a.AddFileData("data.bin", []byte{0x00, 0xFF})
	a.AddFileData("notes.txt", []byte("first line\nsecond line\n"))
	a.AddCommand(archive.Tokens{"echo", "it's here"}, nil)
	a.AddCommand(archive.RawLine("chmod 700 'run.sh'"), nil)
	a.AddCommand(archive.RawLine("./'run.sh' '--mode' 'fast'"), []byte("stdin payload"))

	script := renderToString(t, a)

	if !strings.Contains(script, `'echo' 'it'\''s here'`) {
		t.Errorf("escaped token missing from script:\n%s", script)
	}

	if _, err := syntax.NewParser().Parse(strings.NewReader(script), "archive.sh"); err != nil {
		t.Errorf("rendered script does not parse as bash: %v\n%s", err, script)
	}
}
