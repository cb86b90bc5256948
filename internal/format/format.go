// Package format holds the per-file processing step. Formatters are
// deterministic and idempotent: applying the same chain twice yields
// the same bytes.
package format

import (
	"bytes"

	"github.com/standardbeagle/ufi/internal/config"
)

// Formatter transforms file contents. Apply must not modify src.
type Formatter interface {
	Name() string
	Apply(src []byte) []byte
}

// FromConfig builds the formatter chain selected by the config, in a
// fixed order so output does not depend on config file layout.
func FromConfig(cfg *config.Config) []Formatter {
	var chain []Formatter
	switch cfg.Format.LineEndings {
	case "lf":
		chain = append(chain, LineEndings{CRLF: false})
	case "crlf":
		chain = append(chain, LineEndings{CRLF: true})
	}
	if cfg.Format.TrimTrailingWhitespace {
		chain = append(chain, TrimTrailingWhitespace{})
	}
	if cfg.Format.EnsureFinalNewline {
		chain = append(chain, FinalNewline{})
	}
	return chain
}

// Apply runs the chain over src and reports whether anything changed.
func Apply(chain []Formatter, src []byte) ([]byte, bool) {
	out := src
	for _, f := range chain {
		out = f.Apply(out)
	}
	return out, !bytes.Equal(out, src)
}

// TrimTrailingWhitespace removes spaces and tabs before each line
// terminator and at the very end of the file.
type TrimTrailingWhitespace struct{}

func (TrimTrailingWhitespace) Name() string { return "trim-trailing-whitespace" }

func (TrimTrailingWhitespace) Apply(src []byte) []byte {
	lines := bytes.Split(src, []byte("\n"))
	for i, line := range lines {
		// Keep the \r of a CRLF terminator intact; only spaces and
		// tabs before it are trailing whitespace.
		if bytes.HasSuffix(line, []byte("\r")) {
			trimmed := bytes.TrimRight(line[:len(line)-1], " \t")
			// line still aliases src; appending the \r in place would
			// write through into the caller's buffer.
			line = append(append(make([]byte, 0, len(trimmed)+1), trimmed...), '\r')
		} else {
			line = bytes.TrimRight(line, " \t")
		}
		lines[i] = line
	}
	return bytes.Join(lines, []byte("\n"))
}

// FinalNewline ensures a non-empty file ends with exactly one line
// terminator.
type FinalNewline struct{}

func (FinalNewline) Name() string { return "final-newline" }

func (FinalNewline) Apply(src []byte) []byte {
	if len(src) == 0 {
		return src
	}
	eol := []byte("\n")
	if bytes.Contains(src, []byte("\r\n")) {
		eol = []byte("\r\n")
	}
	body := bytes.TrimRight(src, "\r\n")
	out := make([]byte, 0, len(body)+len(eol))
	out = append(out, body...)
	return append(out, eol...)
}

// LineEndings normalizes every line terminator to LF or CRLF.
type LineEndings struct {
	CRLF bool
}

func (le LineEndings) Name() string {
	if le.CRLF {
		return "line-endings-crlf"
	}
	return "line-endings-lf"
}

func (le LineEndings) Apply(src []byte) []byte {
	out := bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if le.CRLF {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	return out
}
