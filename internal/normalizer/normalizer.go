// Package normalizer detects and repairs quote-wrapped title values in the
// YAML front matter of markdown posts. Pelican renders `title: "My Post"`
// with the quotes included, so generated and hand-edited posts are kept in
// the unquoted form.
//
// The scan is line-oriented on purpose: fixing a title must leave every
// other byte of the file untouched, which a parse/re-serialize round trip
// cannot guarantee.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/yoloinfinity55/sparkpelican/internal/storage"
)

// Issue kinds.
const (
	KindQuotedTitle  = "quoted-title"
	KindUnterminated = "unterminated-front-matter"
	KindReadError    = "read-error"
	KindWriteError   = "write-error"
)

const (
	marker      = "---"
	titlePrefix = "title:"
)

// Issue describes one problem found in one file.
type Issue struct {
	Path  string `json:"path"`
	Line  int    `json:"line"` // 1-based; 0 when not tied to a line
	Kind  string `json:"kind"`
	Raw   string `json:"raw,omitempty"`   // original title line, without terminator
	Fixed string `json:"fixed,omitempty"` // corrected title line
	Err   error  `json:"-"`               // underlying cause for I/O kinds
}

// Description returns the human-readable issue text used by the CLI and API.
func (i Issue) Description() string {
	switch i.Kind {
	case KindQuotedTitle:
		return fmt.Sprintf("title is quoted: %s (should be: %s)", i.Raw, i.Fixed)
	case KindUnterminated:
		return "unterminated front matter: opening --- without closing ---"
	case KindReadError:
		return fmt.Sprintf("cannot read file: %v", i.Err)
	case KindWriteError:
		return fmt.Sprintf("cannot write file: %v", i.Err)
	}
	return i.Kind
}

// IsIOError reports whether the issue is an unrecoverable file error rather
// than a content finding.
func (i Issue) IsIOError() bool {
	return i.Kind == KindReadError || i.Kind == KindWriteError
}

// FixedFile records one applied title fix.
type FixedFile struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// ValidationResult is the outcome of a read-only validation run.
type ValidationResult struct {
	Issues []Issue `json:"issues"`
}

// OK reports whether validation passed.
func (r ValidationResult) OK() bool { return len(r.Issues) == 0 }

// ScanContent inspects a single file's raw bytes and returns any issues.
// path is carried through for reporting only.
func ScanContent(path string, data []byte) []Issue {
	lines := strings.Split(string(data), "\n")
	if !isMarker(lines[0]) {
		// No front matter at all; nothing to check.
		return nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if isMarker(lines[i]) {
			closing = i
			break
		}
	}
	if closing < 0 {
		return []Issue{{Path: path, Line: 1, Kind: KindUnterminated}}
	}

	for i := 1; i < closing; i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if !strings.HasPrefix(line, titlePrefix) {
			continue
		}
		fixed, ok := stripTitleQuotes(line)
		if !ok {
			return nil
		}
		return []Issue{{
			Path:  path,
			Line:  i + 1,
			Kind:  KindQuotedTitle,
			Raw:   line,
			Fixed: fixed,
		}}
	}
	return nil
}

// Scan reads every markdown file under dir and collects issues in lexical
// path order. Unreadable files are reported as issues, not errors; the
// batch always runs to completion.
func Scan(store storage.Provider, dir string) ([]Issue, error) {
	metas, err := store.List(dir)
	if err != nil {
		return nil, fmt.Errorf("normalizer: list %s: %w", dir, err)
	}

	var issues []Issue
	for _, m := range metas {
		data, readErr := store.Read(m.Path)
		if readErr != nil {
			issues = append(issues, Issue{Path: m.Path, Kind: KindReadError, Err: readErr})
			continue
		}
		issues = append(issues, ScanContent(m.Path, data)...)
	}
	return issues, nil
}

// Validate is a read-only wrapper over Scan for use as a build gate.
func Validate(store storage.Provider, dir string) (ValidationResult, error) {
	issues, err := Scan(store, dir)
	if err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{Issues: issues}, nil
}

// Fix rewrites every quoted title found under dir, replacing only the title
// line and leaving every other byte of each file unchanged. Writes go
// through the atomic storage provider, so a failed write never corrupts a
// file. It returns the applied fixes plus the issues that could not be
// fixed (unterminated front matter, unreadable or unwritable files).
func Fix(store storage.Provider, dir string) ([]FixedFile, []Issue, error) {
	metas, err := store.List(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("normalizer: list %s: %w", dir, err)
	}

	var fixed []FixedFile
	var remaining []Issue
	for _, m := range metas {
		data, readErr := store.Read(m.Path)
		if readErr != nil {
			remaining = append(remaining, Issue{Path: m.Path, Kind: KindReadError, Err: readErr})
			continue
		}

		for _, issue := range ScanContent(m.Path, data) {
			if issue.Kind != KindQuotedTitle {
				remaining = append(remaining, issue)
				continue
			}

			out := applyFix(data, issue)
			if writeErr := store.Write(m.Path, out); writeErr != nil {
				remaining = append(remaining, Issue{Path: m.Path, Line: issue.Line, Kind: KindWriteError, Err: writeErr})
				continue
			}
			fixed = append(fixed, FixedFile{
				Path:   m.Path,
				Line:   issue.Line,
				Before: issue.Raw,
				After:  issue.Fixed,
			})
		}
	}
	return fixed, remaining, nil
}

// applyFix replaces the flagged line in data with its corrected form,
// preserving the file's line endings everywhere else.
func applyFix(data []byte, issue Issue) []byte {
	lines := strings.Split(string(data), "\n")
	raw := lines[issue.Line-1]
	fixed := issue.Fixed
	if strings.HasSuffix(raw, "\r") {
		fixed += "\r"
	}
	lines[issue.Line-1] = fixed
	return []byte(strings.Join(lines, "\n"))
}

// isMarker reports whether the line is exactly the front-matter delimiter.
// A trailing carriage return is tolerated for CRLF files; any other
// leading or trailing characters disqualify the line.
func isMarker(line string) bool {
	return strings.TrimSuffix(line, "\r") == marker
}

// stripTitleQuotes returns the corrected title line when the value is
// wrapped in a matching pair of quote characters. The value must be at
// least two characters long with identical first and last quote characters;
// a lone dangling quote or mismatched pair is left alone. Quote characters
// strictly inside the value are never touched.
func stripTitleQuotes(line string) (string, bool) {
	rest := line[len(titlePrefix):]
	value := strings.TrimSpace(rest)
	if len(value) < 2 {
		return "", false
	}
	first, last := value[0], value[len(value)-1]
	if first != last || (first != '"' && first != '\'') {
		return "", false
	}
	inner := value[1 : len(value)-1]

	// Keep the original spacing between the key and the value.
	valueStart := len(titlePrefix) + (len(rest) - len(strings.TrimLeft(rest, " \t")))
	return line[:valueStart] + inner, true
}
