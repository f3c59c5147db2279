package postservice

import (
	"fmt"
	"strings"
	"time"
)

// ValidationReport is the result of validating a markdown document against
// the Pelican front-matter contract.
type ValidationReport struct {
	Valid       bool              `json:"valid"`
	Errors      []string          `json:"errors"`
	Warnings    []string          `json:"warnings"`
	Frontmatter map[string]string `json:"frontmatter,omitempty"`
}

var requiredFields = []string{"title", "date", "author"}

// ValidateDocument checks a full markdown document for the front matter
// Pelican requires: an opening marker on the first line, a closing marker,
// and non-empty title, date, and author fields. A quoted title, a non-ISO
// date, and an empty body are reported as warnings.
func ValidateDocument(content string) ValidationReport {
	rep := ValidationReport{Valid: true, Errors: []string{}, Warnings: []string{}}

	if !strings.HasPrefix(content, "---") {
		rep.Valid = false
		rep.Errors = append(rep.Errors, "content must start with --- front matter marker")
		return rep
	}

	// The closing marker search starts past the opening marker, so a bare
	// "---" document reports a missing close instead of slicing out of range.
	if len(content) < 4 {
		rep.Valid = false
		rep.Errors = append(rep.Errors, "front matter must end with ---")
		return rep
	}
	end := strings.Index(content[4:], "---")
	if end == -1 {
		rep.Valid = false
		rep.Errors = append(rep.Errors, "front matter must end with ---")
		return rep
	}
	end += 4

	block := strings.TrimSpace(content[4:end])
	body := strings.TrimSpace(content[end+3:])

	fm := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			fm[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	rep.Frontmatter = fm

	for _, field := range requiredFields {
		v, ok := fm[field]
		switch {
		case !ok:
			rep.Valid = false
			rep.Errors = append(rep.Errors, fmt.Sprintf("missing required field: %s", field))
		case v == "":
			rep.Valid = false
			rep.Errors = append(rep.Errors, fmt.Sprintf("required field %q is empty", field))
		}
	}

	if title := fm["title"]; len(title) >= 2 {
		first, last := title[0], title[len(title)-1]
		if first == last && (first == '"' || first == '\'') {
			rep.Warnings = append(rep.Warnings, "title should not be wrapped in quotes")
		}
	}

	if date, ok := fm["date"]; ok && date != "" && !isISODate(date) {
		rep.Warnings = append(rep.Warnings, "date should be in ISO format (YYYY-MM-DDTHH:MM:SS)")
	}

	if body == "" {
		rep.Warnings = append(rep.Warnings, "post body appears to be empty")
	}

	return rep
}

func isISODate(s string) bool {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
