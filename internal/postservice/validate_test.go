package postservice

import (
	"strings"
	"testing"
)

func TestValidateDocumentValid(t *testing.T) {
	doc := `---
title: My Post
date: 2026-03-14T10:30:00
author: John Doe
category: Video Notes
---

Body text here.
`
	rep := ValidateDocument(doc)
	if !rep.Valid {
		t.Fatalf("Valid = false, errors: %v", rep.Errors)
	}
	if len(rep.Errors) != 0 || len(rep.Warnings) != 0 {
		t.Errorf("errors = %v, warnings = %v", rep.Errors, rep.Warnings)
	}
	if rep.Frontmatter["title"] != "My Post" {
		t.Errorf("frontmatter = %v", rep.Frontmatter)
	}
}

func TestValidateDocumentMissingMarker(t *testing.T) {
	rep := ValidateDocument("title: No Marker\n\nBody.")
	if rep.Valid {
		t.Error("want invalid")
	}
	if len(rep.Errors) != 1 || !strings.Contains(rep.Errors[0], "must start with ---") {
		t.Errorf("errors = %v", rep.Errors)
	}
}

func TestValidateDocumentUnterminated(t *testing.T) {
	rep := ValidateDocument("---\ntitle: Post\ndate: 2026-01-01\nauthor: A\n\nno closing marker")
	if rep.Valid {
		t.Error("want invalid")
	}
	if len(rep.Errors) != 1 || !strings.Contains(rep.Errors[0], "end with ---") {
		t.Errorf("errors = %v", rep.Errors)
	}
}

func TestValidateDocumentBareMarker(t *testing.T) {
	for _, doc := range []string{"---", "---\n"} {
		rep := ValidateDocument(doc)
		if rep.Valid {
			t.Errorf("%q: want invalid", doc)
		}
		if len(rep.Errors) != 1 || !strings.Contains(rep.Errors[0], "end with ---") {
			t.Errorf("%q: errors = %v", doc, rep.Errors)
		}
	}
}

func TestValidateDocumentMissingFields(t *testing.T) {
	rep := ValidateDocument("---\ntitle: Only Title\n---\n\nBody.")
	if rep.Valid {
		t.Error("want invalid")
	}
	if len(rep.Errors) != 2 {
		t.Errorf("errors = %v, want missing date and author", rep.Errors)
	}
}

func TestValidateDocumentEmptyField(t *testing.T) {
	rep := ValidateDocument("---\ntitle:\ndate: 2026-01-01\nauthor: A\n---\n\nBody.")
	if rep.Valid {
		t.Error("want invalid")
	}
	if len(rep.Errors) != 1 || !strings.Contains(rep.Errors[0], `"title" is empty`) {
		t.Errorf("errors = %v", rep.Errors)
	}
}

func TestValidateDocumentWarnings(t *testing.T) {
	doc := "---\ntitle: \"Quoted Title\"\ndate: 14/03/2026\nauthor: A\n---\n"
	rep := ValidateDocument(doc)
	if !rep.Valid {
		t.Fatalf("warnings must not invalidate, errors: %v", rep.Errors)
	}
	if len(rep.Warnings) != 3 {
		t.Errorf("warnings = %v, want quoted title, date format, empty body", rep.Warnings)
	}
}

func TestValidateDocumentSingleQuotedTitleWarns(t *testing.T) {
	rep := ValidateDocument("---\ntitle: 'Quoted'\ndate: 2026-01-01\nauthor: A\n---\n\nBody.")
	found := false
	for _, w := range rep.Warnings {
		if strings.Contains(w, "quotes") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want quote warning", rep.Warnings)
	}
}
