package normalizer

import (
	"reflect"
	"testing"

	"github.com/yoloinfinity55/sparkpelican/internal/storage"
)

func tempContent(t *testing.T, files map[string]string) storage.Provider {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	for path, content := range files {
		if err := store.Write(path, []byte(content)); err != nil {
			t.Fatalf("Write %s: %v", path, err)
		}
	}
	return store
}

func TestScanContent_DoubleQuotedTitle(t *testing.T) {
	data := []byte("---\ntitle: \"My Post\"\ndate: 2025-01-01\n---\nBody\n")
	issues := ScanContent("a.md", data)
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	is := issues[0]
	if is.Kind != KindQuotedTitle {
		t.Errorf("kind = %q", is.Kind)
	}
	if is.Line != 2 {
		t.Errorf("line = %d, want 2", is.Line)
	}
	if is.Raw != `title: "My Post"` {
		t.Errorf("raw = %q", is.Raw)
	}
	if is.Fixed != "title: My Post" {
		t.Errorf("fixed = %q", is.Fixed)
	}
}

func TestScanContent_SingleQuotedTitle(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: 'My Post'\n---\n"))
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Fixed != "title: My Post" {
		t.Errorf("fixed = %q", issues[0].Fixed)
	}
}

func TestScanContent_UnquotedTitleClean(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: My Post\n---\nBody\n"))
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestScanContent_MismatchedQuotesUntouched(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: \"My Post'\n---\n"))
	if len(issues) != 0 {
		t.Errorf("mismatched quotes should not be flagged, got %v", issues)
	}
}

func TestScanContent_EmptyQuotedTitle(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: \"\"\n---\n"))
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Fixed != "title: " {
		t.Errorf("fixed = %q, want %q", issues[0].Fixed, "title: ")
	}
}

func TestScanContent_DanglingQuoteUntouched(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: \"\n---\n"))
	if len(issues) != 0 {
		t.Errorf("single dangling quote should not be flagged, got %v", issues)
	}
}

func TestScanContent_InternalQuotesPreserved(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: \"He said \"go\" twice\"\n---\n"))
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	// Only the outer pair is removed.
	if issues[0].Fixed != `title: He said "go" twice` {
		t.Errorf("fixed = %q", issues[0].Fixed)
	}
}

func TestScanContent_NoFrontMatter(t *testing.T) {
	issues := ScanContent("a.md", []byte("# Heading\ntitle: \"not front matter\"\n"))
	if len(issues) != 0 {
		t.Errorf("expected no issues without front matter, got %v", issues)
	}
}

func TestScanContent_NoTitleField(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ndate: 2025-01-01\n---\nBody\n"))
	if len(issues) != 0 {
		t.Errorf("expected no issues without title field, got %v", issues)
	}
}

func TestScanContent_UnterminatedFrontMatter(t *testing.T) {
	issues := ScanContent("a.md", []byte("---\ntitle: \"Broken\"\nno closing marker\n"))
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Kind != KindUnterminated {
		t.Errorf("kind = %q, want %q", issues[0].Kind, KindUnterminated)
	}
}

func TestScanContent_MarkerInBodyIgnored(t *testing.T) {
	// The closing search is bounded to the first --- after the opening
	// marker; a later --- in the body is ordinary text.
	data := []byte("---\ntitle: Ok\n---\nBody\n---\ntitle: \"not front matter\"\n---\n")
	issues := ScanContent("a.md", data)
	if len(issues) != 0 {
		t.Errorf("body markers should be ignored, got %v", issues)
	}
}

func TestScanContent_IndentedMarkerNotAMarker(t *testing.T) {
	issues := ScanContent("a.md", []byte(" ---\ntitle: \"x\"\n---\n"))
	if len(issues) != 0 {
		t.Errorf("indented marker is body text, got %v", issues)
	}
}

func TestFix_RewritesOnlyTitleLine(t *testing.T) {
	original := "---\ntitle: \"My Post\"\ndate: 2025-01-01T10:00:00\nauthor: Jo\n---\n\nBody stays.\n"
	store := tempContent(t, map[string]string{"posts/a.md": original})

	fixed, remaining, err := Fix(store, "")
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %v", remaining)
	}
	if len(fixed) != 1 || fixed[0].Path != "posts/a.md" || fixed[0].Line != 2 {
		t.Fatalf("fixed = %+v", fixed)
	}

	got, _ := store.Read("posts/a.md")
	want := "---\ntitle: My Post\ndate: 2025-01-01T10:00:00\nauthor: Jo\n---\n\nBody stays.\n"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestFix_Idempotent(t *testing.T) {
	store := tempContent(t, map[string]string{
		"a.md": "---\ntitle: \"Once\"\n---\nBody\n",
	})

	if _, _, err := Fix(store, ""); err != nil {
		t.Fatalf("first Fix: %v", err)
	}
	first, _ := store.Read("a.md")

	fixed, _, err := Fix(store, "")
	if err != nil {
		t.Fatalf("second Fix: %v", err)
	}
	if len(fixed) != 0 {
		t.Errorf("second run fixed %d files, want 0", len(fixed))
	}
	second, _ := store.Read("a.md")
	if string(first) != string(second) {
		t.Errorf("fix is not idempotent: %q vs %q", first, second)
	}
}

func TestFix_LeavesCleanFilesByteIdentical(t *testing.T) {
	clean := "---\ntitle: Fine\ntags: go, blog\n---\nBody\n"
	store := tempContent(t, map[string]string{
		"clean.md":  clean,
		"broken.md": "---\ntitle: 'Oops'\n---\n",
	})

	if _, _, err := Fix(store, ""); err != nil {
		t.Fatalf("Fix: %v", err)
	}
	got, _ := store.Read("clean.md")
	if string(got) != clean {
		t.Errorf("clean file was modified: %q", got)
	}
}

func TestFix_PreservesCRLF(t *testing.T) {
	store := tempContent(t, map[string]string{
		"a.md": "---\r\ntitle: \"Win\"\r\ndate: 2025-01-01\r\n---\r\nBody\r\n",
	})
	if _, _, err := Fix(store, ""); err != nil {
		t.Fatalf("Fix: %v", err)
	}
	got, _ := store.Read("a.md")
	want := "---\r\ntitle: Win\r\ndate: 2025-01-01\r\n---\r\nBody\r\n"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestFix_SkipsUnterminatedFrontMatter(t *testing.T) {
	broken := "---\ntitle: \"Broken\"\nno closing\n"
	store := tempContent(t, map[string]string{"b.md": broken})

	fixed, remaining, err := Fix(store, "")
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if len(fixed) != 0 {
		t.Errorf("fixed = %+v, want none", fixed)
	}
	if len(remaining) != 1 || remaining[0].Kind != KindUnterminated {
		t.Fatalf("remaining = %+v", remaining)
	}
	got, _ := store.Read("b.md")
	if string(got) != broken {
		t.Errorf("unterminated file was modified: %q", got)
	}
}

func TestScan_DeterministicOrder(t *testing.T) {
	store := tempContent(t, map[string]string{
		"z.md":       "---\ntitle: \"Z\"\n---\n",
		"a.md":       "---\ntitle: \"A\"\n---\n",
		"sub/m.md":   "---\ntitle: \"M\"\n---\n",
		"unquoted.md": "---\ntitle: Clean\n---\n",
	})

	first, err := Scan(store, "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := Scan(store, "")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("scan order not deterministic: %v vs %v", first, second)
	}

	var paths []string
	for _, is := range first {
		paths = append(paths, is.Path)
	}
	want := []string{"a.md", "sub/m.md", "z.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestValidate_OK(t *testing.T) {
	store := tempContent(t, map[string]string{
		"a.md": "---\ntitle: Clean\n---\n",
		"b.md": "no front matter at all\n",
	})
	res, err := Validate(store, "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.OK() {
		t.Errorf("expected OK, issues = %v", res.Issues)
	}
}

func TestValidate_ReportsIssues(t *testing.T) {
	store := tempContent(t, map[string]string{
		"a.md": "---\ntitle: \"Quoted\"\n---\n",
	})
	res, err := Validate(store, "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.OK() {
		t.Fatal("expected validation failure")
	}
	if res.Issues[0].Kind != KindQuotedTitle {
		t.Errorf("kind = %q", res.Issues[0].Kind)
	}

	// Validate never mutates.
	got, _ := store.Read("a.md")
	if string(got) != "---\ntitle: \"Quoted\"\n---\n" {
		t.Errorf("validate modified the file: %q", got)
	}
}
