package debian

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

var clogDate = time.Date(2018, time.April, 5, 12, 0, 0, 0, time.UTC)

func sampleInput() ReconcileInput {
	return ReconcileInput{
		SourceName:      "rust-demo",
		UpstreamVersion: "1.2.3",
		CrateName:       "demo",
		CrateVersion:    "1.2.3",
		Origin:          "crates.io",
		ToolVersion:     "0.1.0",
		Author:          "Jane Doe <jane@debian.org>",
		Uploaders:       []string{"Jane Doe <jane@debian.org>"},
		Date:            clogDate,
	}
}

func TestEntryRoundTrip(t *testing.T) {
	text := "rust-demo (1.2.3-1) unstable; urgency=medium\n" +
		"\n" +
		"  * Initial release.\n" +
		"  * Second item\n" +
		"    with a continuation line.\n" +
		"\n" +
		" -- Jane Doe <jane@debian.org>  Thu, 05 Apr 2018 12:00:00 +0000\n"

	e, err := ParseEntry(text)
	if err != nil {
		t.Fatalf("ParseEntry: %v", err)
	}
	if e.Source != "rust-demo" {
		t.Errorf("Source = %q, want rust-demo", e.Source)
	}
	if e.Version != "1.2.3-1" {
		t.Errorf("Version = %q, want 1.2.3-1", e.Version)
	}
	if e.Distribution != "unstable" {
		t.Errorf("Distribution = %q, want unstable", e.Distribution)
	}
	if e.Maintainer != "Jane Doe <jane@debian.org>" {
		t.Errorf("Maintainer = %q", e.Maintainer)
	}
	if len(e.Items) != 3 {
		t.Fatalf("got %d item lines, want 3", len(e.Items))
	}
	if got := e.String(); got != text {
		t.Errorf("round trip mismatch:\ngot:\n%s\nwant:\n%s", got, text)
	}
}

func TestParseEntryMalformed(t *testing.T) {
	for _, text := range []string{
		"not a changelog at all\n",
		"rust-demo 1.2.3-1 unstable; urgency=medium\n\n -- J <j@x>  Thu, 05 Apr 2018 12:00:00 +0000\n",
		"rust-demo (1.2.3-1) unstable; urgency=medium\n\n  * no trailer\n",
	} {
		if _, err := ParseEntry(text); !errors.Is(err, errors.ErrCodeInvalidChangelog) {
			t.Errorf("ParseEntry(%q) error = %v, want INVALID_CHANGELOG", text, err)
		}
	}
}

func TestSplitEntriesReassembles(t *testing.T) {
	data := NewEntry("rust-demo", "1.2.3-2", "unstable", "Jane Doe <jane@debian.org>", clogDate, []string{"  * Two."}).String() +
		"\n" +
		NewEntry("rust-demo", "1.2.3-1", "unstable", "Jane Doe <jane@debian.org>", clogDate, []string{"  * One."}).String()

	chunks := SplitEntries(data)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if strings.Join(chunks, "") != data {
		t.Error("concatenated chunks do not reproduce the input")
	}
}

func TestRevisionBump(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3-1", "2"},
		{"1.2.3-7", "8"},
		{"1.2.3-1.exp2", "1.exp3"},
		{"0.9~beta.1-10", "11"},
	}
	for _, tt := range tests {
		e := &Entry{Version: tt.version}
		if got := e.RevisionBump(); got != tt.want {
			t.Errorf("RevisionBump(%q) = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestReconcileEmptyChangelog(t *testing.T) {
	res, err := Reconcile("", sampleInput())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Entry.Version != "1.2.3-1" {
		t.Errorf("Version = %q, want 1.2.3-1", res.Entry.Version)
	}
	if res.Entry.Distribution != DistUnreleased {
		t.Errorf("Distribution = %q, want %s", res.Entry.Distribution, DistUnreleased)
	}
	if res.TeamUpload {
		t.Error("author is an uploader, should not be a team upload")
	}
	want := "  * Package demo 1.2.3 from crates.io using cargodeb 0.1.0"
	if len(res.Entry.Items) != 1 || res.Entry.Items[0] != want {
		t.Errorf("Items = %q, want [%q]", res.Entry.Items, want)
	}
}

func TestReconcilePrependsAfterRelease(t *testing.T) {
	released := NewEntry("rust-demo", "1.2.3-1", "unstable", "Jane Doe <jane@debian.org>", clogDate, []string{"  * Initial release."}).String()

	res, err := Reconcile(released, sampleInput())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Entry.Version != "1.2.3-2" {
		t.Errorf("Version = %q, want 1.2.3-2 (same upstream bumps the revision)", res.Entry.Version)
	}
	if !strings.Contains(res.Content, released) {
		t.Error("released entry was not preserved verbatim")
	}
	if !strings.HasPrefix(res.Content, "rust-demo (1.2.3-2) UNRELEASED;") {
		t.Errorf("new entry not on top:\n%s", res.Content)
	}
}

func TestReconcileNewUpstreamResetsRevision(t *testing.T) {
	released := NewEntry("rust-demo", "1.2.2-5", "unstable", "Jane Doe <jane@debian.org>", clogDate, []string{"  * Old."}).String()

	res, err := Reconcile(released, sampleInput())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Entry.Version != "1.2.3-1" {
		t.Errorf("Version = %q, want 1.2.3-1 (new upstream resets the revision)", res.Entry.Version)
	}
}

func TestReconcileAmendsSameAuthor(t *testing.T) {
	in := sampleInput()
	unreleased := NewEntry("rust-demo", "1.2.3-1", DistUnreleased, in.Author, clogDate, []string{
		"  * Package demo 1.2.2 from crates.io using cargodeb 0.0.9",
		"  * Tweak something by hand.",
	}).String()

	res, err := Reconcile(unreleased, in)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(res.Entry.Items) != 2 {
		t.Fatalf("Items = %q, want the stale autogenerated item replaced in place", res.Entry.Items)
	}
	if res.Entry.Items[0] != "  * Package demo 1.2.3 from crates.io using cargodeb 0.1.0" {
		t.Errorf("Items[0] = %q", res.Entry.Items[0])
	}
	if res.Entry.Items[1] != "  * Tweak something by hand." {
		t.Errorf("hand-written item not preserved: %q", res.Entry.Items[1])
	}

	// Running again over the output must not change it.
	again, err := Reconcile(res.Content, in)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if again.Content != res.Content {
		t.Error("Reconcile is not idempotent")
	}
}

func TestReconcileAppendsWhenNoAutogeneratedItem(t *testing.T) {
	in := sampleInput()
	unreleased := NewEntry("rust-demo", "1.2.3-1", DistUnreleased, in.Author, clogDate, []string{"  * Manual work."}).String()

	res, err := Reconcile(unreleased, in)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	want := []string{
		"  * Manual work.",
		"  * Package demo 1.2.3 from crates.io using cargodeb 0.1.0",
	}
	if len(res.Entry.Items) != len(want) {
		t.Fatalf("Items = %q, want %q", res.Entry.Items, want)
	}
	for i := range want {
		if res.Entry.Items[i] != want[i] {
			t.Errorf("Items[%d] = %q, want %q", i, res.Entry.Items[i], want[i])
		}
	}
}

func TestReconcilePreservesOtherAuthorsWork(t *testing.T) {
	in := sampleInput()
	in.Author = "Alice Example <alice@debian.org>"
	in.Uploaders = []string{in.Author}
	unreleased := NewEntry("rust-demo", "1.2.3-1", DistUnreleased,
		"Bob Builder <bob@debian.org>", clogDate, []string{"  * Bob's pending fix."}).String()

	res, err := Reconcile(unreleased, in)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	want := []string{
		"  * Package demo 1.2.3 from crates.io using cargodeb 0.1.0",
		"",
		"  [ Bob Builder ]",
		"  * Bob's pending fix.",
	}
	if len(res.Entry.Items) != len(want) {
		t.Fatalf("Items = %q, want %q", res.Entry.Items, want)
	}
	for i := range want {
		if res.Entry.Items[i] != want[i] {
			t.Errorf("Items[%d] = %q, want %q", i, res.Entry.Items[i], want[i])
		}
	}
	if res.Entry.Maintainer != in.Author {
		t.Errorf("Maintainer = %q, want the current author", res.Entry.Maintainer)
	}
}

func TestReconcileTeamUpload(t *testing.T) {
	in := sampleInput()
	in.Uploaders = []string{"Someone Else <other@debian.org>"}

	res, err := Reconcile("", in)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !res.TeamUpload {
		t.Error("expected a team upload for a non-uploader author")
	}
	if len(res.Entry.Items) == 0 || res.Entry.Items[0] != "  * Team upload." {
		t.Errorf("Items = %q, want the team upload annotation first", res.Entry.Items)
	}
}

func TestReconcileMalformedTopEntry(t *testing.T) {
	data := "rust-demo 1.2.3-1 UNRELEASED urgency=medium\n\n  * broken header\n"
	if _, err := Reconcile(data, sampleInput()); !errors.Is(err, errors.ErrCodeInvalidChangelog) {
		t.Errorf("error = %v, want INVALID_CHANGELOG", err)
	}
}

func TestReconcileFileRewritesInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "changelog")
	released := NewEntry("rust-demo", "1.2.3-1", "unstable", "Jane Doe <jane@debian.org>", clogDate, []string{"  * Initial release."}).String()
	if err := os.WriteFile(path, []byte(released), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := ReconcileFile(path, sampleInput())
	if err != nil {
		t.Fatalf("ReconcileFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != res.Content {
		t.Error("file content does not match the reconciled content")
	}
}
