package debian

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

// DistUnreleased is the sentinel distribution label marking the newest
// changelog entry as not yet uploaded. Only such an entry may be amended;
// every other entry is immutable history.
const DistUnreleased = "UNRELEASED"

// itemTeamUpload is the policy annotation inserted when the packager is not
// among the declared uploaders.
const itemTeamUpload = "  * Team upload."

// dateLayout is the RFC-2822-style timestamp used in changelog trailers.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

var (
	headerRe    = regexp.MustCompile(`^(\S+) \(([^()]+)\) (\S+); (.+)$`)
	trailerRe   = regexp.MustCompile(`^ -- (.+?)  (.+)$`)
	revSuffixRe = regexp.MustCompile(`^(.*?)(\d+)$`)
)

// Entry is one changelog entry. Items are verbatim lines between the header
// and the trailer, with surrounding blank lines stripped; sub-bullets and
// attribution headings are preserved as-is.
type Entry struct {
	Source       string
	Version      string
	Distribution string
	Urgency      string // full field, e.g. "urgency=medium"
	Maintainer   string // "Name <email>"
	Date         time.Time
	Items        []string
}

// NewEntry creates an entry dated now, ready for rendering.
func NewEntry(source, version, distribution, maintainer string, date time.Time, items []string) *Entry {
	return &Entry{
		Source:       source,
		Version:      version,
		Distribution: distribution,
		Urgency:      "urgency=medium",
		Maintainer:   maintainer,
		Date:         date,
		Items:        items,
	}
}

// MaintainerName returns the name part of the maintainer identity.
func (e *Entry) MaintainerName() string {
	name, _, _ := strings.Cut(e.Maintainer, " <")
	return strings.TrimSpace(name)
}

// VersionParts splits the Debian version into its upstream component and the
// distribution revision suffix.
func (e *Entry) VersionParts() (upstream, revision string) {
	if i := strings.LastIndexByte(e.Version, '-'); i >= 0 {
		return e.Version[:i], e.Version[i+1:]
	}
	return e.Version, ""
}

// RevisionBump returns the entry's revision suffix with its final numeric
// component incremented, e.g. "1" -> "2" and "1.exp2" -> "1.exp3".
func (e *Entry) RevisionBump() string {
	_, rev := e.VersionParts()
	m := revSuffixRe.FindStringSubmatch(rev)
	if m == nil {
		return rev + ".1"
	}
	n, _ := strconv.Atoi(m[2])
	return m[1] + strconv.Itoa(n+1)
}

// String renders the entry in its on-disk shape: header line, blank line,
// items, blank line, trailer line.
func (e *Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) %s; %s\n\n", e.Source, e.Version, e.Distribution, e.Urgency)
	for _, item := range e.Items {
		if item == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(item)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n -- %s  %s\n", e.Maintainer, e.Date.Format(dateLayout))
	return b.String()
}

// ParseEntry parses one raw entry chunk as produced by SplitEntries. A
// malformed header or trailer is a fatal parse error carrying the offending
// text.
func ParseEntry(text string) (*Entry, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidChangelog, "empty changelog entry")
	}

	header := headerRe.FindStringSubmatch(lines[0])
	if header == nil {
		return nil, errors.New(errors.ErrCodeInvalidChangelog,
			"malformed changelog header: %q", lines[0])
	}

	trailerIdx := -1
	var trailer []string
	for i := len(lines) - 1; i > 0; i-- {
		if m := trailerRe.FindStringSubmatch(lines[i]); m != nil {
			trailerIdx, trailer = i, m
			break
		}
	}
	if trailerIdx < 0 {
		return nil, errors.New(errors.ErrCodeInvalidChangelog,
			"changelog entry has no trailer line: %q", lines[0])
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(trailer[2]))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidChangelog, err,
			"malformed changelog date: %q", trailer[2])
	}

	items := lines[1:trailerIdx]
	for len(items) > 0 && strings.TrimSpace(items[0]) == "" {
		items = items[1:]
	}
	for len(items) > 0 && strings.TrimSpace(items[len(items)-1]) == "" {
		items = items[:len(items)-1]
	}

	return &Entry{
		Source:       header[1],
		Version:      header[2],
		Distribution: header[3],
		Urgency:      header[4],
		Maintainer:   trailer[1],
		Date:         date,
		Items:        append([]string(nil), items...),
	}, nil
}

// SplitEntries splits raw changelog data into per-entry chunks. Each chunk
// runs from a header line through its trailer line plus any following blank
// separator lines, so that concatenating all chunks reproduces the input
// byte-for-byte.
func SplitEntries(data string) []string {
	var chunks []string
	start := 0
	inEntry := true
	pos := 0
	for pos < len(data) {
		end := strings.IndexByte(data[pos:], '\n')
		var line string
		var next int
		if end < 0 {
			line, next = data[pos:], len(data)
		} else {
			line, next = data[pos:pos+end], pos+end+1
		}
		if inEntry {
			if trailerRe.MatchString(line) {
				inEntry = false
			}
		} else if strings.TrimSpace(line) != "" {
			chunks = append(chunks, data[start:pos])
			start = pos
			inEntry = true
		}
		pos = next
	}
	if start < len(data) {
		chunks = append(chunks, data[start:])
	}
	return chunks
}

// ReconcileInput carries everything the reconciler needs to merge one
// autogenerated entry into an existing changelog.
type ReconcileInput struct {
	SourceName      string // Debian source package name
	UpstreamVersion string // freshly computed Debian upstream version
	CrateName       string
	CrateVersion    string
	Origin          string // "crates.io" or "local source"
	ToolVersion     string
	Author          string // "Name <email>"
	Uploaders       []string
	Date            time.Time
}

// ReconcileResult reports what the reconciler decided.
type ReconcileResult struct {
	Content    string // full new file content
	Entry      *Entry // the entry written or amended at the top
	TeamUpload bool   // a "Team upload." annotation was inserted
}

func (in ReconcileInput) autogeneratedItem() string {
	return fmt.Sprintf("  * Package %s %s from %s using cargodeb %s",
		in.CrateName, in.CrateVersion, in.Origin, in.ToolVersion)
}

func (in ReconcileInput) autogeneratedRe() *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^  \* Package (.*) (.*) from %s using cargodeb (.*)$`,
		regexp.QuoteMeta(in.Origin)))
}

// Reconcile merges an autogenerated changelog item into data and returns the
// rewritten file content. It is idempotent: running it twice with the same
// input yields the same bytes.
//
// If the newest entry is UNRELEASED it is amended in place: the same author
// gets their previous autogenerated item replaced (or the new one appended),
// while a different author's items are preserved verbatim below a named
// attribution heading. Otherwise a new entry is prepended. The target
// version is {upstream}-{revision}, where the revision bumps the previous
// top entry's suffix when the upstream version is unchanged and resets to 1
// otherwise.
func Reconcile(data string, in ReconcileInput) (*ReconcileResult, error) {
	item := in.autogeneratedItem()
	itemRe := in.autogeneratedRe()
	chunks := SplitEntries(data)

	// revisionFor inspects the previous top entry, pre-rewrite.
	revisionFor := func(chunk string) (string, error) {
		if chunk == "" {
			return "1", nil
		}
		prev, err := ParseEntry(chunk)
		if err != nil {
			return "", err
		}
		if upstream, _ := prev.VersionParts(); upstream == in.UpstreamVersion {
			return prev.RevisionBump(), nil
		}
		return "1", nil
	}

	var (
		rest     string
		items    []string
		revision string
		err      error
	)

	top := ""
	if len(chunks) > 0 {
		top = chunks[0]
	}

	if topEntry, parseErr := parseUnreleased(top); parseErr != nil {
		return nil, parseErr
	} else if topEntry != nil {
		items = topEntry.Items
		if in.Author == topEntry.Maintainer {
			replaced := false
			for i, it := range items {
				if itemRe.MatchString(it) {
					items[i] = item
					replaced = true
					break
				}
			}
			if !replaced {
				items = append(items, item)
			}
		} else {
			// Someone else's unreleased work: keep their items verbatim
			// under their own attribution heading.
			heading := fmt.Sprintf("  [ %s ]", topEntry.MaintainerName())
			items = append([]string{item, "", heading}, items...)
		}
		rest = data[len(top):]
		prev := ""
		if len(chunks) > 1 {
			prev = chunks[1]
		}
		revision, err = revisionFor(prev)
	} else {
		items = []string{item}
		rest = data
		revision, err = revisionFor(top)
	}
	if err != nil {
		return nil, err
	}

	teamUpload := false
	if !contains(in.Uploaders, in.Author) {
		teamUpload = true
		if !contains(items, itemTeamUpload) {
			items = append([]string{itemTeamUpload}, items...)
		}
	}

	entry := NewEntry(
		in.SourceName,
		in.UpstreamVersion+"-"+revision,
		DistUnreleased,
		in.Author,
		in.Date,
		items,
	)

	content := entry.String()
	if strings.TrimSpace(rest) != "" {
		content += "\n" + strings.TrimLeft(rest, "\n")
	}

	return &ReconcileResult{Content: content, Entry: entry, TeamUpload: teamUpload}, nil
}

// parseUnreleased parses chunk and returns the entry when it is the
// amendable UNRELEASED top entry, nil when it is released, absent, or not an
// entry at all (free-form preamble is treated as prepend-target content).
func parseUnreleased(chunk string) (*Entry, error) {
	if chunk == "" || !strings.Contains(chunk, DistUnreleased) {
		return nil, nil
	}
	e, err := ParseEntry(chunk)
	if err != nil {
		return nil, err
	}
	if e.Distribution != DistUnreleased {
		return nil, nil
	}
	return e, nil
}

// ReconcileFile applies Reconcile to the file at path, creating it when
// absent. The file is read fully, rewritten from offset zero, and truncated
// to the exact new length so no residual bytes of a longer previous version
// survive.
func ReconcileFile(path string, in ReconcileInput) (*ReconcileResult, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to open %s", path)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to read %s", path)
	}

	res, err := Reconcile(string(data), in)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to rewind %s", path)
	}
	n, err := f.WriteString(res.Content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to write %s", path)
	}
	if err := f.Truncate(int64(n)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to truncate %s", path)
	}
	return res, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
