package debian

import (
	"testing"

	"github.com/cargodeb/cargodeb/pkg/errors"
)

func TestAuthorFromDebianVars(t *testing.T) {
	t.Setenv("DEBFULLNAME", "Jane Doe")
	t.Setenv("DEBEMAIL", "jane@debian.org")

	got, err := Author()
	if err != nil {
		t.Fatalf("Author: %v", err)
	}
	if want := "Jane Doe <jane@debian.org>"; got != want {
		t.Errorf("Author = %q, want %q", got, want)
	}
}

func TestAuthorFallbackVars(t *testing.T) {
	t.Setenv("DEBFULLNAME", "")
	t.Setenv("NAME", "Jane Doe")
	t.Setenv("DEBEMAIL", "")
	t.Setenv("EMAIL", "jane@example.org")

	got, err := Author()
	if err != nil {
		t.Fatalf("Author: %v", err)
	}
	if want := "Jane Doe <jane@example.org>"; got != want {
		t.Errorf("Author = %q, want %q", got, want)
	}
}

func TestAuthorMissingName(t *testing.T) {
	t.Setenv("DEBFULLNAME", "")
	t.Setenv("NAME", "")

	if _, err := Author(); !errors.Is(err, errors.ErrCodeMissingIdentity) {
		t.Errorf("error = %v, want MISSING_IDENTITY", err)
	}
}

func TestAuthorMissingEmail(t *testing.T) {
	t.Setenv("DEBFULLNAME", "Jane Doe")
	t.Setenv("DEBEMAIL", "")
	t.Setenv("EMAIL", "")

	if _, err := Author(); !errors.Is(err, errors.ErrCodeMissingIdentity) {
		t.Errorf("error = %v, want MISSING_IDENTITY", err)
	}
}
