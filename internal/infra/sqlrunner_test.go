package infra

import (
	"errors"
	"testing"

	"speechable/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	marker, body, err := ExtractMarker("\n--sql 3f6c2a9e-51d4-4b7e-9a0c-8e2d41f7b6a3\nselect 1\n")
	if err != nil {
		t.Fatalf("ExtractMarker returned error: %v", err)
	}
	if marker != "3f6c2a9e-51d4-4b7e-9a0c-8e2d41f7b6a3" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1" {
		t.Fatalf("body = %q, want %q", body, "select 1")
	}
}

func TestExtractMarkerRejectsUnmarked(t *testing.T) {
	for _, q := range []string{"select 1", "--sql not-a-uuid\nselect 1", "-- 3f6c2a9e-51d4-4b7e-9a0c-8e2d41f7b6a3\nselect 1"} {
		if _, _, err := ExtractMarker(q); !errors.Is(err, ErrMissingMarker) {
			t.Fatalf("ExtractMarker(%q) err = %v, want ErrMissingMarker", q, err)
		}
	}
	if _, _, err := ExtractMarker("   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestInlineQueriesAreMarked(t *testing.T) {
	seen := map[string]string{}
	for name, q := range sqlinline.All() {
		marker, _, err := ExtractMarker(q)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if other, dup := seen[marker]; dup {
			t.Fatalf("%s reuses marker of %s", name, other)
		}
		seen[marker] = name
	}
}
