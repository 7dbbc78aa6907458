package uuid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("produces_version_7", func(t *testing.T) {
		id := New()
		if _, err := Parse(id); err != nil {
			t.Fatalf("expected valid uuid, got %q: %v", id, err)
		}
		if id[14] != '7' {
			t.Errorf("expected version nibble 7, got %q in %s", id[14], id)
		}
	})

	t.Run("time_ordered", func(t *testing.T) {
		prev := New()
		for i := 0; i < 50; i++ {
			next := New()
			if next <= prev {
				t.Fatalf("expected %s to sort after %s", next, prev)
			}
			prev = next
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("canonicalises", func(t *testing.T) {
		id := New()
		got, err := Parse(strings.ToUpper(id))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != id {
			t.Errorf("expected %s, got %s", id, got)
		}
	})

	t.Run("accepts_alternate_encodings", func(t *testing.T) {
		id := New()
		upper := strings.ToUpper(id)
		for _, in := range []string{"{" + upper + "}", "urn:uuid:" + id, strings.ReplaceAll(upper, "-", "")} {
			got, err := Parse(in)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", in, err)
			}
			if got != id {
				t.Errorf("%s: expected %s, got %s", in, id, got)
			}
		}
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		if _, err := Parse("not-a-uuid"); err == nil {
			t.Error("expected error for invalid uuid")
		}
		if _, err := Parse("123"); err == nil {
			t.Error("expected 123 to be invalid")
		}
	})
}
