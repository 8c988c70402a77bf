package util

import (
	"strings"
	"testing"
)

func TestNewIDPrefix(t *testing.T) {
	id := NewID("cmp")
	if !strings.HasPrefix(id, "cmp_") {
		t.Fatalf("expected cmp_ prefix, got %q", id)
	}
	if id == NewID("cmp") {
		t.Fatal("expected unique ids")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"<p>a</p><p>b</p>", "a\nb"},
		{"line1<br>line2", "line1\nline2"},
		{"Tom&nbsp;&amp;&nbsp;Jerry", "Tom & Jerry"},
		{"<div> spaced   out </div>", "spaced out"},
		{"", ""},
	}
	for _, c := range cases {
		if got := StripHTML(c.in); got != c.want {
			t.Errorf("StripHTML(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Fatalf("got %q", got)
	}
}
