package sitemap

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/solaproject/sola/internal/sola"
)

func TestNewBuilder_RejectsRelativeURL(t *testing.T) {
	if _, err := NewBuilder("/relative", nil); err == nil {
		t.Error("expected error for relative base url")
	}
}

func TestBuilder_Pages(t *testing.T) {
	b, err := NewBuilder("https://sola.example.org", []string{"de", "en"})
	if err != nil {
		t.Fatal(err)
	}

	urls := b.Pages([]string{"", "about"})
	expected := []string{
		"https://sola.example.org/de/",
		"https://sola.example.org/de/about",
		"https://sola.example.org/en/",
		"https://sola.example.org/en/about",
	}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d urls, got %d", len(expected), len(urls))
	}
	for i, u := range urls {
		if u.Loc != expected[i] {
			t.Errorf("url %d = %q, want %q", i, u.Loc, expected[i])
		}
	}
}

func TestBuilder_PostsAndEntities(t *testing.T) {
	b, _ := NewBuilder("https://sola.example.org/site/", []string{"de", "en"})

	posts := b.Posts(map[string][]string{"en": {"launch"}})
	if len(posts) != 1 || posts[0].Loc != "https://sola.example.org/site/en/posts/launch" {
		t.Errorf("unexpected post urls %v", posts)
	}

	entities := b.Entities([]sola.EntityRef{{ID: 7, Type: sola.Person}})
	if len(entities) != 2 {
		t.Fatalf("expected one url per locale, got %d", len(entities))
	}
	if entities[0].Loc != "https://sola.example.org/site/de/dataset?id=7&type=Person" {
		t.Errorf("unexpected entity url %q", entities[0].Loc)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	urls := []URL{{Loc: "https://sola.example.org/de/?a=1&b=2"}}
	if err := Write(&buf, urls); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing xml header: %q", out)
	}
	if !strings.Contains(out, `<urlset xmlns="`+Namespace+`">`) {
		t.Errorf("missing namespace: %q", out)
	}
	if !strings.Contains(out, "<loc>https://sola.example.org/de/?a=1&amp;b=2</loc>") {
		t.Errorf("loc not escaped: %q", out)
	}

	var decoded urlset
	if err := xml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid xml: %v", err)
	}
	if len(decoded.URLs) != 1 {
		t.Errorf("expected 1 url, got %d", len(decoded.URLs))
	}
}
