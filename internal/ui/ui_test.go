package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	Out = &buf
	t.Cleanup(func() { Out = os.Stdout })

	Table([]string{"TYPE", "COUNT"}, [][]string{
		{"Passage", "120"},
		{"Person", "7"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "  TYPE     COUNT" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[3] != "  Person   7" {
		t.Errorf("unexpected row %q", lines[3])
	}

	buf.Reset()
	Table([]string{"A"}, nil)
	if buf.Len() != 0 {
		t.Error("empty table should print nothing")
	}
}

func TestVisibleLen(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"plain", 5},
		{"\x1b[31mred\x1b[0m", 3},
		{"●", 1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := visibleLen(tt.input); got != tt.expected {
			t.Errorf("visibleLen(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestParseHex(t *testing.T) {
	r, g, b, ok := parseHex("#E11D48")
	if !ok || r != 0xE1 || g != 0x1D || b != 0x48 {
		t.Errorf("unexpected %d %d %d %v", r, g, b, ok)
	}
	for _, bad := range []string{"", "#fff", "#GGGGGG", "E11D4800"} {
		if _, _, _, ok := parseHex(bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestSwatch_NoColor(t *testing.T) {
	color.NoColor = true
	if got := Swatch("#E11D48"); got != "●" {
		t.Errorf("expected plain dot, got %q", got)
	}
	if got := Swatch("nope"); got != "●" {
		t.Errorf("expected plain dot, got %q", got)
	}
}
