package format

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, f := range AllFormats() {
		d, err := f.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var g Format
		if err := g.UnmarshalText(d); err != nil {
			t.Fatal(err)
		}
		if g != f {
			t.Errorf("%s parsed as %s", d, g)
		}
		short, err := ParseFormat(f.Short())
		if err != nil || short != f {
			t.Errorf("short name of %s: %v %v", f, short, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrBadFormat) {
		t.Errorf("expected bad format, got %v", err)
	}
	if _, err := ParseFormat(""); !errors.Is(err, ErrBadFormat) {
		t.Errorf("empty name parsed")
	}
	if Format(7).String() == "" || Format(-1).Short() != "" {
		t.Errorf("unknown format")
	}
}

func TestFormatProperties(t *testing.T) {
	if YAMLFormat.Lexer() != "yaml" || JSONFormat.Lexer() != "json" || TextFormat.Lexer() != "" || TreeFormat.Lexer() != "" {
		t.Errorf("lexers")
	}
	if !JSONFormat.IsJSON() || !TextFormat.IsText() || !TreeFormat.IsTree() || YAMLFormat.IsText() {
		t.Errorf("format predicates")
	}
	if got := Usage(); got != "text/t, yaml/y, json/j, tree/r" {
		t.Errorf("usage %q", got)
	}
}
