package format

import (
	"errors"
	"fmt"
)

// Format is a rendering of a data tree.
type Format int

const (
	// TextFormat prints one node per line, indented by depth.
	TextFormat Format = iota
	// YAMLFormat prints the RFC 7951 shaped value as YAML.
	YAMLFormat
	// JSONFormat prints the RFC 7951 shaped value as JSON.
	JSONFormat
	// TreeFormat draws the text lines as branches.
	TreeFormat
)

var ErrBadFormat = errors.New("bad format")

type info struct {
	name, short string
	// lexer names the highlighter of structured formats
	lexer string
}

var infos = [...]info{
	TextFormat: {name: "text", short: "t"},
	YAMLFormat: {name: "yaml", short: "y", lexer: "yaml"},
	JSONFormat: {name: "json", short: "j", lexer: "json"},
	TreeFormat: {name: "tree", short: "r"},
}

func (f Format) info() (info, bool) {
	if f < 0 || int(f) >= len(infos) {
		return info{}, false
	}
	return infos[f], true
}

// ParseFormat accepts a format name or its one letter abbreviation.
func ParseFormat(v string) (Format, error) {
	for i, fi := range infos {
		if v == fi.name || v == fi.short {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrBadFormat, v)
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	fi, ok := f.info()
	if !ok {
		return nil, fmt.Errorf("<err: %d is not a format>", f)
	}
	return []byte(fi.name), nil
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}

// Short is the one letter abbreviation of f.
func (f Format) Short() string {
	fi, _ := f.info()
	return fi.short
}

// Lexer names the syntax highlighter for f, empty for line formats.
func (f Format) Lexer() string {
	fi, _ := f.info()
	return fi.lexer
}

func (f Format) IsJSON() bool { return f == JSONFormat }
func (f Format) IsText() bool { return f == TextFormat }
func (f Format) IsTree() bool { return f == TreeFormat }

// Usage lists every format with its abbreviation, for flag help.
func Usage() string {
	res := ""
	for i, f := range AllFormats() {
		if i > 0 {
			res += ", "
		}
		res += f.String() + "/" + f.Short()
	}
	return res
}

// AllFormats returns all supported formats in preference order.
func AllFormats() []Format {
	return []Format{TextFormat, YAMLFormat, JSONFormat, TreeFormat}
}
