package encode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/signadot/lyb-format/go-lyb/format"
	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

func sample(t *testing.T) []*tree.Node {
	t.Helper()
	ctx := schema.NewContext()
	ex, err := ctx.AddModule("ex", "")
	if err != nil {
		t.Fatal(err)
	}
	str := schema.Simple(schema.BaseString)
	origin := ex.AddAnnotation("origin", str)
	top := schema.Container("top",
		schema.Leaf("name", str),
		schema.LeafList("tag", str),
		schema.List("item", []string{"id"}, schema.Leaf("id", schema.Simple(schema.BaseUint8))),
		schema.Anydata("blob"),
	)
	ex.Add(top)
	aug, err := ctx.AddModule("aug", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := aug.Augment(top, schema.Leaf("extra", str)); err != nil {
		t.Fatal(err)
	}

	root, err := tree.CreateInner(top)
	if err != nil {
		t.Fatal(err)
	}
	add := func(parent *tree.Node, name, v string) *tree.Node {
		n, _, err := tree.CreateTerm(parent.Schema.Child(name, nil, false), v)
		if err != nil {
			t.Fatal(err)
		}
		if err := tree.Insert(parent, n); err != nil {
			t.Fatal(err)
		}
		return n
	}
	name := add(root, "name", "r")
	name.Flags |= tree.FlagDefault
	add(root, "tag", "a")
	tb := add(root, "tag", "b")
	item, err := tree.CreateInner(top.Child("item", nil, false))
	if err != nil {
		t.Fatal(err)
	}
	if err := tree.Insert(root, item); err != nil {
		t.Fatal(err)
	}
	add(item, "id", "1")
	add(root, "extra", "y")
	blob, err := tree.CreateAny(top.Child("blob", nil, false), tree.AnyValue{Kind: tree.AnyJSON, Value: `{"k":"v"}`})
	if err != nil {
		t.Fatal(err)
	}
	if err := tree.Insert(root, blob); err != nil {
		t.Fatal(err)
	}
	if _, _, err := tree.CreateMeta(root, origin, "x"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := tree.CreateMeta(tb, origin, "z"); err != nil {
		t.Fatal(err)
	}
	return []*tree.Node{root}
}

func TestEncodeText(t *testing.T) {
	forest := sample(t)
	want := strings.Join([]string{
		`ex:top @ex:origin="x"`,
		`  name "r" (default)`,
		`  tag "a"`,
		`  tag "b" @ex:origin="z"`,
		`  item`,
		`    id "1"`,
		`  aug:extra "y"`,
		`  blob json "{\"k\":\"v\"}"`,
	}, "\n")
	if diff := cmp.Diff(want, MustString(forest)); diff != "" {
		t.Errorf("text (-want +got):\n%s", diff)
	}

	got := MustString(forest, Depth(1), EncodeMeta(false))
	if got != `ex:top ...` {
		t.Errorf("depth 1: %q", got)
	}
}

func TestValue(t *testing.T) {
	want := yaml.MapSlice{{Key: "ex:top", Value: yaml.MapSlice{
		{Key: "name", Value: "r"},
		{Key: "tag", Value: []any{"a", "b"}},
		{Key: "@tag", Value: []any{nil, yaml.MapSlice{{Key: "ex:origin", Value: "z"}}}},
		{Key: "item", Value: []any{yaml.MapSlice{{Key: "id", Value: uint64(1)}}}},
		{Key: "aug:extra", Value: "y"},
		{Key: "blob", Value: map[string]any{"k": "v"}},
		{Key: "@", Value: yaml.MapSlice{{Key: "ex:origin", Value: "x"}}},
	}}}
	if diff := cmp.Diff(want, Value(sample(t))); diff != "" {
		t.Errorf("value (-want +got):\n%s", diff)
	}
}

func TestEncodeYAMLAndJSON(t *testing.T) {
	forest := sample(t)
	for _, f := range []format.Format{format.YAMLFormat, format.JSONFormat} {
		buf := &bytes.Buffer{}
		if err := Encode(forest, buf, EncodeFormat(f)); err != nil {
			t.Fatal(err)
		}
		if f.IsJSON() && !strings.HasPrefix(buf.String(), "{") {
			t.Errorf("json output %q", buf.String())
		}
		var v map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &v); err != nil {
			t.Fatalf("%s output does not decode: %v\n%s", f, err, buf.String())
		}
		top, ok := v["ex:top"].(map[string]any)
		if !ok {
			t.Fatalf("%s output %v", f, v)
		}
		if top["aug:extra"] != "y" {
			t.Errorf("%s: augmented leaf %v", f, top["aug:extra"])
		}
	}
	if FormatFromOpts(EncodeFormat(format.JSONFormat)) != format.JSONFormat {
		t.Errorf("format from options")
	}
}

func TestEncodeColors(t *testing.T) {
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()
	got := MustString(sample(t), EncodeColors(NewColors()))
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("no escape sequences in %q", got)
	}
	if !strings.Contains(got, "top") || !strings.Contains(got, `"r"`) {
		t.Errorf("colored text %q", got)
	}
}

func TestEncodeTree(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode(sample(t), buf, EncodeFormat(format.TreeFormat)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, `ex:top @ex:origin="x"`+"\n") {
		t.Errorf("tree root line in %q", got)
	}
	for _, s := range []string{`├── name "r" (default)`, `└── id "1"`, `└── blob json`} {
		if !strings.Contains(got, s) {
			t.Errorf("%q missing from\n%s", s, got)
		}
	}

	buf.Reset()
	if err := Encode(sample(t), buf, EncodeFormat(format.TreeFormat), Depth(1)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "name") || !strings.Contains(buf.String(), "...") {
		t.Errorf("depth 1 tree %q", buf.String())
	}
}

func TestEncodeHighlighted(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Encode(sample(t), buf, EncodeFormat(format.YAMLFormat), EncodeColors(NewColors())); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") || !strings.Contains(buf.String(), "extra") {
		t.Errorf("highlighted yaml %q", buf.String())
	}
}
