package encode

import (
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/goccy/go-yaml"

	"github.com/signadot/lyb-format/go-lyb/format"
	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

type EncState struct {
	depth, indent int
	meta          bool

	format format.Format
	Color  func(schema.Kind, ColorAttr, string) string
}

// Encode writes forest to w. The text format prints one node per line,
// indented by depth, the tree format draws the same lines as branches and
// YAML and JSON print the value built by Value, highlighted when colors
// are set.
func Encode(forest []*tree.Node, w io.Writer, opts ...EncodeOption) error {
	es := &EncState{
		indent: 2,
		meta:   true,
	}
	for _, opt := range opts {
		opt(es)
	}
	switch {
	case es.format.IsText():
		for _, n := range forest {
			if err := encodeText(n, w, es, 0); err != nil {
				return err
			}
		}
		return nil
	case es.format.IsTree():
		return encodeTree(forest, w, es)
	}
	yopts := []yaml.EncodeOption{yaml.Indent(es.indent)}
	if es.format.IsJSON() {
		yopts = append(yopts, yaml.JSON())
	}
	d, err := yaml.MarshalWithOptions(Value(forest, EncodeMeta(es.meta)), yopts...)
	if err != nil {
		return err
	}
	if es.Color != nil {
		return quick.Highlight(w, string(d), es.format.Lexer(), "terminal", "swapoff")
	}
	_, err = w.Write(d)
	return err
}

func (es *EncState) color(k schema.Kind, a ColorAttr, s string) string {
	if es.Color == nil {
		return s
	}
	return es.Color(k, a, s)
}

// memberName is the name of n qualified by its module where the module
// differs from the parent's.
func memberName(n *tree.Node) string {
	if n.Parent != nil && n.Parent.Schema.Module == n.Schema.Module {
		return n.Schema.Name
	}
	return n.Schema.Module.Name + ":" + n.Schema.Name
}

func metaName(m *tree.Meta) string {
	return m.Annotation.Module.Name + ":" + m.Annotation.Name
}

// label is the one line description of n, without its children.
func label(n *tree.Node, es *EncState) string {
	k := n.Schema.Kind
	b := &strings.Builder{}
	b.WriteString(es.color(k, NameColor, memberName(n)))
	switch {
	case n.Schema.IsTerm():
		b.WriteByte(' ')
		b.WriteString(es.color(k, ValueColor, strconv.Quote(n.Value)))
	case n.Schema.IsAny():
		b.WriteByte(' ')
		b.WriteString(es.color(k, FlagColor, n.Any.Kind.String()))
		b.WriteByte(' ')
		b.WriteString(es.color(k, ValueColor, strconv.Quote(n.Any.Value)))
	}
	if es.meta {
		for _, m := range n.Meta {
			b.WriteByte(' ')
			b.WriteString(es.color(k, SepColor, "@"))
			b.WriteString(es.color(k, MetaColor, metaName(m)+"="+strconv.Quote(m.Value)))
		}
	}
	if n.Flags&tree.FlagDefault != 0 {
		b.WriteString(es.color(k, FlagColor, " (default)"))
	}
	return b.String()
}

// pruned reports whether the children of a node at depth are cut off.
func (es *EncState) pruned(depth int) bool {
	return es.depth > 0 && depth+1 >= es.depth
}

func encodeText(n *tree.Node, w io.Writer, es *EncState, depth int) error {
	line := strings.Repeat(" ", depth*es.indent) + label(n, es)
	if len(n.Children) > 0 && es.pruned(depth) {
		line += es.color(n.Schema.Kind, SepColor, " ...")
	}
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return err
	}
	if es.pruned(depth) {
		return nil
	}
	for _, c := range n.Children {
		if err := encodeText(c, w, es, depth+1); err != nil {
			return err
		}
	}
	return nil
}
