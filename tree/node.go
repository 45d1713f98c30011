// Package tree is the data-tree model built by the LYB parser and walked by
// the printer. Nodes are instances of schema nodes; term values are kept in
// their lexical form and checked against their type when created. Values
// whose validity depends on the rest of the tree are reported as incomplete
// and resolved later with Resolve.
package tree

import (
	"fmt"
	"strings"

	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/schema"
)

// Flags are data node flags that are part of the encoded data.
type Flags uint8

const (
	// FlagDefault marks a node created from a schema default rather than
	// given explicitly.
	FlagDefault Flags = 1 << iota
)

// AnyKind is the encoding of an anydata or anyxml value.
type AnyKind uint8

const (
	AnyString AnyKind = iota
	AnyXML
	AnyJSON
)

func (k AnyKind) String() string {
	switch k {
	case AnyString:
		return "string"
	case AnyXML:
		return "xml"
	case AnyJSON:
		return "json"
	}
	return fmt.Sprintf("any(%d)", uint8(k))
}

// AnyValue is the opaque content of an anydata or anyxml node.
type AnyValue struct {
	Kind  AnyKind
	Value string
}

// Node is a data node.
type Node struct {
	Schema   *schema.Node
	Parent   *Node
	Children []*Node
	Flags    Flags

	// Value is the lexical value of a leaf or leaf-list entry.
	Value string
	Any   AnyValue
	Meta  []*Meta

	// Ident and Target hold what an identityref or a leafref and
	// instance-identifier value resolved to.
	Ident  *schema.Identity
	Target *Node
}

// Meta is a metadata annotation instance attached to a data node.
type Meta struct {
	Annotation *schema.Annotation
	Value      string
	Parent     *Node
	Ident      *schema.Identity
}

func (m *Meta) Name() string {
	return m.Annotation.Module.Name + ":" + m.Annotation.Name
}

// CreateTerm creates a leaf or leaf-list entry. incomplete reports that the
// value can only be validated with Resolve once the tree is complete.
func CreateTerm(s *schema.Node, value string) (n *Node, incomplete bool, err error) {
	if s == nil || !s.IsTerm() {
		return nil, false, lyerr.New(lyerr.ErrInternal, "schema node %v is not a term", s)
	}
	if err := s.Type.Check(value); err != nil {
		return nil, false, lyerr.Val(lyerr.CodeType, s.Path(), "Invalid value of %s: %v.", s.Name, err)
	}
	return &Node{Schema: s, Value: value}, s.Type.NeedsTree(), nil
}

// CreateInner creates a container, list entry or operation node.
func CreateInner(s *schema.Node) (*Node, error) {
	if s == nil {
		return nil, lyerr.New(lyerr.ErrInternal, "nil schema for inner node")
	}
	switch s.Kind {
	case schema.KindContainer, schema.KindList, schema.KindRPC, schema.KindAction, schema.KindNotification:
		return &Node{Schema: s}, nil
	}
	return nil, lyerr.New(lyerr.ErrInternal, "schema node %s is a %s, not an inner node", s.Path(), s.Kind)
}

// CreateAny creates an anydata or anyxml node.
func CreateAny(s *schema.Node, v AnyValue) (*Node, error) {
	if s == nil || !s.IsAny() {
		return nil, lyerr.New(lyerr.ErrInternal, "schema node %v is not anydata or anyxml", s)
	}
	if v.Kind > AnyJSON {
		return nil, lyerr.Val(lyerr.CodeData, s.Path(), "Unknown %s value kind %d.", s.Kind, uint8(v.Kind))
	}
	return &Node{Schema: s, Any: v}, nil
}

// CreateMeta attaches an annotation instance to parent.
func CreateMeta(parent *Node, a *schema.Annotation, value string) (m *Meta, incomplete bool, err error) {
	if parent == nil || a == nil {
		return nil, false, lyerr.New(lyerr.ErrInternal, "metadata without parent or annotation")
	}
	if err := a.Type.Check(value); err != nil {
		return nil, false, lyerr.Val(lyerr.CodeType, parent.Path(), "Invalid value of metadata %s: %v.", a, err)
	}
	m = &Meta{Annotation: a, Value: value, Parent: parent}
	parent.Meta = append(parent.Meta, m)
	return m, a.Type.NeedsTree(), nil
}

// Insert appends child to the children of parent.
func Insert(parent, child *Node) error {
	if parent.Schema.Kind == schema.KindLeaf || parent.Schema.Kind == schema.KindLeafList || parent.Schema.IsAny() {
		return lyerr.New(lyerr.ErrInternal, "cannot insert into %s %s", parent.Schema.Kind, parent.Path())
	}
	if child.Schema.DataParent() != parent.Schema {
		return lyerr.New(lyerr.ErrInternal, "%s is not a child of %s", child.Schema.Path(), parent.Schema.Path())
	}
	child.Parent = parent
	parent.Children = append(parent.Children, child)
	return nil
}

// Child returns the first child called name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Schema.Name == name {
			return c
		}
	}
	return nil
}

// Root returns the top-level ancestor of n.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Path returns the data path of n with list key and leaf-list value
// predicates, e.g. "/ex:top/iface[name='eth0']/mtu".
func (n *Node) Path() string {
	var steps []*Node
	for p := n; p != nil; p = p.Parent {
		steps = append(steps, p)
	}
	b := &strings.Builder{}
	var prev *schema.Module
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		b.WriteByte('/')
		if s.Schema.Module != prev {
			b.WriteString(s.Schema.Module.Name)
			b.WriteByte(':')
			prev = s.Schema.Module
		}
		b.WriteString(s.Schema.Name)
		switch s.Schema.Kind {
		case schema.KindList:
			for _, k := range s.Schema.Keys {
				if kn := s.Child(k); kn != nil {
					fmt.Fprintf(b, "[%s=%s]", k, quote(kn.Value))
				}
			}
		case schema.KindLeafList:
			fmt.Fprintf(b, "[.=%s]", quote(s.Value))
		}
	}
	return b.String()
}

func quote(v string) string {
	if strings.ContainsRune(v, '\'') {
		return `"` + v + `"`
	}
	return "'" + v + "'"
}

// Walk calls fn on every node of forest in pre-order. Returning an error
// stops the walk.
func Walk(forest []*Node, fn func(*Node) error) error {
	for _, n := range forest {
		if err := fn(n); err != nil {
			return err
		}
		if err := Walk(n.Children, fn); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether a and b have the same schema nodes, values, flags
// and metadata, recursively and in the same order.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Schema != b.Schema || a.Value != b.Value || a.Any != b.Any || a.Flags != b.Flags {
		return false
	}
	if len(a.Meta) != len(b.Meta) {
		return false
	}
	for i := range a.Meta {
		if a.Meta[i].Annotation != b.Meta[i].Annotation || a.Meta[i].Value != b.Meta[i].Value {
			return false
		}
	}
	return EqualForest(a.Children, b.Children)
}

// EqualForest is Equal over sibling lists.
func EqualForest(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
