package schema

import (
	"strings"
)

// Kind is the statement kind of a schema node.
type Kind int

const (
	KindContainer Kind = iota
	KindLeaf
	KindLeafList
	KindList
	KindChoice
	KindCase
	KindAnydata
	KindAnyxml
	KindRPC
	KindAction
	KindNotification
	KindInput
	KindOutput
)

var kindNames = [...]string{
	KindContainer:    "container",
	KindLeaf:         "leaf",
	KindLeafList:     "leaf-list",
	KindList:         "list",
	KindChoice:       "choice",
	KindCase:         "case",
	KindAnydata:      "anydata",
	KindAnyxml:       "anyxml",
	KindRPC:          "rpc",
	KindAction:       "action",
	KindNotification: "notification",
	KindInput:        "input",
	KindOutput:       "output",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Flags are schema node properties.
type Flags uint

const (
	// FlagConfigFalse marks state data.
	FlagConfigFalse Flags = 1 << iota
	FlagPresence
	FlagKey
	FlagMandatory
)

// Node is a schema node.
type Node struct {
	Name   string
	Kind   Kind
	Flags  Flags
	Module *Module
	Parent *Node

	Children []*Node
	Type     *Type
	// When is a condition the data node is only valid under, evaluated in
	// the context of the data parent.
	When string
	Keys []string
}

func newNode(k Kind, name string, children []*Node) *Node {
	n := &Node{Name: name, Kind: k}
	for _, c := range children {
		n.add(c)
	}
	return n
}

func (n *Node) add(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

func (n *Node) setModule(m *Module) {
	if n.Module == nil {
		n.Module = m
	}
	for _, c := range n.Children {
		c.setModule(m)
	}
}

func Container(name string, children ...*Node) *Node {
	return newNode(KindContainer, name, children)
}

func Leaf(name string, t *Type) *Node {
	n := newNode(KindLeaf, name, nil)
	n.Type = t
	return n
}

func LeafList(name string, t *Type) *Node {
	n := newNode(KindLeafList, name, nil)
	n.Type = t
	return n
}

// List creates a list keyed by the leaves named in keys.
func List(name string, keys []string, children ...*Node) *Node {
	n := newNode(KindList, name, children)
	n.Keys = keys
	for _, c := range n.Children {
		for _, k := range keys {
			if c.Kind == KindLeaf && c.Name == k {
				c.Flags |= FlagKey
			}
		}
	}
	return n
}

func Choice(name string, cases ...*Node) *Node {
	return newNode(KindChoice, name, cases)
}

func Case(name string, children ...*Node) *Node {
	return newNode(KindCase, name, children)
}

func Anydata(name string) *Node {
	return newNode(KindAnydata, name, nil)
}

func Anyxml(name string) *Node {
	return newNode(KindAnyxml, name, nil)
}

// RPC creates an rpc with the given input and output parameters.
func RPC(name string, input, output []*Node) *Node {
	return operation(KindRPC, name, input, output)
}

// Action creates an action, an rpc bound to a container or list instance.
func Action(name string, input, output []*Node) *Node {
	return operation(KindAction, name, input, output)
}

func operation(k Kind, name string, input, output []*Node) *Node {
	return newNode(k, name, []*Node{
		newNode(KindInput, "input", input),
		newNode(KindOutput, "output", output),
	})
}

func Notification(name string, children ...*Node) *Node {
	return newNode(KindNotification, name, children)
}

// State marks n as config false.
func (n *Node) State() *Node {
	n.Flags |= FlagConfigFalse
	return n
}

// Presence marks a container as a presence container.
func (n *Node) Presence() *Node {
	n.Flags |= FlagPresence
	return n
}

// WithWhen sets the when condition of n.
func (n *Node) WithWhen(cond string) *Node {
	n.When = cond
	return n
}

// IsData reports whether n instantiates data nodes. Choice, case, input and
// output nodes only structure the schema.
func (n *Node) IsData() bool {
	switch n.Kind {
	case KindChoice, KindCase, KindInput, KindOutput:
		return false
	}
	return true
}

// IsTerm reports whether n holds a value.
func (n *Node) IsTerm() bool {
	return n.Kind == KindLeaf || n.Kind == KindLeafList
}

// IsAny reports whether n is an anydata or anyxml node.
func (n *Node) IsAny() bool {
	return n.Kind == KindAnydata || n.Kind == KindAnyxml
}

// IsOperation reports whether n is an rpc, action or notification.
func (n *Node) IsOperation() bool {
	switch n.Kind {
	case KindRPC, KindAction, KindNotification:
		return true
	}
	return false
}

// IsState reports whether n is state data: it or an ancestor is config
// false. Operation contents are never state.
func (n *Node) IsState() bool {
	for p := n; p != nil; p = p.Parent {
		if p.IsOperation() {
			return false
		}
		if p.Flags&FlagConfigFalse != 0 {
			return true
		}
	}
	return false
}

// DataParent returns the closest ancestor that instantiates data nodes.
func (n *Node) DataParent() *Node {
	p := n.Parent
	for p != nil && !p.IsData() {
		p = p.Parent
	}
	return p
}

// Conditions returns the when conditions n depends on: its own and those of
// the choice and case nodes between it and its data parent, innermost first.
func (n *Node) Conditions() []string {
	var res []string
	if n.When != "" {
		res = append(res, n.When)
	}
	for p := n.Parent; p != nil && (p.Kind == KindChoice || p.Kind == KindCase); p = p.Parent {
		if p.When != "" {
			res = append(res, p.When)
		}
	}
	return res
}

// Path returns the data path of n, e.g. "/mod:top/child". Steps are
// prefixed with their module name where the module changes.
func (n *Node) Path() string {
	var steps []*Node
	for p := n; p != nil; p = p.DataParent() {
		if !p.IsData() {
			continue
		}
		steps = append(steps, p)
	}
	b := &strings.Builder{}
	var prev *Module
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		b.WriteByte('/')
		if s.Module != prev {
			b.WriteString(s.Module.Name)
			b.WriteByte(':')
			prev = s.Module
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

// Child returns the data child of n called name defined in mod, looking
// through choices and cases. For rpcs and actions output selects the output
// parameters instead of the input ones.
func (n *Node) Child(name string, mod *Module, output bool) *Node {
	for _, c := range DataChildren(n, nil, output) {
		if c.Name == name && (mod == nil || c.Module == mod) {
			return c
		}
	}
	return nil
}

// DataChildren returns the data nodes that can appear as children of a data
// node of schema parent, in schema order. A nil parent selects the top-level
// nodes of mod. Choice and case nodes are flattened; for rpcs and actions
// the input parameters are returned, or the output ones with output set.
func DataChildren(parent *Node, mod *Module, output bool) []*Node {
	var src []*Node
	switch {
	case parent == nil && mod == nil:
		return nil
	case parent == nil:
		src = mod.nodes
	case parent.Kind == KindRPC || parent.Kind == KindAction:
		want := KindInput
		if output {
			want = KindOutput
		}
		for _, c := range parent.Children {
			if c.Kind == want {
				src = c.Children
			}
		}
	default:
		src = parent.Children
	}
	var res []*Node
	var walk func([]*Node)
	walk = func(ns []*Node) {
		for _, c := range ns {
			switch c.Kind {
			case KindChoice, KindCase:
				walk(c.Children)
			case KindInput, KindOutput:
			default:
				res = append(res, c)
			}
		}
	}
	walk(src)
	return res
}
