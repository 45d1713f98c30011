package schema

import (
	"fmt"
	"strings"
)

// Module is a named, revisioned set of top-level schema nodes, identities
// and metadata annotations.
type Module struct {
	Name      string
	Revision  string
	Namespace string
	Prefix    string

	Identities  []*Identity
	Annotations []*Annotation

	ctx   *Context
	nodes []*Node
}

// Context returns the context the module is registered in.
func (m *Module) Context() *Context {
	return m.ctx
}

// Nodes returns the top-level schema nodes, choices and operations included.
func (m *Module) Nodes() []*Node {
	return m.nodes
}

// Add appends top-level nodes to the module.
func (m *Module) Add(nodes ...*Node) *Module {
	for _, n := range nodes {
		n.Parent = nil
		n.setModule(m)
		m.nodes = append(m.nodes, n)
	}
	return m
}

// Augment adds nodes defined by m as children of target, which may belong
// to another module.
func (m *Module) Augment(target *Node, nodes ...*Node) error {
	if target == nil {
		return fmt.Errorf("augment of nil target by %s", m.Name)
	}
	switch target.Kind {
	case KindLeaf, KindLeafList, KindAnydata, KindAnyxml:
		return fmt.Errorf("cannot augment %s %s", target.Kind, target.Path())
	}
	for _, n := range nodes {
		n.setModule(m)
		target.add(n)
	}
	return nil
}

// AddIdentity declares an identity derived from bases.
func (m *Module) AddIdentity(name string, bases ...*Identity) *Identity {
	id := &Identity{Name: name, Module: m, Bases: bases}
	m.Identities = append(m.Identities, id)
	return id
}

// Identity returns the identity called name.
func (m *Module) Identity(name string) *Identity {
	for _, id := range m.Identities {
		if id.Name == name {
			return id
		}
	}
	return nil
}

// AddAnnotation declares a metadata annotation with value type t.
func (m *Module) AddAnnotation(name string, t *Type) *Annotation {
	a := &Annotation{Name: name, Module: m, Type: t}
	m.Annotations = append(m.Annotations, a)
	return a
}

// Annotation returns the annotation called name.
func (m *Module) Annotation(name string) *Annotation {
	for _, a := range m.Annotations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func (m *Module) String() string {
	if m.Revision == "" {
		return m.Name
	}
	return m.Name + "@" + m.Revision
}

// Identity is a named identity with its base identities.
type Identity struct {
	Name   string
	Module *Module
	Bases  []*Identity
}

// DerivedFrom reports whether id is base or derived from it, directly or
// not.
func (id *Identity) DerivedFrom(base *Identity) bool {
	if id == base {
		return true
	}
	for _, b := range id.Bases {
		if b.DerivedFrom(base) {
			return true
		}
	}
	return false
}

func (id *Identity) String() string {
	return id.Module.Name + ":" + id.Name
}

// Annotation is a metadata annotation definition.
type Annotation struct {
	Name   string
	Module *Module
	Type   *Type
}

func (a *Annotation) String() string {
	return a.Module.Name + ":" + a.Name
}

func splitQName(s string) (mod, name string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

type pathStep struct {
	mod  string
	name string
}

func splitPath(path string) ([]pathStep, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q is not absolute", path)
	}
	parts := strings.Split(path[1:], "/")
	res := make([]pathStep, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty step in path %q", path)
		}
		mod, name := splitQName(p)
		res = append(res, pathStep{mod: mod, name: name})
	}
	return res, nil
}
