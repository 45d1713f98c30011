package schema

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

// A YAML module descriptor:
//
//	module: ex
//	revision: 2024-01-01
//	identities:
//	  - name: eth
//	    bases: [iface-type]
//	annotations:
//	  - name: origin
//	    type: string
//	nodes:
//	  - kind: container
//	    name: top
//	    children:
//	      - kind: leaf
//	        name: id
//	        type: {base: identityref, bases: [iface-type]}
//	augments:
//	  - target: /other:top
//	    nodes: [...]
type yModule struct {
	Module      string        `yaml:"module"`
	Revision    string        `yaml:"revision"`
	Namespace   string        `yaml:"namespace"`
	Prefix      string        `yaml:"prefix"`
	Identities  []yIdentity   `yaml:"identities"`
	Annotations []yAnnotation `yaml:"annotations"`
	Nodes       []yNode       `yaml:"nodes"`
	Augments    []yAugment    `yaml:"augments"`
}

type yIdentity struct {
	Name  string   `yaml:"name"`
	Bases []string `yaml:"bases"`
}

type yAnnotation struct {
	Name string `yaml:"name"`
	Type *yType `yaml:"type"`
}

type yAugment struct {
	Target string  `yaml:"target"`
	Nodes  []yNode `yaml:"nodes"`
}

type yNode struct {
	Kind     string   `yaml:"kind"`
	Name     string   `yaml:"name"`
	Type     *yType   `yaml:"type"`
	Keys     []string `yaml:"keys"`
	When     string   `yaml:"when"`
	Config   *bool    `yaml:"config"`
	Presence bool     `yaml:"presence"`
	Children []yNode  `yaml:"children"`
	Input    []yNode  `yaml:"input"`
	Output   []yNode  `yaml:"output"`
}

type yType struct {
	Base           string   `yaml:"base"`
	Enums          []string `yaml:"enums"`
	Bits           []string `yaml:"bits"`
	FractionDigits int      `yaml:"fraction-digits"`
	Bases          []string `yaml:"bases"`
	Path           string   `yaml:"path"`
	Members        []*yType `yaml:"members"`
}

// UnmarshalYAML accepts a bare base type name as shorthand.
func (t *yType) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		t.Base = s
		return nil
	}
	type plain yType
	return unmarshal((*plain)(t))
}

// LoadYAMLFile reads a module descriptor from path, see LoadYAML.
func LoadYAMLFile(ctx *Context, path string) (*Module, error) {
	return LoadYAMLFS(ctx, afero.NewOsFs(), path)
}

// LoadYAMLFS is LoadYAMLFile reading from fs.
func LoadYAMLFS(ctx *Context, fs afero.Fs, path string) (*Module, error) {
	d, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", path, err)
	}
	m, err := LoadYAML(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadYAML decodes a module descriptor and registers the module in ctx.
// Identity bases and augment targets in other modules must already be
// loaded.
func LoadYAML(ctx *Context, data []byte) (*Module, error) {
	y := &yModule{}
	if err := yaml.Unmarshal(data, y); err != nil {
		return nil, fmt.Errorf("could not decode module: %w", err)
	}
	if y.Module == "" {
		return nil, fmt.Errorf("module descriptor has no module name")
	}
	m := &Module{Name: y.Module, Revision: y.Revision, Namespace: y.Namespace, Prefix: y.Prefix}
	if m.Prefix == "" {
		m.Prefix = m.Name
	}
	if err := ctx.Register(m); err != nil {
		return nil, err
	}
	l := &loader{ctx: ctx, mod: m}
	for _, yi := range y.Identities {
		m.AddIdentity(yi.Name)
	}
	for _, yi := range y.Identities {
		id := m.Identity(yi.Name)
		for _, b := range yi.Bases {
			base := ctx.FindIdentity(b, m)
			if base == nil {
				return nil, fmt.Errorf("identity %s: unknown base %q", yi.Name, b)
			}
			id.Bases = append(id.Bases, base)
		}
	}
	for _, ya := range y.Annotations {
		t, err := l.typ(ya.Type)
		if err != nil {
			return nil, fmt.Errorf("annotation %s: %w", ya.Name, err)
		}
		m.AddAnnotation(ya.Name, t)
	}
	nodes, err := l.nodes(y.Nodes)
	if err != nil {
		return nil, err
	}
	m.Add(nodes...)
	for _, ya := range y.Augments {
		target, err := ctx.FindNode(ya.Target)
		if err != nil {
			return nil, fmt.Errorf("augment: %w", err)
		}
		nodes, err := l.nodes(ya.Nodes)
		if err != nil {
			return nil, err
		}
		if err := m.Augment(target, nodes...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type loader struct {
	ctx *Context
	mod *Module
}

func (l *loader) nodes(ys []yNode) ([]*Node, error) {
	res := make([]*Node, 0, len(ys))
	for i := range ys {
		n, err := l.node(&ys[i])
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	return res, nil
}

func (l *loader) node(y *yNode) (*Node, error) {
	k, ok := ParseKind(y.Kind)
	if !ok {
		return nil, fmt.Errorf("node %s: unknown kind %q", y.Name, y.Kind)
	}
	if y.Name == "" {
		return nil, fmt.Errorf("%s node without a name", y.Kind)
	}
	children, err := l.nodes(y.Children)
	if err != nil {
		return nil, err
	}
	var n *Node
	switch k {
	case KindLeaf, KindLeafList:
		t, err := l.typ(y.Type)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", k, y.Name, err)
		}
		if k == KindLeaf {
			n = Leaf(y.Name, t)
		} else {
			n = LeafList(y.Name, t)
		}
	case KindList:
		n = List(y.Name, y.Keys, children...)
	case KindRPC, KindAction:
		in, err := l.nodes(y.Input)
		if err != nil {
			return nil, err
		}
		out, err := l.nodes(y.Output)
		if err != nil {
			return nil, err
		}
		n = operation(k, y.Name, in, out)
	case KindInput, KindOutput:
		return nil, fmt.Errorf("node %s: %s is only valid inside an rpc or action", y.Name, k)
	default:
		n = newNode(k, y.Name, children)
	}
	n.When = y.When
	if y.Config != nil && !*y.Config {
		n.State()
	}
	if y.Presence {
		n.Presence()
	}
	return n, nil
}

func (l *loader) typ(y *yType) (*Type, error) {
	if y == nil {
		return nil, fmt.Errorf("missing type")
	}
	b, ok := ParseBaseType(y.Base)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", y.Base)
	}
	t := &Type{
		Base:           b,
		Enums:          y.Enums,
		Bits:           y.Bits,
		FractionDigits: y.FractionDigits,
		Path:           y.Path,
	}
	for _, ref := range y.Bases {
		id := l.ctx.FindIdentity(ref, l.mod)
		if id == nil {
			return nil, fmt.Errorf("unknown identity %q", ref)
		}
		t.Bases = append(t.Bases, id)
	}
	for _, ym := range y.Members {
		mt, err := l.typ(ym)
		if err != nil {
			return nil, err
		}
		t.Members = append(t.Members, mt)
	}
	return t, nil
}
