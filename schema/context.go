// Package schema is the queryable schema-node graph the LYB codec works
// against: modules with their data nodes, identities and metadata
// annotations, plus the sibling enumeration used to build hash tables.
//
// Schemas are either assembled in Go with the node builders or loaded from
// YAML descriptors with LoadYAML. Compilation of a schema language is out of
// scope; the graph is taken as given.
package schema

import (
	"fmt"
	"sync"
)

// Context is a set of modules that data trees are validated against.
type Context struct {
	mu      sync.RWMutex
	modules []*Module
}

func NewContext() *Context {
	return &Context{}
}

// AddModule creates and registers an empty module.
func (c *Context) AddModule(name, revision string) (*Module, error) {
	m := &Module{Name: name, Revision: revision, Prefix: name}
	if err := c.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds m to the context. A module name may be registered once per
// revision.
func (c *Context) Register(m *Module) error {
	if m == nil {
		return fmt.Errorf("cannot register nil module")
	}
	if m.Name == "" {
		return fmt.Errorf("module must have a name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, have := range c.modules {
		if have.Name == m.Name && have.Revision == m.Revision {
			return fmt.Errorf("module %s@%s already registered", m.Name, m.Revision)
		}
	}
	m.ctx = c
	c.modules = append(c.modules, m)
	return nil
}

// Modules returns the registered modules in registration order.
func (c *Context) Modules() []*Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]*Module, len(c.modules))
	copy(res, c.modules)
	return res
}

// Module returns the module with the given name and revision. An empty
// revision matches the most recently registered revision.
func (c *Context) Module(name, revision string) *Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var res *Module
	for _, m := range c.modules {
		if m.Name != name {
			continue
		}
		if revision == "" || m.Revision == revision {
			res = m
		}
	}
	return res
}

// ModuleByName returns the latest registered module called name.
func (c *Context) ModuleByName(name string) *Module {
	return c.Module(name, "")
}

// ModuleByPrefix returns the module declaring prefix.
func (c *Context) ModuleByPrefix(prefix string) *Module {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.modules) - 1; i >= 0; i-- {
		if c.modules[i].Prefix == prefix {
			return c.modules[i]
		}
	}
	return nil
}

// FindIdentity resolves a "module:name" or "prefix:name" identity
// reference. Unqualified names are looked up in def.
func (c *Context) FindIdentity(ref string, def *Module) *Identity {
	mod, name := splitQName(ref)
	m := def
	if mod != "" {
		m = c.ModuleByName(mod)
		if m == nil {
			m = c.ModuleByPrefix(mod)
		}
	}
	if m == nil {
		return nil
	}
	return m.Identity(name)
}

// FindNode resolves a schema path such as "/mod:top/choice/case/leaf".
// Choice, case, input and output nodes are addressed by name like any other
// node. The module prefix may be omitted on steps in the same module as
// their parent.
func (c *Context) FindNode(path string) (*Node, error) {
	steps, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	var cur *Node
	var mod *Module
	for i, st := range steps {
		if st.mod != "" {
			mod = c.ModuleByName(st.mod)
			if mod == nil {
				mod = c.ModuleByPrefix(st.mod)
			}
			if mod == nil {
				return nil, fmt.Errorf("unknown module %q in %s", st.mod, path)
			}
		} else if i == 0 {
			return nil, fmt.Errorf("first step of %s has no module", path)
		}
		var cands []*Node
		if cur == nil {
			cands = mod.Nodes()
		} else {
			cands = cur.Children
		}
		var next *Node
		for _, n := range cands {
			if n.Name == st.name && n.Module == mod {
				next = n
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("no schema node %s:%s in %s", mod.Name, st.name, path)
		}
		cur = next
	}
	return cur, nil
}
