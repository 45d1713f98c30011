package tree

import (
	"fmt"
	"strings"

	"github.com/signadot/lyb-format/go-lyb/schema"
)

// Resolve validates the value of an incomplete term against the finished
// forest it belongs to.
func Resolve(n *Node, forest []*Node) error {
	return resolveValue(n.Schema.Type, n.Value, n.Schema.Module, n, forest, func(id *schema.Identity, target *Node) {
		n.Ident = id
		n.Target = target
	})
}

// ResolveMeta is Resolve for metadata values.
func ResolveMeta(m *Meta, forest []*Node) error {
	return resolveValue(m.Annotation.Type, m.Value, m.Annotation.Module, m.Parent, forest, func(id *schema.Identity, _ *Node) {
		m.Ident = id
	})
}

func resolveValue(t *schema.Type, v string, mod *schema.Module, ctxNode *Node, forest []*Node, set func(*schema.Identity, *Node)) error {
	switch t.Base {
	case schema.BaseIdentityRef:
		if mod.Context() == nil {
			return fmt.Errorf("module %s is not in a context", mod.Name)
		}
		id := mod.Context().FindIdentity(v, mod)
		if id == nil {
			return fmt.Errorf("identity %q not found", v)
		}
		if len(t.Bases) > 0 {
			ok := false
			for _, b := range t.Bases {
				if id != b && id.DerivedFrom(b) {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("identity %s is not derived from the required base", id)
			}
		}
		set(id, nil)
		return nil

	case schema.BaseLeafRef:
		targets, err := Select(ctxNode, t.Path, forest)
		if err != nil {
			return err
		}
		for _, tn := range targets {
			if tn.Schema.IsTerm() && tn.Value == v {
				set(nil, tn)
				return nil
			}
		}
		return fmt.Errorf("no leafref target %s with value %q", t.Path, v)

	case schema.BaseInstanceID:
		targets, err := Select(ctxNode, v, forest)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("instance %s not found", v)
		}
		set(nil, targets[0])
		return nil

	case schema.BaseUnion:
		for _, m := range t.Members {
			if m.Check(v) != nil {
				continue
			}
			if !m.NeedsTree() {
				return nil
			}
			if resolveValue(m, v, mod, ctxNode, forest, set) == nil {
				return nil
			}
		}
		return fmt.Errorf("value %q resolves for no union member", v)
	}
	return t.Check(v)
}

type step struct {
	mod   string
	name  string
	preds []pred
}

type pred struct {
	key   string
	value string
}

// Select evaluates a data path against forest. Absolute paths start at the
// top-level nodes; relative ones at from, where ".." moves to the parent.
// Steps may carry "[key='value']" and "[.='value']" predicates.
func Select(from *Node, path string, forest []*Node) ([]*Node, error) {
	steps, abs, err := parseSteps(path)
	if err != nil {
		return nil, err
	}
	var cur []*Node
	if abs {
		cur = nil
	} else {
		if from == nil {
			return nil, fmt.Errorf("relative path %s without a context node", path)
		}
		cur = []*Node{from}
	}
	for i, st := range steps {
		var next []*Node
		switch {
		case st.name == "..":
			for _, n := range cur {
				if n.Parent != nil {
					next = appendUnique(next, n.Parent)
				}
			}
		case st.name == ".":
			next = cur
		default:
			var cands []*Node
			if abs && i == 0 {
				cands = forest
			} else {
				for _, n := range cur {
					cands = append(cands, n.Children...)
				}
			}
			for _, c := range cands {
				if st.matches(c) {
					next = append(next, c)
				}
			}
		}
		cur = next
	}
	return cur, nil
}

func appendUnique(ns []*Node, n *Node) []*Node {
	for _, have := range ns {
		if have == n {
			return ns
		}
	}
	return append(ns, n)
}

func (st *step) matches(n *Node) bool {
	s := n.Schema
	if s.Name != st.name {
		return false
	}
	if st.mod != "" && s.Module.Name != st.mod && s.Module.Prefix != st.mod {
		return false
	}
	for _, p := range st.preds {
		if p.key == "." {
			if n.Value != p.value {
				return false
			}
			continue
		}
		k := n.Child(p.key)
		if k == nil || k.Value != p.value {
			return false
		}
	}
	return true
}

func parseSteps(path string) ([]step, bool, error) {
	abs := strings.HasPrefix(path, "/")
	if abs {
		path = path[1:]
	}
	var parts []string
	var quoteCh byte
	depth, start := 0, 0
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case quoteCh != 0:
			if c == quoteCh {
				quoteCh = 0
			}
		case c == '\'' || c == '"':
			quoteCh = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '/' && depth == 0:
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	if quoteCh != 0 || depth != 0 {
		return nil, false, fmt.Errorf("unbalanced path %q", path)
	}
	parts = append(parts, path[start:])
	steps := make([]step, 0, len(parts))
	for _, p := range parts {
		st, err := parseStep(p)
		if err != nil {
			return nil, false, fmt.Errorf("path %q: %w", path, err)
		}
		steps = append(steps, st)
	}
	return steps, abs, nil
}

func parseStep(p string) (step, error) {
	st := step{}
	head, rest, _ := strings.Cut(p, "[")
	if head == "" {
		return st, fmt.Errorf("empty step")
	}
	if m, n, ok := strings.Cut(head, ":"); ok {
		st.mod, st.name = m, n
	} else {
		st.name = head
	}
	for rest != "" {
		body, after, ok := cutPredicate(rest)
		if !ok {
			return st, fmt.Errorf("malformed predicate in %q", p)
		}
		k, v, ok := strings.Cut(body, "=")
		if !ok {
			return st, fmt.Errorf("predicate %q has no value", body)
		}
		k = strings.TrimSpace(k)
		if _, name, ok := strings.Cut(k, ":"); ok {
			k = name
		}
		v = strings.TrimSpace(v)
		if len(v) < 2 || (v[0] != '\'' && v[0] != '"') || v[len(v)-1] != v[0] {
			return st, fmt.Errorf("predicate value %s is not quoted", v)
		}
		st.preds = append(st.preds, pred{key: k, value: v[1 : len(v)-1]})
		rest = strings.TrimPrefix(after, "[")
		if after != "" && !strings.HasPrefix(after, "[") {
			return st, fmt.Errorf("trailing %q after predicate", after)
		}
	}
	return st, nil
}

// cutPredicate splits "k='v']rest" at the closing bracket outside quotes.
func cutPredicate(s string) (body, rest string, ok bool) {
	var quoteCh byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoteCh != 0:
			if c == quoteCh {
				quoteCh = 0
			}
		case c == '\'' || c == '"':
			quoteCh = c
		case c == ']':
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
