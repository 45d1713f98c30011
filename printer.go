package lyb

import (
	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/output"
	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

type printer struct {
	*lybCtx
	cfg *PrintConfig
	w   *frameWriter
}

// Print writes forest to out as an LYB document. Every node must belong to
// a module of sctx. If printing fails the bytes already written to out are
// unusable.
func Print(out *output.Out, sctx *schema.Context, forest []*tree.Node, opts ...PrintOption) error {
	cfg := printConfig(opts)
	err := printForest(out, sctx, forest, cfg)
	if err != nil {
		cfg.Log.Err(err)
	}
	return err
}

func printForest(out *output.Out, sctx *schema.Context, forest []*tree.Node, cfg *PrintConfig) error {
	if out.Type() == output.TypeError {
		return lyerr.New(lyerr.ErrArg, "print to an invalid output handle")
	}
	if sctx == nil {
		return lyerr.New(lyerr.ErrArg, "print without a schema context")
	}
	p := &printer{lybCtx: newLybCtx(sctx), cfg: cfg, w: newFrameWriter(out)}
	if err := p.collectModules(forest); err != nil {
		return err
	}
	if _, err := out.Write([]byte(magic)); err != nil {
		return err
	}
	if err := out.WriteByte(versionNum); err != nil {
		return err
	}
	if err := writeModules(out, p.mods); err != nil {
		return err
	}
	if err := p.w.open(); err != nil {
		return err
	}
	for _, n := range forest {
		if p.skip(n) {
			continue
		}
		if err := p.subtree(n, true); err != nil {
			return err
		}
	}
	if err := p.w.close(); err != nil {
		return err
	}
	return out.Flush()
}

func (p *printer) skip(n *tree.Node) bool {
	return p.cfg.Defaults == DefaultsTrim && n.Flags&tree.FlagDefault != 0
}

// collectModules builds the module table from the modules of every printed
// node and metadata instance, in first-seen order.
func (p *printer) collectModules(forest []*tree.Node) error {
	var walk func([]*tree.Node) error
	walk = func(ns []*tree.Node) error {
		for _, n := range ns {
			if p.skip(n) {
				continue
			}
			if n.Schema == nil || n.Schema.Module == nil {
				return lyerr.New(lyerr.ErrArg, "data node without schema")
			}
			if n.Schema.Module.Context() != p.sctx {
				return lyerr.New(lyerr.ErrArg, "module %s of %s is not in the printing context", n.Schema.Module, n.Path())
			}
			p.addModule(n.Schema.Module)
			for _, m := range n.Meta {
				if m.Annotation == nil || m.Annotation.Module == nil {
					return lyerr.New(lyerr.ErrArg, "metadata of %s without annotation", n.Path())
				}
				if m.Annotation.Module.Context() != p.sctx {
					return lyerr.New(lyerr.ErrArg, "module %s of metadata %s on %s is not in the printing context", m.Annotation.Module, m.Annotation.Name, n.Path())
				}
				p.addModule(m.Annotation.Module)
			}
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(forest)
}

// underOutput reports whether s is an output parameter of an rpc or action.
func underOutput(s *schema.Node) bool {
	for p := s.Parent; p != nil && !p.IsData(); p = p.Parent {
		if p.Kind == schema.KindOutput {
			return true
		}
	}
	return false
}

func (p *printer) subtree(n *tree.Node, top bool) error {
	if err := p.w.open(); err != nil {
		return err
	}
	s := n.Schema
	var parent *schema.Node
	if top {
		if err := writeUvarint(p.w, uint64(p.modIdx[s.Module])); err != nil {
			return err
		}
	} else {
		parent = n.Parent.Schema
	}
	t, err := p.siblings(parent, s.Module, underOutput(s))
	if err != nil {
		return err
	}
	chain := t.chain(s)
	if chain == nil {
		return lyerr.New(lyerr.ErrInternal, "schema node %s missing from its sibling hash table", s.Path())
	}
	if _, err := p.w.Write(chain); err != nil {
		return err
	}
	var flags byte
	if n.Flags&tree.FlagDefault != 0 {
		flags |= nodeFlagDefault
	}
	if err := p.w.WriteByte(flags); err != nil {
		return err
	}
	if err := p.meta(n); err != nil {
		return err
	}
	switch {
	case s.IsTerm():
		err = writeString(p.w, n.Value)
	case s.IsAny():
		if err = p.w.WriteByte(byte(n.Any.Kind)); err == nil {
			err = writeString(p.w, n.Any.Value)
		}
	default:
		for _, c := range n.Children {
			if p.skip(c) {
				continue
			}
			if err = p.subtree(c, false); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}
	return p.w.close()
}

func (p *printer) meta(n *tree.Node) error {
	if err := writeUvarint(p.w, uint64(len(n.Meta))); err != nil {
		return err
	}
	for _, m := range n.Meta {
		if err := writeUvarint(p.w, uint64(p.modIdx[m.Annotation.Module])); err != nil {
			return err
		}
		if err := writeString(p.w, m.Annotation.Name); err != nil {
			return err
		}
		if err := writeString(p.w, m.Value); err != nil {
			return err
		}
	}
	return nil
}
