package lyb

import (
	"github.com/signadot/lyb-format/go-lyb/input"
	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/schema"
)

// ModuleTable reads the header and module table of the document at the
// cursor of in and returns the matched modules in table order. The cursor
// is left after the table.
func ModuleTable(sctx *schema.Context, in *input.In) ([]*schema.Module, error) {
	if in.Type() == input.TypeError {
		return nil, lyerr.New(lyerr.ErrArg, "parse from an invalid input handle")
	}
	if sctx == nil {
		return nil, lyerr.New(lyerr.ErrArg, "parse without a schema context")
	}
	p := &parser{lybCtx: newLybCtx(sctx)}
	in.MarkStart()
	raw := rawSource{in: in}
	if err := p.header(raw); err != nil {
		return nil, err
	}
	if err := p.readModules(raw); err != nil {
		return nil, err
	}
	return p.mods, nil
}

// NodeHash is the hash chain a schema node is printed with.
type NodeHash struct {
	Node  *schema.Node
	Chain []byte
}

// HashChains returns the hash chains of the data children of parent, or of
// the top-level nodes of mod for a nil parent, when every module of sctx is
// in the module table.
func HashChains(sctx *schema.Context, parent *schema.Node, mod *schema.Module, output bool) ([]NodeHash, error) {
	if sctx == nil {
		return nil, lyerr.New(lyerr.ErrArg, "hash chains without a schema context")
	}
	c := newLybCtx(sctx)
	for _, m := range sctx.Modules() {
		c.addModule(m)
	}
	t, err := c.siblings(parent, mod, output)
	if err != nil {
		return nil, err
	}
	res := make([]NodeHash, 0, len(t.nodes))
	for _, n := range t.nodes {
		res = append(res, NodeHash{Node: n, Chain: t.chain(n)})
	}
	return res, nil
}
