package lyb

import (
	"github.com/signadot/lyb-format/go-lyb/debug"
	"github.com/signadot/lyb-format/go-lyb/input"
	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/schema"
	"github.com/signadot/lyb-format/go-lyb/tree"
)

type parseMode int

const (
	modeData parseMode = iota
	modeRPC
	modeReply
	modeNotif
)

type parser struct {
	*lybCtx
	cfg  *ParseConfig
	mode parseMode
	r    *frameReader

	forest []*tree.Node
	// op is the rpc, action or notification node of an operation.
	op *tree.Node

	unresNodes []*tree.Node
	unresMeta  []*tree.Meta
	whens      []*tree.Node
}

// ParseData parses an LYB data tree from in. On failure no tree is
// returned.
func ParseData(sctx *schema.Context, in *input.In, opts ...ParseOption) ([]*tree.Node, error) {
	forest, _, err := parse(sctx, in, modeData, opts)
	return forest, err
}

// ParseRPC parses the input of an rpc or action. op is the operation node;
// for actions the forest holds the data nodes it is nested in.
func ParseRPC(sctx *schema.Context, in *input.In, opts ...ParseOption) (forest []*tree.Node, op *tree.Node, err error) {
	return parse(sctx, in, modeRPC, opts)
}

// ParseReply parses the output of an rpc or action.
func ParseReply(sctx *schema.Context, in *input.In, opts ...ParseOption) (forest []*tree.Node, op *tree.Node, err error) {
	return parse(sctx, in, modeReply, opts)
}

// ParseNotification parses a notification.
func ParseNotification(sctx *schema.Context, in *input.In, opts ...ParseOption) (forest []*tree.Node, op *tree.Node, err error) {
	return parse(sctx, in, modeNotif, opts)
}

func parse(sctx *schema.Context, in *input.In, mode parseMode, opts []ParseOption) ([]*tree.Node, *tree.Node, error) {
	cfg := parseConfig(opts)
	p := &parser{cfg: cfg, mode: mode}
	if err := p.run(sctx, in); err != nil {
		cfg.Log.Err(err)
		return nil, nil, err
	}
	return p.forest, p.op, nil
}

func (p *parser) run(sctx *schema.Context, in *input.In) error {
	if in.Type() == input.TypeError {
		return lyerr.New(lyerr.ErrArg, "parse from an invalid input handle")
	}
	if sctx == nil {
		return lyerr.New(lyerr.ErrArg, "parse without a schema context")
	}
	p.lybCtx = newLybCtx(sctx)
	p.r = newFrameReader(in)
	in.MarkStart()

	raw := rawSource{in: in}
	if err := p.header(raw); err != nil {
		return err
	}
	if err := p.readModules(raw); err != nil {
		return err
	}
	if err := p.r.open(); err != nil {
		return err
	}
	for {
		more, err := p.r.more()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if err := p.subtree(nil); err != nil {
			return err
		}
	}
	if err := p.r.close(); err != nil {
		return err
	}
	if p.mode != modeData && p.op == nil {
		return lyerr.Val(lyerr.CodeData, "", "Missing the operation node.")
	}
	if p.cfg.ParseOnly {
		return nil
	}
	return p.resolve()
}

func (p *parser) header(r byteSource) error {
	var buf [len(magic) + 1]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return err
	}
	if string(buf[:len(magic)]) != magic {
		return lyerr.New(lyerr.ErrFormat, "invalid LYB magic %q", buf[:len(magic)])
	}
	if v := buf[len(magic)]; v&versionMask != versionNum {
		return lyerr.New(lyerr.ErrVersion, "invalid LYB format version 0x%02x, expected 0x%02x", v&versionMask, versionNum)
	}
	return nil
}

// hashChain reads a schema hash chain.
func (p *parser) hashChain() ([]byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return nil, err
	}
	c := chainColID(b)
	if c < 0 {
		return nil, lyerr.New(lyerr.ErrFormat, "invalid schema hash 0x00")
	}
	chain := make([]byte, c+1)
	chain[0] = b
	if err := p.r.ReadFull(chain[1:]); err != nil {
		return nil, err
	}
	for i := 1; i <= c; i++ {
		// the hash for collision ID k has its highest bit at position k
		k := c - i
		if chain[i]>>(hashBits-1-k) != 1 {
			return nil, lyerr.New(lyerr.ErrFormat, "invalid schema hash chain %x", chain)
		}
	}
	return chain, nil
}

func (p *parser) schemaNode(parent *tree.Node, mod *schema.Module) (*schema.Node, error) {
	var sparent *schema.Node
	where := ""
	if parent != nil {
		sparent = parent.Schema
		where = parent.Path()
	}
	output := p.mode == modeReply && sparent != nil && (sparent.Kind == schema.KindRPC || sparent.Kind == schema.KindAction)
	t, err := p.siblings(sparent, mod, output)
	if err != nil {
		return nil, err
	}
	chain, err := p.hashChain()
	if err != nil {
		return nil, err
	}
	switch ms := t.lookup(chain); len(ms) {
	case 0:
		return nil, lyerr.Val(lyerr.CodeHash, where, "Failed to find matching hash %x for a schema node.", chain)
	case 1:
		if debug.Hash() {
			debug.Logf("lyb hash %x resolved to %s\n", chain, ms[0].Path())
		}
		return ms[0], nil
	default:
		return nil, lyerr.Val(lyerr.CodeHash, where, "Schema hash %x matches both \"%s\" and \"%s\".", chain, ms[0].Name, ms[1].Name)
	}
}

func kindLabel(s *schema.Node) string {
	switch s.Kind {
	case schema.KindRPC:
		return "RPC"
	case schema.KindAction:
		return "action"
	case schema.KindNotification:
		return "notification"
	}
	return s.Kind.String()
}

// checkSchema applies the structural checks done while parsing.
func (p *parser) checkSchema(s *schema.Node) error {
	if p.cfg.NoState && s.IsState() {
		return lyerr.Val(lyerr.CodeInNode, s.Path(), "Invalid state data node \"%s\" found.", s.Name)
	}
	var allowed bool
	switch s.Kind {
	case schema.KindRPC, schema.KindAction:
		allowed = p.mode == modeRPC || p.mode == modeReply
	case schema.KindNotification:
		allowed = p.mode == modeNotif
	default:
		return nil
	}
	if !allowed {
		return lyerr.Val(lyerr.CodeData, s.Path(), "Unexpected %s element \"%s\".", kindLabel(s), s.Name)
	}
	if p.op != nil {
		return lyerr.Val(lyerr.CodeData, s.Path(), "Unexpected %s element \"%s\", %s \"%s\" already parsed.",
			kindLabel(s), s.Name, kindLabel(p.op.Schema), p.op.Schema.Name)
	}
	return nil
}

type rawMeta struct {
	ann   *schema.Annotation
	value string
}

func (p *parser) meta(s *schema.Node) ([]rawMeta, error) {
	count, err := readUvarint(p.r)
	if err != nil {
		return nil, err
	}
	var res []rawMeta
	for i := uint64(0); i < count; i++ {
		mod, err := p.module()
		if err != nil {
			return nil, err
		}
		name, err := readString(p.r)
		if err != nil {
			return nil, err
		}
		value, err := readString(p.r)
		if err != nil {
			return nil, err
		}
		ann := mod.Annotation(name)
		if ann == nil {
			return nil, lyerr.Val(lyerr.CodeReference, s.Path(), "Annotation definition for attribute \"%s:%s\" not found.", mod.Name, name)
		}
		res = append(res, rawMeta{ann: ann, value: value})
	}
	return res, nil
}

func (p *parser) module() (*schema.Module, error) {
	idx, err := readUvarint(p.r)
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(p.mods)) {
		return nil, lyerr.New(lyerr.ErrFormat, "module index %d out of range of %d modules", idx, len(p.mods))
	}
	return p.mods[idx], nil
}

func (p *parser) subtree(parent *tree.Node) error {
	if err := p.r.open(); err != nil {
		return err
	}
	var mod *schema.Module
	if parent == nil {
		var err error
		if mod, err = p.module(); err != nil {
			return err
		}
	}
	s, err := p.schemaNode(parent, mod)
	if err != nil {
		return err
	}
	if err := p.checkSchema(s); err != nil {
		return err
	}
	flags, err := p.r.ReadByte()
	if err != nil {
		return err
	}
	metas, err := p.meta(s)
	if err != nil {
		return err
	}
	n, err := p.node(s)
	if err != nil {
		return err
	}
	if flags&nodeFlagDefault != 0 {
		n.Flags |= tree.FlagDefault
	}
	if parent == nil {
		p.forest = append(p.forest, n)
	} else if err := tree.Insert(parent, n); err != nil {
		return err
	}
	for _, rm := range metas {
		m, incomplete, err := tree.CreateMeta(n, rm.ann, rm.value)
		if err != nil {
			return err
		}
		if incomplete && !p.cfg.ParseOnly {
			p.unresMeta = append(p.unresMeta, m)
		}
	}
	if s.IsOperation() {
		p.op = n
	}
	if !p.cfg.ParseOnly && len(s.Conditions()) > 0 {
		p.whens = append(p.whens, n)
	}
	if !s.IsTerm() && !s.IsAny() {
		for {
			more, err := p.r.more()
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if err := p.subtree(n); err != nil {
				return err
			}
		}
	}
	return p.r.close()
}

func (p *parser) node(s *schema.Node) (*tree.Node, error) {
	switch {
	case s.IsTerm():
		v, err := readString(p.r)
		if err != nil {
			return nil, err
		}
		n, incomplete, err := tree.CreateTerm(s, v)
		if err != nil {
			return nil, err
		}
		if incomplete && !p.cfg.ParseOnly {
			p.unresNodes = append(p.unresNodes, n)
		}
		return n, nil
	case s.IsAny():
		k, err := p.r.ReadByte()
		if err != nil {
			return nil, err
		}
		v, err := readString(p.r)
		if err != nil {
			return nil, err
		}
		return tree.CreateAny(s, tree.AnyValue{Kind: tree.AnyKind(k), Value: v})
	default:
		return tree.CreateInner(s)
	}
}

func resolveCode(t *schema.Type) lyerr.Code {
	if t.Base == schema.BaseIdentityRef {
		return lyerr.CodeType
	}
	return lyerr.CodeReference
}

// resolve processes the deferred work: incomplete values in insertion
// order, then incomplete metadata, then when conditions.
func (p *parser) resolve() error {
	for _, n := range p.unresNodes {
		if debug.Unres() {
			debug.Logf("lyb resolve value %s = %q\n", n.Path(), n.Value)
		}
		if err := tree.Resolve(n, p.forest); err != nil {
			return lyerr.Deferred(resolveCode(n.Schema.Type), n.Path(), "Invalid value \"%s\" of %s: %v.", n.Value, n.Schema.Name, err)
		}
	}
	for _, m := range p.unresMeta {
		if debug.Unres() {
			debug.Logf("lyb resolve metadata %s of %s = %q\n", m.Name(), m.Parent.Path(), m.Value)
		}
		if err := tree.ResolveMeta(m, p.forest); err != nil {
			return lyerr.Deferred(resolveCode(m.Annotation.Type), m.Parent.Path(), "Invalid value \"%s\" of metadata %s: %v.", m.Value, m.Name(), err)
		}
	}
	for _, n := range p.whens {
		for _, cond := range n.Schema.Conditions() {
			if debug.Unres() {
				debug.Logf("lyb when %s: %s\n", n.Path(), cond)
			}
			ok, err := p.cfg.When.Eval(cond, n, p.forest)
			if err != nil {
				return lyerr.Deferred(lyerr.CodeWhen, n.Path(), "Failed to evaluate when condition \"%s\": %v.", cond, err)
			}
			if !ok {
				return lyerr.Val(lyerr.CodeWhen, n.Path(), "When condition \"%s\" not satisfied.", cond)
			}
		}
	}
	return nil
}
