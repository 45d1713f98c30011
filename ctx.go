package lyb

import (
	"encoding/binary"
	"errors"

	"github.com/dennwc/varint"
	"github.com/segmentio/fasthash/fnv1a"

	"github.com/signadot/lyb-format/go-lyb/input"
	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/schema"
)

// lybCtx is the state shared by the parser and the printer.
type lybCtx struct {
	sctx *schema.Context
	// mods is the module table of the document.
	mods   []*schema.Module
	modIdx map[*schema.Module]int
	tables map[*schema.Node]*sibTable
}

func newLybCtx(sctx *schema.Context) *lybCtx {
	return &lybCtx{
		sctx:   sctx,
		modIdx: map[*schema.Module]int{},
		tables: map[*schema.Node]*sibTable{},
	}
}

func (c *lybCtx) addModule(m *schema.Module) {
	if _, ok := c.modIdx[m]; ok {
		return
	}
	c.modIdx[m] = len(c.mods)
	c.mods = append(c.mods, m)
}

// siblings returns the hash table of the data children of parent, or of the
// top-level nodes of mod for a nil parent, restricted to nodes of modules in
// the module table. Tables are built once per sibling list.
func (c *lybCtx) siblings(parent *schema.Node, mod *schema.Module, output bool) (*sibTable, error) {
	all := schema.DataChildren(parent, mod, output)
	sibs := make([]*schema.Node, 0, len(all))
	for _, s := range all {
		if _, ok := c.modIdx[s.Module]; ok {
			sibs = append(sibs, s)
		}
	}
	if len(sibs) == 0 {
		return &sibTable{}, nil
	}
	if t, ok := c.tables[sibs[0]]; ok {
		return t, nil
	}
	t, err := newSibTable(sibs)
	if err != nil {
		return nil, err
	}
	c.tables[sibs[0]] = t
	return t, nil
}

// moduleHash identifies a module in the module table; 0 terminates the
// table.
func moduleHash(name string) uint32 {
	h := fnv1a.HashString32(name)
	if h == 0 {
		h = 1
	}
	return h
}

type byteSource interface {
	ReadByte() (byte, error)
	ReadFull(p []byte) error
}

type byteSink interface {
	Write(p []byte) (int, error)
	WriteByte(c byte) error
}

// rawSource reads input outside of any chunk.
type rawSource struct {
	in *input.In
}

func (r rawSource) ReadFull(p []byte) error {
	err := r.in.ReadInto(p)
	if errors.Is(err, lyerr.ErrEOD) {
		return lyerr.Wrap(lyerr.ErrFormat, err, "unexpected end of input data")
	}
	return err
}

func (r rawSource) ReadByte() (byte, error) {
	var b [1]byte
	if err := r.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeUvarint(w byteSink, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	_, err := w.Write(binary.AppendUvarint(buf[:0], v))
	return err
}

func readUvarint(r byteSource) (uint64, error) {
	var buf [binary.MaxVarintLen64]byte
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		buf[i] = b
		if b < 0x80 {
			v, n := varint.Uvarint(buf[:i+1])
			if n <= 0 {
				return 0, lyerr.New(lyerr.ErrFormat, "invalid varint %x", buf[:i+1])
			}
			return v, nil
		}
	}
	return 0, lyerr.New(lyerr.ErrFormat, "varint overflows 64 bits")
}

func writeString(w byteSink, s string) error {
	if err := writeUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

const stringChunk = 4096

func readString(r byteSource) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	var res []byte
	for n > 0 {
		k := n
		if k > stringChunk {
			k = stringChunk
		}
		buf := make([]byte, k)
		if err := r.ReadFull(buf); err != nil {
			return "", err
		}
		res = append(res, buf...)
		n -= k
	}
	return string(res), nil
}

// writeModules writes the module table.
func writeModules(w byteSink, mods []*schema.Module) error {
	var buf [4]byte
	for _, m := range mods {
		binary.BigEndian.PutUint32(buf[:], moduleHash(m.Name))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
		if err := writeString(w, m.Revision); err != nil {
			return err
		}
	}
	binary.BigEndian.PutUint32(buf[:], 0)
	_, err := w.Write(buf[:])
	return err
}

// readModules reads the module table and matches every entry against the
// schema context.
func (c *lybCtx) readModules(r byteSource) error {
	var buf [4]byte
	for {
		if err := r.ReadFull(buf[:]); err != nil {
			return err
		}
		h := binary.BigEndian.Uint32(buf[:])
		if h == 0 {
			return nil
		}
		rev, err := readString(r)
		if err != nil {
			return err
		}
		var found *schema.Module
		for _, m := range c.sctx.Modules() {
			if moduleHash(m.Name) != h || (rev != "" && m.Revision != rev) {
				continue
			}
			if found != nil {
				return lyerr.New(lyerr.ErrFormat, "module table entry %08x@%s matches modules %s and %s", h, rev, found, m)
			}
			found = m
		}
		if found == nil {
			return lyerr.New(lyerr.ErrFormat, "invalid context for LYB data parsing, module %08x@%s not found", h, rev)
		}
		if _, dup := c.modIdx[found]; dup {
			return lyerr.New(lyerr.ErrFormat, "module %s listed twice in the module table", found)
		}
		c.addModule(found)
	}
}
