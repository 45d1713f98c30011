// Package output is the byte sink the LYB printer writes to. Besides
// sequential writes it supports reserving fixed-width holes that are filled
// in later, which is how chunk headers get their lengths once the chunk body
// has been printed.
//
// A handle is not safe for concurrent use.
package output

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/signadot/lyb-format/go-lyb/lyerr"
)

// Type is the backing kind of a handle.
type Type int

const (
	TypeError Type = iota
	TypeMemory
	TypeFD
	TypeFile
	TypeFilePath
)

func (t Type) String() string {
	switch t {
	case TypeMemory:
		return "memory"
	case TypeFD:
		return "fd"
	case TypeFile:
		return "file"
	case TypeFilePath:
		return "filepath"
	default:
		return "error"
	}
}

// Hole is a reserved region of the output, addressed by its offset from the
// first byte written to the handle.
type Hole struct {
	Offset int
	Width  int
}

// sink is what descriptor and file handles write through.
type sink interface {
	io.Writer
	io.WriterAt
}

const flushSize = 32 << 10

// Out is an output handle.
type Out struct {
	typ  Type
	fd   int
	f    *os.File
	path string

	mem []byte

	dst    sink
	origin int64
	wbuf   []byte
	base   int

	printed int
	holes   map[int]int
}

// NewMemory returns a handle writing into a growing buffer, see Bytes.
func NewMemory() *Out {
	return &Out{typ: TypeMemory, fd: -1, holes: map[int]int{}}
}

// NewFD returns a handle writing to fd from its current offset. The
// descriptor must be seekable.
func NewFD(fd int) (*Out, error) {
	if fd < 0 {
		return nil, lyerr.New(lyerr.ErrArg, "invalid file descriptor %d", fd)
	}
	origin, err := seekCurrent(fd)
	if err != nil {
		return nil, lyerr.Wrap(lyerr.ErrArg, err, "output is not seekable")
	}
	return &Out{typ: TypeFD, fd: fd, dst: newFDSink(fd), origin: origin, holes: map[int]int{}}, nil
}

// NewFile returns a handle writing to f from its current offset.
func NewFile(f *os.File) (*Out, error) {
	if f == nil {
		return nil, lyerr.New(lyerr.ErrArg, "nil output file")
	}
	origin, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, lyerr.Wrap(lyerr.ErrArg, err, "output is not seekable")
	}
	return &Out{typ: TypeFile, fd: int(f.Fd()), f: f, dst: f, origin: origin, holes: map[int]int{}}, nil
}

// NewFilePath creates or truncates path and returns a handle owning the
// descriptor.
func NewFilePath(path string) (*Out, error) {
	if path == "" {
		return nil, lyerr.New(lyerr.ErrArg, "empty output file path")
	}
	fd, err := openWrite(path)
	if err != nil {
		return nil, lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "open %s", path), "opening output")
	}
	return &Out{typ: TypeFilePath, fd: fd, path: path, dst: newFDSink(fd), holes: map[int]int{}}, nil
}

// Type returns the backing kind.
func (o *Out) Type() Type {
	if o == nil {
		return TypeError
	}
	return o.typ
}

// FilePath returns the path of a filepath handle.
func (o *Out) FilePath() string {
	if o.Type() != TypeFilePath {
		return ""
	}
	return o.path
}

// Printed returns the number of bytes written so far, reserved holes
// included.
func (o *Out) Printed() int {
	return o.printed
}

// Pending returns the number of reserved holes not yet patched.
func (o *Out) Pending() int {
	return len(o.holes)
}

// Bytes returns the contents of a memory handle, nil for other kinds.
func (o *Out) Bytes() []byte {
	if o.typ != TypeMemory {
		return nil
	}
	return o.mem
}

func (o *Out) Write(p []byte) (int, error) {
	if o.Type() == TypeError {
		return 0, lyerr.New(lyerr.ErrArg, "write to an invalid output handle")
	}
	if o.typ == TypeMemory {
		o.mem = append(o.mem, p...)
		o.printed += len(p)
		return len(p), nil
	}
	o.wbuf = append(o.wbuf, p...)
	o.printed += len(p)
	if len(o.wbuf) >= flushSize {
		if err := o.Flush(); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// WriteByte writes a single byte.
func (o *Out) WriteByte(c byte) error {
	_, err := o.Write([]byte{c})
	return err
}

// Reserve writes n zero bytes and returns the hole they form.
func (o *Out) Reserve(n int) (Hole, error) {
	if n <= 0 {
		return Hole{}, lyerr.New(lyerr.ErrArg, "reserve of %d bytes", n)
	}
	h := Hole{Offset: o.printed, Width: n}
	if _, err := o.Write(make([]byte, n)); err != nil {
		return Hole{}, err
	}
	o.holes[h.Offset] = n
	return h, nil
}

// Patch fills the pending hole h with p, which must be exactly h.Width
// bytes. Printed is not affected.
func (o *Out) Patch(h Hole, p []byte) error {
	w, ok := o.holes[h.Offset]
	if !ok || w != h.Width {
		return lyerr.New(lyerr.ErrInternal, "patch of unknown hole at offset %d", h.Offset)
	}
	if len(p) != h.Width {
		return lyerr.New(lyerr.ErrInternal, "patch of %d bytes into a hole of %d", len(p), h.Width)
	}
	switch {
	case o.typ == TypeMemory:
		copy(o.mem[h.Offset:], p)
	case h.Offset >= o.base:
		copy(o.wbuf[h.Offset-o.base:], p)
	default:
		if _, err := o.dst.WriteAt(p, o.origin+int64(h.Offset)); err != nil {
			return lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "pwrite at %d", h.Offset), "patching %s output", o.typ)
		}
	}
	delete(o.holes, h.Offset)
	return nil
}

// Flush writes buffered bytes to the descriptor or file.
func (o *Out) Flush() error {
	if o.dst == nil || len(o.wbuf) == 0 {
		return nil
	}
	n, err := o.dst.Write(o.wbuf)
	// written bytes leave the buffer even on error so a retry resumes
	o.base += n
	o.wbuf = o.wbuf[:copy(o.wbuf, o.wbuf[n:])]
	if err != nil {
		return lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "write of %d bytes", len(o.wbuf)), "flushing %s output", o.typ)
	}
	return nil
}

// Free flushes and releases the handle. With destroy a caller provided
// descriptor or file is closed too; a descriptor opened from a path is
// always closed. Unpatched holes are reported as an internal error after
// the handle has been released.
func (o *Out) Free(destroy bool) error {
	if o == nil {
		return nil
	}
	if o.typ == TypeError {
		return lyerr.New(lyerr.ErrInternal, "free of an invalid output handle")
	}
	err := o.Flush()
	pending := len(o.holes)
	var cerr error
	switch o.typ {
	case TypeFD:
		if destroy {
			cerr = closeFD(o.fd)
		}
	case TypeFile:
		if destroy {
			cerr = o.f.Close()
		}
	case TypeFilePath:
		cerr = closeFD(o.fd)
	}
	*o = Out{fd: -1}
	if err != nil {
		return err
	}
	if cerr != nil {
		return lyerr.Wrap(lyerr.ErrIO, cerr, "closing output")
	}
	if pending > 0 {
		return lyerr.New(lyerr.ErrInternal, "%d reserved holes never patched", pending)
	}
	return nil
}
