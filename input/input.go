// Package input unifies the byte sources the LYB parser reads from: an
// in-memory buffer, a memory-mapped file descriptor, a file handle and a
// file path, behind one bounded read/skip/peek/reset interface.
//
// A handle is not safe for concurrent use.
package input

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/signadot/lyb-format/go-lyb/lyerr"
)

// Type is the backing store kind of a handle.
type Type int

const (
	// TypeError is the zero value: a freed or never initialized handle.
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

// In is an input handle.
type In struct {
	typ  Type
	fd   int
	f    *os.File
	path string

	// data is the mapped region, the borrowed memory or, for streams, every
	// byte read from the stream so far.
	data   []byte
	mapped bool
	stream *bufio.Reader

	cur       int
	funcStart int
}

const streamChunk = 4096

// NewMemory creates a handle reading data. The caller keeps ownership of
// data unless the handle is freed with destroy.
func NewMemory(data []byte) (*In, error) {
	if data == nil {
		return nil, lyerr.New(lyerr.ErrArg, "nil input memory")
	}
	return &In{typ: TypeMemory, fd: -1, data: data}, nil
}

// NewFD creates a handle reading the memory-mapped contents of fd.
func NewFD(fd int) (*In, error) {
	if fd < 0 {
		return nil, lyerr.New(lyerr.ErrArg, "invalid file descriptor %d", fd)
	}
	data, err := mapFD(fd)
	if err != nil {
		return nil, err
	}
	return &In{typ: TypeFD, fd: fd, data: data, mapped: true}, nil
}

// NewFile creates a handle reading f. Regular files are memory-mapped;
// other descriptors (pipes, sockets, terminals) are read as an unbounded
// buffered stream.
func NewFile(f *os.File) (*In, error) {
	if f == nil {
		return nil, lyerr.New(lyerr.ErrArg, "nil input file")
	}
	in := &In{typ: TypeFile, fd: int(f.Fd()), f: f}
	if err := in.attachFile(f); err != nil {
		return nil, err
	}
	return in, nil
}

// NewFilePath opens path read-only and creates a handle owning the
// descriptor.
func NewFilePath(path string) (*In, error) {
	if path == "" {
		return nil, lyerr.New(lyerr.ErrArg, "empty input file path")
	}
	fd, err := openRead(path)
	if err != nil {
		return nil, err
	}
	data, err := mapFD(fd)
	if err != nil {
		closeFD(fd)
		return nil, err
	}
	return &In{typ: TypeFilePath, fd: fd, path: path, data: data, mapped: true}, nil
}

func (in *In) attachFile(f *os.File) error {
	fd := int(f.Fd())
	regular, err := isRegular(fd)
	if err != nil {
		return err
	}
	if !regular {
		in.data = []byte{}
		in.mapped = false
		in.stream = bufio.NewReader(f)
		return nil
	}
	data, err := mapFD(fd)
	if err != nil {
		return err
	}
	in.data = data
	in.mapped = true
	in.stream = nil
	return nil
}

// Type returns the backing store kind.
func (in *In) Type() Type {
	if in == nil {
		return TypeError
	}
	return in.typ
}

// Len returns the total input length, 0 for unbounded streams.
func (in *In) Len() int {
	if in.stream != nil {
		return 0
	}
	return len(in.data)
}

// Remaining returns the number of unread bytes, -1 for unbounded streams.
func (in *In) Remaining() int {
	if in.stream != nil {
		return -1
	}
	return len(in.data) - in.cur
}

// Parsed returns the number of bytes consumed since the last MarkStart or
// Reset.
func (in *In) Parsed() int {
	return in.cur - in.funcStart
}

// MarkStart marks the current position as the start of a top-level
// operation, see Parsed.
func (in *In) MarkStart() {
	in.funcStart = in.cur
}

// Reset moves the cursor back to the start of the input so the same bytes
// can be parsed again.
func (in *In) Reset() error {
	if in.Type() == TypeError {
		return lyerr.New(lyerr.ErrArg, "reset of an invalid input handle")
	}
	in.cur = 0
	in.funcStart = 0
	return nil
}

// fill makes sure n unread bytes are available.
func (in *In) fill(n int) error {
	if in.typ == TypeError {
		return lyerr.New(lyerr.ErrArg, "read from an invalid input handle")
	}
	if len(in.data)-in.cur >= n {
		return nil
	}
	if in.stream == nil {
		return lyerr.ErrEOD
	}
	for len(in.data)-in.cur < n {
		want := n - (len(in.data) - in.cur)
		if want < streamChunk {
			want = streamChunk
		}
		buf := make([]byte, want)
		m, err := in.stream.Read(buf)
		in.data = append(in.data, buf[:m]...)
		if err == io.EOF {
			if len(in.data)-in.cur < n {
				return lyerr.ErrEOD
			}
			return nil
		}
		if err != nil {
			return lyerr.Wrap(lyerr.ErrIO, errors.Wrap(err, "read input stream"), "reading %s input", in.typ)
		}
	}
	return nil
}

// ReadInto copies exactly len(buf) bytes and advances the cursor. If fewer
// bytes remain it returns lyerr.ErrEOD and the cursor does not move.
func (in *In) ReadInto(buf []byte) error {
	if err := in.fill(len(buf)); err != nil {
		return err
	}
	copy(buf, in.data[in.cur:])
	in.cur += len(buf)
	return nil
}

// ReadByte reads one byte.
func (in *In) ReadByte() (byte, error) {
	if err := in.fill(1); err != nil {
		return 0, err
	}
	b := in.data[in.cur]
	in.cur++
	return b, nil
}

// Skip advances the cursor by n bytes with the same bounds as ReadInto.
func (in *In) Skip(n int) error {
	if n < 0 {
		return lyerr.New(lyerr.ErrArg, "negative skip %d", n)
	}
	if err := in.fill(n); err != nil {
		return err
	}
	in.cur += n
	return nil
}

// Peek returns the next n bytes without advancing. The returned slice is
// only valid until the next call on the handle.
func (in *In) Peek(n int) ([]byte, error) {
	if err := in.fill(n); err != nil {
		return nil, err
	}
	return in.data[in.cur : in.cur+n], nil
}

// SetMemory replaces the buffer of a memory handle and returns the unread
// part of the previous one. A nil data only returns the unread part.
func (in *In) SetMemory(data []byte) ([]byte, error) {
	if in.Type() != TypeMemory {
		return nil, lyerr.New(lyerr.ErrArg, "input handle is %s, not memory", in.Type())
	}
	prev := in.data[in.cur:]
	if data != nil {
		in.data = data
		in.cur = 0
		in.funcStart = 0
	}
	return prev, nil
}

// SetFD replaces the descriptor of an fd handle and returns the previous
// one. fd -1 only returns the current descriptor. On failure the handle
// keeps reading the previous mapping.
func (in *In) SetFD(fd int) (int, error) {
	if in.Type() != TypeFD {
		return -1, lyerr.New(lyerr.ErrArg, "input handle is %s, not fd", in.Type())
	}
	prev := in.fd
	if fd == -1 {
		return prev, nil
	}
	if err := in.remap(fd); err != nil {
		return -1, err
	}
	return prev, nil
}

// SetFile replaces the file of a file handle and returns the previous one.
// A nil f only returns the current file.
func (in *In) SetFile(f *os.File) (*os.File, error) {
	if in.Type() != TypeFile {
		return nil, lyerr.New(lyerr.ErrArg, "input handle is %s, not file", in.Type())
	}
	prev := in.f
	if f == nil {
		return prev, nil
	}
	repl := &In{typ: TypeFile, fd: int(f.Fd()), f: f}
	if err := repl.attachFile(f); err != nil {
		return nil, err
	}
	in.unmap()
	*in = *repl
	return prev, nil
}

// FilePath returns the path of a filepath handle.
func (in *In) FilePath() string {
	if in.Type() != TypeFilePath {
		return ""
	}
	return in.path
}

// SetFilePath makes a filepath handle read another file. The previous
// descriptor, which the handle opened itself, is closed.
func (in *In) SetFilePath(path string) error {
	if in.Type() != TypeFilePath {
		return lyerr.New(lyerr.ErrArg, "input handle is %s, not filepath", in.Type())
	}
	if path == "" {
		return lyerr.New(lyerr.ErrArg, "empty input file path")
	}
	fd, err := openRead(path)
	if err != nil {
		return err
	}
	prev := in.fd
	if err := in.remap(fd); err != nil {
		closeFD(fd)
		return err
	}
	closeFD(prev)
	in.path = path
	return nil
}

// remap maps fd and, only once that succeeded, drops the current mapping.
func (in *In) remap(fd int) error {
	data, err := mapFD(fd)
	if err != nil {
		return err
	}
	in.unmap()
	in.fd = fd
	in.data = data
	in.mapped = true
	in.cur = 0
	in.funcStart = 0
	return nil
}

func (in *In) unmap() {
	if in.mapped {
		unmapData(in.data)
	}
	in.mapped = false
	in.data = nil
}

// Free releases the handle. With destroy the backing resource is released
// too: the descriptor or file is closed and memory is dropped. Without it
// only what the handle created itself (mapping, descriptor opened from a
// path) is released. Freeing a nil handle is a no-op; freeing an invalid one
// is an internal error.
func (in *In) Free(destroy bool) error {
	if in == nil {
		return nil
	}
	if in.typ == TypeError {
		return lyerr.New(lyerr.ErrInternal, "free of an invalid input handle")
	}
	var err error
	in.unmap()
	switch in.typ {
	case TypeFD:
		if destroy {
			err = closeFD(in.fd)
		}
	case TypeFile:
		if destroy {
			err = in.f.Close()
		}
	case TypeFilePath:
		err = closeFD(in.fd)
	}
	*in = In{fd: -1}
	if err != nil {
		return lyerr.Wrap(lyerr.ErrIO, err, "closing input")
	}
	return nil
}
