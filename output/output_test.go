package output

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/signadot/lyb-format/go-lyb/lyerr"
)

// shortSink accepts room bytes, then fails writes.
type shortSink struct {
	buf  []byte
	room int
}

func (s *shortSink) Write(p []byte) (int, error) {
	n := min(len(p), s.room)
	s.buf = append(s.buf, p[:n]...)
	s.room -= n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (s *shortSink) WriteAt(p []byte, off int64) (int, error) {
	return copy(s.buf[off:], p), nil
}

func TestFlushResumesAfterShortWrite(t *testing.T) {
	s := &shortSink{room: 3}
	o := &Out{typ: TypeFile, fd: -1, dst: s, holes: map[int]int{}}
	_, err := o.Write([]byte("abcd"))
	require.NoError(t, err)
	h, err := o.Reserve(2)
	require.NoError(t, err)
	_, err = o.Write([]byte("ef"))
	require.NoError(t, err)

	err = o.Flush()
	require.ErrorIs(t, err, lyerr.ErrIO)
	require.Equal(t, []byte("abc"), s.buf)

	s.room = 100
	require.NoError(t, o.Patch(h, []byte{1, 2}))
	require.NoError(t, o.Flush())
	require.Equal(t, []byte{'a', 'b', 'c', 'd', 1, 2, 'e', 'f'}, s.buf)
	require.Equal(t, 8, o.Printed())
	require.Equal(t, 0, o.Pending())
}

func TestMemoryHoles(t *testing.T) {
	o := NewMemory()
	require.NoError(t, o.WriteByte('a'))
	h, err := o.Reserve(2)
	require.NoError(t, err)
	require.Equal(t, Hole{Offset: 1, Width: 2}, h)
	_, err = o.Write([]byte("bc"))
	require.NoError(t, err)
	require.Equal(t, 5, o.Printed())
	require.Equal(t, 1, o.Pending())

	require.NoError(t, o.Patch(h, []byte{7, 9}))
	require.Equal(t, 5, o.Printed())
	require.Equal(t, 0, o.Pending())
	require.Equal(t, []byte{'a', 7, 9, 'b', 'c'}, o.Bytes())

	// a hole is patched once
	err = o.Patch(h, []byte{1, 1})
	require.ErrorIs(t, err, lyerr.ErrInternal)
	require.NoError(t, o.Free(true))
}

func TestPatchWidth(t *testing.T) {
	o := NewMemory()
	h, err := o.Reserve(2)
	require.NoError(t, err)
	require.ErrorIs(t, o.Patch(h, []byte{1}), lyerr.ErrInternal)
	require.ErrorIs(t, o.Patch(Hole{Offset: 1, Width: 1}, []byte{1}), lyerr.ErrInternal)
	require.Equal(t, []byte{0, 0}, o.Bytes())
	require.ErrorIs(t, o.Free(false), lyerr.ErrInternal)
}

func TestHolesIsolated(t *testing.T) {
	o := NewMemory()
	a, err := o.Reserve(2)
	require.NoError(t, err)
	b, err := o.Reserve(2)
	require.NoError(t, err)
	require.NoError(t, o.Patch(b, []byte{3, 4}))
	require.NoError(t, o.Patch(a, []byte{1, 2}))
	require.Equal(t, []byte{1, 2, 3, 4}, o.Bytes())
}

func TestFilePathPatchAfterFlush(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.lyb")
	o, err := NewFilePath(p)
	require.NoError(t, err)
	require.Equal(t, p, o.FilePath())

	h, err := o.Reserve(2)
	require.NoError(t, err)
	body := make([]byte, flushSize+10)
	for i := range body {
		body[i] = byte(i)
	}
	_, err = o.Write(body)
	require.NoError(t, err)
	tail, err := o.Reserve(2)
	require.NoError(t, err)
	require.NoError(t, o.Patch(tail, []byte{0xee, 0xff}))
	require.NoError(t, o.Patch(h, []byte{0xaa, 0xbb}))
	require.NoError(t, o.Free(false))

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Len(t, got, len(body)+4)
	require.Equal(t, []byte{0xaa, 0xbb}, got[:2])
	require.Equal(t, body, got[2:len(got)-2])
	require.Equal(t, []byte{0xee, 0xff}, got[len(got)-2:])
}

func TestFileFromOffset(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.lyb")
	f, err := os.Create(p)
	require.NoError(t, err)
	_, err = f.Write([]byte("pre"))
	require.NoError(t, err)

	o, err := NewFile(f)
	require.NoError(t, err)
	h, err := o.Reserve(1)
	require.NoError(t, err)
	require.NoError(t, o.Flush())
	require.NoError(t, o.Patch(h, []byte{'!'}))
	require.NoError(t, o.WriteByte('x'))
	require.NoError(t, o.Free(false))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "pre!x", string(got))
	require.NoError(t, f.Close())
}

func TestNotSeekable(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	_, err = NewFile(w)
	require.ErrorIs(t, err, lyerr.ErrArg)
	_, err = NewFD(int(w.Fd()))
	require.ErrorIs(t, err, lyerr.ErrArg)
}

func TestFreeInvalid(t *testing.T) {
	var o Out
	require.ErrorIs(t, o.Free(true), lyerr.ErrInternal)
	_, err := o.Write([]byte{1})
	require.ErrorIs(t, err, lyerr.ErrArg)
}
