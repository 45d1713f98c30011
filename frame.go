package lyb

import (
	"errors"

	"github.com/signadot/lyb-format/go-lyb/debug"
	"github.com/signadot/lyb-format/go-lyb/input"
	"github.com/signadot/lyb-format/go-lyb/lyerr"
	"github.com/signadot/lyb-format/go-lyb/output"
)

// Chunk framing.
//
// A chunk is a sequence of segments, each preceded by a header
//
//	[inner][length]
//
// length counts the bytes of the segment: content and the complete header
// and body of every chunk nested in it. inner is the number of nested chunk
// headers that start in the segment. A segment of length >= contLen is
// always followed by the header of the next segment of the same chunk; a
// shorter one ends the chunk. Continuation headers are not counted by any
// chunk.
//
// The writer continues chunks lazily, innermost first: before writing
// content every open chunk without room left is continued, before opening
// a nested chunk every open chunk with less than metaBytes left. A chunk
// closed with a segment of length >= contLen gets an empty final segment.
// The reader consumes continuation headers in the same order: before any
// counted read for all chunks, when checking for more content or closing
// only for the innermost one.

type wframe struct {
	hole    output.Hole
	written int
	inner   int
}

type frameWriter struct {
	out    *output.Out
	frames []*wframe
}

func newFrameWriter(out *output.Out) *frameWriter {
	return &frameWriter{out: out}
}

func (w *frameWriter) depth() int {
	return len(w.frames)
}

// open starts a chunk nested in the current one.
func (w *frameWriter) open() error {
	for i := len(w.frames) - 1; i >= 0; i-- {
		if sizeMax-w.frames[i].written < metaBytes {
			if err := w.cont(i); err != nil {
				return err
			}
		}
	}
	if n := len(w.frames); n > 0 {
		w.frames[n-1].inner++
	}
	h, err := w.out.Reserve(metaBytes)
	if err != nil {
		return err
	}
	for _, f := range w.frames {
		f.written += metaBytes
	}
	w.frames = append(w.frames, &wframe{hole: h})
	if debug.Frame() {
		debug.Logf("lyb frame open depth %d at %d\n", len(w.frames), h.Offset)
	}
	return nil
}

// Write writes chunk content.
func (w *frameWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		for i := len(w.frames) - 1; i >= 0; i-- {
			if w.frames[i].written == sizeMax {
				if err := w.cont(i); err != nil {
					return total - len(p), err
				}
			}
		}
		k := len(p)
		for _, f := range w.frames {
			if room := sizeMax - f.written; room < k {
				k = room
			}
		}
		if _, err := w.out.Write(p[:k]); err != nil {
			return total - len(p), err
		}
		for _, f := range w.frames {
			f.written += k
		}
		p = p[k:]
	}
	return total, nil
}

func (w *frameWriter) WriteByte(c byte) error {
	_, err := w.Write([]byte{c})
	return err
}

// cont ends the current segment of frame i and starts a new one.
func (w *frameWriter) cont(i int) error {
	f := w.frames[i]
	if err := w.patch(f); err != nil {
		return err
	}
	h, err := w.out.Reserve(metaBytes)
	if err != nil {
		return err
	}
	if debug.Frame() {
		debug.Logf("lyb frame continue depth %d after %d bytes at %d\n", i+1, f.written, h.Offset)
	}
	f.hole = h
	f.written = 0
	f.inner = 0
	return nil
}

func (w *frameWriter) patch(f *wframe) error {
	return w.out.Patch(f.hole, []byte{byte(f.inner), byte(f.written)})
}

// close ends the current chunk.
func (w *frameWriter) close() error {
	n := len(w.frames)
	if n == 0 {
		return lyerr.New(lyerr.ErrInternal, "close of a chunk that was never opened")
	}
	f := w.frames[n-1]
	if f.written >= contLen {
		if err := w.cont(n - 1); err != nil {
			return err
		}
	}
	if err := w.patch(f); err != nil {
		return err
	}
	if debug.Frame() {
		debug.Logf("lyb frame close depth %d inner %d length %d\n", n, f.inner, f.written)
	}
	w.frames = w.frames[:n-1]
	return nil
}

type rframe struct {
	remaining int
	cont      bool
	inner     int
	seen      int
}

type frameReader struct {
	in     *input.In
	frames []*rframe
}

func newFrameReader(in *input.In) *frameReader {
	return &frameReader{in: in}
}

func (r *frameReader) depth() int {
	return len(r.frames)
}

// raw reads bytes not counted by any chunk.
func (r *frameReader) raw(p []byte) error {
	err := r.in.ReadInto(p)
	if err == nil {
		return nil
	}
	if errors.Is(err, lyerr.ErrEOD) {
		return lyerr.Wrap(lyerr.ErrFormat, err, "unexpected end of input data inside a chunk")
	}
	return err
}

func (r *frameReader) header(f *rframe) error {
	var hdr [metaBytes]byte
	if err := r.raw(hdr[:]); err != nil {
		return err
	}
	f.inner = int(hdr[0])
	f.remaining = int(hdr[1])
	f.cont = f.remaining >= contLen
	f.seen = 0
	return nil
}

// endSegment checks the finished segment of f and reads the next header
// when the chunk continues.
func (r *frameReader) endSegment(i int) error {
	f := r.frames[i]
	if f.seen != f.inner {
		return lyerr.New(lyerr.ErrFormat, "chunk segment declares %d inner chunks, found %d", f.inner, f.seen)
	}
	if debug.Frame() {
		debug.Logf("lyb frame continue depth %d\n", i+1)
	}
	return r.header(f)
}

// resolve consumes pending continuation headers, innermost first.
func (r *frameReader) resolve(from int) error {
	for i := len(r.frames) - 1; i >= from; i-- {
		f := r.frames[i]
		if f.remaining == 0 && f.cont {
			if err := r.endSegment(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadFull fills p with chunk content.
func (r *frameReader) ReadFull(p []byte) error {
	for len(p) > 0 {
		if err := r.resolve(0); err != nil {
			return err
		}
		k := len(p)
		for _, f := range r.frames {
			if f.remaining == 0 {
				return lyerr.New(lyerr.ErrFormat, "read of %d bytes past the end of a chunk", len(p))
			}
			if f.remaining < k {
				k = f.remaining
			}
		}
		if err := r.raw(p[:k]); err != nil {
			return err
		}
		for _, f := range r.frames {
			f.remaining -= k
		}
		p = p[k:]
	}
	return nil
}

func (r *frameReader) ReadByte() (byte, error) {
	var b [1]byte
	if err := r.ReadFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// open enters a chunk nested in the current one.
func (r *frameReader) open() error {
	if err := r.resolve(0); err != nil {
		return err
	}
	for _, f := range r.frames {
		if f.remaining < metaBytes {
			return lyerr.New(lyerr.ErrFormat, "chunk header crosses the end of its parent chunk")
		}
	}
	f := &rframe{}
	if err := r.header(f); err != nil {
		return err
	}
	for _, p := range r.frames {
		p.remaining -= metaBytes
	}
	if n := len(r.frames); n > 0 {
		r.frames[n-1].seen++
	}
	r.frames = append(r.frames, f)
	if debug.Frame() {
		debug.Logf("lyb frame open depth %d inner %d length %d\n", len(r.frames), f.inner, f.remaining)
	}
	return nil
}

// more reports whether the current chunk has unread content.
func (r *frameReader) more() (bool, error) {
	n := len(r.frames)
	if n == 0 {
		return false, nil
	}
	if err := r.resolve(n - 1); err != nil {
		return false, err
	}
	return r.frames[n-1].remaining > 0, nil
}

// close leaves the current chunk, which must be fully read.
func (r *frameReader) close() error {
	n := len(r.frames)
	if n == 0 {
		return lyerr.New(lyerr.ErrInternal, "close of a chunk that was never opened")
	}
	if err := r.resolve(n - 1); err != nil {
		return err
	}
	f := r.frames[n-1]
	if f.remaining != 0 {
		return lyerr.New(lyerr.ErrFormat, "chunk closed with %d unread bytes", f.remaining)
	}
	if f.seen != f.inner {
		return lyerr.New(lyerr.ErrFormat, "chunk declares %d inner chunks, found %d", f.inner, f.seen)
	}
	if debug.Frame() {
		debug.Logf("lyb frame close depth %d\n", n)
	}
	r.frames = r.frames[:n-1]
	return nil
}
