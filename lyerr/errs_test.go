package lyerr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorIsKind(t *testing.T) {
	err := Val(CodeWhen, "/m:top/a", "When condition %q not satisfied", "x == 1")
	if !errors.Is(err, ErrValid) {
		t.Errorf("expected ErrValid, got %v", err)
	}
	if errors.Is(err, ErrFormat) {
		t.Errorf("did not expect ErrFormat")
	}
	wrapped := fmt.Errorf("parsing: %w", err)
	if CodeOf(wrapped) != CodeWhen {
		t.Errorf("expected code when, got %v", CodeOf(wrapped))
	}
	if PathOf(wrapped) != "/m:top/a" {
		t.Errorf("expected path, got %q", PathOf(wrapped))
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrFormat, ErrEOD, "unexpected end of input data")
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat")
	}
	if !errors.Is(err, ErrEOD) {
		t.Errorf("expected cause ErrEOD")
	}
	err = Wrap(ErrIO, io.ErrUnexpectedEOF, "read")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected cause to be reachable")
	}
	want := "i/o error: read: unexpected EOF"
	if err.Error() != want {
		t.Errorf("got %q want %q", err.Error(), want)
	}
}
