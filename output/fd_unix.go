//go:build unix

package output

import (
	"io"

	"golang.org/x/sys/unix"
)

type fdSink int

func newFDSink(fd int) sink {
	return fdSink(fd)
}

func (s fdSink) Write(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		m, err := unix.Write(int(s), p[n:])
		if err != nil {
			return n, err
		}
		n += m
	}
	return n, nil
}

func (s fdSink) WriteAt(p []byte, off int64) (int, error) {
	n := 0
	for n < len(p) {
		m, err := unix.Pwrite(int(s), p[n:], off+int64(n))
		if err != nil {
			return n, err
		}
		n += m
	}
	return n, nil
}

func seekCurrent(fd int) (int64, error) {
	return unix.Seek(fd, 0, io.SeekCurrent)
}

func openWrite(path string) (int, error) {
	return unix.Open(path, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o644)
}

func closeFD(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}
