//go:build unix

package input

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/signadot/lyb-format/go-lyb/lyerr"
)

func mapFD(fd int) ([]byte, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "fstat fd %d", fd), "mapping input")
	}
	if st.Size == 0 {
		return nil, lyerr.New(lyerr.ErrArg, "Empty input file.")
	}
	b, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "mmap, size %d", st.Size), "mapping input")
	}
	return b, nil
}

func unmapData(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munmap(b)
}

func isRegular(fd int) (bool, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return false, lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "fstat fd %d", fd), "inspecting input")
	}
	return st.Mode&unix.S_IFMT == unix.S_IFREG, nil
}

func openRead(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, lyerr.Wrap(lyerr.ErrIO, errors.Wrapf(err, "open %s", path), "opening input")
	}
	return fd, nil
}

func closeFD(fd int) error {
	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}
