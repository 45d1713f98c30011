//go:build !unix

package input

import (
	"github.com/signadot/lyb-format/go-lyb/lyerr"
)

func mapFD(fd int) ([]byte, error) {
	return nil, lyerr.New(lyerr.ErrIO, "memory mapping fd %d is not supported on this platform", fd)
}

func unmapData([]byte) {}

// isRegular reports false so files are read as streams.
func isRegular(int) (bool, error) {
	return false, nil
}

func openRead(path string) (int, error) {
	return -1, lyerr.New(lyerr.ErrIO, "opening %s by descriptor is not supported on this platform", path)
}

func closeFD(int) error {
	return nil
}
