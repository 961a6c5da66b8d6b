//go:build linux

package blobstore

import (
	"os"

	"golang.org/x/sys/unix"
)

func adviseSequential(f *os.File, off, length int64) {
	// Advisory only; a failure leaves the default readahead in place.
	_ = unix.Fadvise(int(f.Fd()), off, length, unix.FADV_SEQUENTIAL)
}
