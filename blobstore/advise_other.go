//go:build !linux

package blobstore

import "os"

func adviseSequential(*os.File, int64, int64) {}
