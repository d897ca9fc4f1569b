package modelsrc

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var errEmptyFile = errors.New("model file is empty")

// mapFile returns the contents of path. Where mmap is available the bytes
// are a read-only mapping and release unmaps them; callers must not retain
// data after calling release.
func mapFile(path string) (data []byte, release func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size64 := stat.Size()
	if size64 <= 0 {
		return nil, nil, fmt.Errorf("%s: %w", path, errEmptyFile)
	}
	if size64 > int64(int(^uint(0)>>1)) {
		return nil, nil, fmt.Errorf("%s: model file too large to map", path)
	}
	size := int(size64)

	data, err = unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		return data, func() { _ = unix.Munmap(data) }, nil
	}

	// Fallback path for filesystems without mmap support.
	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
