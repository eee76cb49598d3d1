//go:build unix

package nvc

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

type mapping []byte

func (m mapping) Close() error {
	return unix.Munmap(m)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openMapped(path string) (io.ReaderAt, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if st.Size() == 0 {
		return bytes.NewReader(nil), nopCloser{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return bytes.NewReader(data), mapping(data), nil
}
