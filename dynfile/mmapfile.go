package dynfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var errMmapClosed = errors.New("mmap: closed")

// mmapFile wraps a read-only memory-mapped file. This is similar to
// golang.org/x/exp/mmap.ReaderAt, but unlike mmap.ReaderAt, mmapFile
// allows creating []byte slices that refer directly to the underlying
// mmap'd memory segment.
type mmapFile struct {
	filename string
	data     []byte
}

// mmapOpen opens the named file for reading.
func mmapOpen(filename string) (*mmapFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := st.Size()
	if size == 0 {
		return &mmapFile{filename: filename, data: []byte{}}, nil
	}
	if size < 0 {
		return nil, fmt.Errorf("mmap: file %q has negative size: %d", filename, size)
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: file %q is too large", filename)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mmapFile{filename: filename, data: data}, nil
}

// Name returns the name of the file.
func (f *mmapFile) Name() string {
	return f.filename
}

// Size returns the size of the mapped file.
func (f *mmapFile) Size() uint64 {
	return uint64(len(f.data))
}

// ReadAt implements io.ReaderAt.
func (f *mmapFile) ReadAt(p []byte, offset int64) (int, error) {
	if f.data == nil {
		return 0, errMmapClosed
	}
	if offset < 0 {
		return 0, fmt.Errorf("negative offset: %v", offset)
	}
	if uint64(offset) >= f.Size() {
		return 0, io.EOF
	}
	n := copy(p, f.data[offset:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadSliceAt returns a slice of size n that points directly at the
// underlying mapped file, starting at the given offset. There is no
// copying. Fails if [offset, offset+n) is not within the file.
func (f *mmapFile) ReadSliceAt(offset, n uint64) ([]byte, error) {
	if f.data == nil {
		return nil, errMmapClosed
	}
	// Checked in two steps so offset+n cannot wrap around zero.
	if offset > f.Size() || n > f.Size()-offset {
		return nil, fmt.Errorf("mmap: out-of-bounds ReadSliceAt(%d, %d), file size is %d", offset, n, f.Size())
	}
	end := offset + n
	return f.data[offset:end:end], nil
}

// Close closes the file.
func (f *mmapFile) Close() error {
	if f.data == nil {
		return nil
	}
	if len(f.data) == 0 {
		*f = mmapFile{}
		return nil
	}
	err := unix.Munmap(f.data)
	*f = mmapFile{}
	return err
}
