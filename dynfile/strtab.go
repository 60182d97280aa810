package dynfile

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrStringOutOfBounds reports a string lookup at an offset at or past the
// declared end of the dynamic string table.
var ErrStringOutOfBounds = errors.New("dynfile: string offset out of bounds")

// ErrMissingTerminator reports a string lookup that ran off the end of the
// string table's bytes without finding a NUL terminator.
var ErrMissingTerminator = errors.New("dynfile: unterminated string")

// stringTable is a contiguous byte region holding NUL-terminated strings,
// referenced elsewhere by byte offset. size is the declared DT_STRSZ value;
// data may be shorter when the file image is truncated relative to the
// declared size, in which case lookups past the mapped bytes fail.
type stringTable struct {
	data []byte
	size uint64
}

// lookup returns the string starting at the given offset, up to but not
// including the next NUL byte.
func (st *stringTable) lookup(offset uint64) (string, error) {
	if offset >= st.size {
		return "", fmt.Errorf("%w: offset 0x%x, table size 0x%x", ErrStringOutOfBounds, offset, st.size)
	}
	if offset >= uint64(len(st.data)) {
		return "", fmt.Errorf("%w: offset 0x%x is past the 0x%x mapped bytes", ErrMissingTerminator, offset, len(st.data))
	}
	k := bytes.IndexByte(st.data[offset:], 0)
	if k < 0 {
		return "", fmt.Errorf("%w: no NUL byte after offset 0x%x", ErrMissingTerminator, offset)
	}
	return string(st.data[offset : offset+uint64(k)]), nil
}
