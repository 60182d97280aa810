package dynfile

import (
	"fmt"
	"sort"
)

// dataSegment describes one loadable segment of an image's virtual memory.
type dataSegment struct {
	addr uint64
	data []byte // points into the mmap'd file
}

func (s dataSegment) String() string {
	return fmt.Sprintf("dataSegment{addr:0x%x, size:0x%x}", s.addr, s.size())
}

// contains reports whether the segment contains the given address.
func (s dataSegment) contains(addr uint64) bool {
	return s.addr <= addr && addr < s.addr+s.size()
}

// size reports the size of the segment in bytes.
func (s dataSegment) size() uint64 {
	return uint64(len(s.data))
}

// dataSegments is a list of virtual memory segments, sorted by address.
type dataSegments []dataSegment

// findSegment finds the segment that contains the given address.
func (ss dataSegments) findSegment(addr uint64) (dataSegment, bool) {
	// Binary search for an upper-bound segment, then check
	// if the previous segment contains addr.
	k := sort.Search(len(ss), func(k int) bool {
		return addr < ss[k].addr
	})
	k--
	if k >= 0 && ss[k].contains(addr) {
		return ss[k], true
	}
	return dataSegment{}, false
}

// view translates a virtual address to the bytes mapped at that address,
// up to size bytes. The result may be shorter than size when the segment
// holds fewer file bytes than requested (the on-disk image is truncated
// relative to its memory image). Returns false if addr is not contained
// in any segment.
func (ss dataSegments) view(addr, size uint64) ([]byte, bool) {
	s, ok := ss.findSegment(addr)
	if !ok {
		return nil, false
	}
	offset := addr - s.addr
	avail := s.size() - offset
	if avail > size {
		avail = size
	}
	end := offset + avail
	return s.data[offset:end:end], true
}
