package dynfile

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"sort"
)

// File provides access to the dynamic-linking information of one ELF image.
type File struct {
	Filename  string
	Class     elf.Class
	ByteOrder binary.ByteOrder
	Machine   elf.Machine

	// Dynamic is the decoded dynamic array, or nil when the image has no
	// dynamic segment (statically-linked executables, relocatable objects).
	Dynamic *DynamicTable

	segments dataSegments
	mmapf    *mmapFile
}

// Open maps the named ELF image into memory and decodes its dynamic array.
// The returned File must be closed to release the mapping; slices handed
// out by its DynamicTable are invalid after Close.
func Open(filename string) (*File, error) {
	mmapf, err := mmapOpen(filename)
	if err != nil {
		return nil, err
	}
	f, err := newFile(mmapf)
	if err != nil {
		mmapf.Close()
		return nil, err
	}
	return f, nil
}

func newFile(mmapf *mmapFile) (*File, error) {
	ef, err := elf.NewFile(mmapf)
	if err != nil {
		return nil, err
	}
	f := &File{
		Filename:  mmapf.Name(),
		Class:     ef.Class,
		ByteOrder: ef.ByteOrder,
		Machine:   ef.Machine,
		mmapf:     mmapf,
	}
	verbosef("open: %s class=%v machine=%v", f.Filename, f.Class, f.Machine)

	// Sort loadable segments by target virtual address. They are usually
	// already sorted in the file, but that's not guaranteed.
	var progs sortedProgHeaders
	for _, ph := range ef.Progs {
		if ph.Type != elf.PT_LOAD || ph.Filesz == 0 {
			continue
		}
		progs = append(progs, ph.ProgHeader)
	}
	sort.Sort(progs)

	// Merge adjacent segments that are contiguous in both the file and the
	// memory image, so that a string table laid out across split RO/RX
	// mappings still resolves from a single segment.
	for k := 1; k < len(progs); {
		prev := &progs[k-1]
		curr := &progs[k]
		if prev.Vaddr+prev.Filesz == curr.Vaddr && prev.Off+prev.Filesz == curr.Off {
			verbosef("open: merging segments at 0x%x and 0x%x", prev.Vaddr, curr.Vaddr)
			prev.Filesz += curr.Filesz
			progs = append(progs[:k], progs[k+1:]...)
			continue
		}
		k++
	}

	for _, ph := range progs {
		data, err := mmapf.ReadSliceAt(ph.Off, ph.Filesz)
		if err != nil {
			return nil, fmt.Errorf("bad ELF segment %+v: %v", ph, err)
		}
		logf("open: loading dataSegment{addr:0x%x, size:0x%x}", ph.Vaddr, ph.Filesz)
		f.segments = append(f.segments, dataSegment{addr: ph.Vaddr, data: data})
	}

	data, err := dynamicBytes(ef, mmapf)
	if err != nil {
		return nil, err
	}
	if data != nil {
		f.Dynamic, err = parseDynamicTable(data, ef.Class, ef.ByteOrder, f.segments)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// dynamicBytes locates the raw bytes of the dynamic array: the PT_DYNAMIC
// segment when program headers are present, otherwise the .dynamic section.
// Returns nil bytes when the image has neither.
func dynamicBytes(ef *elf.File, mmapf *mmapFile) ([]byte, error) {
	for _, ph := range ef.Progs {
		if ph.Type != elf.PT_DYNAMIC || ph.Filesz == 0 {
			continue
		}
		data, err := mmapf.ReadSliceAt(ph.Off, ph.Filesz)
		if err != nil {
			return nil, fmt.Errorf("bad PT_DYNAMIC segment %+v: %v", ph.ProgHeader, err)
		}
		return data, nil
	}
	if s := ef.Section(".dynamic"); s != nil && s.Type == elf.SHT_DYNAMIC {
		data, err := mmapf.ReadSliceAt(s.Offset, s.Size)
		if err != nil {
			return nil, fmt.Errorf("bad .dynamic section %+v: %v", s.SectionHeader, err)
		}
		return data, nil
	}
	return nil, nil
}

// Close releases the underlying file mapping.
func (f *File) Close() error {
	return f.mmapf.Close()
}

type sortedProgHeaders []elf.ProgHeader

func (p sortedProgHeaders) Len() int           { return len(p) }
func (p sortedProgHeaders) Swap(i, k int)      { p[i], p[k] = p[k], p[i] }
func (p sortedProgHeaders) Less(i, k int) bool { return p[i].Vaddr < p[k].Vaddr }
