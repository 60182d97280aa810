package dynfile

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedSize reports a dynamic section whose declared sizes cannot be
// honored, e.g. a DT_STRSZ value that does not fit in the platform's int.
var ErrMalformedSize = errors.New("dynfile: malformed size in dynamic section")

// ErrNoStringTable reports a string lookup against a dynamic array that
// never recorded the string table's address and size.
var ErrNoStringTable = errors.New("dynfile: dynamic string table location was never recorded")

// ErrAddrNotMapped reports a virtual address that no loadable segment maps
// to file bytes.
var ErrAddrNotMapped = errors.New("dynfile: virtual address not mapped by any loadable segment")

// DynamicEntry is one tag/value pair from the dynamic array. Whether Value
// is a virtual address, a count, a string-table offset or a flag bitmask is
// determined entirely by Tag.
type DynamicEntry struct {
	Tag   int64
	Value uint64
}

func (e DynamicEntry) String() string {
	return fmt.Sprintf("DynamicEntry{%s, 0x%x}", elf.DynTag(e.Tag), e.Value)
}

// DynamicTable is the decoded dynamic array of an ELF image: the tag/value
// pairs in file order, truncated at (and including) the first DT_NULL entry,
// plus lazily-resolved access to the string-valued attributes.
type DynamicTable struct {
	// Entries holds the raw tag/value pairs in the order they appear in the
	// file. Entries after the first DT_NULL are not represented.
	Entries []DynamicEntry

	neededOffsets []uint64

	strTabAddr  uint64
	strTabSize  uint64
	haveStrTab  bool
	haveStrSize bool

	runPathOffset uint64
	haveRunPath   bool
	rPathOffset   uint64
	haveRPath     bool
	soNameOffset  uint64
	haveSoName    bool
	flags1        uint64
	haveFlags1    bool

	strTab *lazyResult[*stringTable]
}

func dynEntrySize(class elf.Class) (int, error) {
	// Two platform words per entry: tag, value.
	switch class {
	case elf.ELFCLASS32:
		return 8, nil
	case elf.ELFCLASS64:
		return 16, nil
	default:
		return 0, fmt.Errorf("unsupported ELF class %v", class)
	}
}

// parseDynamicTable decodes the dynamic array found in data. segs supplies
// the virtual-address translation used, lazily, to locate the dynamic
// string table.
//
// The scan is a single forward pass: except for the DT_NULL terminator and
// the relative order of DT_NEEDED entries, tags may appear in any order, so
// nothing that depends on more than one tag is resolved until the full
// array has been read.
func parseDynamicTable(data []byte, class elf.Class, order binary.ByteOrder, segs dataSegments) (*DynamicTable, error) {
	entsize, err := dynEntrySize(class)
	if err != nil {
		return nil, err
	}
	n := len(data) / entsize
	if rem := len(data) % entsize; rem != 0 {
		logf("dynamic section length 0x%x is not a multiple of the %d-byte entry size, ignoring %d trailing bytes", len(data), entsize, rem)
	}

	t := &DynamicTable{}
scan:
	for i := 0; i < n; i++ {
		var e DynamicEntry
		b := data[i*entsize:]
		if class == elf.ELFCLASS32 {
			e.Tag = int64(int32(order.Uint32(b)))
			e.Value = uint64(order.Uint32(b[4:]))
		} else {
			e.Tag = int64(order.Uint64(b))
			e.Value = order.Uint64(b[8:])
		}
		t.Entries = append(t.Entries, e)

		// Repeated single-valued tags overwrite: the last occurrence wins.
		switch elf.DynTag(e.Tag) {
		case elf.DT_NULL:
			// A DT_NULL entry ends the array. There may be further entries
			// in the declared range, but they are not part of the table.
			break scan
		case elf.DT_NEEDED:
			t.neededOffsets = append(t.neededOffsets, e.Value)
		case elf.DT_STRTAB:
			t.strTabAddr = e.Value
			t.haveStrTab = true
		case elf.DT_STRSZ:
			if e.Value > math.MaxInt {
				return nil, fmt.Errorf("%w: DT_STRSZ 0x%x does not fit in int", ErrMalformedSize, e.Value)
			}
			t.strTabSize = e.Value
			t.haveStrSize = true
		case elf.DT_RUNPATH:
			t.runPathOffset = e.Value
			t.haveRunPath = true
		case elf.DT_RPATH:
			t.rPathOffset = e.Value
			t.haveRPath = true
		case elf.DT_SONAME:
			t.soNameOffset = e.Value
			t.haveSoName = true
		case elf.DT_FLAGS_1:
			t.flags1 = e.Value
			t.haveFlags1 = true
		}
	}
	verbosef("decoded %d dynamic entries, %d DT_NEEDED", len(t.Entries), len(t.neededOffsets))

	// Capture the scan results by value so the deferred computation cannot
	// observe a partially-filled table.
	addr, size := t.strTabAddr, t.strTabSize
	haveAddr, haveSize := t.haveStrTab, t.haveStrSize
	t.strTab = newLazyResult(func() (*stringTable, error) {
		if !haveAddr {
			return nil, fmt.Errorf("%w: no DT_STRTAB entry", ErrNoStringTable)
		}
		if !haveSize {
			return nil, fmt.Errorf("%w: no DT_STRSZ entry", ErrNoStringTable)
		}
		data, ok := segs.view(addr, size)
		if !ok {
			return nil, fmt.Errorf("%w: DT_STRTAB address 0x%x", ErrAddrNotMapped, addr)
		}
		verbosef("bound dynamic string table: addr 0x%x, size 0x%x, 0x%x bytes mapped", addr, size, len(data))
		return &stringTable{data: data, size: size}, nil
	})
	return t, nil
}

// NeededLibraries returns the names of the shared libraries this image
// depends on (its DT_NEEDED entries), in the order they appear in the
// dynamic array. That order is load-order significant and is preserved
// as-is: duplicates are not collapsed.
func (t *DynamicTable) NeededLibraries() ([]string, error) {
	st, err := t.strTab.Get()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(t.neededOffsets))
	for _, offset := range t.neededOffsets {
		name, err := st.lookup(offset)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// RunPath returns the image's DT_RUNPATH library search path. ok is false
// when the image has none; that is not an error.
func (t *DynamicTable) RunPath() (path string, ok bool, err error) {
	if !t.haveRunPath {
		return "", false, nil
	}
	path, err = t.resolve(t.runPathOffset)
	return path, err == nil, err
}

// RPath returns the image's legacy DT_RPATH library search path. ok is
// false when the image has none.
func (t *DynamicTable) RPath() (path string, ok bool, err error) {
	if !t.haveRPath {
		return "", false, nil
	}
	path, err = t.resolve(t.rPathOffset)
	return path, err == nil, err
}

// SoName returns the shared object name recorded by a DT_SONAME entry.
// ok is false when the image has none.
func (t *DynamicTable) SoName() (name string, ok bool, err error) {
	if !t.haveSoName {
		return "", false, nil
	}
	name, err = t.resolve(t.soNameOffset)
	return name, err == nil, err
}

// Flags1 returns the DT_FLAGS_1 state flag bitmask (DF_1_NOW, DF_1_GLOBAL,
// ...). ok is false when the image has no DT_FLAGS_1 entry.
func (t *DynamicTable) Flags1() (flags elf.DynFlag1, ok bool) {
	return elf.DynFlag1(t.flags1), t.haveFlags1
}

// EntryByTag returns the first entry with the given tag, scanning the raw
// entry sequence in file order.
func (t *DynamicTable) EntryByTag(tag elf.DynTag) (DynamicEntry, bool) {
	for _, e := range t.Entries {
		if elf.DynTag(e.Tag) == tag {
			return e, true
		}
	}
	return DynamicEntry{}, false
}

func (t *DynamicTable) resolve(offset uint64) (string, error) {
	st, err := t.strTab.Get()
	if err != nil {
		return "", err
	}
	return st.lookup(offset)
}
