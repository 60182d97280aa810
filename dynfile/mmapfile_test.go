package dynfile

import (
	"math"
	"testing"
)

func TestReadSliceAtBounds(t *testing.T) {
	f := &mmapFile{filename: "test", data: make([]byte, 16)}

	tests := []struct {
		offset, n uint64
		wantOK    bool
	}{
		{0, 16, true},
		{8, 8, true},
		{16, 0, true},
		{0, 17, false},
		{8, 9, false},
		{17, 0, false},
		{math.MaxUint64 - 7, 16, false}, // offset+n wraps around zero
		{math.MaxUint64, 1, false},
		{1, math.MaxUint64, false},
	}

	for _, test := range tests {
		got, err := f.ReadSliceAt(test.offset, test.n)
		if ok := err == nil; ok != test.wantOK {
			t.Errorf("ReadSliceAt(0x%x, 0x%x)=%v,%v want ok=%v", test.offset, test.n, got, err, test.wantOK)
		}
		if err == nil && uint64(len(got)) != test.n {
			t.Errorf("ReadSliceAt(0x%x, 0x%x) returned %d bytes, want %d", test.offset, test.n, len(got), test.n)
		}
	}
}
