package dynfile

import (
	"bytes"
	"testing"
)

func TestFindSegment(t *testing.T) {
	ss := dataSegments{
		dataSegment{addr: 100, data: make([]byte, 32)},
		dataSegment{addr: 200, data: make([]byte, 64)},
		dataSegment{addr: 300, data: make([]byte, 64)},
	}

	tests := []struct {
		addr     uint64
		want     bool
		wantAddr uint64
	}{
		{100, true, 100},
		{131, true, 100},
		{132, false, 0},
		{99, false, 0},
		{0, false, 0},
		{200, true, 200},
		{263, true, 200},
		{264, false, 0},
		{363, true, 300},
		{364, false, 0},
	}

	for _, test := range tests {
		gotSeg, got := ss.findSegment(test.addr)
		if got != test.want || (got && gotSeg.addr != test.wantAddr) {
			t.Errorf("findSegment(%v)=%v,%v want addr=%v,%v", test.addr, gotSeg.addr, got, test.wantAddr, test.want)
		}
	}
}

func TestView(t *testing.T) {
	seg := dataSegment{addr: 0x1000, data: []byte("0123456789")}
	ss := dataSegments{seg}

	tests := []struct {
		addr, size uint64
		want       []byte
		wantOK     bool
	}{
		{0x1000, 4, []byte("0123"), true},
		{0x1003, 4, []byte("3456"), true},
		{0x1008, 2, []byte("89"), true},
		{0x1008, 100, []byte("89"), true}, // clamped to the mapped bytes
		{0x100a, 1, nil, false},           // one past the end
		{0xfff, 1, nil, false},
		{0x2000, 1, nil, false},
	}

	for _, test := range tests {
		got, ok := ss.view(test.addr, test.size)
		if ok != test.wantOK || !bytes.Equal(got, test.want) {
			t.Errorf("view(0x%x, %v)=%q,%v want %q,%v", test.addr, test.size, got, ok, test.want, test.wantOK)
		}
	}
}
