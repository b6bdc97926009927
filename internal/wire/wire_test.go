package wire

import (
	"testing"
	"time"
)

func TestMarkerRoundTrip(t *testing.T) {
	at := time.Unix(1_700_000_123, 456_789_000)
	b := EncodeMarker(at, 42)

	got, count, err := DecodeMarker(b)
	if err != nil {
		t.Fatalf("DecodeMarker: %v", err)
	}
	if !got.Equal(at) {
		t.Fatalf("fetchedAt = %v, want %v", got, at)
	}
	if count != 42 {
		t.Fatalf("count = %d, want 42", count)
	}
}

func TestDecodeMarkerRejectsForeignBytes(t *testing.T) {
	cases := map[string][]byte{
		"empty":         nil,
		"short":         {'L', 'I', 'X', 'M', 1},
		"bad magic":     append([]byte("XXXX"), EncodeMarker(time.Now(), 1)[4:]...),
		"bad version":   {'L', 'I', 'X', 'M', 99, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		"trailing junk": append(EncodeMarker(time.Now(), 1), 0xFF),
	}
	for name, b := range cases {
		if _, _, err := DecodeMarker(b); err != ErrCorrupt {
			t.Errorf("%s: err = %v, want ErrCorrupt", name, err)
		}
	}
}
