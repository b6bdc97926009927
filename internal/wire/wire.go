// Package wire frames the freshness-marker payload stored under a list's
// reserved marker key. The envelope lets the engine tell its own markers
// apart from foreign or corrupt bytes: anything that fails to decode is
// treated as marker-absent and forces a refetch.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version    byte = 1
	kindMarker byte = 1
)

var (
	ErrCorrupt = errors.New("lixcache: corrupt marker")
	magic4     = [...]byte{'L', 'I', 'X', 'M'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Marker: magic(4) | ver(1) | kind(1=marker) | fetchedAt unix-nano (u64 be) | count(u32 be)
func EncodeMarker(fetchedAt time.Time, count int) []byte {
	b := make([]byte, 0, 4+1+1+8+4)
	b = append(b, magic4[:]...)
	b = append(b, version, kindMarker)

	var u8 [8]byte
	binary.BigEndian.PutUint64(u8[:], uint64(fetchedAt.UnixNano()))
	b = append(b, u8[:]...)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(count))
	b = append(b, u4[:]...)
	return b
}

func DecodeMarker(b []byte) (fetchedAt time.Time, count int, err error) {
	const full = 4 + 1 + 1 + 8 + 4
	if len(b) != full || !hasMagic(b) || b[4] != version || b[5] != kindMarker {
		return time.Time{}, 0, ErrCorrupt
	}
	nanos := binary.BigEndian.Uint64(b[6:14])
	n := binary.BigEndian.Uint32(b[14:18])
	return time.Unix(0, int64(nanos)), int(n), nil
}
