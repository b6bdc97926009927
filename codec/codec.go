// Package codec provides pluggable serialization for the typed view over the
// lixcache engine. The engine itself moves opaque bytes; a Codec maps a
// caller's value type onto them.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
