// Package buffer coerces the binary inputs accepted by the decode entry points
// into a single []byte representation.
package buffer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrMissingBuffer is returned when no bytes were supplied at all.
	ErrMissingBuffer = errors.New("buffer: missing buffer")

	// ErrUnsupportedBuffer is returned for values that carry no binary content.
	ErrUnsupportedBuffer = errors.New("buffer: unsupported buffer type")
)

// Normalize returns the bytes held by v.
//
// Accepted inputs are []byte, string, *bytes.Buffer, io.Reader and typed numeric
// slices. Slices with elements wider than one byte are normalized from their
// memory representation (little-endian element bytes), never truncated to one
// byte per element.
func Normalize(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, ErrMissingBuffer
	case []byte:
		if b == nil {
			return nil, ErrMissingBuffer
		}
		return b, nil
	case string:
		if b == "" {
			return nil, ErrMissingBuffer
		}
		return []byte(b), nil
	case *bytes.Buffer:
		if b == nil {
			return nil, ErrMissingBuffer
		}
		return b.Bytes(), nil
	case []int8:
		if b == nil {
			return nil, ErrMissingBuffer
		}
		out := make([]byte, len(b))
		for i, e := range b {
			out[i] = byte(e)
		}
		return out, nil
	case []uint16:
		return words(b, 2, func(dst []byte, e uint16) { binary.LittleEndian.PutUint16(dst, e) })
	case []int16:
		return words(b, 2, func(dst []byte, e int16) { binary.LittleEndian.PutUint16(dst, uint16(e)) })
	case []uint32:
		return words(b, 4, func(dst []byte, e uint32) { binary.LittleEndian.PutUint32(dst, e) })
	case []int32:
		return words(b, 4, func(dst []byte, e int32) { binary.LittleEndian.PutUint32(dst, uint32(e)) })
	case []float32:
		return words(b, 4, func(dst []byte, e float32) { binary.LittleEndian.PutUint32(dst, math.Float32bits(e)) })
	case []uint64:
		return words(b, 8, func(dst []byte, e uint64) { binary.LittleEndian.PutUint64(dst, e) })
	case []int64:
		return words(b, 8, func(dst []byte, e int64) { binary.LittleEndian.PutUint64(dst, uint64(e)) })
	case []float64:
		return words(b, 8, func(dst []byte, e float64) { binary.LittleEndian.PutUint64(dst, math.Float64bits(e)) })
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("buffer: read: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrMissingBuffer
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBuffer, v)
	}
}

func words[T any](src []T, width int, put func([]byte, T)) ([]byte, error) {
	if src == nil {
		return nil, ErrMissingBuffer
	}

	out := make([]byte, len(src)*width)
	for i, e := range src {
		put(out[i*width:], e)
	}

	return out, nil
}
