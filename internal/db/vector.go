package db

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"
)

// EncodeVector serializes a float32 vector into the little-endian BLOB layout
// used by HSET vector fields and FT.SEARCH PARAMS for the given vector type.
func EncodeVector(v []float32, typ VectorType) string {
	if typ == VectorFloat16 {
		buf := make([]byte, len(v)*2)
		for i, f := range v {
			binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(f).Bits())
		}
		return string(buf)
	}

	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector parses a binary vector BLOB of the given type back into float32s.
func DecodeVector(data []byte, typ VectorType) ([]float32, error) {
	if typ == VectorFloat16 {
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("invalid float16 vector blob length: %d", len(data))
		}
		v := make([]float32, len(data)/2)
		for i := range v {
			v[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		}
		return v, nil
	}

	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid float32 vector blob length: %d", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
