package objects

import (
	"encoding/binary"
	"math"
	"math/big"

	"strata/pkg/host"
	"strata/pkg/value"
)

// TypedArrayKind is the element type of a typed array.
type TypedArrayKind uint8

const (
	TypedArrayInt8 TypedArrayKind = iota
	TypedArrayUint8
	TypedArrayInt16
	TypedArrayUint16
	TypedArrayInt32
	TypedArrayUint32
	TypedArrayFloat32
	TypedArrayFloat64
	TypedArrayBigInt64
)

func (kind TypedArrayKind) BytesPerElement() int {
	switch kind {
	case TypedArrayInt8, TypedArrayUint8:
		return 1
	case TypedArrayInt16, TypedArrayUint16:
		return 2
	case TypedArrayInt32, TypedArrayUint32, TypedArrayFloat32:
		return 4
	default:
		return 8
	}
}

// Name returns the constructor name of the kind.
func (kind TypedArrayKind) Name() string {
	switch kind {
	case TypedArrayInt8:
		return "Int8Array"
	case TypedArrayUint8:
		return "Uint8Array"
	case TypedArrayInt16:
		return "Int16Array"
	case TypedArrayUint16:
		return "Uint16Array"
	case TypedArrayInt32:
		return "Int32Array"
	case TypedArrayUint32:
		return "Uint32Array"
	case TypedArrayFloat32:
		return "Float32Array"
	case TypedArrayFloat64:
		return "Float64Array"
	case TypedArrayBigInt64:
		return "BigInt64Array"
	default:
		return "TypedArray"
	}
}

// ParseTypedArrayKind maps a constructor name to its kind.
func ParseTypedArrayKind(name string) (TypedArrayKind, bool) {
	for k := TypedArrayInt8; k <= TypedArrayBigInt64; k++ {
		if k.Name() == name {
			return k, true
		}
	}
	return 0, false
}

// ArrayBuffer is a raw byte buffer that can be detached.
type ArrayBuffer struct {
	header
	data     []byte
	detached bool
}

func (ab *ArrayBuffer) ClassName() string { return "ArrayBuffer" }

func (ab *ArrayBuffer) IsDetached() bool { return ab.detached }

// Detach releases the buffer. Every view over it loses all of its elements.
func (ab *ArrayBuffer) Detach() {
	ab.detached = true
	ab.data = nil
}

// TypedArray is an integer-indexed view over an ArrayBuffer. While the buffer
// is attached every index below the length is populated.
type TypedArray struct {
	header
	kind       TypedArrayKind
	buffer     *ArrayBuffer
	byteOffset int
	length     int
}

func (ta *TypedArray) ClassName() string         { return ta.kind.Name() }
func (ta *TypedArray) Kind() TypedArrayKind      { return ta.kind }
func (ta *TypedArray) Buffer() *ArrayBuffer      { return ta.buffer }
func (ta *TypedArray) Tag() host.ArrayTag        { return host.TagTypedArray }
func (ta *TypedArray) HasIndex(index int64) bool { return index >= 0 && index < ta.Length() }

// Length is zero once the buffer is detached.
func (ta *TypedArray) Length() int64 {
	if ta.buffer.IsDetached() {
		return 0
	}
	return int64(ta.length)
}

func (ta *TypedArray) FirstIndex() int64 {
	if ta.Length() == 0 {
		return -1
	}
	return 0
}

func (ta *TypedArray) LastIndex() int64 {
	return ta.Length() - 1
}

func (ta *TypedArray) NextIndex(index int64) int64 {
	switch n := ta.Length(); {
	case index+1 >= n:
		return -1
	case index < 0:
		return 0
	}
	return index + 1
}

func (ta *TypedArray) PreviousIndex(index int64) int64 {
	switch n := ta.Length(); {
	case index <= 0 || n == 0:
		return -1
	case index > n:
		return n - 1
	}
	return index - 1
}

func (ta *TypedArray) element(index int64) (value.Value, bool) {
	if !ta.HasIndex(index) {
		return value.Undefined, false
	}
	offset := ta.byteOffset + int(index)*ta.kind.BytesPerElement()
	data := ta.buffer.data[offset:]

	switch ta.kind {
	case TypedArrayInt8:
		return value.Int32(int32(int8(data[0]))), true
	case TypedArrayUint8:
		return value.Int32(int32(data[0])), true
	case TypedArrayInt16:
		return value.Int32(int32(int16(binary.LittleEndian.Uint16(data)))), true
	case TypedArrayUint16:
		return value.Int32(int32(binary.LittleEndian.Uint16(data))), true
	case TypedArrayInt32:
		return value.Int32(int32(binary.LittleEndian.Uint32(data))), true
	case TypedArrayUint32:
		return value.Integer(int64(binary.LittleEndian.Uint32(data))), true
	case TypedArrayFloat32:
		return value.Number(float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))), true
	case TypedArrayFloat64:
		return value.Number(math.Float64frombits(binary.LittleEndian.Uint64(data))), true
	default:
		return value.NewBigInt(big.NewInt(int64(binary.LittleEndian.Uint64(data)))), true
	}
}

// setElement stores an already converted element. Out of range writes and
// writes to a detached buffer are ignored.
func (ta *TypedArray) setElement(index int64, v value.Value) {
	if !ta.HasIndex(index) {
		return
	}
	offset := ta.byteOffset + int(index)*ta.kind.BytesPerElement()
	data := ta.buffer.data[offset:]

	if ta.kind == TypedArrayBigInt64 {
		binary.LittleEndian.PutUint64(data, uint64(v.AsBigInt().Int64()))
		return
	}
	num := v.Float64()
	bits := uint32(value.Float64ToInt32(num))
	switch ta.kind {
	case TypedArrayInt8, TypedArrayUint8:
		data[0] = byte(bits)
	case TypedArrayInt16, TypedArrayUint16:
		binary.LittleEndian.PutUint16(data, uint16(bits))
	case TypedArrayInt32, TypedArrayUint32:
		binary.LittleEndian.PutUint32(data, bits)
	case TypedArrayFloat32:
		binary.LittleEndian.PutUint32(data, math.Float32bits(float32(num)))
	case TypedArrayFloat64:
		binary.LittleEndian.PutUint64(data, math.Float64bits(num))
	}
}
