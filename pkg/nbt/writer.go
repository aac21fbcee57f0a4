package nbt

import (
	"io"
	"math"
)

// Writer builds an NBT stream tag by tag on top of the package's
// big-endian primitives. Errors are sticky: after the first write failure
// every later call is a no-op, so callers build the whole tree and check
// Err() once at the end.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered while writing, if any.
func (w *Writer) Err() error {
	return w.err
}

// Sticky wrappers around the stream helpers.

func (w *Writer) u8(v byte) {
	if w.err == nil {
		w.err = writeU8(w.w, v)
	}
}

func (w *Writer) u16(v uint16) {
	if w.err == nil {
		w.err = writeU16(w.w, v)
	}
}

func (w *Writer) i32(v int32) {
	if w.err == nil {
		w.err = writeI32(w.w, v)
	}
}

func (w *Writer) i64(v int64) {
	if w.err == nil {
		w.err = writeI64(w.w, v)
	}
}

func (w *Writer) f64(v float64) {
	if w.err == nil {
		w.err = writeF64(w.w, v)
	}
}

func (w *Writer) raw(p []byte) {
	if w.err == nil && len(p) > 0 {
		_, w.err = w.w.Write(p)
	}
}

// header emits a tag id and its name. The chunk root uses an empty name,
// which still carries its zero length. List elements have no header at all.
func (w *Writer) header(tagType byte, name string) {
	w.u8(tagType)
	w.u16(uint16(len(name)))
	w.raw([]byte(name))
}

// BeginCompound opens a named compound; pair it with EndCompound.
func (w *Writer) BeginCompound(name string) { w.header(TagCompound, name) }

// EndCompound terminates the innermost open compound.
func (w *Writer) EndCompound() { w.u8(TagEnd) }

// BeginList emits a list header; the caller supplies count elements of
// elemType, each written without a tag id or name. A compound element is
// its members followed by EndCompound, with no BeginCompound.
func (w *Writer) BeginList(name string, elemType byte, count int32) {
	w.header(TagList, name)
	w.u8(elemType)
	w.i32(count)
}

// WriteTagByte writes a named byte tag.
func (w *Writer) WriteTagByte(name string, v byte) {
	w.header(TagByte, name)
	w.u8(v)
}

// WriteShort writes a named short tag.
func (w *Writer) WriteShort(name string, v int16) {
	w.header(TagShort, name)
	w.u16(uint16(v))
}

// WriteInt writes a named int tag.
func (w *Writer) WriteInt(name string, v int32) {
	w.header(TagInt, name)
	w.i32(v)
}

// WriteLong writes a named long tag.
func (w *Writer) WriteLong(name string, v int64) {
	w.header(TagLong, name)
	w.i64(v)
}

// WriteFloat writes a named float tag.
func (w *Writer) WriteFloat(name string, v float32) {
	w.header(TagFloat, name)
	w.i32(int32(math.Float32bits(v)))
}

// WriteDouble writes a named double tag.
func (w *Writer) WriteDouble(name string, v float64) {
	w.header(TagDouble, name)
	w.f64(v)
}

// WriteString writes a named string tag (2-byte length, UTF-8 bytes).
func (w *Writer) WriteString(name string, v string) {
	w.header(TagString, name)
	w.u16(uint16(len(v)))
	w.raw([]byte(v))
}

// WriteByteArray writes a named byte array tag.
func (w *Writer) WriteByteArray(name string, v []byte) {
	w.header(TagByteArray, name)
	w.i32(int32(len(v)))
	w.raw(v)
}

// WriteIntArray writes a named int array tag.
func (w *Writer) WriteIntArray(name string, v []int32) {
	w.header(TagIntArray, name)
	w.i32(int32(len(v)))
	for _, e := range v {
		w.i32(e)
	}
}

// WriteLongArray writes a named long array tag.
func (w *Writer) WriteLongArray(name string, v []int64) {
	w.header(TagLongArray, name)
	w.i32(int32(len(v)))
	for _, e := range v {
		w.i64(e)
	}
}

// WriteDoubleList writes a named list of doubles, the shape of an entity
// Pos.
func (w *Writer) WriteDoubleList(name string, vs []float64) {
	w.BeginList(name, TagDouble, int32(len(vs)))
	for _, v := range vs {
		w.f64(v)
	}
}

// WriteIntList writes a named list of ints.
func (w *Writer) WriteIntList(name string, vs []int32) {
	w.BeginList(name, TagInt, int32(len(vs)))
	for _, v := range vs {
		w.i32(v)
	}
}
