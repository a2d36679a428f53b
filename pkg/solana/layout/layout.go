// Package layout translates between byte buffers and decoded values using
// composable, byte-exact descriptions of little-endian wire formats.
//
// A Layout is immutable once built and may be shared between goroutines.
// Decoded values use a small set of Go types:
//
//	UInt     -> uint64
//	Blob     -> []byte
//	Struct   -> Record
//	Sequence -> []interface{}
//	Option   -> nil, or the inner layout's value
//
// Constructors panic on invalid parameters, since layouts are normally
// package-level values built at init time. Code that takes a width from
// input at runtime should use CheckedUInt, which returns ErrRange instead.
package layout

import (
	"fmt"

	"github.com/pkg/errors"
)

// VariableSpan is the span reported by layouts whose encoded size depends on
// the value being encoded or decoded.
const VariableSpan = -1

// Kind identifies the variant of a Layout.
type Kind uint8

const (
	KindUInt Kind = iota + 1
	KindBlob
	KindStruct
	KindSequence
	KindOption
)

func (k Kind) String() string {
	switch k {
	case KindUInt:
		return "uint"
	case KindBlob:
		return "blob"
	case KindStruct:
		return "struct"
	case KindSequence:
		return "sequence"
	case KindOption:
		return "option"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Layout describes how a byte range maps to a value. Unnamed layouts (empty
// property) act as padding inside a Struct: they are skipped on decode and
// zero-filled on encode.
type Layout struct {
	kind     Kind
	span     int
	property string

	// UInt
	width int

	// Blob: either a fixed length, or a length layout read first
	length    int
	lengthRef *Layout

	// Struct
	fields []*Layout

	// Sequence: either a fixed count, or a count layout read first. Option
	// uses elem as the wrapped layout.
	elem     *Layout
	count    int
	countRef *Layout
}

// Kind returns the variant of the layout.
func (l *Layout) Kind() Kind {
	return l.kind
}

// Property returns the field name of the layout, which is empty for padding.
func (l *Layout) Property() string {
	return l.property
}

// Span returns the fixed encoded size of the layout, or VariableSpan.
func (l *Layout) Span() int {
	return l.span
}

// Fields returns the ordered child layouts of a Struct layout.
func (l *Layout) Fields() []*Layout {
	if l.kind != KindStruct {
		return nil
	}
	fields := make([]*Layout, len(l.fields))
	copy(fields, l.fields)
	return fields
}

// Replicate returns a copy of the layout bound to a different property name.
func (l *Layout) Replicate(property string) *Layout {
	cloned := *l
	cloned.property = property
	return &cloned
}

func (l *Layout) String() string {
	if len(l.property) == 0 {
		return fmt.Sprintf("%s(span=%d)", l.kind, l.span)
	}
	return fmt.Sprintf("%s %s(span=%d)", l.property, l.kind, l.span)
}

// SpanOf returns the number of bytes the layout occupies in b starting at
// offset. For fixed-span layouts this is Span() after a bounds check.
func (l *Layout) SpanOf(b []byte, offset int) (int, error) {
	if offset < 0 || offset > len(b) {
		return 0, errors.Wrapf(ErrRange, "offset %d outside buffer of %d bytes", offset, len(b))
	}

	if l.span >= 0 {
		if err := checkBounds(b, offset, l.span); err != nil {
			return 0, err
		}
		return l.span, nil
	}

	switch l.kind {
	case KindBlob:
		return l.blobSpanOf(b, offset)
	case KindStruct:
		return l.structSpanOf(b, offset)
	case KindSequence:
		return l.seqSpanOf(b, offset)
	case KindOption:
		return l.optionSpanOf(b, offset)
	default:
		return 0, errors.Errorf("layout: %s has no value-specific span", l.kind)
	}
}

// Decode reads a value from b at offset, returning the value and the number
// of bytes consumed.
func (l *Layout) Decode(b []byte, offset int) (interface{}, int, error) {
	if offset < 0 || offset > len(b) {
		return nil, 0, errors.Wrapf(ErrRange, "offset %d outside buffer of %d bytes", offset, len(b))
	}

	switch l.kind {
	case KindUInt:
		return l.decodeUInt(b, offset)
	case KindBlob:
		return l.decodeBlob(b, offset)
	case KindStruct:
		return l.decodeStruct(b, offset)
	case KindSequence:
		return l.decodeSeq(b, offset)
	case KindOption:
		return l.decodeOption(b, offset)
	default:
		return nil, 0, errors.Errorf("layout: unknown kind %s", l.kind)
	}
}

// Encode writes v into b at offset, returning the number of bytes written.
// The buffer must be large enough to hold the encoding.
func (l *Layout) Encode(v interface{}, b []byte, offset int) (int, error) {
	return l.encode(v, b, offset, false)
}

func (l *Layout) encode(v interface{}, b []byte, offset int, zero bool) (int, error) {
	if offset < 0 || offset > len(b) {
		return 0, errors.Wrapf(ErrRange, "offset %d outside buffer of %d bytes", offset, len(b))
	}

	switch l.kind {
	case KindUInt:
		return l.encodeUInt(v, b, offset, zero)
	case KindBlob:
		return l.encodeBlob(v, b, offset, zero)
	case KindStruct:
		return l.encodeStruct(v, b, offset, zero)
	case KindSequence:
		return l.encodeSeq(v, b, offset, zero)
	case KindOption:
		return l.encodeOption(v, b, offset, zero)
	default:
		return 0, errors.Errorf("layout: unknown kind %s", l.kind)
	}
}

// EncodedSpan returns the number of bytes Encode would write for v.
func (l *Layout) EncodedSpan(v interface{}) (int, error) {
	return l.encodedSpan(v, false)
}

func (l *Layout) encodedSpan(v interface{}, zero bool) (int, error) {
	if l.span >= 0 {
		return l.span, nil
	}

	switch l.kind {
	case KindBlob:
		return l.blobEncodedSpan(v, zero)
	case KindStruct:
		return l.structEncodedSpan(v, zero)
	case KindSequence:
		return l.seqEncodedSpan(v, zero)
	case KindOption:
		return l.optionEncodedSpan(v, zero)
	default:
		return 0, errors.Errorf("layout: %s has no value-specific span", l.kind)
	}
}

// Marshal allocates a buffer sized for v and encodes v into it.
func Marshal(l *Layout, v interface{}) ([]byte, error) {
	size, err := l.EncodedSpan(v)
	if err != nil {
		return nil, err
	}

	b := make([]byte, size)
	n, err := l.Encode(v, b, 0)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, errors.Errorf("layout: encoded %d bytes, expected %d", n, size)
	}
	return b, nil
}

// Unmarshal decodes a value from the start of data. Trailing bytes are
// permitted, since account data is commonly over-allocated.
func Unmarshal(l *Layout, data []byte) (interface{}, error) {
	v, _, err := l.Decode(data, 0)
	return v, err
}

func checkBounds(b []byte, offset, n int) error {
	if n < 0 || offset+n > len(b) {
		return errors.Wrapf(ErrRange, "need %d bytes at offset %d, buffer has %d", n, offset, len(b))
	}
	return nil
}
