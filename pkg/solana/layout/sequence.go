package layout

import (
	"github.com/pkg/errors"
)

// Vec returns a length-prefixed sequence: a u32 element count followed by
// that many elements encoded back to back.
func Vec(elem *Layout, property string) *Layout {
	return SeqWithCount(elem, U32(""), property)
}

// SeqWithCount returns a sequence whose element count is decoded from
// countLayout immediately before the elements.
func SeqWithCount(elem, countLayout *Layout, property string) *Layout {
	if countLayout.kind != KindUInt {
		panic(errors.Wrapf(ErrType, "sequence count must be a uint layout, got %s", countLayout.kind))
	}

	return &Layout{
		kind:     KindSequence,
		span:     VariableSpan,
		property: property,
		elem:     elem,
		count:    -1,
		countRef: countLayout,
	}
}

// Seq returns a sequence of exactly count elements with no prefix.
func Seq(elem *Layout, count int, property string) *Layout {
	if count < 0 {
		panic(errors.Wrapf(ErrRange, "negative sequence count %d", count))
	}

	span := VariableSpan
	if elem.span >= 0 {
		span = count * elem.span
	}

	return &Layout{
		kind:     KindSequence,
		span:     span,
		property: property,
		elem:     elem,
		count:    count,
	}
}

// Elem returns the element layout of a sequence, or the wrapped layout of an
// option.
func (l *Layout) Elem() *Layout {
	return l.elem
}

func (l *Layout) seqCount(b []byte, offset int) (prefix int, count int, err error) {
	if l.countRef == nil {
		return 0, l.count, nil
	}

	raw, n, err := l.countRef.Decode(b, offset)
	if err != nil {
		return 0, 0, err
	}

	count64 := raw.(uint64)
	remaining := uint64(len(b) - offset - n)
	if l.elem.span > 0 && count64 > remaining/uint64(l.elem.span) {
		return 0, 0, errors.Wrapf(
			ErrRange,
			"%d elements of %d bytes exceed the %d bytes remaining",
			count64,
			l.elem.span,
			remaining,
		)
	}
	// Zero-width elements consume no bytes, so the buffer length is the
	// only bound on the count.
	if count64 > uint64(len(b)) {
		return 0, 0, errors.Wrapf(ErrRange, "sequence count %d exceeds buffer", count64)
	}
	return n, int(count64), nil
}

func (l *Layout) seqSpanOf(b []byte, offset int) (int, error) {
	prefix, count, err := l.seqCount(b, offset)
	if err != nil {
		return 0, err
	}

	if l.elem.span >= 0 {
		size := count * l.elem.span
		if err := checkBounds(b, offset+prefix, size); err != nil {
			return 0, err
		}
		return prefix + size, nil
	}

	total := prefix
	for i := 0; i < count; i++ {
		n, err := l.elem.SpanOf(b, offset+total)
		if err != nil {
			return 0, errors.Wrapf(err, "sizing element %d", i)
		}
		total += n
	}
	return total, nil
}

func (l *Layout) decodeSeq(b []byte, offset int) (interface{}, int, error) {
	prefix, count, err := l.seqCount(b, offset)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decoding %s", l)
	}

	values := make([]interface{}, 0, count)
	total := prefix
	for i := 0; i < count; i++ {
		v, n, err := l.elem.Decode(b, offset+total)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "decoding element %d of %s", i, l)
		}
		values = append(values, v)
		total += n
	}
	return values, total, nil
}

func toSlice(v interface{}) ([]interface{}, error) {
	switch s := v.(type) {
	case []interface{}:
		return s, nil
	case []Record:
		out := make([]interface{}, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, errors.Wrapf(ErrType, "expected sequence, got %T", v)
	}
}

func (l *Layout) encodeSeq(v interface{}, b []byte, offset int, zero bool) (int, error) {
	var values []interface{}
	if !zero {
		var err error
		values, err = toSlice(v)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding %s", l)
		}
	}

	total := 0
	count := len(values)
	if l.countRef != nil {
		n, err := l.countRef.Encode(uint64(count), b, offset)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding %s count", l)
		}
		total += n
	} else if !zero && count != l.count {
		return 0, errors.Wrapf(ErrType, "encoding %s: expected %d elements, got %d", l, l.count, count)
	} else if zero {
		count = l.count
	}

	for i := 0; i < count; i++ {
		var ev interface{}
		if !zero {
			ev = values[i]
		}

		n, err := l.elem.encode(ev, b, offset+total, zero)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding element %d of %s", i, l)
		}
		total += n
	}
	return total, nil
}

func (l *Layout) seqEncodedSpan(v interface{}, zero bool) (int, error) {
	var values []interface{}
	if !zero {
		var err error
		values, err = toSlice(v)
		if err != nil {
			return 0, errors.Wrapf(err, "sizing %s", l)
		}
	}

	total := 0
	count := len(values)
	if l.countRef != nil {
		total += l.countRef.span
	} else if zero {
		count = l.count
	}

	for i := 0; i < count; i++ {
		var ev interface{}
		if !zero {
			ev = values[i]
		}

		n, err := l.elem.encodedSpan(ev, zero)
		if err != nil {
			return 0, errors.Wrapf(err, "sizing element %d of %s", i, l)
		}
		total += n
	}
	return total, nil
}
