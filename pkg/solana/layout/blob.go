package layout

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// Blob returns a layout for exactly length raw bytes.
func Blob(length int, property string) *Layout {
	if length < 0 {
		panic(errors.Wrapf(ErrRange, "negative blob length %d", length))
	}

	return &Layout{
		kind:     KindBlob,
		span:     length,
		property: property,
		length:   length,
	}
}

// BlobWithLength returns a layout for raw bytes whose length is decoded from
// lengthLayout immediately before them, e.g. a u32 length prefix.
func BlobWithLength(lengthLayout *Layout, property string) *Layout {
	if lengthLayout.kind != KindUInt {
		panic(errors.Wrapf(ErrType, "blob length must be a uint layout, got %s", lengthLayout.kind))
	}

	return &Layout{
		kind:      KindBlob,
		span:      VariableSpan,
		property:  property,
		lengthRef: lengthLayout,
	}
}

func (l *Layout) blobLength(b []byte, offset int) (prefix int, length int, err error) {
	if l.lengthRef == nil {
		return 0, l.length, nil
	}

	raw, n, err := l.lengthRef.Decode(b, offset)
	if err != nil {
		return 0, 0, err
	}

	length64 := raw.(uint64)
	if length64 > uint64(len(b)) {
		return 0, 0, errors.Wrapf(ErrRange, "blob length %d exceeds buffer of %d bytes", length64, len(b))
	}
	return n, int(length64), nil
}

func (l *Layout) blobSpanOf(b []byte, offset int) (int, error) {
	prefix, length, err := l.blobLength(b, offset)
	if err != nil {
		return 0, err
	}
	if err := checkBounds(b, offset+prefix, length); err != nil {
		return 0, err
	}
	return prefix + length, nil
}

func (l *Layout) decodeBlob(b []byte, offset int) (interface{}, int, error) {
	prefix, length, err := l.blobLength(b, offset)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decoding %s", l)
	}

	start := offset + prefix
	if err := checkBounds(b, start, length); err != nil {
		return nil, 0, errors.Wrapf(err, "decoding %s", l)
	}

	out := make([]byte, length)
	copy(out, b[start:start+length])
	return out, prefix + length, nil
}

func (l *Layout) encodeBlob(v interface{}, b []byte, offset int, zero bool) (int, error) {
	var src []byte
	if !zero {
		var err error
		src, err = toBytes(v)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding %s", l)
		}
	} else if l.lengthRef == nil {
		src = make([]byte, l.length)
	}

	if l.lengthRef == nil {
		if len(src) != l.length {
			return 0, errors.Wrapf(ErrType, "encoding %s: expected %d bytes, got %d", l, l.length, len(src))
		}
		if err := checkBounds(b, offset, l.length); err != nil {
			return 0, errors.Wrapf(err, "encoding %s", l)
		}
		copy(b[offset:], src)
		return l.length, nil
	}

	prefix, err := l.lengthRef.Encode(uint64(len(src)), b, offset)
	if err != nil {
		return 0, errors.Wrapf(err, "encoding %s length", l)
	}
	if err := checkBounds(b, offset+prefix, len(src)); err != nil {
		return 0, errors.Wrapf(err, "encoding %s", l)
	}
	copy(b[offset+prefix:], src)
	return prefix + len(src), nil
}

func (l *Layout) blobEncodedSpan(v interface{}, zero bool) (int, error) {
	if zero {
		return l.lengthRef.span, nil
	}

	src, err := toBytes(v)
	if err != nil {
		return 0, errors.Wrapf(err, "sizing %s", l)
	}
	return l.lengthRef.span + len(src), nil
}

func toBytes(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case ed25519.PublicKey:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, errors.Wrapf(ErrType, "expected bytes, got %T", v)
	}
}
