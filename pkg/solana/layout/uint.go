package layout

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"
)

const maxUIntWidth = 8

// UInt returns a little-endian unsigned integer layout of width bytes.
// Widths outside 1..8 panic, since layouts are built once at init time. Use
// CheckedUInt for widths chosen at runtime.
func UInt(width int, property string) *Layout {
	if width <= 0 || width > maxUIntWidth {
		panic(errors.Wrapf(ErrRange, "span too large: %d", width))
	}

	return &Layout{
		kind:     KindUInt,
		span:     width,
		property: property,
		width:    width,
	}
}

// CheckedUInt is UInt for callers that accept a width at runtime.
func CheckedUInt(width int, property string) (*Layout, error) {
	if width <= 0 || width > maxUIntWidth {
		return nil, errors.Wrapf(ErrRange, "span too large: %d", width)
	}
	return UInt(width, property), nil
}

func U8(property string) *Layout  { return UInt(1, property) }
func U16(property string) *Layout { return UInt(2, property) }
func U32(property string) *Layout { return UInt(4, property) }
func U64(property string) *Layout { return UInt(8, property) }

// PublicKey is a 32 byte blob.
func PublicKey(property string) *Layout {
	return Blob(ed25519.PublicKeySize, property)
}

func (l *Layout) maxUInt() uint64 {
	if l.width == maxUIntWidth {
		return math.MaxUint64
	}
	return 1<<(8*uint(l.width)) - 1
}

func (l *Layout) decodeUInt(b []byte, offset int) (interface{}, int, error) {
	if err := checkBounds(b, offset, l.width); err != nil {
		return nil, 0, errors.Wrapf(err, "decoding %s", l)
	}

	var v uint64
	for i := l.width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[offset+i])
	}
	return v, l.width, nil
}

func (l *Layout) encodeUInt(v interface{}, b []byte, offset int, zero bool) (int, error) {
	var val uint64
	if !zero {
		var err error
		val, err = toUint64(v)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding %s", l)
		}
	}

	if val > l.maxUInt() {
		return 0, errors.Wrapf(ErrRange, "value %d exceeds %d byte integer", val, l.width)
	}
	if err := checkBounds(b, offset, l.width); err != nil {
		return 0, errors.Wrapf(err, "encoding %s", l)
	}

	for i := 0; i < l.width; i++ {
		b[offset+i] = byte(val)
		val >>= 8
	}
	return l.width, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case int:
		if n < 0 {
			return 0, errors.Wrapf(ErrRange, "negative value %d", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, errors.Wrapf(ErrRange, "negative value %d", n)
		}
		return uint64(n), nil
	case int32:
		if n < 0 {
			return 0, errors.Wrapf(ErrRange, "negative value %d", n)
		}
		return uint64(n), nil
	default:
		return 0, errors.Wrapf(ErrType, "expected unsigned integer, got %T", v)
	}
}
