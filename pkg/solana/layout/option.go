package layout

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
)

const (
	optionNone    = 0
	optionSome    = 1
	optionTagSize = 1
)

// Option returns a layout prefixed by a 1-byte presence discriminator. A zero
// tag decodes to nil and occupies one byte. Any other tag is followed by the
// inner layout.
func Option(inner *Layout, property string) *Layout {
	span := VariableSpan
	if inner.span == 0 {
		span = optionTagSize
	}

	return &Layout{
		kind:     KindOption,
		span:     span,
		property: property,
		elem:     inner,
	}
}

func (l *Layout) optionSpanOf(b []byte, offset int) (int, error) {
	if err := checkBounds(b, offset, optionTagSize); err != nil {
		return 0, err
	}
	if b[offset] == optionNone {
		return optionTagSize, nil
	}

	n, err := l.elem.SpanOf(b, offset+optionTagSize)
	if err != nil {
		return 0, err
	}
	return optionTagSize + n, nil
}

func (l *Layout) decodeOption(b []byte, offset int) (interface{}, int, error) {
	if err := checkBounds(b, offset, optionTagSize); err != nil {
		return nil, 0, errors.Wrapf(err, "decoding %s discriminator", l)
	}
	if b[offset] == optionNone {
		return nil, optionTagSize, nil
	}

	v, n, err := l.elem.Decode(b, offset+optionTagSize)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decoding %s", l)
	}
	return v, optionTagSize + n, nil
}

func (l *Layout) encodeOption(v interface{}, b []byte, offset int, zero bool) (int, error) {
	if err := checkBounds(b, offset, optionTagSize); err != nil {
		return 0, errors.Wrapf(err, "encoding %s discriminator", l)
	}

	if zero || isAbsent(v) {
		b[offset] = optionNone
		return optionTagSize, nil
	}

	b[offset] = optionSome
	n, err := l.elem.Encode(v, b, offset+optionTagSize)
	if err != nil {
		return 0, errors.Wrapf(err, "encoding %s", l)
	}
	return optionTagSize + n, nil
}

func (l *Layout) optionEncodedSpan(v interface{}, zero bool) (int, error) {
	if zero || isAbsent(v) {
		return optionTagSize, nil
	}

	n, err := l.elem.EncodedSpan(v)
	if err != nil {
		return 0, err
	}
	return optionTagSize + n, nil
}

// isAbsent treats untyped nil and nil byte slices or records as "no value".
func isAbsent(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []byte:
		return t == nil
	case ed25519.PublicKey:
		return t == nil
	case Record:
		return t == nil
	default:
		return false
	}
}
