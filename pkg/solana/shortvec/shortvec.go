// Package shortvec implements the compact-u16 length prefix used in the
// transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxEncodedLen is the most bytes a u16 needs at seven bits per byte.
const maxEncodedLen = 3

// EncodeLen writes length to w, returning the number of bytes written.
func EncodeLen(w io.Writer, length int) (n int, err error) {
	if length < 0 || length > math.MaxUint16 {
		return 0, errors.Errorf("len %d out of range [0, %d]", length, math.MaxUint16)
	}

	buf := make([]byte, 0, maxEncodedLen)
	for {
		b := byte(length & 0x7f)
		length >>= 7
		if length == 0 {
			buf = append(buf, b)
			break
		}
		buf = append(buf, b|0x80)
	}

	return w.Write(buf)
}

// DecodeLen reads a compact-u16 length from r.
func DecodeLen(r io.Reader) (int, error) {
	var val int
	var b [1]byte

	for i := 0; ; i++ {
		if i == maxEncodedLen {
			return 0, errors.Errorf("invalid size: more than %d bytes", maxEncodedLen)
		}
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}

		val |= int(b[0]&0x7f) << (i * 7)
		if b[0]&0x80 == 0 {
			break
		}
	}

	if val > math.MaxUint16 {
		return 0, errors.Errorf("decoded len %d exceeds %d", val, math.MaxUint16)
	}
	return val, nil
}
