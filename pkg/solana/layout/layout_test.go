package layout

import (
	"bytes"
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUInt_RoundTrip(t *testing.T) {
	for width := 1; width <= 8; width++ {
		l := UInt(width, "v")

		max := uint64(math.MaxUint64)
		if width < 8 {
			max = 1<<(8*uint(width)) - 1
		}

		for _, v := range []uint64{0, 1, max / 2, max} {
			b, err := Marshal(l, v)
			require.NoError(t, err)
			assert.Len(t, b, width)

			actual, err := Unmarshal(l, b)
			require.NoError(t, err)
			assert.Equal(t, v, actual)
		}

		if width < 8 {
			_, err := Marshal(l, max+1)
			assert.True(t, errors.Is(err, ErrRange))
		}
	}
}

func TestUInt_LittleEndian(t *testing.T) {
	b, err := Marshal(U32(""), uint32(0x01020304))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b)

	v, n, err := UInt(3, "").Decode([]byte{0xff, 0x01, 0x02, 0x03}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.EqualValues(t, 0x030201, v)
}

func TestUInt_InvalidWidth(t *testing.T) {
	_, err := CheckedUInt(9, "v")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRange))
	assert.Contains(t, err.Error(), "span too large")

	_, err = CheckedUInt(0, "v")
	assert.True(t, errors.Is(err, ErrRange))

	l, err := CheckedUInt(3, "v")
	require.NoError(t, err)
	assert.Equal(t, 3, l.Span())

	assert.Panics(t, func() { UInt(0, "") })
}

func TestUInt_Errors(t *testing.T) {
	_, _, err := U64("").Decode(make([]byte, 7), 0)
	assert.True(t, errors.Is(err, ErrRange))

	_, err = Marshal(U8(""), -1)
	assert.True(t, errors.Is(err, ErrRange))

	_, err = Marshal(U8(""), "1")
	assert.True(t, errors.Is(err, ErrType))

	_, err = U16("").Encode(uint16(1), make([]byte, 1), 0)
	assert.True(t, errors.Is(err, ErrRange))
}

func TestBlob(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)

	b, err := Marshal(PublicKey("key"), ed25519.PublicKey(key))
	require.NoError(t, err)
	assert.Equal(t, key, b)

	v, err := Unmarshal(PublicKey("key"), b)
	require.NoError(t, err)
	assert.Equal(t, key, v)

	// Decoded blobs must not alias the source buffer
	b[0] = 0
	assert.EqualValues(t, 7, v.([]byte)[0])

	_, err = Marshal(Blob(4, ""), []byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrType))

	_, _, err = Blob(4, "").Decode([]byte{1, 2, 3}, 0)
	assert.True(t, errors.Is(err, ErrRange))
}

func TestBlobWithLength(t *testing.T) {
	l := BlobWithLength(U32(""), "name")
	assert.Equal(t, VariableSpan, l.Span())

	b, err := Marshal(l, "pool")
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 0, 0, 0, 'p', 'o', 'o', 'l'}, b)

	span, err := l.SpanOf(b, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, span)

	v, n, err := l.Decode(b, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("pool"), v)

	_, _, err = l.Decode([]byte{5, 0, 0, 0, 'p'}, 0)
	assert.True(t, errors.Is(err, ErrRange))
}

func TestStruct(t *testing.T) {
	l := Struct([]*Layout{
		U8("kind"),
		Blob(3, ""),
		U64("amount"),
		PublicKey("owner"),
	}, "")
	assert.Equal(t, 1+3+8+32, l.Span())

	owner := bytes.Repeat([]byte{9}, 32)
	record := Record{
		"kind":   uint64(2),
		"amount": uint64(1_000_000),
		"owner":  owner,
	}

	b, err := Marshal(l, record)
	require.NoError(t, err)
	require.Len(t, b, l.Span())
	assert.Equal(t, []byte{2, 0, 0, 0}, b[:4])

	v, n, err := l.Decode(b, 0)
	require.NoError(t, err)
	assert.Equal(t, l.Span(), n)
	assert.Equal(t, record, v)

	var names []string
	for _, f := range l.Fields() {
		names = append(names, f.Property())
	}
	assert.Equal(t, []string{"kind", "", "amount", "owner"}, names)

	delete(record, "amount")
	_, err = Marshal(l, record)
	assert.True(t, errors.Is(err, ErrType))

	_, err = Marshal(l, []byte{1})
	assert.True(t, errors.Is(err, ErrType))
}

func TestStruct_VariableSpan(t *testing.T) {
	l := Struct([]*Layout{
		U8("tag"),
		BlobWithLength(U32(""), "name"),
		Option(U64(""), "limit"),
		U16("tail"),
	}, "")
	assert.Equal(t, VariableSpan, l.Span())

	for _, record := range []Record{
		{"tag": uint64(1), "name": []byte("abc"), "limit": uint64(10), "tail": uint64(5)},
		{"tag": uint64(1), "name": []byte{}, "limit": nil, "tail": uint64(5)},
	} {
		b, err := Marshal(l, record)
		require.NoError(t, err)

		span, err := l.SpanOf(b, 0)
		require.NoError(t, err)
		assert.Len(t, b, span)

		v, n, err := l.Decode(b, 0)
		require.NoError(t, err)
		assert.Equal(t, span, n)
		assert.Equal(t, record, v)
	}
}

func TestVec(t *testing.T) {
	elem := Struct([]*Layout{U64("a"), U8("b")}, "")
	l := Vec(elem, "items")

	items := []interface{}{
		Record{"a": uint64(1), "b": uint64(2)},
		Record{"a": uint64(3), "b": uint64(4)},
		Record{"a": uint64(5), "b": uint64(6)},
	}

	b, err := Marshal(l, items)
	require.NoError(t, err)
	assert.Len(t, b, 4+3*9)
	assert.Equal(t, []byte{3, 0, 0, 0}, b[:4])

	v, n, err := l.Decode(b, 0)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, items, v)

	// Trailing bytes are left alone
	padded := append(b, 0xff, 0xff)
	_, n, err = l.Decode(padded, 0)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)

	empty, err := Marshal(l, []interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, empty)
}

func TestVec_CountPastEnd(t *testing.T) {
	l := Vec(U64(""), "")

	b := []byte{0xff, 0xff, 0xff, 0x0f, 1, 2, 3, 4, 5, 6, 7, 8}
	_, _, err := l.Decode(b, 0)
	assert.True(t, errors.Is(err, ErrRange))

	_, err = l.SpanOf(b, 0)
	assert.True(t, errors.Is(err, ErrRange))

	b = []byte{2, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
	_, _, err = l.Decode(b, 0)
	assert.True(t, errors.Is(err, ErrRange))
}

func TestVec_ZeroWidthElements(t *testing.T) {
	for _, elem := range []*Layout{Blob(0, ""), Struct(nil, "")} {
		l := Vec(elem, "")

		b := []byte{0xff, 0xff, 0xff, 0xff, 0}
		_, _, err := l.Decode(b, 0)
		assert.True(t, errors.Is(err, ErrRange))

		_, err = l.SpanOf(b, 0)
		assert.True(t, errors.Is(err, ErrRange))

		b = []byte{3, 0, 0, 0, 0}
		v, n, err := l.Decode(b, 0)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Len(t, v, 3)
	}
}

func TestSeq_Fixed(t *testing.T) {
	l := Seq(U16(""), 3, "values")
	assert.Equal(t, 6, l.Span())

	b, err := Marshal(l, []interface{}{uint64(1), uint64(2), uint64(3)})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0}, b)

	_, err = Marshal(l, []interface{}{uint64(1)})
	assert.True(t, errors.Is(err, ErrType))
}

func TestOption(t *testing.T) {
	inner := Struct([]*Layout{U64("denominator"), U64("numerator")}, "")
	l := Option(inner, "fee")

	none, err := Marshal(l, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, none)

	v, n, err := l.Decode(none, 0)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 1, n)

	fee := Record{"denominator": uint64(100), "numerator": uint64(3)}
	some, err := Marshal(l, fee)
	require.NoError(t, err)
	require.Len(t, some, 1+inner.Span())
	assert.EqualValues(t, 1, some[0])

	v, n, err = l.Decode(some, 0)
	require.NoError(t, err)
	assert.Equal(t, len(some), n)
	assert.Equal(t, fee, v)

	// Any nonzero discriminator is treated as present
	some[0] = 2
	v, _, err = l.Decode(some, 0)
	require.NoError(t, err)
	assert.Equal(t, fee, v)

	_, _, err = l.Decode([]byte{1, 0, 0}, 0)
	assert.True(t, errors.Is(err, ErrRange))
}

func TestStruct_ZeroFillsPadding(t *testing.T) {
	l := Struct([]*Layout{
		U8("a"),
		Struct([]*Layout{U32("x"), Option(U8(""), "y")}, ""),
		Vec(U8(""), ""),
		U8("b"),
	}, "")

	b, err := Marshal(l, Record{"a": uint64(1), "b": uint64(2)})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2}, b)

	v, err := Unmarshal(l, b)
	require.NoError(t, err)
	assert.Equal(t, Record{"a": uint64(1), "b": uint64(2)}, v)
}

func TestReplicate(t *testing.T) {
	l := U64("a")
	r := l.Replicate("b")
	assert.Equal(t, "a", l.Property())
	assert.Equal(t, "b", r.Property())
	assert.Equal(t, l.Span(), r.Span())
}
