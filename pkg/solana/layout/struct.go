package layout

import (
	"github.com/pkg/errors"
)

// Record is the decoded form of a Struct layout, keyed by field property.
// Use the Struct layout's Fields() for declaration order.
type Record map[string]interface{}

// Uint64 returns the integer stored under key, or 0 if absent.
func (r Record) Uint64(key string) uint64 {
	v, _ := r[key].(uint64)
	return v
}

// Bytes returns the bytes stored under key, or nil if absent.
func (r Record) Bytes(key string) []byte {
	v, _ := r[key].([]byte)
	return v
}

// Record returns the nested record stored under key, or nil if absent.
func (r Record) Record(key string) Record {
	v, _ := r[key].(Record)
	return v
}

// Slice returns the sequence stored under key, or nil if absent.
func (r Record) Slice(key string) []interface{} {
	v, _ := r[key].([]interface{})
	return v
}

// Struct returns a layout encoding fields back to back in declaration order.
// Field properties must be unique among named fields.
func Struct(fields []*Layout, property string) *Layout {
	span := 0
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f.property) > 0 {
			if _, ok := seen[f.property]; ok {
				panic(errors.Errorf("layout: duplicate struct field %q", f.property))
			}
			seen[f.property] = struct{}{}
		}

		if span == VariableSpan || f.span < 0 {
			span = VariableSpan
			continue
		}
		span += f.span
	}

	owned := make([]*Layout, len(fields))
	copy(owned, fields)

	return &Layout{
		kind:     KindStruct,
		span:     span,
		property: property,
		fields:   owned,
	}
}

func (l *Layout) structSpanOf(b []byte, offset int) (int, error) {
	total := 0
	for _, f := range l.fields {
		n, err := f.SpanOf(b, offset+total)
		if err != nil {
			return 0, errors.Wrapf(err, "sizing field %s", f)
		}
		total += n
	}
	return total, nil
}

func (l *Layout) decodeStruct(b []byte, offset int) (interface{}, int, error) {
	record := make(Record, len(l.fields))

	total := 0
	for _, f := range l.fields {
		if len(f.property) == 0 {
			n, err := f.SpanOf(b, offset+total)
			if err != nil {
				return nil, 0, errors.Wrapf(err, "skipping padding in %s", l)
			}
			total += n
			continue
		}

		v, n, err := f.Decode(b, offset+total)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "decoding field %s", f.property)
		}
		record[f.property] = v
		total += n
	}
	return record, total, nil
}

func toRecord(v interface{}) (Record, error) {
	switch r := v.(type) {
	case Record:
		return r, nil
	case map[string]interface{}:
		return Record(r), nil
	default:
		return nil, errors.Wrapf(ErrType, "expected record, got %T", v)
	}
}

func (l *Layout) encodeStruct(v interface{}, b []byte, offset int, zero bool) (int, error) {
	var record Record
	if !zero {
		var err error
		record, err = toRecord(v)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding %s", l)
		}
	}

	total := 0
	for _, f := range l.fields {
		fieldZero := zero || len(f.property) == 0

		var fv interface{}
		if !fieldZero {
			var ok bool
			fv, ok = record[f.property]
			if !ok && f.kind != KindOption {
				return 0, errors.Wrapf(ErrType, "missing field %s", f.property)
			}
		}

		n, err := f.encode(fv, b, offset+total, fieldZero)
		if err != nil {
			return 0, errors.Wrapf(err, "encoding field %s", f.property)
		}
		total += n
	}
	return total, nil
}

func (l *Layout) structEncodedSpan(v interface{}, zero bool) (int, error) {
	var record Record
	if !zero {
		var err error
		record, err = toRecord(v)
		if err != nil {
			return 0, errors.Wrapf(err, "sizing %s", l)
		}
	}

	total := 0
	for _, f := range l.fields {
		fieldZero := zero || len(f.property) == 0

		var fv interface{}
		if !fieldZero {
			fv = record[f.property]
		}

		n, err := f.encodedSpan(fv, fieldZero)
		if err != nil {
			return 0, errors.Wrapf(err, "sizing field %s", f.property)
		}
		total += n
	}
	return total, nil
}
