package wire

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// FieldDescriptor is one declared field of a Marshallable, in write order
// (spec §4.4 "Field descriptor").
type FieldDescriptor struct {
	Name string

	Get func() any
	Set func(any) error

	Long     LongConverter // non-nil for LongConversion fields
	NanoTime bool

	Required bool
}

// Marshallable is implemented once per mapped type, returning its ordered
// field list (spec §4.4). WireFields is called on every read and write, so
// implementations should build the slice cheaply (closures over the
// receiver's fields, no reflection).
type Marshallable interface {
	WireFields() []FieldDescriptor
}

// Resettable is the reset-on-read hook of spec §4.4: "before populating an
// existing instance's fields, the mapper resets it to its zero/default
// state first, so fields absent from the incoming document don't retain a
// stale prior value." Types with defaulted fields implement it explicitly;
// types without meaningful defaults can skip it since Go's zero value
// already serves as the reset state for a freshly-allocated destination.
type Resettable interface {
	ResetToDefault()
}

// LongConverter renders an int64 as text and parses it back, the field-level
// hook of spec §4.4 "LongConversion".
type LongConverter interface {
	Parse(text string) (int64, error)
	Append(v int64) string
}

// bigConverterAlphabet is the ported bijection base of
// _examples/original_source/.../BigConverter.java: every character maps to
// a fixed base position, and round-tripping requires the same alphabet on
// both ends.
const bigConverterAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"

// BigConverter is a ready-made LongConverter, the direct port of
// BigConverter.java's base-64-ish bijection, so LongConversion is
// exercisable without every caller writing their own converter.
type BigConverter struct{}

func (BigConverter) Parse(text string) (int64, error) {
	var v int64
	for _, c := range text {
		idx := indexByte(bigConverterAlphabet, byte(c))
		if idx < 0 {
			return 0, fmt.Errorf("%w: invalid BigConverter digit %q", ErrProtocolViolation, c)
		}
		v = v*int64(len(bigConverterAlphabet)) + int64(idx)
	}
	return v, nil
}

func (BigConverter) Append(v int64) string {
	if v == 0 {
		return string(bigConverterAlphabet[0])
	}
	base := int64(len(bigConverterAlphabet))
	var buf []byte
	for v > 0 {
		buf = append([]byte{bigConverterAlphabet[v%base]}, buf...)
		v /= base
	}
	return string(buf)
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// enumCodec is the registered round-trip pair for a Stringer-based enum
// type (spec supplement §6 "Boxed/enum primitives").
type enumCodec struct {
	parse func(string) (any, error)
}

var enumRegistry = xsync.NewMap[reflect.Type, enumCodec]()

// RegisterEnum binds t (typically obtained via reflect.TypeOf on a zero
// value) to a parse function, so Object/ValueIn.Object can round-trip it as
// text via its String() method on write and parse on read — the Go
// analogue of a Java enum serialized by name.
func RegisterEnum(t reflect.Type, parse func(string) (any, error)) {
	enumRegistry.Store(t, enumCodec{parse: parse})
}

func lookupEnum(t reflect.Type) (enumCodec, bool) {
	return enumRegistry.Load(t)
}

// fieldNameCache memoizes reflect-derived shape information keyed by
// type, mirroring _examples/oy3o-codec/fixed.go's sizeCache — here it
// tracks which field names have already been validated duplicate-free for
// a given Marshallable type, rather than re-scanning WireFields() output on
// every call.
var fieldNameCache = xsync.NewMap[reflect.Type, bool]()

func validateFieldNames(m Marshallable, fields []FieldDescriptor) error {
	t := reflect.TypeOf(m)
	if ok, _ := fieldNameCache.Load(t); ok {
		return nil
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field name %q on %s", ErrInvalidMarshallable, f.Name, t)
		}
		seen[f.Name] = true
	}
	fieldNameCache.Store(t, true)
	return nil
}

// writeMarshallable writes m's fields, in declaration order, into v's
// target mapping (spec §4.4). A Required field holding a nil pointer fails
// validation and the write is aborted via v.fail, which the framer's
// caller then observes by rolling back the open document (spec §7
// "ErrInvalidMarshallable... on write, the document is rolled back").
func writeMarshallable(v *ValueOut, m Marshallable) {
	fields := m.WireFields()
	if err := validateFieldNames(m, fields); err != nil {
		v.fail(err)
		return
	}
	for _, f := range fields {
		val := f.Get()
		if f.Required && isNilValue(val) {
			v.fail(fmt.Errorf("%w: required field %q is nil", ErrInvalidMarshallable, f.Name))
			return
		}
		slot := v.Field(f.Name)
		switch {
		case f.Long != nil:
			iv, ok := toInt64(val)
			if !ok {
				v.fail(fmt.Errorf("%w: field %q is not an integer for LongConversion", ErrInvalidMarshallable, f.Name))
				return
			}
			slot.RawText(f.Long.Append(iv))
		case f.NanoTime:
			iv, _ := toInt64(val)
			slot.Timestamp(iv, TimeConversionNanos)
		default:
			slot.Object(nil, val)
		}
	}
}

// readMarshallable populates dst's fields from v's mapping, resetting dst
// first if it implements Resettable (spec §4.4 reset-on-read invariant,
// supplemental §6 "MarshallableCfgResetTest").
func readMarshallable(v *ValueIn, dst Marshallable) error {
	if r, ok := dst.(Resettable); ok {
		r.ResetToDefault()
	}
	fields := dst.WireFields()
	if err := validateFieldNames(dst, fields); err != nil {
		return err
	}
	for _, f := range fields {
		slot := v.Field(f.Name)
		if slot.IsNull() {
			if f.Required {
				return fmt.Errorf("%w: required field %q missing", ErrInvalidMarshallable, f.Name)
			}
			continue
		}
		switch {
		case f.Long != nil:
			text, err := slot.Text()
			if err != nil {
				return err
			}
			iv, err := f.Long.Parse(text)
			if err != nil {
				return err
			}
			if err := f.Set(iv); err != nil {
				return err
			}
		case f.NanoTime:
			iv, err := slot.Int64()
			if err != nil {
				return err
			}
			if err := f.Set(iv); err != nil {
				return err
			}
		default:
			// Passing the field's current value as `using` lets a nested
			// Marshallable field reuse its existing instance instead of
			// allocating a fresh one, which is what makes the reset-on-read
			// invariant (spec §4.4) apply recursively to nested objects.
			obj, err := slot.Object(f.Get(), nil)
			if err != nil {
				return err
			}
			if err := f.Set(obj); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	default:
		return false
	}
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	default:
		return 0, false
	}
}
