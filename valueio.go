package wire

import (
	"fmt"
	"reflect"
)

// Raw boxes a pre-encoded string so callers can request the "raw-text
// fast path" of spec §4.6 item 1: emitted verbatim (no quoting) in text,
// re-quoted as a JSON string in JSON, and written as plain text in binary
// (spec §4.1 "ValueOut operations").
type Raw string

// ValueOut is a cursor over a single slot of an in-progress document's
// value tree (spec §4.1). Every dialect shares this cursor type; what
// differs between dialects is how the tree is later rendered to bytes
// (Wire.Dump) or parsed from them (Wire.Parse).
type ValueOut struct {
	target  *Value
	aliases *AliasRegistry
	binary  bool
	verbose bool
	err     *error
}

// Err returns the first error recorded while building this value tree, if
// any — mirroring the "first error wins" idiom of _examples/oy3o-codec's
// Writer.setError. Later errors are dropped; later writes still update the
// tree.
func (v *ValueOut) Err() error {
	if v.err == nil {
		return nil
	}
	return *v.err
}

func (v *ValueOut) fail(err error) *ValueOut {
	if v.err != nil && *v.err == nil {
		*v.err = err
	}
	return v
}

func (v *ValueOut) child(target *Value) *ValueOut {
	return &ValueOut{target: target, aliases: v.aliases, binary: v.binary, verbose: v.verbose, err: v.err}
}

func (v *ValueOut) Null() *ValueOut { *v.target = Value{Kind: KindNull}; return v }
func (v *ValueOut) Bool(b bool) *ValueOut {
	*v.target = Value{Kind: KindBool, Bool: b}
	return v
}

func (v *ValueOut) Int8(x int8) *ValueOut   { *v.target = *Int8(x); return v }
func (v *ValueOut) Int16(x int16) *ValueOut { *v.target = *Int16(x); return v }
func (v *ValueOut) Int32(x int32) *ValueOut { *v.target = *Int32(x); return v }
func (v *ValueOut) Int64(x int64) *ValueOut { *v.target = *Int64(x); return v }

func (v *ValueOut) Float32(x float32) *ValueOut { *v.target = *Float32Value(x); return v }
func (v *ValueOut) Float64(x float64) *ValueOut { *v.target = *Float64Value(x); return v }

func (v *ValueOut) Text(s string) *ValueOut {
	*v.target = Value{Kind: KindText, Text: s}
	return v
}

// RawText writes s as a raw-text node: unquoted in text, re-quoted as a
// string in JSON (spec §4.1).
func (v *ValueOut) RawText(s string) *ValueOut {
	*v.target = Value{Kind: KindRawText, Text: s}
	return v
}

func (v *ValueOut) Bytes(b []byte) *ValueOut {
	*v.target = Value{Kind: KindBlob, Blob: b}
	return v
}

func (v *ValueOut) Timestamp(nanos int64, conv TimeConversion) *ValueOut {
	*v.target = *Timestamp(nanos, conv)
	return v
}

// TypePrefix marks this slot as a typed-object and returns a cursor over
// its mapping payload (spec §4.1 "typePrefix(alias)").
func (v *ValueOut) TypePrefix(alias string) *ValueOut {
	inner := &Value{Kind: KindMapping}
	*v.target = Value{Kind: KindTypedObject, TypeAlias: alias, Inner: inner}
	return v.child(inner)
}

// Field returns a cursor over a named entry of this slot's mapping,
// creating the mapping if this slot was not already one. Used to build
// nested marshallable/mapping structures.
func (v *ValueOut) Field(name string) *ValueOut {
	if v.target.Kind != KindMapping && v.target.Kind != KindTypedObject {
		*v.target = Value{Kind: KindMapping}
	}
	dest := v.target
	if dest.Kind == KindTypedObject {
		dest = dest.Inner
	}
	val := &Value{}
	dest.SetField(name, val)
	return v.child(val)
}

// SequenceAny writes items as a Sequence node, invoking writeElem for
// each element's slot (spec §4.1 "sequence(items, writer)").
func (v *ValueOut) SequenceAny(items []any, writeElem func(*ValueOut, any)) *ValueOut {
	seq := make([]*Value, len(items))
	for i, item := range items {
		slot := &Value{}
		writeElem(v.child(slot), item)
		seq[i] = slot
	}
	*v.target = Value{Kind: KindSequence, Sequence: seq}
	return v
}

// Array writes n elements as a Sequence node, invoking fn with each
// index (spec §4.1 "array(lambda, elemType)").
func (v *ValueOut) Array(n int, fn func(*ValueOut, int)) *ValueOut {
	seq := make([]*Value, n)
	for i := 0; i < n; i++ {
		slot := &Value{}
		fn(v.child(slot), i)
		seq[i] = slot
	}
	*v.target = Value{Kind: KindSequence, Sequence: seq}
	return v
}

// WriteSequence is the typed counterpart of SequenceAny; Go method sets
// cannot be generic, so this is a free function taking the cursor.
func WriteSequence[T any](v *ValueOut, items []T, writeElem func(*ValueOut, T)) *ValueOut {
	seq := make([]*Value, len(items))
	for i, item := range items {
		slot := &Value{}
		writeElem(v.child(slot), item)
		seq[i] = slot
	}
	*v.target = Value{Kind: KindSequence, Sequence: seq}
	return v
}

// Marshallable writes m's declared fields in order (spec §4.4).
func (v *ValueOut) Marshallable(m Marshallable) *ValueOut {
	writeMarshallable(v, m)
	return v
}

// Object writes value using its dynamic type to pick an encoding:
// primitives map directly, nil/nil-pointer becomes null, *Value-style
// Marshallable recurses into field descriptors, registered enum types
// round-trip through their String()/parse pair, and anything else falls
// back to Go's %v text form (spec §4.1 "object(declaredType?, value)").
func (v *ValueOut) Object(declared reflect.Type, value any) *ValueOut {
	if value == nil {
		return v.Null()
	}
	if raw, ok := value.(Raw); ok {
		if v.binary {
			return v.Text(string(raw))
		}
		return v.RawText(string(raw))
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return v.Null()
		}
		rv = rv.Elem()
	}
	iv := rv.Interface()

	switch x := iv.(type) {
	case bool:
		return v.Bool(x)
	case int8:
		return v.Int8(x)
	case int16:
		return v.Int16(x)
	case int32:
		return v.Int32(x)
	case int64:
		return v.Int64(x)
	case int:
		return v.Int64(int64(x))
	case uint8:
		return v.Int8(int8(x))
	case uint16:
		return v.Int16(int16(x))
	case uint32:
		return v.Int32(int32(x))
	case uint64:
		return v.Int64(int64(x))
	case uint:
		return v.Int64(int64(x))
	case float32:
		return v.Float32(x)
	case float64:
		return v.Float64(x)
	case string:
		return v.Text(x)
	case []byte:
		return v.Bytes(x)
	}

	if m, ok := iv.(Marshallable); ok {
		if alias, ok := v.aliases.NameFor(rv.Type()); ok {
			inner := v.TypePrefix(alias)
			writeMarshallable(inner, m)
			return v
		}
		return v.Marshallable(m)
	}

	if codec, ok := lookupEnum(rv.Type()); ok {
		_ = codec
		if s, ok2 := iv.(fmt.Stringer); ok2 {
			return v.Text(s.String())
		}
	}

	if s, ok := iv.(fmt.Stringer); ok {
		return v.Text(s.String())
	}

	return v.Text(fmt.Sprintf("%v", iv))
}

// ValueIn is the dual of ValueOut: a cursor for reading a single slot of
// a decoded document's value tree.
type ValueIn struct {
	source  *Value
	aliases *AliasRegistry
}

func (v *ValueIn) IsNull() bool { return v == nil || v.source.IsNull() }

func (v *ValueIn) Bool() (bool, error) {
	if v.source == nil || v.source.Kind != KindBool {
		return false, fmt.Errorf("%w: expected bool, got %v", ErrProtocolViolation, kindOf(v.source))
	}
	return v.source.Bool, nil
}

func (v *ValueIn) Int64() (int64, error) {
	if v.source == nil || (v.source.Kind != KindInt && v.source.Kind != KindTimestamp) {
		return 0, fmt.Errorf("%w: expected int, got %v", ErrProtocolViolation, kindOf(v.source))
	}
	return v.source.Int, nil
}

func (v *ValueIn) Int8() (int8, error)   { i, err := v.Int64(); return int8(i), err }
func (v *ValueIn) Int16() (int16, error) { i, err := v.Int64(); return int16(i), err }
func (v *ValueIn) Int32() (int32, error) { i, err := v.Int64(); return int32(i), err }

func (v *ValueIn) Float64() (float64, error) {
	if v.source == nil || v.source.Kind != KindFloat {
		return 0, fmt.Errorf("%w: expected float, got %v", ErrProtocolViolation, kindOf(v.source))
	}
	return v.source.Float, nil
}

func (v *ValueIn) Float32() (float32, error) { f, err := v.Float64(); return float32(f), err }

func (v *ValueIn) Text() (string, error) {
	if v.source == nil || (v.source.Kind != KindText && v.source.Kind != KindRawText) {
		return "", fmt.Errorf("%w: expected text, got %v", ErrProtocolViolation, kindOf(v.source))
	}
	return v.source.Text, nil
}

func (v *ValueIn) Bytes() ([]byte, error) {
	if v.source == nil || v.source.Kind != KindBlob {
		return nil, fmt.Errorf("%w: expected blob, got %v", ErrProtocolViolation, kindOf(v.source))
	}
	return v.source.Blob, nil
}

// SequenceLen returns the number of elements if this slot is a sequence,
// else 0.
func (v *ValueIn) SequenceLen() int {
	if v.source == nil || v.source.Kind != KindSequence {
		return 0
	}
	return len(v.source.Sequence)
}

func (v *ValueIn) SequenceItem(i int) *ValueIn {
	if v.source == nil || v.source.Kind != KindSequence || i >= len(v.source.Sequence) {
		return &ValueIn{aliases: v.aliases}
	}
	return &ValueIn{source: v.source.Sequence[i], aliases: v.aliases}
}

// Field returns a cursor over a named mapping entry (or a typed-object's
// inner mapping entry).
func (v *ValueIn) Field(name string) *ValueIn {
	src := v.source
	if src != nil && src.Kind == KindTypedObject {
		src = src.Inner
	}
	return &ValueIn{source: src.Field(name), aliases: v.aliases}
}

// MappingKeys lists the entries of this slot's mapping, in document
// order.
func (v *ValueIn) MappingKeys() []MapEntry {
	if v.source == nil {
		return nil
	}
	src := v.source
	if src.Kind == KindTypedObject {
		src = src.Inner
	}
	if src.Kind != KindMapping {
		return nil
	}
	return src.Mapping
}

// TypeAlias returns the typed-object alias for this slot, if any.
func (v *ValueIn) TypeAlias() (string, bool) {
	if v.source == nil || v.source.Kind != KindTypedObject {
		return "", false
	}
	return v.source.TypeAlias, true
}

// Marshallable populates dst's declared fields from this slot (spec
// §4.4), including the reset-on-read invariant.
func (v *ValueIn) Marshallable(dst Marshallable) error {
	return readMarshallable(v, dst)
}

// Object decodes this slot into a value compatible with declared. If
// using is non-nil and addressable, it is populated in place rather than
// allocated (spec §4.1 "object(using?, declaredType?)").
func (v *ValueIn) Object(using any, declared reflect.Type) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	t := declared
	if t == nil && using != nil {
		t = reflect.TypeOf(using)
	}
	if t == nil {
		return v.genericObject()
	}

	target := t
	for target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	if codec, ok := lookupEnum(target); ok {
		text, err := v.Text()
		if err != nil {
			return nil, err
		}
		return codec.parse(text)
	}

	if using != nil {
		if m, ok := using.(Marshallable); ok {
			if err := readMarshallable(v, m); err != nil {
				return nil, err
			}
			return using, nil
		}
	}

	switch target.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int8:
		return v.Int8()
	case reflect.Int16:
		return v.Int16()
	case reflect.Int32:
		return v.Int32()
	case reflect.Int64, reflect.Int:
		return v.Int64()
	case reflect.Float32:
		return v.Float32()
	case reflect.Float64:
		return v.Float64()
	case reflect.String:
		return v.Text()
	case reflect.Slice:
		if target.Elem().Kind() == reflect.Uint8 {
			return v.Bytes()
		}
	}
	return v.genericObject()
}

func (v *ValueIn) genericObject() (any, error) {
	if v.source == nil {
		return nil, nil
	}
	switch v.source.Kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.source.Bool, nil
	case KindInt, KindTimestamp:
		return v.source.Int, nil
	case KindFloat:
		return v.source.Float, nil
	case KindText, KindRawText:
		return v.source.Text, nil
	case KindBlob:
		return v.source.Blob, nil
	default:
		return v.source, nil
	}
}

func kindOf(v *Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind
}
