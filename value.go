package wire

import "math"

// Kind identifies which shape a Value node holds. Every wire dialect maps
// its own physical representation onto exactly these node kinds (spec §3
// "Value tree").
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindRawText
	KindBlob
	KindTimestamp
	KindMapping
	KindSequence
	KindTypedObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindRawText:
		return "rawtext"
	case KindBlob:
		return "blob"
	case KindTimestamp:
		return "timestamp"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindTypedObject:
		return "typedobject"
	default:
		return "unknown"
	}
}

// IntWidth records the declared width of an integer node so a binary
// dialect can round-trip it exactly (spec §3 "integer (with a width hint)").
type IntWidth uint8

const (
	Width8 IntWidth = iota
	Width16
	Width32
	Width64
)

// FloatWidth records the declared width of a floating-point node.
type FloatWidth uint8

const (
	Width32F FloatWidth = iota
	Width64F
)

// TimeConversion controls how a Timestamp node's integer payload is
// rendered in the text/JSON dialects (spec §4.4 NanoTime).
type TimeConversion uint8

const (
	TimeConversionNone TimeConversion = iota
	TimeConversionNanos
	TimeConversionMillis
)

// MapEntry is one key/value pair of a Mapping node. A key is either a text
// name or, in the binary dialect only, a numeric event id (spec §3 "Event
// record").
type MapEntry struct {
	Name  string
	ID    int64
	HasID bool
	Value *Value
}

// Value is a node in the self-describing document tree every wire dialect
// reads and writes (spec §3 "Value tree").
type Value struct {
	Kind Kind

	Bool bool

	Int      int64
	IntWidth IntWidth

	Float      float64
	FloatWidth FloatWidth

	Text string // used by Text and RawText nodes

	Blob []byte

	TimeConversion TimeConversion

	Mapping  []MapEntry
	Sequence []*Value

	TypeAlias string // set when Kind == KindTypedObject
	Inner     *Value // the mapping payload of a typed-object node
}

func Null() *Value { return &Value{Kind: KindNull} }

func Bool(b bool) *Value { return &Value{Kind: KindBool, Bool: b} }

func Int(v int64, w IntWidth) *Value { return &Value{Kind: KindInt, Int: v, IntWidth: w} }

func Int8(v int8) *Value   { return Int(int64(v), Width8) }
func Int16(v int16) *Value { return Int(int64(v), Width16) }
func Int32(v int32) *Value { return Int(int64(v), Width32) }
func Int64(v int64) *Value { return Int(v, Width64) }

func Float(v float64, w FloatWidth) *Value { return &Value{Kind: KindFloat, Float: v, FloatWidth: w} }
func Float32Value(v float32) *Value        { return Float(float64(v), Width32F) }
func Float64Value(v float64) *Value        { return Float(v, Width64F) }

func Text(s string) *Value    { return &Value{Kind: KindText, Text: s} }
func RawText(s string) *Value { return &Value{Kind: KindRawText, Text: s} }
func Blob(b []byte) *Value    { return &Value{Kind: KindBlob, Blob: b} }

func Timestamp(nanos int64, conv TimeConversion) *Value {
	return &Value{Kind: KindTimestamp, Int: nanos, TimeConversion: conv}
}

func Mapping(entries ...MapEntry) *Value {
	return &Value{Kind: KindMapping, Mapping: entries}
}

func Sequence(items ...*Value) *Value {
	return &Value{Kind: KindSequence, Sequence: items}
}

func TypedObject(alias string, inner *Value) *Value {
	return &Value{Kind: KindTypedObject, TypeAlias: alias, Inner: inner}
}

// Field looks up a mapping entry by name, returning nil if absent.
func (v *Value) Field(name string) *Value {
	if v == nil || v.Kind != KindMapping {
		return nil
	}
	for _, e := range v.Mapping {
		if !e.HasID && e.Name == name {
			return e.Value
		}
	}
	return nil
}

// FieldByID looks up a mapping entry by numeric event id.
func (v *Value) FieldByID(id int64) *Value {
	if v == nil || v.Kind != KindMapping {
		return nil
	}
	for _, e := range v.Mapping {
		if e.HasID && e.ID == id {
			return e.Value
		}
	}
	return nil
}

// SetField inserts or replaces a named mapping entry, preserving
// declaration order for first insertion (spec §4.4 "writes fields in
// declaration order").
func (v *Value) SetField(name string, val *Value) {
	for i := range v.Mapping {
		if !v.Mapping[i].HasID && v.Mapping[i].Name == name {
			v.Mapping[i].Value = val
			return
		}
	}
	v.Mapping = append(v.Mapping, MapEntry{Name: name, Value: val})
}

// SetFieldID inserts or replaces an id-keyed mapping entry (binary only).
func (v *Value) SetFieldID(id int64, val *Value) {
	for i := range v.Mapping {
		if v.Mapping[i].HasID && v.Mapping[i].ID == id {
			v.Mapping[i].Value = val
			return
		}
	}
	v.Mapping = append(v.Mapping, MapEntry{ID: id, HasID: true, Value: val})
}

// IsNull reports whether v is nil or an explicit null node.
func (v *Value) IsNull() bool { return v == nil || v.Kind == KindNull }

// Equal performs a structural comparison of the two trees, per spec §8's
// roundtrip and cross-dialect equivalence properties. Floats compare
// bitwise once NaN payloads are canonicalized to a single representation.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v.IsNull() && o.IsNull()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		if isNaN(v.Float) && isNaN(o.Float) {
			return true
		}
		return math.Float64bits(v.Float) == math.Float64bits(o.Float)
	case KindText, KindRawText:
		return v.Text == o.Text
	case KindBlob:
		return bytesEqual(v.Blob, o.Blob)
	case KindTimestamp:
		return v.Int == o.Int
	case KindMapping:
		if len(v.Mapping) != len(o.Mapping) {
			return false
		}
		for i := range v.Mapping {
			a, b := v.Mapping[i], o.Mapping[i]
			if a.HasID != b.HasID || a.Name != b.Name || a.ID != b.ID {
				return false
			}
			if !a.Value.Equal(b.Value) {
				return false
			}
		}
		return true
	case KindSequence:
		if len(v.Sequence) != len(o.Sequence) {
			return false
		}
		for i := range v.Sequence {
			if !v.Sequence[i].Equal(o.Sequence[i]) {
				return false
			}
		}
		return true
	case KindTypedObject:
		return v.TypeAlias == o.TypeAlias && v.Inner.Equal(o.Inner)
	default:
		return false
	}
}

func isNaN(f float64) bool { return f != f }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
