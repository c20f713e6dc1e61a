package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// binary tags (spec §4.1 "binary dialect"). One byte per node, followed by
// a kind-specific payload; widths are explicit so a reader never has to
// guess, matching how _examples/oy3o-codec's Fixed[Payload] always encodes
// a value's exact on-wire width rather than a variable-length encoding.
const (
	tagNull byte = iota
	tagFalse
	tagTrue
	tagInt8
	tagInt16
	tagInt32
	tagInt64
	tagFloat32
	tagFloat64
	tagText
	tagRawText
	tagBlob
	tagTimestamp
	tagMapping
	tagMappingID
	tagSequence
	tagTypedObject
)

// binaryWire is the binary dialect (spec §4.1 "binary dialect"). It uses
// encoding/binary directly, exactly as _examples/oy3o-codec's Writer/Reader
// already do for fixed-width primitives (writer.go's WriteUint32/ReadUint32
// family); this dialect does not reuse that buffered stream-oriented Writer
// type itself since it operates on an already-decoded Value tree rather
// than an io.Writer stream, but follows the dialect's little-endian,
// explicit-width convention throughout (spec §6.4).
type binaryWire struct {
	baseWire
}

func newBinaryWire() *binaryWire {
	return &binaryWire{baseWire: newBaseWire(DialectBinary)}
}

var _ Wire = (*binaryWire)(nil)

func (w *binaryWire) Dump(body *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBinaryValue(&buf, body); err != nil {
		return nil, err
	}
	if w.usePadding {
		for buf.Len()%4 != 0 {
			buf.WriteByte(0)
		}
	}
	return buf.Bytes(), nil
}

func (w *binaryWire) Parse(data []byte) (*Value, error) {
	r := bytes.NewReader(data)
	return readBinaryValue(r)
}

func writeBinaryValue(buf *bytes.Buffer, v *Value) error {
	if v.IsNull() {
		buf.WriteByte(tagNull)
		return nil
	}
	switch v.Kind {
	case KindBool:
		if v.Bool {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
	case KindInt:
		writeBinaryInt(buf, v.Int, v.IntWidth)
	case KindTimestamp:
		buf.WriteByte(tagTimestamp)
		buf.WriteByte(byte(v.TimeConversion))
		writeUint64(buf, uint64(v.Int))
	case KindFloat:
		if v.FloatWidth == Width32F {
			buf.WriteByte(tagFloat32)
			writeUint32(buf, math.Float32bits(float32(v.Float)))
		} else {
			buf.WriteByte(tagFloat64)
			writeUint64(buf, math.Float64bits(v.Float))
		}
	case KindText, KindRawText:
		tag := tagText
		if v.Kind == KindRawText {
			tag = tagRawText
		}
		buf.WriteByte(tag)
		writeBinaryString(buf, v.Text)
	case KindBlob:
		buf.WriteByte(tagBlob)
		writeUint32(buf, uint32(len(v.Blob)))
		buf.Write(v.Blob)
	case KindMapping:
		return writeBinaryMapping(buf, v)
	case KindSequence:
		buf.WriteByte(tagSequence)
		writeUint32(buf, uint32(len(v.Sequence)))
		for _, item := range v.Sequence {
			if err := writeBinaryValue(buf, item); err != nil {
				return err
			}
		}
	case KindTypedObject:
		buf.WriteByte(tagTypedObject)
		writeBinaryString(buf, v.TypeAlias)
		return writeBinaryValue(buf, v.Inner)
	default:
		return fmt.Errorf("%w: unsupported value kind %v for binary dialect", ErrProtocolViolation, v.Kind)
	}
	return nil
}

// writeBinaryMapping encodes a mapping's entries with per-entry tags since
// binary streams may mix numeric method ids and names within one event
// record (spec §4.6 item 2, "useMethodId"); entries carrying a numeric id
// are written with tagMappingID regardless of the overall node's shape.
func writeBinaryMapping(buf *bytes.Buffer, v *Value) error {
	buf.WriteByte(tagMapping)
	writeUint32(buf, uint32(len(v.Mapping)))
	for _, e := range v.Mapping {
		if e.HasID {
			buf.WriteByte(tagMappingID)
			writeUint64(buf, uint64(e.ID))
		} else {
			buf.WriteByte(0)
			writeBinaryString(buf, e.Name)
		}
		if err := writeBinaryValue(buf, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeBinaryInt(buf *bytes.Buffer, v int64, w IntWidth) {
	switch w {
	case Width8:
		buf.WriteByte(tagInt8)
		buf.WriteByte(byte(v))
	case Width16:
		buf.WriteByte(tagInt16)
		writeUint16(buf, uint16(v))
	case Width32:
		buf.WriteByte(tagInt32)
		writeUint32(buf, uint32(v))
	default:
		buf.WriteByte(tagInt64)
		writeUint64(buf, uint64(v))
	}
}

func writeBinaryString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readBinaryValue(r *bytes.Reader) (*Value, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	switch tag {
	case tagNull:
		return &Value{Kind: KindNull}, nil
	case tagFalse:
		return &Value{Kind: KindBool, Bool: false}, nil
	case tagTrue:
		return &Value{Kind: KindBool, Bool: true}, nil
	case tagInt8:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return Int8(int8(b)), nil
	case tagInt16:
		v, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		return Int16(int16(v)), nil
	case tagInt32:
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return Int32(int32(v)), nil
	case tagInt64:
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return Int64(int64(v)), nil
	case tagFloat32:
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return Float32Value(math.Float32frombits(v)), nil
	case tagFloat64:
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return Float64Value(math.Float64frombits(v)), nil
	case tagText, tagRawText:
		s, err := readBinaryString(r)
		if err != nil {
			return nil, err
		}
		if tag == tagRawText {
			return &Value{Kind: KindRawText, Text: s}, nil
		}
		return &Value{Kind: KindText, Text: s}, nil
	case tagBlob:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		b := make([]byte, n)
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
		return &Value{Kind: KindBlob, Blob: b}, nil
	case tagTimestamp:
		conv, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		v, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		return Timestamp(int64(v), TimeConversion(conv)), nil
	case tagMapping:
		return readBinaryMapping(r)
	case tagSequence:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		s := &Value{Kind: KindSequence}
		for i := uint32(0); i < n; i++ {
			item, err := readBinaryValue(r)
			if err != nil {
				return nil, err
			}
			s.Sequence = append(s.Sequence, item)
		}
		return s, nil
	case tagTypedObject:
		alias, err := readBinaryString(r)
		if err != nil {
			return nil, err
		}
		inner, err := readBinaryValue(r)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: KindTypedObject, TypeAlias: alias, Inner: inner}, nil
	default:
		return nil, fmt.Errorf("%w: unknown binary tag %d", ErrProtocolViolation, tag)
	}
}

func readBinaryMapping(r *bytes.Reader) (*Value, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	m := &Value{Kind: KindMapping}
	for i := uint32(0); i < n; i++ {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var entry MapEntry
		if kindByte == tagMappingID {
			id, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			entry.HasID = true
			entry.ID = int64(id)
		} else {
			name, err := readBinaryString(r)
			if err != nil {
				return nil, err
			}
			entry.Name = name
		}
		val, err := readBinaryValue(r)
		if err != nil {
			return nil, err
		}
		entry.Value = val
		m.Mapping = append(m.Mapping, entry)
	}
	return m, nil
}

func readBinaryString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func readUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
