package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// jsonWire is the JSON dialect (spec §4.1 "JSON dialect"). No pack
// repository carries a third-party encoder for an arbitrary self-
// describing tree (see DESIGN.md), so this dialect is written directly
// against the standard library's encoding/json, using json.Decoder's
// token stream to preserve field order on read — something json.Unmarshal
// into a map cannot do — and a hand-rolled writer so typed-object members
// keep their declaration order on write too.
type jsonWire struct {
	baseWire
}

func newJSONWire() *jsonWire {
	return &jsonWire{baseWire: newBaseWire(DialectJSON)}
}

var _ Wire = (*jsonWire)(nil)

func (w *jsonWire) Dump(body *Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, body); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (w *jsonWire) Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	return v, nil
}

func writeJSONValue(buf *bytes.Buffer, v *Value) error {
	if v.IsNull() {
		buf.WriteString("null")
		return nil
	}
	switch v.Kind {
	case KindBool:
		if v.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInt, KindTimestamp:
		buf.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		buf.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case KindText, KindRawText:
		enc, err := json.Marshal(v.Text)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindBlob:
		enc, err := json.Marshal(v.Blob)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindMapping:
		buf.WriteByte('{')
		for i, e := range v.Mapping {
			if i > 0 {
				buf.WriteByte(',')
			}
			key := e.Name
			if e.HasID {
				key = idFallbackName(e.ID)
			}
			keyEnc, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := writeJSONValue(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range v.Sequence {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindTypedObject:
		buf.WriteByte('{')
		buf.WriteString(`"@type":`)
		typeEnc, err := json.Marshal(v.TypeAlias)
		if err != nil {
			return err
		}
		buf.Write(typeEnc)
		if v.Inner != nil {
			for _, e := range v.Inner.Mapping {
				buf.WriteByte(',')
				keyEnc, err := json.Marshal(e.Name)
				if err != nil {
					return err
				}
				buf.Write(keyEnc)
				buf.WriteByte(':')
				if err := writeJSONValue(buf, e.Value); err != nil {
					return err
				}
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: unsupported value kind %v for json dialect", ErrProtocolViolation, v.Kind)
	}
	return nil
}

func readJSONValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return jsonTokenToValue(dec, tok)
}

func jsonTokenToValue(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return &Value{Kind: KindNull}, nil
	case bool:
		return &Value{Kind: KindBool, Bool: t}, nil
	case json.Number:
		if iv, err := t.Int64(); err == nil {
			return Int64(iv), nil
		}
		fv, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return Float64Value(fv), nil
	case float64:
		return Float64Value(t), nil
	case string:
		return &Value{Kind: KindText, Text: t}, nil
	case json.Delim:
		switch t {
		case '{':
			return readJSONObject(dec)
		case '[':
			return readJSONArray(dec)
		default:
			return nil, fmt.Errorf("unexpected JSON delimiter %v", t)
		}
	default:
		return nil, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

func readJSONObject(dec *json.Decoder) (*Value, error) {
	m := &Value{Kind: KindMapping}
	var typeAlias string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		val, err := readJSONValue(dec)
		if err != nil {
			return nil, err
		}
		if key == "@type" {
			if val.Kind == KindText {
				typeAlias = val.Text
			}
			continue
		}
		m.SetField(key, val)
	}
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, err
	}
	if typeAlias != "" {
		return &Value{Kind: KindTypedObject, TypeAlias: typeAlias, Inner: m}, nil
	}
	return m, nil
}

func readJSONArray(dec *json.Decoder) (*Value, error) {
	s := &Value{Kind: KindSequence}
	for dec.More() {
		val, err := readJSONValue(dec)
		if err != nil {
			return nil, err
		}
		s.Sequence = append(s.Sequence, val)
	}
	if _, err := dec.Token(); err != nil { // consume closing ']'
		return nil, err
	}
	return s, nil
}
