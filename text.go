package wire

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// textWire is the text-YAML dialect (spec §4.1 "text dialect", §6.2). It
// borrows gopkg.in/yaml.v3 for the inner value tree's scalar/mapping/
// sequence encoding and quoting rules, wrapping it in the hand-written
// document framing (`--- !!data` / `...`) that isn't itself valid YAML —
// the framing markers are emitted as plain text around a yaml.Marshal of
// the converted node, not parsed by the yaml library.
type textWire struct {
	baseWire
	lastMeta bool
}

func newTextWire() *textWire {
	return &textWire{baseWire: newBaseWire(DialectText)}
}

var _ Wire = (*textWire)(nil)

// Dump renders body as a framed text-YAML document (spec §6.2). A nil body
// renders the not-ready-document placeholder used by End-to-end scenario 2.
func (w *textWire) Dump(body *Value) ([]byte, error) {
	if body == nil {
		return []byte("--- !!not-ready-data\n...\n"), nil
	}
	var sb strings.Builder
	tag := "!!data"
	if w.lastMeta {
		tag = "!!meta-data"
	}
	sb.WriteString("--- ")
	sb.WriteString(tag)
	sb.WriteByte('\n')

	node, err := valueToYAMLNode(body)
	if err != nil {
		return nil, err
	}
	if node != nil {
		out, err := yaml.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		sb.Write(out)
	}
	sb.WriteString("...\n")
	return []byte(sb.String()), nil
}

// lastMeta records whether the most recently reset writing document was
// tagged meta, since Dump only receives the body tree, not the
// WritingContext's meta flag.
func (w *textWire) Reset(doc *WritingContext, body *Value) {
	w.baseWire.Reset(doc, body)
	if doc != nil {
		w.lastMeta = doc.meta
	}
}

// Parse decodes a stream of framed text-YAML documents, returning the first
// one's body (used by the harness and by single-document tests; multi-
// document streams are split by the document framer, not by this dialect).
func (w *textWire) Parse(data []byte) (*Value, error) {
	text := string(data)
	text = strings.TrimPrefix(text, "--- !!data\n")
	text = strings.TrimPrefix(text, "--- !!meta-data\n")
	text = strings.TrimSuffix(strings.TrimRight(text, "\n"), "...")
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return &Value{Kind: KindMapping}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolViolation, err)
	}
	if len(node.Content) == 0 {
		return &Value{Kind: KindMapping}, nil
	}
	return yamlNodeToValue(node.Content[0])
}

// PositionMarker renders the decorative "# position: N, header: K" comment
// spec §6.2 places between documents, driven by the framer's own cursors
// rather than anything the dialect tracks.
func PositionMarker(position, header int64) string {
	return fmt.Sprintf("# position: %d, header: %d\n", position, header)
}

func valueToYAMLNode(v *Value) (*yaml.Node, error) {
	if v.IsNull() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	switch v.Kind {
	case KindBool:
		val := "false"
		if v.Bool {
			val = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val}, nil
	case KindInt, KindTimestamp:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: itoa(v.Int)}, nil
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: fmt.Sprintf("%g", v.Float)}, nil
	case KindText:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text, Style: yaml.DoubleQuotedStyle}, nil
	case KindRawText:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text}, nil
	case KindBlob:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: string(v.Blob)}, nil
	case KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v.Mapping {
			key := e.Name
			if e.HasID {
				key = idFallbackName(e.ID)
			}
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			valNode, err := valueToYAMLNode(e.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, keyNode, valNode)
		}
		return n, nil
	case KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Sequence {
			itemNode, err := valueToYAMLNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, itemNode)
		}
		return n, nil
	case KindTypedObject:
		inner, err := valueToYAMLNode(v.Inner)
		if err != nil {
			return nil, err
		}
		inner.Tag = "!" + v.TypeAlias
		return inner, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value kind %v for text dialect", ErrProtocolViolation, v.Kind)
	}
}

func yamlNodeToValue(n *yaml.Node) (*Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if strings.HasPrefix(n.Tag, "!") && n.Tag != "!!null" && n.Tag != "!!bool" &&
			n.Tag != "!!int" && n.Tag != "!!float" && n.Tag != "!!str" && n.Tag != "!!binary" {
			return &Value{Kind: KindTypedObject, TypeAlias: strings.TrimPrefix(n.Tag, "!"), Inner: &Value{Kind: KindMapping}}, nil
		}
		switch n.Tag {
		case "!!null":
			return &Value{Kind: KindNull}, nil
		case "!!bool":
			return &Value{Kind: KindBool, Bool: n.Value == "true"}, nil
		case "!!int":
			return Int64(parseInt64(n.Value)), nil
		case "!!float":
			return Float64Value(parseFloat64(n.Value)), nil
		case "!!binary":
			return &Value{Kind: KindBlob, Blob: []byte(n.Value)}, nil
		default:
			if n.Style == 0 {
				return &Value{Kind: KindRawText, Text: n.Value}, nil
			}
			return &Value{Kind: KindText, Text: n.Value}, nil
		}
	case yaml.MappingNode:
		m := &Value{Kind: KindMapping}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := yamlNodeToValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.SetField(key, val)
		}
		if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
			return &Value{Kind: KindTypedObject, TypeAlias: strings.TrimPrefix(n.Tag, "!"), Inner: m}, nil
		}
		return m, nil
	case yaml.SequenceNode:
		s := &Value{Kind: KindSequence}
		for _, item := range n.Content {
			val, err := yamlNodeToValue(item)
			if err != nil {
				return nil, err
			}
			s.Sequence = append(s.Sequence, val)
		}
		return s, nil
	default:
		return &Value{Kind: KindNull}, nil
	}
}

func parseInt64(s string) int64 {
	var v int64
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v
}

func parseFloat64(s string) float64 {
	var f float64
	fmt.Sscanf(s, "%g", &f)
	return f
}
