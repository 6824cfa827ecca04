package writer

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/eykd/scenariodoc/internal/entity"
)

// Codec serializes entities to and from one on-disk format.
type Codec interface {
	// Ext is the file extension without the dot.
	Ext() string
	Marshal(kind entity.Kind, v any) ([]byte, error)
	Unmarshal(kind entity.Kind, data []byte, v any) error
}

// CodecFor returns the codec registered for format ("xml" or "json"). An
// empty format selects XML.
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "xml":
		return XMLCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want xml or json)", format)
	}
}

// XMLCodec writes one root element per entity kind. The root element comes
// from the entity's XMLName field.
type XMLCodec struct{}

// Ext implements Codec.
func (XMLCodec) Ext() string { return "xml" }

// Marshal implements Codec.
func (XMLCodec) Marshal(kind entity.Kind, v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s as xml: %w", kind, err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Unmarshal implements Codec. It rejects documents whose root element does
// not match kind.
func (XMLCodec) Unmarshal(kind entity.Kind, data []byte, v any) error {
	root, err := xmlRoot(data)
	if err != nil {
		return fmt.Errorf("read %s xml: %w", kind, err)
	}
	if root != string(kind) {
		return fmt.Errorf("read %s xml: unexpected root element <%s>", kind, root)
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s xml: %w", kind, err)
	}
	return nil
}

func xmlRoot(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// JSONCodec wraps each entity in an object keyed by its kind, e.g.
// {"useCase": {...}}.
type JSONCodec struct{}

// Ext implements Codec.
func (JSONCodec) Ext() string { return "json" }

// Marshal implements Codec.
func (JSONCodec) Marshal(kind entity.Kind, v any) ([]byte, error) {
	data, err := json.MarshalIndent(map[string]any{string(kind): v}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s as json: %w", kind, err)
	}
	return append(data, '\n'), nil
}

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(kind entity.Kind, data []byte, v any) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("unmarshal %s json: %w", kind, err)
	}
	raw, ok := wrapper[string(kind)]
	if !ok {
		return fmt.Errorf("unmarshal %s json: missing %q root key", kind, kind)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s json: %w", kind, err)
	}
	return nil
}
