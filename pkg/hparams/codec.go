package hparams

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MarshalJSON implements json.Marshaler, writing keys in document order.
func (h *HParams) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range h.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(h.values[k])
		if err != nil {
			return nil, fmt.Errorf("hparams: marshal %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping document order.
func (h *HParams) UnmarshalJSON(data []byte) error {
	parsed, err := parseJSON(data)
	if err != nil {
		return err
	}
	*h = *parsed
	return nil
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (h *HParams) MarshalYAML() (any, error) {
	return toMapSlice(h), nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (h *HParams) UnmarshalYAML(data []byte) error {
	parsed, err := ParseYAML(data)
	if err != nil {
		return err
	}
	*h = *parsed
	return nil
}

// Decode decodes the document into v, a pointer to a struct or map, using
// the struct's json tags.
func (h *HParams) Decode(v any) error {
	data, err := h.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("hparams: decode: %w", err)
	}
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (h *HParams) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(h.Len()); err != nil {
		return err
	}
	for k, v := range h.Items() {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (h *HParams) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	*h = HParams{}
	for range max(n, 0) {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := decodeMsgpackValue(dec)
		if err != nil {
			return fmt.Errorf("hparams: decode %q: %w", key, err)
		}
		h.Set(key, v)
	}
	return nil
}

func decodeMsgpackValue(dec *msgpack.Decoder) (any, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		sub := &HParams{}
		if err := sub.DecodeMsgpack(dec); err != nil {
			return nil, err
		}
		return sub, nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		list := make([]any, 0, min(max(n, 0), 64))
		for range max(n, 0) {
			v, err := decodeMsgpackValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	}
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, err
	}
	return wrap(v), nil
}

func toMapSlice(h *HParams) yaml.MapSlice {
	if h == nil {
		return nil
	}
	ms := make(yaml.MapSlice, 0, h.Len())
	for k, v := range h.Items() {
		ms = append(ms, yaml.MapItem{Key: k, Value: yamlValue(v)})
	}
	return ms
}

func yamlValue(v any) any {
	switch x := v.(type) {
	case *HParams:
		return toMapSlice(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = yamlValue(e)
		}
		return out
	}
	return v
}
