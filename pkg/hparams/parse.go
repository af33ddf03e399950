package hparams

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonrepair"
)

// ErrNotMapping is returned when the top-level value of a document is not a
// mapping.
var ErrNotMapping = errors.New("hparams: top-level value is not a mapping")

// ParseOption configures Parse and LoadFile.
type ParseOption func(*parseOptions)

type parseOptions struct {
	repair bool
}

// WithRepair makes JSON parsing retry once on a repaired copy of the input
// (trailing commas, missing commas, single quotes, comments). Without it a
// malformed document is a parse error.
func WithRepair() ParseOption {
	return func(o *parseOptions) { o.repair = true }
}

// LoadFile reads a hyperparameter document from path. Files ending in .yaml
// or .yml are parsed as YAML, everything else as JSON. A missing file returns
// an error wrapping fs.ErrNotExist.
func LoadFile(path string, opts ...ParseOption) (*HParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hparams: %w", err)
	}
	var h *HParams
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		h, err = ParseYAML(data)
	default:
		h, err = Parse(data, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("hparams: load %s: %w", path, err)
	}
	return h, nil
}

// Parse parses a JSON document keeping key order. Syntax errors and
// truncated input fail with an error wrapping *json.SyntaxError or
// io.ErrUnexpectedEOF unless WithRepair is given.
func Parse(data []byte, opts ...ParseOption) (*HParams, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}
	h, err := parseJSON(data)
	if err == nil {
		return h, nil
	}
	var syntaxErr *json.SyntaxError
	if !o.repair || (!errors.Is(err, io.ErrUnexpectedEOF) && !errors.As(err, &syntaxErr)) {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return nil, err
	}
	h, rerr = parseJSON([]byte(fixed))
	if rerr != nil {
		return nil, err
	}
	return h, nil
}

// ParseYAML parses a YAML document keeping key order.
func ParseYAML(data []byte) (*HParams, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("hparams: parse yaml: %w", err)
	}
	out, err := fromYAML(v)
	if err != nil {
		return nil, err
	}
	h, ok := out.(*HParams)
	if !ok {
		return nil, ErrNotMapping
	}
	return h, nil
}

func parseJSON(data []byte) (*HParams, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	h, err := decodeDocument(dec)
	if err != nil {
		if errors.Is(err, ErrNotMapping) {
			return nil, err
		}
		// A clean EOF can only come from input ending inside the document.
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("hparams: parse: %w", err)
	}
	return h, nil
}

func decodeDocument(dec *json.Decoder) (*HParams, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotMapping
	}
	h, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	switch _, err := dec.Token(); err {
	case io.EOF:
		return h, nil
	case nil:
		return nil, &json.SyntaxError{Offset: dec.InputOffset()}
	default:
		return nil, err
	}
}

// decodeObject reads members until the closing brace. The opening brace has
// already been consumed.
func decodeObject(dec *json.Decoder) (*HParams, error) {
	h := &HParams{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		h.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			list := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return parseNumber(t)
	}
	return tok, nil
}

func parseNumber(n json.Number) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", n, err)
	}
	return f, nil
}

func fromYAML(v any) (any, error) {
	switch x := v.(type) {
	case yaml.MapSlice:
		h := &HParams{}
		for _, item := range x {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}
			val, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			h.Set(key, val)
		}
		return h, nil
	case map[string]any:
		return New(x), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			val, err := fromYAML(e)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
	return wrap(v), nil
}
