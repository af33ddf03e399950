package hparams

import (
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
)

// HParams is an ordered mapping from key to value. Values are scalars
// (string, int64, float64, bool, nil), lists ([]any) or nested *HParams.
//
// The zero value is an empty mapping ready to use.
type HParams struct {
	keys   []string
	values map[string]any
}

// New wraps m as HParams. Nested maps, including maps inside lists, are
// wrapped recursively. Keys are sorted since Go maps carry no order; use
// [Parse] to keep the order of a source document.
func New(m map[string]any) *HParams {
	h := &HParams{}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		h.Set(k, m[k])
	}
	return h
}

// Len returns the number of keys.
func (h *HParams) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// Has reports whether key is present.
func (h *HParams) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h.values[key]
	return ok
}

// Get returns the value stored under key.
func (h *HParams) Get(key string) (any, bool) {
	if h == nil {
		return nil, false
	}
	v, ok := h.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the key order; an
// existing key keeps its position. Maps are wrapped as *HParams.
func (h *HParams) Set(key string, value any) {
	if h.values == nil {
		h.values = make(map[string]any)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = wrap(value)
}

// Delete removes key. Deleting a missing key is a no-op.
func (h *HParams) Delete(key string) {
	if h == nil {
		return
	}
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	h.keys = slices.DeleteFunc(h.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in document order.
func (h *HParams) Keys() []string {
	if h == nil {
		return nil
	}
	return slices.Clone(h.keys)
}

// Values returns the values in key order.
func (h *HParams) Values() []any {
	if h == nil {
		return nil
	}
	vs := make([]any, len(h.keys))
	for i, k := range h.keys {
		vs[i] = h.values[k]
	}
	return vs
}

// Items iterates over key/value pairs in document order.
func (h *HParams) Items() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if h == nil {
			return
		}
		for _, k := range h.keys {
			if !yield(k, h.values[k]) {
				return
			}
		}
	}
}

// Sub returns the nested mapping under key, or nil if key is missing or is
// not a mapping. Accessors on a nil *HParams report missing keys, so lookups
// can be chained.
func (h *HParams) Sub(key string) *HParams {
	v, _ := h.Get(key)
	sub, _ := v.(*HParams)
	return sub
}

// String returns the string value under key.
func (h *HParams) String(key string) (string, bool) {
	v, _ := h.Get(key)
	s, ok := v.(string)
	return s, ok
}

// Bool returns the bool value under key.
func (h *HParams) Bool(key string) (bool, bool) {
	v, _ := h.Get(key)
	b, ok := v.(bool)
	return b, ok
}

// Int returns the integer value under key. Floats without a fractional part
// are accepted.
func (h *HParams) Int(key string) (int64, bool) {
	v, _ := h.Get(key)
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	}
	return 0, false
}

// Float returns the numeric value under key as float64.
func (h *HParams) Float(key string) (float64, bool) {
	v, _ := h.Get(key)
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Lookup resolves a dotted path such as "train.batch_size" or
// "model.upsample_rates.0". Numeric segments index into lists.
func (h *HParams) Lookup(path string) (any, bool) {
	if path == "" {
		return h, h != nil
	}
	var cur any = h
	for _, seg := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case *HParams:
			v, ok := c.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Map returns the document as plain nested maps and slices.
func (h *HParams) Map() map[string]any {
	if h == nil {
		return nil
	}
	m := make(map[string]any, len(h.keys))
	for _, k := range h.keys {
		m[k] = unwrap(h.values[k])
	}
	return m
}

// Clone returns a deep copy.
func (h *HParams) Clone() *HParams {
	if h == nil {
		return nil
	}
	c := &HParams{
		keys:   slices.Clone(h.keys),
		values: make(map[string]any, len(h.values)),
	}
	for k, v := range h.values {
		c.values[k] = cloneValue(v)
	}
	return c
}

// GoString renders the document as compact JSON in key order, so %#v
// prints the document instead of the internal layout.
func (h *HParams) GoString() string {
	b, err := h.MarshalJSON()
	if err != nil {
		return "hparams(" + err.Error() + ")"
	}
	return string(b)
}

// wrap converts plain maps into *HParams and normalises numbers so every
// integer is int64 and every other number is float64.
func wrap(v any) any {
	switch x := v.(type) {
	case *HParams:
		return x
	case map[string]any:
		return New(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = wrap(e)
		}
		return out
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return uintValue(x)
	case float32:
		return float64(x)
	}
	return v
}

func uintValue(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func unwrap(v any) any {
	switch x := v.(type) {
	case *HParams:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = unwrap(e)
		}
		return out
	}
	return v
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case *HParams:
		return x.Clone()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
