package tensor

import (
	"fmt"
	"iter"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// StateDict is an ordered mapping from parameter name to tensor.
// The zero value is empty and ready to use.
type StateDict struct {
	names   []string
	tensors map[string]*Tensor
}

// NewStateDict returns an empty StateDict.
func NewStateDict() *StateDict {
	return &StateDict{tensors: make(map[string]*Tensor)}
}

// Len returns the number of parameters.
func (d *StateDict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Has reports whether name is present.
func (d *StateDict) Has(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.tensors[name]
	return ok
}

// Get returns the tensor stored under name.
func (d *StateDict) Get(name string) (*Tensor, bool) {
	if d == nil {
		return nil, false
	}
	t, ok := d.tensors[name]
	return t, ok
}

// Set stores t under name. A new name is appended; an existing name keeps
// its position.
func (d *StateDict) Set(name string, t *Tensor) {
	if d.tensors == nil {
		d.tensors = make(map[string]*Tensor)
	}
	if _, ok := d.tensors[name]; !ok {
		d.names = append(d.names, name)
	}
	d.tensors[name] = t
}

// Delete removes name.
func (d *StateDict) Delete(name string) {
	if !d.Has(name) {
		return
	}
	delete(d.tensors, name)
	d.names = slices.DeleteFunc(d.names, func(n string) bool { return n == name })
}

// Keys returns parameter names in insertion order.
func (d *StateDict) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.names)
}

// All iterates over name/tensor pairs in insertion order.
func (d *StateDict) All() iter.Seq2[string, *Tensor] {
	return func(yield func(string, *Tensor) bool) {
		if d == nil {
			return
		}
		for _, n := range d.names {
			if !yield(n, d.tensors[n]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (d *StateDict) Clone() *StateDict {
	c := NewStateDict()
	for n, t := range d.All() {
		c.Set(n, t.Clone())
	}
	return c
}

// Equal reports whether both dicts hold the same names, in the same order,
// with equal tensors.
func (d *StateDict) Equal(o *StateDict) bool {
	if d.Len() != o.Len() {
		return false
	}
	if !slices.Equal(d.Keys(), o.Keys()) {
		return false
	}
	for n, t := range d.All() {
		ot, _ := o.Get(n)
		if !t.Equal(ot) {
			return false
		}
	}
	return true
}

// NumElements returns the total number of parameters.
func (d *StateDict) NumElements() int {
	total := 0
	for _, t := range d.All() {
		total += t.NumElements()
	}
	return total
}

type entry struct {
	Name  string    `msgpack:"name"`
	Shape []int     `msgpack:"shape"`
	Data  []float32 `msgpack:"data"`
}

// EncodeMsgpack implements msgpack.CustomEncoder. Entries are written as an
// array so the order survives.
func (d *StateDict) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(d.Len()); err != nil {
		return err
	}
	for n, t := range d.All() {
		if err := enc.Encode(&entry{Name: n, Shape: t.Shape, Data: t.Data}); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (d *StateDict) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	// n comes from the file; only trust it as far as preallocation goes.
	*d = StateDict{tensors: make(map[string]*Tensor, min(max(n, 0), 1024))}
	for range max(n, 0) {
		var e entry
		if err := dec.Decode(&e); err != nil {
			return err
		}
		if d.Has(e.Name) {
			return fmt.Errorf("tensor: duplicate parameter %q", e.Name)
		}
		t := &Tensor{Shape: e.Shape, Data: e.Data}
		if t.Shape == nil {
			t.Shape = []int{}
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tensor: parameter %q: %w", e.Name, err)
		}
		d.Set(e.Name, t)
	}
	return nil
}
