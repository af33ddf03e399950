package tensor

import (
	"slices"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestNewValidatesShape(t *testing.T) {
	if _, err := New([]int{2, 3}, make([]float32, 6)); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New([]int{2, 3}, make([]float32, 5)); err == nil {
		t.Fatal("expected error for short data")
	}
	if _, err := New([]int{-1}, nil); err == nil {
		t.Fatal("expected error for negative dimension")
	}
}

func TestTensorEqualAndClone(t *testing.T) {
	a := &Tensor{Shape: []int{2}, Data: []float32{1, 2}}
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone not equal")
	}
	b.Data[0] = 9
	if a.Data[0] != 1 {
		t.Fatal("clone shares data")
	}
	if a.Equal(&Tensor{Shape: []int{1, 2}, Data: []float32{1, 2}}) {
		t.Fatal("different shapes compared equal")
	}
	if got := Zeros(2, 2).NumElements(); got != 4 {
		t.Fatalf("NumElements = %d", got)
	}
	if got := Scalar(3).NumElements(); got != 1 {
		t.Fatalf("scalar NumElements = %d", got)
	}
}

func TestStateDictOrder(t *testing.T) {
	d := NewStateDict()
	d.Set("enc.weight", Zeros(2, 2))
	d.Set("enc.bias", Zeros(2))
	d.Set("dec.weight", Zeros(3))
	d.Set("enc.weight", Zeros(1))
	if got := d.Keys(); !slices.Equal(got, []string{"enc.weight", "enc.bias", "dec.weight"}) {
		t.Fatalf("Keys() = %v", got)
	}
	d.Delete("enc.bias")
	d.Delete("missing")
	if got := d.Keys(); !slices.Equal(got, []string{"enc.weight", "dec.weight"}) {
		t.Fatalf("Keys() after delete = %v", got)
	}
	if got := d.NumElements(); got != 4 {
		t.Fatalf("NumElements = %d", got)
	}
}

func TestStateDictMsgpack(t *testing.T) {
	d := NewStateDict()
	d.Set("b", &Tensor{Shape: []int{2}, Data: []float32{1, 2}})
	d.Set("a", &Tensor{Shape: []int{1, 1}, Data: []float32{3}})
	d.Set("s", Scalar(0.5))

	data, err := msgpack.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back StateDict
	if err := msgpack.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Fatalf("round trip mismatch: %v vs %v", back.Keys(), d.Keys())
	}
}

func TestStateDictMsgpackRejectsBadShape(t *testing.T) {
	bad := []entry{{Name: "w", Shape: []int{3}, Data: []float32{1}}}
	data, err := msgpack.Marshal(bad)
	if err != nil {
		t.Fatal(err)
	}
	var d StateDict
	if err := msgpack.Unmarshal(data, &d); err == nil {
		t.Fatal("expected shape error")
	}
}
