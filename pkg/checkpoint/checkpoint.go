// Package checkpoint reads and writes training checkpoints and restores them
// into live models.
//
// A checkpoint file starts with the 4-byte magic "VKCP" and a version byte,
// followed by a msgpack map holding the iteration, learning rate, model
// parameters and optional optimizer state. Parameters are ordered state dicts
// (see package tensor), so a checkpoint written from a model lists its keys
// in the model's own order.
//
// Loading is tolerant: keys the checkpoint lacks keep their current value and
// are logged, which lets a model grow new layers between training runs.
package checkpoint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/voicekit/pkg/storage"
	"github.com/haivivi/voicekit/pkg/tensor"
)

const version = 1

var magic = [4]byte{'V', 'K', 'C', 'P'}

// ErrMalformed is returned when a checkpoint cannot be deserialized.
var ErrMalformed = errors.New("checkpoint: malformed data")

// Checkpoint is a saved training state.
type Checkpoint struct {
	Iteration    int64             `msgpack:"iteration"`
	LearningRate float64           `msgpack:"learning_rate,omitempty"`
	Model        *tensor.StateDict `msgpack:"model"`
	Optimizer    *tensor.StateDict `msgpack:"optimizer,omitempty"`
}

// Read decodes a checkpoint from r.
func Read(r io.Reader) (*Checkpoint, error) {
	br := bufio.NewReader(r)
	var hdr [5]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformed, hdr[:4])
	}
	if hdr[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, hdr[4])
	}
	var ckpt Checkpoint
	if err := msgpack.NewDecoder(br).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ckpt.Model == nil {
		return nil, fmt.Errorf("%w: no model parameters", ErrMalformed)
	}
	return &ckpt, nil
}

// Write encodes ckpt to w.
func Write(w io.Writer, ckpt *Checkpoint) error {
	if ckpt == nil || ckpt.Model == nil {
		return errors.New("checkpoint: nothing to write")
	}
	bw := bufio.NewWriter(w)
	bw.Write(magic[:])
	bw.WriteByte(version)
	if err := msgpack.NewEncoder(bw).Encode(ckpt); err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	return bw.Flush()
}

// Open reads the checkpoint stored at path in store.
func Open(ctx context.Context, store storage.FileStore, path string) (*Checkpoint, error) {
	r, err := store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	defer r.Close()
	ckpt, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ckpt, nil
}

// Save writes ckpt to path in store.
func Save(ctx context.Context, store storage.FileStore, path string, ckpt *Checkpoint) error {
	w, err := store.Write(ctx, path)
	if err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", path, err)
	}
	if err := Write(w, ckpt); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", path, err)
	}
	return nil
}

// FromModel snapshots model into a new checkpoint at iteration.
func FromModel(model Model, iteration int64) *Checkpoint {
	return &Checkpoint{
		Iteration: iteration,
		Model:     unwrap(model).StateDict().Clone(),
	}
}
