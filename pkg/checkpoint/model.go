package checkpoint

import (
	"fmt"

	"github.com/haivivi/voicekit/pkg/tensor"
)

// Model is anything holding named parameters.
type Model interface {
	// StateDict returns the model's current parameters. Callers must not
	// modify the returned dict.
	StateDict() *tensor.StateDict

	// LoadStateDict replaces the model's parameters.
	LoadStateDict(*tensor.StateDict) error
}

// Wrapper is a container around a model, such as a data-parallel replica
// set. Loading and saving go through the wrapped model.
type Wrapper interface {
	Module() Model
}

func unwrap(m Model) Model {
	for {
		w, ok := m.(Wrapper)
		if !ok {
			return m
		}
		inner := w.Module()
		if inner == nil {
			return m
		}
		m = inner
	}
}

// MapModel is an in-memory Model backed by a StateDict.
type MapModel struct {
	params *tensor.StateDict
}

// NewMapModel returns a model holding params.
func NewMapModel(params *tensor.StateDict) *MapModel {
	if params == nil {
		params = tensor.NewStateDict()
	}
	return &MapModel{params: params}
}

func (m *MapModel) StateDict() *tensor.StateDict {
	return m.params
}

// LoadStateDict replaces the parameters. Every parameter the model already
// has must be present in d.
func (m *MapModel) LoadStateDict(d *tensor.StateDict) error {
	for name := range m.params.All() {
		if !d.Has(name) {
			return fmt.Errorf("checkpoint: missing parameter %q", name)
		}
	}
	m.params = d
	return nil
}
