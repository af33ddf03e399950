package checkpoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haivivi/voicekit/pkg/storage"
	"github.com/haivivi/voicekit/pkg/tensor"
)

// Report describes how a saved state dict lined up with a model.
type Report struct {
	// Loaded counts parameters copied from the checkpoint.
	Loaded int
	// Missing lists model parameters absent from the checkpoint.
	Missing []string
	// Mismatched lists parameters whose saved shape differs from the model's.
	Mismatched []string
	// Unexpected lists checkpoint parameters the model does not have.
	Unexpected []string
}

// Complete reports whether every model parameter came from the checkpoint.
func (r Report) Complete() bool {
	return len(r.Missing) == 0 && len(r.Mismatched) == 0
}

// Merge builds a new state dict with current's keys in current's order. Each
// value comes from saved when present with the same shape; otherwise the
// current value is kept. Neither input is modified.
func Merge(current, saved *tensor.StateDict) (*tensor.StateDict, Report) {
	var rep Report
	out := tensor.NewStateDict()
	for name, cur := range current.All() {
		v, ok := saved.Get(name)
		switch {
		case !ok:
			rep.Missing = append(rep.Missing, name)
			out.Set(name, cur)
		case !v.SameShape(cur):
			rep.Mismatched = append(rep.Mismatched, name)
			out.Set(name, cur)
		default:
			rep.Loaded++
			out.Set(name, v.Clone())
		}
	}
	for name := range saved.All() {
		if !current.Has(name) {
			rep.Unexpected = append(rep.Unexpected, name)
		}
	}
	return out, rep
}

// Load restores the checkpoint at path into model and returns its iteration.
// Parameters missing from the checkpoint keep their current values and are
// logged at info level.
func Load(ctx context.Context, store storage.FileStore, path string, model Model) (int64, error) {
	iter, _, err := LoadWithReport(ctx, store, path, model)
	return iter, err
}

// LoadWithReport is like Load and also returns the merge report.
func LoadWithReport(ctx context.Context, store storage.FileStore, path string, model Model) (int64, Report, error) {
	ckpt, err := Open(ctx, store, path)
	if err != nil {
		return 0, Report{}, err
	}
	rep, err := Restore(ctx, ckpt, model)
	if err != nil {
		return 0, rep, fmt.Errorf("checkpoint: load %s: %w", path, err)
	}
	slog.InfoContext(ctx, "loaded checkpoint", "path", path, "iteration", ckpt.Iteration)
	return ckpt.Iteration, rep, nil
}

// Restore merges ckpt's parameters into model.
func Restore(ctx context.Context, ckpt *Checkpoint, model Model) (Report, error) {
	m := unwrap(model)
	merged, rep := Merge(m.StateDict(), ckpt.Model)
	for _, name := range rep.Missing {
		slog.InfoContext(ctx, "parameter not in checkpoint, keeping current value", "key", name)
	}
	for _, name := range rep.Mismatched {
		cur, _ := m.StateDict().Get(name)
		saved, _ := ckpt.Model.Get(name)
		slog.InfoContext(ctx, "parameter shape mismatch, keeping current value",
			"key", name, "want", cur.Shape, "got", saved.Shape)
	}
	if len(rep.Unexpected) > 0 {
		slog.DebugContext(ctx, "checkpoint has unused parameters", "count", len(rep.Unexpected))
	}
	if err := m.LoadStateDict(merged); err != nil {
		return rep, err
	}
	return rep, nil
}
