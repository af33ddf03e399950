package commands

import (
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/haivivi/voicekit/pkg/checkpoint"
	"github.com/haivivi/voicekit/pkg/storage"
	"github.com/haivivi/voicekit/pkg/tensor"
)

func vec(vs ...float32) *tensor.Tensor {
	t, err := tensor.New([]int{len(vs)}, vs)
	if err != nil {
		panic(err)
	}
	return t
}

func saveCheckpoint(t *testing.T, path string, iteration int64, kv ...any) {
	t.Helper()
	d := tensor.NewStateDict()
	for i := 0; i < len(kv); i += 2 {
		d.Set(kv[i].(string), kv[i+1].(*tensor.Tensor))
	}
	ckpt := &checkpoint.Checkpoint{Iteration: iteration, LearningRate: 2e-4, Model: d}
	if err := checkpoint.Save(context.Background(), storage.Filesystem(), path, ckpt); err != nil {
		t.Fatal(err)
	}
}

func TestCheckpointInspect(t *testing.T) {
	setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "G_100.ckpt")
	saveCheckpoint(t, path, 100, "enc.weight", vec(1, 2, 3), "enc.bias", vec(0))

	stdout, stderr, code := runCmd(t, "checkpoint", "inspect", path, "--keys", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var got CheckpointSummary
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if got.Iteration != 100 || got.Parameters != 2 || got.Elements != 4 {
		t.Errorf("summary = %+v", got)
	}
	if len(got.Keys) != 2 || got.Keys[0].Name != "enc.weight" || !slices.Equal(got.Keys[0].Shape, []int{3}) {
		t.Errorf("keys = %+v", got.Keys)
	}

	_, _, code = runCmd(t, "checkpoint", "inspect", writeTestFile(t, "junk.ckpt", "not a checkpoint"))
	if code == 0 {
		t.Error("expected error for malformed checkpoint")
	}
}

func TestCheckpointMerge(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	model := filepath.Join(dir, "init.ckpt")
	saved := filepath.Join(dir, "G_900.ckpt")
	out := filepath.Join(dir, "warm.ckpt")
	saveCheckpoint(t, model, 0, "a", vec(0, 0), "b", vec(0), "c", vec(0, 0))
	saveCheckpoint(t, saved, 900, "a", vec(1, 2), "c", vec(5), "old", vec(9))

	stdout, stderr, code := runCmd(t, "checkpoint", "merge", model, saved, "--out", out, "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var res MergeResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if res.Iteration != 900 || res.Loaded != 1 {
		t.Errorf("result = %+v", res)
	}
	if !slices.Equal(res.Missing, []string{"b"}) || !slices.Equal(res.Mismatched, []string{"c"}) || !slices.Equal(res.Unexpected, []string{"old"}) {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(stderr, "2 of 3 parameters") {
		t.Errorf("stderr = %s", stderr)
	}

	ckpt, err := checkpoint.Open(context.Background(), storage.Filesystem(), out)
	if err != nil {
		t.Fatal(err)
	}
	if ckpt.Iteration != 900 || !slices.Equal(ckpt.Model.Keys(), []string{"a", "b", "c"}) {
		t.Errorf("merged = %d %v", ckpt.Iteration, ckpt.Model.Keys())
	}
	if a, _ := ckpt.Model.Get("a"); !a.Equal(vec(1, 2)) {
		t.Errorf("a = %v", a)
	}

	if _, _, code := runCmd(t, "checkpoint", "merge", model, saved); code == 0 {
		t.Error("expected error without --out")
	}
}

func TestCheckpointLatest(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()
	for _, name := range []string{"G_900.ckpt", "G_1000.ckpt", "D_5000.ckpt"} {
		saveCheckpoint(t, filepath.Join(dir, name), 0, "w", vec(1))
	}

	stdout, stderr, code := runCmd(t, "checkpoint", "latest", dir)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if got := strings.TrimSpace(stdout); got != filepath.Join(dir, "G_1000.ckpt") {
		t.Errorf("latest = %q", got)
	}

	stdout, _, _ = runCmd(t, "checkpoint", "latest", dir, "--pattern", "D_*.ckpt")
	if !strings.HasSuffix(strings.TrimSpace(stdout), "D_5000.ckpt") {
		t.Errorf("latest D = %q", stdout)
	}

	if _, _, code := runCmd(t, "checkpoint", "latest", t.TempDir()); code == 0 {
		t.Error("expected error for empty directory")
	}
}
