package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/haivivi/voicekit/pkg/storage"
)

// Latest returns the file under dir matching the glob pattern whose name
// carries the largest number, e.g. "G_1000.ckpt" over "G_900.ckpt" for the
// pattern "G_*.ckpt". It fails with os.ErrNotExist when nothing matches.
func Latest(ctx context.Context, store storage.FileStore, dir, pattern string) (string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return "", fmt.Errorf("checkpoint: bad pattern %q: %w", pattern, err)
	}
	names, err := store.List(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("checkpoint: list %s: %w", dir, err)
	}
	var (
		best    string
		bestNum int64 = -1
	)
	for _, name := range names {
		base := path.Base(name)
		if ok, _ := filepath.Match(pattern, base); !ok {
			continue
		}
		n, ok := trailingNumber(base)
		if !ok {
			continue
		}
		if n > bestNum {
			best, bestNum = name, n
		}
	}
	if best == "" {
		return "", fmt.Errorf("checkpoint: no %s under %q: %w", pattern, dir, os.ErrNotExist)
	}
	return best, nil
}

// trailingNumber extracts the last run of digits in name before its
// extension.
func trailingNumber(name string) (int64, bool) {
	stem := strings.TrimSuffix(name, path.Ext(name))
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	n, err := strconv.ParseInt(stem[start:end], 10, 64)
	return n, err == nil
}
