package hparams

import (
	"fmt"
	"math/big"

	"github.com/itchyny/gojq"
)

// Query runs a jq expression against the document and returns every result.
//
//	hp.Query(".model.upsample_rates | length")
func (h *HParams) Query(expr string) ([]any, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("hparams: invalid jq expression %q: %w", expr, err)
	}
	var results []any
	iter := q.Run(toJQ(h))
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("hparams: jq error: %w", err)
		}
		results = append(results, fromJQ(v))
	}
	return results, nil
}

// toJQ converts the document to the value types gojq accepts: int instead
// of int64 and plain maps.
func toJQ(v any) any {
	switch x := v.(type) {
	case *HParams:
		if x == nil {
			return nil
		}
		m := make(map[string]any, x.Len())
		for k, e := range x.Items() {
			m[k] = toJQ(e)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = toJQ(e)
		}
		return out
	case int64:
		return int(x)
	}
	return v
}

func fromJQ(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return New(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromJQ(e)
		}
		return out
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	}
	return wrap(v)
}
