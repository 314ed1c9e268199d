// Package compare implements pluggable value comparison for judged outputs.
package compare

import (
	"context"
	"encoding/json"
	"sort"

	"liva/internal/judge/model"
	"liva/pkg/utils/logger"

	"go.uber.org/zap"
)

// Compare reports whether actual equals expected under the comparator spec.
// Values are the JSON tagged forms (float64, string, bool, nil, []any,
// map[string]any); comparison is pure and symmetric for the unordered flavors.
func Compare(ctx context.Context, actual, expected any, spec model.ComparatorSpec) bool {
	switch spec.Type {
	case model.CompareExact, "":
		return deepEqual(actual, expected)
	case model.CompareNumeric:
		return numericEqual(actual, expected, spec.Tolerance)
	case model.CompareUnorderedArray, model.CompareMultiset:
		return multisetEqual(actual, expected)
	case model.CompareSet:
		return setEqual(actual, expected)
	case model.CompareFloatArray:
		return floatArrayEqual(actual, expected, spec.Tolerance)
	default:
		logger.Warn(ctx, "unknown comparator type, falling back to exact",
			zap.String("type", string(spec.Type)))
		return deepEqual(actual, expected)
	}
}

// deepEqual is structural deep equality: numbers by value, arrays elementwise
// in order, objects by identical key set with recursive value equality.
func deepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !deepEqual(v, bval) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// defaultTolerance applies when a numeric comparator carries no tolerance.
const defaultTolerance = 1e-6

func numericEqual(a, b any, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return deepEqual(a, b)
	}
	diff := af - bf
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// multisetEqual treats both arrays as multisets: equal as ordered sequences
// after sorting both by the canonical key of each element.
func multisetEqual(a, b any) bool {
	av, aok := a.([]any)
	bv, bok := b.([]any)
	if !aok || !bok {
		return deepEqual(a, b)
	}
	if len(av) != len(bv) {
		return false
	}
	ak := canonicalKeys(av)
	bk := canonicalKeys(bv)
	sort.Strings(ak)
	sort.Strings(bk)
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
	}
	return true
}

// setEqual compares the deduplicated canonical element sets.
func setEqual(a, b any) bool {
	av, aok := a.([]any)
	bv, bok := b.([]any)
	if !aok || !bok {
		return deepEqual(a, b)
	}
	as := make(map[string]struct{}, len(av))
	for _, k := range canonicalKeys(av) {
		as[k] = struct{}{}
	}
	bs := make(map[string]struct{}, len(bv))
	for _, k := range canonicalKeys(bv) {
		bs[k] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

func floatArrayEqual(a, b any, tolerance float64) bool {
	av, aok := a.([]any)
	bv, bok := b.([]any)
	if !aok || !bok {
		return deepEqual(a, b)
	}
	if len(av) != len(bv) {
		return false
	}
	for i := range av {
		if !numericEqual(av[i], bv[i], tolerance) {
			return false
		}
	}
	return true
}

// canonicalKeys encodes each element to its canonical JSON form. Go sorts map
// keys when marshaling, so structurally equal objects share one key.
func canonicalKeys(values []any) []string {
	keys := make([]string, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			keys[i] = "\x00unencodable"
			continue
		}
		keys[i] = string(data)
	}
	return keys
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
