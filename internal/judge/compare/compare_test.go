package compare_test

import (
	"context"
	"testing"

	"liva/internal/judge/compare"
	"liva/internal/judge/model"
)

func exact() model.ComparatorSpec {
	return model.ComparatorSpec{Type: model.CompareExact}
}

func TestExactNumericCrossType(t *testing.T) {
	ctx := context.Background()
	if !compare.Compare(ctx, float64(5), float64(5.0), exact()) {
		t.Fatalf("expected 5 == 5.0")
	}
	if compare.Compare(ctx, float64(5), "5", exact()) {
		t.Fatalf("number must not equal its string form")
	}
	if compare.Compare(ctx, true, float64(1), exact()) {
		t.Fatalf("bool must not equal number")
	}
}

func TestExactNull(t *testing.T) {
	ctx := context.Background()
	if !compare.Compare(ctx, nil, nil, exact()) {
		t.Fatalf("null must equal null")
	}
	if compare.Compare(ctx, nil, float64(0), exact()) {
		t.Fatalf("null must not equal 0")
	}
	if compare.Compare(ctx, nil, "", exact()) {
		t.Fatalf("null must not equal empty string")
	}
}

func TestExactArrayOrderSensitive(t *testing.T) {
	ctx := context.Background()
	if !compare.Compare(ctx, []any{float64(1), float64(2)}, []any{float64(1), float64(2)}, exact()) {
		t.Fatalf("equal arrays rejected")
	}
	if compare.Compare(ctx, []any{float64(1), float64(2)}, []any{float64(2), float64(1)}, exact()) {
		t.Fatalf("exact must be order sensitive")
	}
}

func TestExactObjectKeyOrderInsensitive(t *testing.T) {
	ctx := context.Background()
	a := map[string]any{"x": float64(1), "y": "b"}
	b := map[string]any{"y": "b", "x": float64(1)}
	if !compare.Compare(ctx, a, b, exact()) {
		t.Fatalf("object comparison must ignore key order")
	}
	if compare.Compare(ctx, a, map[string]any{"x": float64(1)}, exact()) {
		t.Fatalf("missing key must fail")
	}
}

func TestNumericTolerance(t *testing.T) {
	ctx := context.Background()
	spec := model.ComparatorSpec{Type: model.CompareNumeric, Tolerance: 1e-6}
	if !compare.Compare(ctx, float64(0.30000000001), float64(0.3), spec) {
		t.Fatalf("within tolerance rejected")
	}
	if compare.Compare(ctx, float64(0.31), float64(0.3), spec) {
		t.Fatalf("outside tolerance accepted")
	}
	// Default tolerance applies when unset.
	def := model.ComparatorSpec{Type: model.CompareNumeric}
	if !compare.Compare(ctx, float64(1)+1e-10, float64(1), def) {
		t.Fatalf("default tolerance rejected tiny delta")
	}
	// Non-numeric values fall back to deep equality.
	if !compare.Compare(ctx, "abc", "abc", spec) {
		t.Fatalf("numeric comparator must fall back for strings")
	}
}

func TestUnorderedArray(t *testing.T) {
	ctx := context.Background()
	spec := model.ComparatorSpec{Type: model.CompareUnorderedArray}
	if !compare.Compare(ctx, []any{float64(2), float64(1), float64(1)}, []any{float64(1), float64(1), float64(2)}, spec) {
		t.Fatalf("permutation rejected")
	}
	if compare.Compare(ctx, []any{float64(1), float64(2)}, []any{float64(1), float64(1), float64(2)}, spec) {
		t.Fatalf("multiplicity mismatch accepted")
	}
	nested := []any{
		[]any{float64(0), float64(1)},
		[]any{float64(2), float64(3)},
	}
	swapped := []any{
		[]any{float64(2), float64(3)},
		[]any{float64(0), float64(1)},
	}
	if !compare.Compare(ctx, nested, swapped, spec) {
		t.Fatalf("nested permutation rejected")
	}
}

func TestSetIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	spec := model.ComparatorSpec{Type: model.CompareSet}
	if !compare.Compare(ctx, []any{float64(1), float64(1), float64(2)}, []any{float64(2), float64(1)}, spec) {
		t.Fatalf("set comparison must dedupe")
	}
	if compare.Compare(ctx, []any{float64(1)}, []any{float64(1), float64(2)}, spec) {
		t.Fatalf("distinct sets accepted")
	}
}

func TestMultisetCountsDuplicates(t *testing.T) {
	ctx := context.Background()
	spec := model.ComparatorSpec{Type: model.CompareMultiset}
	if !compare.Compare(ctx, []any{"a", "b", "a"}, []any{"a", "a", "b"}, spec) {
		t.Fatalf("multiset permutation rejected")
	}
	if compare.Compare(ctx, []any{"a", "b"}, []any{"a", "a", "b"}, spec) {
		t.Fatalf("multiset must count duplicates")
	}
}

func TestFloatArray(t *testing.T) {
	ctx := context.Background()
	spec := model.ComparatorSpec{Type: model.CompareFloatArray, Tolerance: 1e-6}
	if !compare.Compare(ctx,
		[]any{float64(1.0000000001), float64(2)},
		[]any{float64(1), float64(2)}, spec) {
		t.Fatalf("pairwise within tolerance rejected")
	}
	if compare.Compare(ctx,
		[]any{float64(1), float64(2)},
		[]any{float64(2), float64(1)}, spec) {
		t.Fatalf("floatArray must be order sensitive")
	}
	if compare.Compare(ctx,
		[]any{float64(1)},
		[]any{float64(1), float64(2)}, spec) {
		t.Fatalf("length mismatch accepted")
	}
}

func TestUnknownComparatorFallsBackToExact(t *testing.T) {
	ctx := context.Background()
	spec := model.ComparatorSpec{Type: model.ComparatorType("fancy")}
	if !compare.Compare(ctx, float64(3), float64(3), spec) {
		t.Fatalf("unknown comparator must behave as exact")
	}
	if compare.Compare(ctx, []any{float64(1), float64(2)}, []any{float64(2), float64(1)}, spec) {
		t.Fatalf("unknown comparator must not reorder")
	}
}
