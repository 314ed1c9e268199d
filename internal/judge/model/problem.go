// Package model defines problem definitions shared across the judge pipeline.
package model

// TypeKind identifies the shape of a value crossing the judge boundary.
type TypeKind string

const (
	TypeInt        TypeKind = "int"
	TypeLong       TypeKind = "long"
	TypeFloat      TypeKind = "float"
	TypeDouble     TypeKind = "double"
	TypeString     TypeKind = "string"
	TypeChar       TypeKind = "char"
	TypeBoolean    TypeKind = "boolean"
	TypeArray      TypeKind = "array"
	TypeMatrix     TypeKind = "matrix"
	TypeTuple      TypeKind = "tuple"
	TypeObject     TypeKind = "object"
	TypeTree       TypeKind = "tree"
	TypeLinkedList TypeKind = "linkedList"
	TypeGraph      TypeKind = "graph"
	TypeVoid       TypeKind = "void"
)

// TypeSpec is a tagged type descriptor. Of is set for array/matrix/linkedList,
// Elements for tuple, Fields for object.
type TypeSpec struct {
	Kind     TypeKind            `json:"kind"`
	Of       *TypeSpec           `json:"of,omitempty"`
	Elements []TypeSpec          `json:"elements,omitempty"`
	Fields   map[string]TypeSpec `json:"fields,omitempty"`
}

// Contains reports whether the spec or any nested spec has the given kind.
func (t TypeSpec) Contains(kind TypeKind) bool {
	if t.Kind == kind {
		return true
	}
	if t.Of != nil && t.Of.Contains(kind) {
		return true
	}
	for _, el := range t.Elements {
		if el.Contains(kind) {
			return true
		}
	}
	for _, f := range t.Fields {
		if f.Contains(kind) {
			return true
		}
	}
	return false
}

// ComparatorType selects the comparison semantics for a test case.
type ComparatorType string

const (
	CompareExact          ComparatorType = "exact"
	CompareNumeric        ComparatorType = "numeric"
	CompareUnorderedArray ComparatorType = "unorderedArray"
	CompareSet            ComparatorType = "set"
	CompareMultiset       ComparatorType = "multiset"
	CompareFloatArray     ComparatorType = "floatArray"
)

// ComparatorSpec describes how actual output is compared to expected output.
type ComparatorSpec struct {
	Type      ComparatorType `json:"type"`
	Tolerance float64        `json:"tolerance,omitempty"`
}

// Visibility marks whether a test's data may be shown to end users.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// TestCase is one input/expected pair. Input carries the argument tuple
// positionally; values are the JSON tagged forms (float64, string, bool, nil,
// []any, map[string]any).
type TestCase struct {
	TestID      string         `json:"testId"`
	Input       []any          `json:"input"`
	Expected    any            `json:"expected"`
	Comparator  ComparatorSpec `json:"comparator"`
	Visibility  Visibility     `json:"visibility"`
	Weight      float64        `json:"weight"`
	Description string         `json:"description,omitempty"`
}

// HarnessCode is the per-language harness program shipped with a problem.
type HarnessCode struct {
	Main string `json:"main"`
}

// Problem is a judgable problem definition, immutable per revision.
type Problem struct {
	ProblemID     string                 `json:"problemId"`
	Title         string                 `json:"title,omitempty"`
	TimeLimitMs   int64                  `json:"timeLimitMs"`
	MemoryLimitMb int64                  `json:"memoryLimitMb"`
	InputSpec     []TypeSpec             `json:"inputSpec"`
	OutputSpec    TypeSpec               `json:"outputSpec"`
	Tests         []TestCase             `json:"tests"`
	Harness       map[string]HarnessCode `json:"harness"`
	Reference     map[string]string      `json:"reference,omitempty"`
	Starter       map[string]string      `json:"starter,omitempty"`
}

const (
	DefaultTimeLimitMs   int64 = 2000
	DefaultMemoryLimitMb int64 = 256
)

// Normalize applies per-submission configuration defaults.
func (p *Problem) Normalize() {
	if p.TimeLimitMs <= 0 {
		p.TimeLimitMs = DefaultTimeLimitMs
	}
	if p.MemoryLimitMb <= 0 {
		p.MemoryLimitMb = DefaultMemoryLimitMb
	}
}

// ContainsKind reports whether any input or output spec contains the kind.
func (p *Problem) ContainsKind(kind TypeKind) bool {
	for _, s := range p.InputSpec {
		if s.Contains(kind) {
			return true
		}
	}
	return p.OutputSpec.Contains(kind)
}

// Filter selects which tests a judge run executes.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterVisible Filter = "visible"
)

// SelectTests returns the tests matching the filter, in problem order.
// The position in the returned slice fixes the 0-based wire id.
func SelectTests(p *Problem, filter Filter) []TestCase {
	if filter != FilterVisible {
		return p.Tests
	}
	selected := make([]TestCase, 0, len(p.Tests))
	for _, tc := range p.Tests {
		if tc.Visibility == VisibilityVisible {
			selected = append(selected, tc)
		}
	}
	return selected
}
