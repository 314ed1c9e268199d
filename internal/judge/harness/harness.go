// Package harness turns a problem plus a candidate solution into the file
// set, commands, and stdin payload the execution engine needs. New languages
// plug in as builders; the orchestrator stays language-agnostic.
package harness

import (
	"context"
	"strings"

	"liva/internal/judge/model"
	"liva/internal/judge/sandbox/engine"
	appErr "liva/pkg/errors"

	"github.com/google/shlex"
)

// Harness is the assembled execution plan for one submission.
type Harness struct {
	Files      []engine.FileSpec
	CompileCmd string
	RunCmd     string
}

// Builder assembles a harness for one language.
type Builder interface {
	Language() string
	// Build emits the file set, compile command, and run command for the
	// problem and candidate. HeapMb caps the runtime heap.
	Build(ctx context.Context, problem *model.Problem, candidateCode string, heapMb int64) (Harness, error)
}

// Registry holds the registered language builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates a registry with the given builders.
func NewRegistry(builders ...Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder, len(builders))}
	for _, b := range builders {
		r.builders[b.Language()] = b
	}
	return r
}

// Register adds or replaces a builder.
func (r *Registry) Register(b Builder) {
	r.builders[b.Language()] = b
}

// Get returns the builder for a language id.
func (r *Registry) Get(language string) (Builder, error) {
	b, ok := r.builders[strings.ToLower(language)]
	if !ok {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "no harness builder for language %q", language)
	}
	return b, nil
}

// buildCommand parses a command template, expands placeholders per field, and
// re-joins the fields shell-quoted. Splitting before expansion keeps
// substituted values with spaces inside a single argument.
func buildCommand(tpl string, replacements map[string]string) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", appErr.New(appErr.InvalidParams).WithMessage("command template is required")
	}
	fields, err := shlex.Split(tpl)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.InvalidParams, "parse command template failed")
	}
	if len(fields) == 0 {
		return "", appErr.New(appErr.InvalidParams).WithMessage("command is empty after expansion")
	}
	for i, field := range fields {
		for key, value := range replacements {
			field = strings.ReplaceAll(field, "{"+key+"}", value)
		}
		fields[i] = field
	}
	return shellJoin(fields), nil
}

func shellJoin(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = shellQuoteIfNeeded(f)
	}
	return strings.Join(quoted, " ")
}

func shellQuoteIfNeeded(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$&|;<>()*?[]#~`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
