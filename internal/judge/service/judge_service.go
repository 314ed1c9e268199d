// Package service implements the judge orchestrator: it drives a submission
// through harness assembly, engine execution, output parsing, comparison, and
// verdict aggregation.
package service

import (
	"context"
	"fmt"
	"strings"

	"liva/internal/judge/compare"
	"liva/internal/judge/harness"
	"liva/internal/judge/model"
	"liva/internal/judge/observer"
	"liva/internal/judge/protocol"
	"liva/internal/judge/result"
	"liva/internal/judge/sandbox/engine"
	"liva/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Compile gets a generous fixed floor; run scales with the batch size.
	defaultCompileTimeoutFloorMs int64 = 20000
	defaultRunTimeoutFloorMs     int64 = 30000

	compileTimeoutFactor = 2
)

// Config controls judge orchestration.
type Config struct {
	CompileTimeoutFloorMs int64 `yaml:"compileTimeoutFloorMs"`
	RunTimeoutFloorMs     int64 `yaml:"runTimeoutFloorMs"`
}

func (c *Config) applyDefaults() {
	if c.CompileTimeoutFloorMs <= 0 {
		c.CompileTimeoutFloorMs = defaultCompileTimeoutFloorMs
	}
	if c.RunTimeoutFloorMs <= 0 {
		c.RunTimeoutFloorMs = defaultRunTimeoutFloorMs
	}
}

// JudgeRequest is one submission to judge.
type JudgeRequest struct {
	Problem       *model.Problem
	CandidateCode string
	Language      string
	// Filter limits which tests run; empty means all.
	Filter model.Filter
	// Env is extra environment exported to both phases.
	Env map[string]string
}

// Service judges submissions. Engines are pooled: concurrent Judge calls
// block until an engine is free.
type Service struct {
	cfg      Config
	registry *harness.Registry
	engines  chan engine.Engine
	metrics  observer.MetricsRecorder
}

// NewService creates a judge service over a pool of engines.
func NewService(cfg Config, registry *harness.Registry, engines []engine.Engine, metrics observer.MetricsRecorder) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("harness registry is required")
	}
	if len(engines) == 0 {
		return nil, fmt.Errorf("at least one engine is required")
	}
	if metrics == nil {
		metrics = observer.NoopMetricsRecorder{}
	}
	cfg.applyDefaults()
	pool := make(chan engine.Engine, len(engines))
	for _, e := range engines {
		pool <- e
	}
	return &Service{cfg: cfg, registry: registry, engines: pool, metrics: metrics}, nil
}

// Judge runs the full pipeline for one submission. It never panics and never
// returns an error: every failure mode is folded into the verdict.
func (s *Service) Judge(ctx context.Context, req JudgeRequest) (res result.JudgeResult) {
	tests := []model.TestCase{}
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "judge panicked", zap.Any("panic", r))
			res = infraFailure(tests, fmt.Sprintf("internal judge error: %v", r))
		}
		s.metrics.ObserveJudge(ctx, req.Language, string(res.Verdict), res.Score, res.TotalTimeMs)
	}()

	if req.Problem == nil {
		return infraFailure(tests, "problem definition is required")
	}
	problem := *req.Problem
	problem.Normalize()
	tests = model.SelectTests(&problem, req.Filter)

	// No tests selected: vacuous accept, the engine is never invoked.
	if len(tests) == 0 {
		return result.JudgeResult{Verdict: result.VerdictAC, Score: 1.0, TestResults: []result.TestResult{}}
	}

	builder, err := s.registry.Get(req.Language)
	if err != nil {
		return infraFailure(tests, err.Error())
	}
	h, err := builder.Build(ctx, &problem, req.CandidateCode, problem.MemoryLimitMb)
	if err != nil {
		return infraFailure(tests, err.Error())
	}
	stdin, err := protocol.EncodeStdin(tests)
	if err != nil {
		return infraFailure(tests, err.Error())
	}

	eng, err := s.acquire(ctx)
	if err != nil {
		return infraFailure(tests, err.Error())
	}
	defer s.release(eng)

	execRes := eng.Execute(ctx, engine.ExecutionRequest{
		ExecutionID: problem.ProblemID + "-" + uuid.NewString(),
		Language:    req.Language,
		Files:       h.Files,
		Compile: &engine.PhaseSpec{
			Cmd:       h.CompileCmd,
			TimeoutMs: maxInt64(compileTimeoutFactor*problem.TimeLimitMs, s.cfg.CompileTimeoutFloorMs),
		},
		Run: engine.RunSpec{
			Cmd:       h.RunCmd,
			Stdin:     stdin,
			TimeoutMs: maxInt64(problem.TimeLimitMs*int64(len(tests)), s.cfg.RunTimeoutFloorMs),
		},
		Limits: engine.Limits{CPUMs: problem.TimeLimitMs, MemoryMb: problem.MemoryLimitMb},
		Env:    req.Env,
	})

	if execRes.Compile != nil {
		s.metrics.ObserveCompile(ctx, req.Language, execRes.Compile.Success, execRes.Compile.TimeMs)
	}

	// Compile failure (clean javac non-zero exit, not an engine error).
	if execRes.Error == nil && execRes.Compile != nil && !execRes.Compile.Success {
		return result.JudgeResult{
			Verdict:          result.VerdictCE,
			Score:            0,
			TestResults:      uniformResults(tests, result.VerdictCE, ""),
			CompilationError: execRes.Compile.Stderr,
		}
	}

	if execRes.Error != nil {
		return s.engineFailure(tests, execRes)
	}

	return s.evaluate(ctx, tests, execRes)
}

// engineFailure maps a categorized engine error onto all selected tests.
func (s *Service) engineFailure(tests []model.TestCase, execRes engine.ExecutionResult) result.JudgeResult {
	var verdict result.Verdict
	switch execRes.Error.Type {
	case engine.ErrorTimeout:
		verdict = result.VerdictTLE
	case engine.ErrorOOM:
		verdict = result.VerdictMLE
	default:
		verdict = result.VerdictRE
	}
	res := result.JudgeResult{
		Verdict:      verdict,
		Score:        0,
		TestResults:  uniformResults(tests, verdict, execRes.Error.Message),
		RuntimeError: execRes.Error.Message,
		Stderr:       execRes.Run.Stderr,
	}
	// Keep whatever the candidate printed before the failure.
	res.UserStdout = protocol.Parse(execRes.Run.Stdout).UserStdout
	return res
}

// evaluate parses the harness payload and compares per-test outputs.
func (s *Service) evaluate(ctx context.Context, tests []model.TestCase, execRes engine.ExecutionResult) result.JudgeResult {
	parsed := protocol.Parse(execRes.Run.Stdout)

	// A crash before the payload frame is a plain runtime error. A non-zero
	// exit after the frame was emitted still judges whatever the harness
	// reported.
	if !execRes.Run.Success && !strings.Contains(execRes.Run.Stdout, protocol.BeginSentinel) {
		msg := fmt.Sprintf("process exited with code %d", execRes.Run.ExitCode)
		return result.JudgeResult{
			Verdict:      result.VerdictRE,
			Score:        0,
			TestResults:  uniformResults(tests, result.VerdictRE, msg),
			RuntimeError: msg,
			UserStdout:   parsed.UserStdout,
			Stderr:       execRes.Run.Stderr,
			TotalTimeMs:  execRes.Run.TimeMs,
		}
	}
	if !parsed.OK() {
		msg := fmt.Sprintf("Protocol error: %s", parsed.ErrKind)
		logger.Warn(ctx, "harness payload unrecoverable",
			zap.String("kind", string(parsed.ErrKind)),
			zap.String("detail", parsed.ErrDetail))
		return result.JudgeResult{
			Verdict:      result.VerdictRE,
			Score:        0,
			TestResults:  uniformResults(tests, result.VerdictRE, msg),
			RuntimeError: msg,
			UserStdout:   parsed.UserStdout,
			Stderr:       execRes.Run.Stderr,
			TotalTimeMs:  execRes.Run.TimeMs,
		}
	}

	byID := make(map[int]protocol.TestOutput, len(parsed.Output.Results))
	for _, out := range parsed.Output.Results {
		byID[out.ID] = out
	}

	testResults := make([]result.TestResult, 0, len(tests))
	for i, tc := range tests {
		tr := result.TestResult{
			TestID:         tc.TestID,
			ExpectedOutput: tc.Expected,
			Visibility:     tc.Visibility,
		}
		out, ok := byID[i]
		switch {
		case !ok:
			tr.Verdict = result.VerdictRE
			tr.Error = fmt.Sprintf("no result reported for test %s", tc.TestID)
		case out.Status == protocol.StatusError:
			tr.Verdict = result.VerdictRE
			tr.Error = out.Error
		case compare.Compare(ctx, out.Output, tc.Expected, tc.Comparator):
			tr.Verdict = result.VerdictAC
			tr.Passed = true
			tr.ActualOutput = out.Output
		default:
			tr.Verdict = result.VerdictWA
			tr.ActualOutput = out.Output
		}
		testResults = append(testResults, tr)
	}

	return aggregate(tests, testResults, parsed, execRes)
}

// aggregate folds per-test verdicts into the submission verdict and the
// weighted score.
func aggregate(tests []model.TestCase, testResults []result.TestResult, parsed protocol.ParseResult, execRes engine.ExecutionResult) result.JudgeResult {
	var totalWeight, passedWeight float64
	for _, tc := range tests {
		if tc.Weight > 0 {
			totalWeight += tc.Weight
		}
	}
	uniform := totalWeight == 0
	if uniform {
		totalWeight = float64(len(tests))
	}
	for i, tr := range testResults {
		if !tr.Passed {
			continue
		}
		if uniform {
			passedWeight++
		} else if tests[i].Weight > 0 {
			passedWeight += tests[i].Weight
		}
	}
	score := passedWeight / totalWeight

	anyRE := false
	for _, tr := range testResults {
		if tr.Verdict == result.VerdictRE {
			anyRE = true
			break
		}
	}

	// Full weighted score is an accept; verdict and score stay in lockstep
	// even when zero-weight tests fail.
	var verdict result.Verdict
	switch {
	case score == 1.0:
		verdict = result.VerdictAC
	case anyRE:
		verdict = result.VerdictRE
	case score > 0:
		verdict = result.VerdictPA
	default:
		verdict = result.VerdictWA
	}

	return result.JudgeResult{
		Verdict:     verdict,
		Score:       score,
		TestResults: testResults,
		TotalTimeMs: parsed.Output.Meta.TimeMs,
		UserStdout:  parsed.UserStdout,
		Stderr:      execRes.Run.Stderr,
	}
}

func (s *Service) acquire(ctx context.Context) (engine.Engine, error) {
	select {
	case eng := <-s.engines:
		return eng, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("judging cancelled while waiting for an engine: %w", ctx.Err())
	}
}

func (s *Service) release(eng engine.Engine) {
	s.engines <- eng
}

// infraFailure marks the whole submission as a runtime error caused by the
// judging infrastructure or an unjudgeable request.
func infraFailure(tests []model.TestCase, msg string) result.JudgeResult {
	return result.JudgeResult{
		Verdict:      result.VerdictRE,
		Score:        0,
		TestResults:  uniformResults(tests, result.VerdictRE, msg),
		RuntimeError: msg,
	}
}

// uniformResults stamps every selected test with the same verdict.
func uniformResults(tests []model.TestCase, verdict result.Verdict, errMsg string) []result.TestResult {
	out := make([]result.TestResult, 0, len(tests))
	for _, tc := range tests {
		out = append(out, result.TestResult{
			TestID:     tc.TestID,
			Verdict:    verdict,
			Error:      errMsg,
			Visibility: tc.Visibility,
		})
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
