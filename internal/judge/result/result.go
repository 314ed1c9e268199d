// Package result defines judge verdicts and the caller-facing result surface.
package result

import "liva/internal/judge/model"

// Verdict is the final status label for a submission or a single test case.
type Verdict string

const (
	VerdictAC  Verdict = "AC"
	VerdictPA  Verdict = "PA"
	VerdictWA  Verdict = "WA"
	VerdictCE  Verdict = "CE"
	VerdictRE  Verdict = "RE"
	VerdictTLE Verdict = "TLE"
	VerdictMLE Verdict = "MLE"
)

// TestResult is the judged outcome of one test case. Passed is true iff the
// verdict is AC.
type TestResult struct {
	TestID         string           `json:"testId"`
	Passed         bool             `json:"passed"`
	Verdict        Verdict          `json:"verdict"`
	ActualOutput   any              `json:"actualOutput,omitempty"`
	ExpectedOutput any              `json:"expectedOutput,omitempty"`
	TimeMs         int64            `json:"timeMs"`
	Error          string           `json:"error,omitempty"`
	Visibility     model.Visibility `json:"visibility"`
}

// JudgeResult is the aggregate returned to callers. Score is in [0,1] and is
// 1.0 exactly when the verdict is AC.
type JudgeResult struct {
	Verdict          Verdict      `json:"verdict"`
	Score            float64      `json:"score"`
	TestResults      []TestResult `json:"testResults"`
	TotalTimeMs      int64        `json:"totalTimeMs"`
	CompilationError string       `json:"compilationError,omitempty"`
	RuntimeError     string       `json:"runtimeError,omitempty"`
	UserStdout       string       `json:"userStdout,omitempty"`
	Stderr           string       `json:"stderr,omitempty"`
}

// Redact strips per-test outputs for hidden tests. Callers forwarding results
// to untrusted recipients must apply it; pass/fail and verdicts survive.
func Redact(r JudgeResult) JudgeResult {
	redacted := r
	redacted.TestResults = make([]TestResult, len(r.TestResults))
	copy(redacted.TestResults, r.TestResults)
	anyHidden := false
	for i, tr := range redacted.TestResults {
		if tr.Visibility != model.VisibilityHidden {
			continue
		}
		anyHidden = true
		redacted.TestResults[i].ActualOutput = nil
		redacted.TestResults[i].ExpectedOutput = nil
		redacted.TestResults[i].Error = ""
	}
	if anyHidden {
		redacted.UserStdout = ""
		redacted.Stderr = ""
	}
	return redacted
}
