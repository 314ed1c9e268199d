// Package protocol defines the v1 wire formats between the engine and the
// candidate harness: the batched stdin payload and the sentinel-delimited
// stdout payload.
package protocol

import (
	"encoding/json"

	"liva/internal/judge/model"
	appErr "liva/pkg/errors"
)

// Sentinels framing the judge payload inside candidate stdout.
const (
	BeginSentinel = "<<<JUDGE_OUTPUT_V1_BEGIN>>>"
	EndSentinel   = "<<<JUDGE_OUTPUT_V1_END>>>"
)

// ResultStatus is the per-test status emitted by the harness.
type ResultStatus string

const (
	StatusOK    ResultStatus = "OK"
	StatusError ResultStatus = "ERROR"
)

// TestOutput is one per-test entry in the harness payload. Output is present
// only when Status is OK, Error only when Status is ERROR.
type TestOutput struct {
	ID     int          `json:"id"`
	Status ResultStatus `json:"status"`
	Output any          `json:"output,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Meta carries batch-level measurements. TimeMs is the batch wall clock.
type Meta struct {
	TimeMs   int64 `json:"timeMs"`
	MemoryKb int64 `json:"memoryKb,omitempty"`
}

// JudgeOutput is the parsed harness payload.
type JudgeOutput struct {
	Results []TestOutput `json:"results"`
	Meta    Meta         `json:"meta"`
}

type stdinTestcase struct {
	ID    int   `json:"id"`
	Input []any `json:"input"`
}

type stdinPayload struct {
	Testcases []stdinTestcase `json:"testcases"`
}

// EncodeStdin serializes the filtered test list into the batched stdin wire
// format. Ids are the 0-based positions in the filtered list.
func EncodeStdin(tests []model.TestCase) (string, error) {
	payload := stdinPayload{Testcases: make([]stdinTestcase, 0, len(tests))}
	for i, tc := range tests {
		input := tc.Input
		if input == nil {
			input = []any{}
		}
		payload.Testcases = append(payload.Testcases, stdinTestcase{ID: i, Input: input})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.TestCaseInvalid, "encode stdin payload failed")
	}
	return string(data), nil
}
