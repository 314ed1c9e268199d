package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseErrorKind classifies why payload recovery failed.
type ParseErrorKind string

const (
	MissingSentinel  ParseErrorKind = "MISSING_SENTINEL"
	MalformedJSON    ParseErrorKind = "MALFORMED_JSON"
	InvalidStructure ParseErrorKind = "INVALID_STRUCTURE"
)

// ParseResult is the tagged outcome of Parse. ErrKind is empty on success.
// UserStdout is always populated best-effort, even on failure.
type ParseResult struct {
	Output     JudgeOutput
	UserStdout string
	ErrKind    ParseErrorKind
	ErrDetail  string
}

// OK reports whether the payload was recovered.
func (r ParseResult) OK() bool {
	return r.ErrKind == ""
}

// Parse recovers the sentinel-delimited judge payload from arbitrary stdout.
// It scans for the last END sentinel, then the last BEGIN before it, so user
// prints around the frame cannot break recovery. Parse never panics.
func Parse(stdout string) ParseResult {
	end := strings.LastIndex(stdout, EndSentinel)
	if end < 0 {
		return ParseResult{
			UserStdout: strings.TrimSpace(stdout),
			ErrKind:    MissingSentinel,
			ErrDetail:  "end sentinel not found",
		}
	}
	begin := strings.LastIndex(stdout[:end], BeginSentinel)
	if begin < 0 {
		return ParseResult{
			UserStdout: strings.TrimSpace(stdout),
			ErrKind:    MissingSentinel,
			ErrDetail:  "begin sentinel not found before end sentinel",
		}
	}

	userStdout := strings.TrimSpace(stdout[:begin])
	payload := strings.TrimSpace(stdout[begin+len(BeginSentinel) : end])

	if !json.Valid([]byte(payload)) {
		return ParseResult{
			UserStdout: userStdout,
			ErrKind:    MalformedJSON,
			ErrDetail:  "payload is not valid JSON",
		}
	}

	// Valid JSON that is not an object is a structural fault, not a syntax one.
	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &root); err != nil || root == nil {
		return ParseResult{
			UserStdout: userStdout,
			ErrKind:    InvalidStructure,
			ErrDetail:  "root is not an object",
		}
	}

	output, err := validateStructure(root)
	if err != nil {
		return ParseResult{
			UserStdout: userStdout,
			ErrKind:    InvalidStructure,
			ErrDetail:  err.Error(),
		}
	}

	return ParseResult{Output: output, UserStdout: userStdout}
}

func validateStructure(root map[string]json.RawMessage) (JudgeOutput, error) {
	rawResults, ok := root["results"]
	if !ok {
		return JudgeOutput{}, fmt.Errorf("missing results array")
	}
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(rawResults, &entries); err != nil || entries == nil {
		return JudgeOutput{}, fmt.Errorf("results is not an array of objects")
	}

	results := make([]TestOutput, 0, len(entries))
	for i, entry := range entries {
		if entry == nil {
			return JudgeOutput{}, fmt.Errorf("results[%d] is not an object", i)
		}
		var id float64
		if raw, ok := entry["id"]; !ok || json.Unmarshal(raw, &id) != nil {
			return JudgeOutput{}, fmt.Errorf("results[%d] has no numeric id", i)
		}
		var status string
		if raw, ok := entry["status"]; !ok || json.Unmarshal(raw, &status) != nil {
			return JudgeOutput{}, fmt.Errorf("results[%d] has no status", i)
		}
		if status != string(StatusOK) && status != string(StatusError) {
			return JudgeOutput{}, fmt.Errorf("results[%d] has invalid status %q", i, status)
		}

		out := TestOutput{ID: int(id), Status: ResultStatus(status)}
		if raw, ok := entry["output"]; ok {
			if err := json.Unmarshal(raw, &out.Output); err != nil {
				return JudgeOutput{}, fmt.Errorf("results[%d] output is invalid", i)
			}
		}
		if raw, ok := entry["error"]; ok {
			// A non-string error field is tolerated as its JSON form.
			if json.Unmarshal(raw, &out.Error) != nil {
				out.Error = string(raw)
			}
		}
		results = append(results, out)
	}

	rawMeta, ok := root["meta"]
	if !ok {
		return JudgeOutput{}, fmt.Errorf("missing meta object")
	}
	var metaFields map[string]json.RawMessage
	if err := json.Unmarshal(rawMeta, &metaFields); err != nil || metaFields == nil {
		return JudgeOutput{}, fmt.Errorf("meta is not an object")
	}
	var timeMs float64
	if raw, ok := metaFields["timeMs"]; !ok || json.Unmarshal(raw, &timeMs) != nil {
		return JudgeOutput{}, fmt.Errorf("meta has no numeric timeMs")
	}
	meta := Meta{TimeMs: int64(timeMs)}
	if raw, ok := metaFields["memoryKb"]; ok {
		var memoryKb float64
		if json.Unmarshal(raw, &memoryKb) == nil {
			meta.MemoryKb = int64(memoryKb)
		}
	}

	return JudgeOutput{Results: results, Meta: meta}, nil
}
