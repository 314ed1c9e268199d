package protocol_test

import (
	"strings"
	"testing"

	"liva/internal/judge/model"
	"liva/internal/judge/protocol"
)

func frame(payload string) string {
	return protocol.BeginSentinel + "\n" + payload + "\n" + protocol.EndSentinel + "\n"
}

func TestParseCleanPayload(t *testing.T) {
	payload := `{"results":[{"id":0,"status":"OK","output":[1,2]},{"id":1,"status":"ERROR","error":"boom"}],"meta":{"timeMs":42,"memoryKb":1024}}`
	res := protocol.Parse(frame(payload))
	if !res.OK() {
		t.Fatalf("expected clean parse, got %s: %s", res.ErrKind, res.ErrDetail)
	}
	if len(res.Output.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Output.Results))
	}
	if res.Output.Results[0].Status != protocol.StatusOK {
		t.Fatalf("expected OK status, got %s", res.Output.Results[0].Status)
	}
	if res.Output.Results[1].Error != "boom" {
		t.Fatalf("expected error field preserved, got %q", res.Output.Results[1].Error)
	}
	if res.Output.Meta.TimeMs != 42 || res.Output.Meta.MemoryKb != 1024 {
		t.Fatalf("meta mismatch: %+v", res.Output.Meta)
	}
	if res.UserStdout != "" {
		t.Fatalf("expected empty user stdout, got %q", res.UserStdout)
	}
}

func TestParseUserNoiseAroundFrame(t *testing.T) {
	payload := `{"results":[{"id":0,"status":"OK","output":true}],"meta":{"timeMs":1}}`
	stdout := "debug line 1\ndebug line 2\n" + frame(payload) + "trailing noise\n"
	res := protocol.Parse(stdout)
	if !res.OK() {
		t.Fatalf("expected parse despite noise, got %s", res.ErrKind)
	}
	if res.UserStdout != "debug line 1\ndebug line 2" {
		t.Fatalf("user stdout mismatch: %q", res.UserStdout)
	}
}

// A candidate that prints the sentinel itself cannot shadow the real frame:
// recovery anchors on the last END and the last BEGIN before it.
func TestParseForgedSentinelInUserOutput(t *testing.T) {
	forged := protocol.BeginSentinel + "\n{\"results\":[],\"meta\":{\"timeMs\":0}}\n" + protocol.EndSentinel
	payload := `{"results":[{"id":0,"status":"OK","output":7}],"meta":{"timeMs":3}}`
	res := protocol.Parse("echoing: " + forged + "\n" + frame(payload))
	if !res.OK() {
		t.Fatalf("expected real frame to win, got %s", res.ErrKind)
	}
	if len(res.Output.Results) != 1 {
		t.Fatalf("forged frame parsed instead of real one")
	}
}

func TestParseMissingSentinel(t *testing.T) {
	res := protocol.Parse("no frame here\n")
	if res.ErrKind != protocol.MissingSentinel {
		t.Fatalf("expected MISSING_SENTINEL, got %q", res.ErrKind)
	}
	if res.UserStdout != "no frame here" {
		t.Fatalf("user stdout must survive failure, got %q", res.UserStdout)
	}

	res = protocol.Parse(protocol.EndSentinel)
	if res.ErrKind != protocol.MissingSentinel {
		t.Fatalf("end without begin must be MISSING_SENTINEL, got %q", res.ErrKind)
	}
}

func TestParseEmptyResultsArray(t *testing.T) {
	res := protocol.Parse(frame(`{"results":[],"meta":{"timeMs":0}}`))
	if !res.OK() {
		t.Fatalf("empty results array is structurally valid, got %s", res.ErrKind)
	}
	if len(res.Output.Results) != 0 {
		t.Fatalf("expected no results, got %d", len(res.Output.Results))
	}
}

func TestParseMalformedJSON(t *testing.T) {
	for _, payload := range []string{`{"results":[`, `not json at all`, `{"a":}`} {
		res := protocol.Parse(frame(payload))
		if res.ErrKind != protocol.MalformedJSON {
			t.Fatalf("payload %s: expected MALFORMED_JSON, got %q", payload, res.ErrKind)
		}
	}
}

func TestParseInvalidStructure(t *testing.T) {
	cases := []string{
		// Valid JSON that is not an object at the root.
		`[1]`,
		`null`,
		`"results"`,
		`{"results":null,"meta":{"timeMs":1}}`,
		`{"meta":{"timeMs":1}}`,
		`{"results":{},"meta":{"timeMs":1}}`,
		`{"results":[{"status":"OK"}],"meta":{"timeMs":1}}`,
		`{"results":[{"id":0,"status":"MAYBE"}],"meta":{"timeMs":1}}`,
		`{"results":[{"id":0,"status":"OK"}]}`,
		`{"results":[{"id":0,"status":"OK"}],"meta":{}}`,
	}
	for _, payload := range cases {
		res := protocol.Parse(frame(payload))
		if res.ErrKind != protocol.InvalidStructure {
			t.Fatalf("payload %s: expected INVALID_STRUCTURE, got %q", payload, res.ErrKind)
		}
	}
}

func TestEncodeStdinAssignsPositionalIds(t *testing.T) {
	tests := []model.TestCase{
		{TestID: "a", Input: []any{float64(1), "x"}},
		{TestID: "b"},
	}
	encoded, err := protocol.EncodeStdin(tests)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"testcases":[{"id":0,"input":[1,"x"]},{"id":1,"input":[]}]}`
	if encoded != want {
		t.Fatalf("stdin payload mismatch:\n got %s\nwant %s", encoded, want)
	}
	if strings.Contains(encoded, "expected") {
		t.Fatalf("expected outputs must never reach the candidate")
	}
}
