package evaluator

import (
	"context"
	"encoding/json"
)

// Request is one evaluation of a policy source against runtime input
type Request struct {
	Source       string          `json:"source"`
	Input        json.RawMessage `json:"input"`
	Locale       string          `json:"locale,omitempty"`
	FunctionName string          `json:"function_name,omitempty"`
}

// Result is the evaluator's answer. Exactly one of Output/ErrorMessage is
// populated: a non-empty ErrorMessage is a domain failure of the policy
// itself (e.g. an unknown function), not a transport failure.
type Result struct {
	Output          json.RawMessage `json:"result,omitempty"`
	ErrorMessage    string          `json:"error,omitempty"`
	ExecutionTimeMs int             `json:"execution_time_ms"`
}

// Failed reports whether the evaluation ended in a domain error
func (r *Result) Failed() bool {
	return r.ErrorMessage != ""
}

// Evaluator is the external CNL evaluation service, treated as a black box.
// Implementations must return a Go error only for transport-level failures
// (unreachable service, timeout, malformed response); domain failures travel
// inside the Result.
type Evaluator interface {
	Evaluate(ctx context.Context, req *Request) (*Result, error)
}
