package llm

import "errors"

// ErrLLMFailure is the single failure condition surfaced by the
// underlying model, per spec.md §4.4 — callers decide whether the
// stage is terminal or advisory.
var ErrLLMFailure = errors.New("llm: request failed")
