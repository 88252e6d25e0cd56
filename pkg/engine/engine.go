// Package engine evaluates the print-object DSL. It wraps zygomys in a
// sandboxed environment and produces a shape.Graph from user source.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/rs/zerolog"

	"github.com/chazu/provel/pkg/shape"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a validation
// finding.
type EvalError struct {
	Line    int          `json:"line"`
	Col     int          `json:"col"`
	Message string       `json:"message"`
	NodeID  shape.NodeID `json:"nodeId,omitempty"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles the output of one evaluation. Graph is nil whenever
// Errors is non-empty.
type EvalResult struct {
	Graph    *shape.Graph
	Errors   []EvalError
	Warnings []EvalError
}

// OK reports whether the evaluation produced a usable graph.
func (r *EvalResult) OK() bool {
	return r.Graph != nil && len(r.Errors) == 0
}

// Engine evaluates DSL programs. It is safe for concurrent use; each call
// to Evaluate creates a fresh sandbox, and only the most recent call's
// result is delivered.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source and returns the resulting graph.
//
// Return semantics:
//   - On success: a result with a validated graph and nil error
//   - On parse, runtime or validation failure: a result with Errors and nil error
//   - On fatal failure (timeout, panic, cancellation, superseded): nil and an error
func (e *Engine) Evaluate(ctx context.Context, source string) (*EvalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		res := evaluate(source)
		ch <- evalResult{result: res}
	}()

	res, err := waitWithTimeout(ctx, ch, gen, &e.mu, &e.generation)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Uint64("generation", gen).
		Int("errors", len(res.Errors)).
		Int("warnings", len(res.Warnings)).
		Msg("evaluated")
	return res, nil
}

// evaluate performs the zygomys evaluation in a fresh sandbox.
func evaluate(source string) *EvalResult {
	// Empty source is a valid program that produces an empty graph.
	if strings.TrimSpace(source) == "" {
		return &EvalResult{Graph: shape.New()}
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	if _, err := env.Run(); err != nil {
		return &EvalResult{Errors: parseZygomysError(err)}
	}
	return b.finish()
}

// finish validates the graph built so far and wraps it in a result.
func (b *builder) finish() *EvalResult {
	if errs := shape.Validate(b.g); len(errs) > 0 {
		res := &EvalResult{}
		for _, v := range errs {
			res.Errors = append(res.Errors, EvalError{Message: v.Error(), NodeID: v.NodeID})
		}
		return res
	}
	res := &EvalResult{Graph: b.g}
	if len(b.g.Roots) == 0 && b.g.NodeCount() > 0 {
		res.Warnings = append(res.Warnings, EvalError{
			Message: "shapes were built but no print-object was defined",
		})
	}
	return res
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, extracting
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: restoreNames(strings.TrimSpace(m[2]))}}
		}
	}
	return []EvalError{{Message: restoreNames(strings.TrimSpace(msg))}}
}

// kwLiteral matches a rewritten keyword inside an error message.
var kwLiteral = regexp.MustCompile(`"` + kwPrefix + `([A-Za-z0-9_-]+)"`)

// restoreNames undoes the keyword rewriting in messages shown to users.
func restoreNames(msg string) string {
	return kwLiteral.ReplaceAllString(msg, ":$1")
}
