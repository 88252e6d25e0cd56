package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// Session is a long-lived sandbox for interactive use. Definitions and
// shapes persist across calls to Eval, so a print object can be built up
// one form at a time. A Session is not safe for concurrent use.
type Session struct {
	env *zygo.Zlisp
	b   *builder
}

// NewSession starts an empty session.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset discards every definition and shape.
func (s *Session) Reset() {
	if s.env != nil {
		s.env.Stop()
	}
	s.env = zygo.NewZlispSandbox()
	s.b = newBuilder()
	registerBuiltins(s.env, s.b)
}

// Close releases the sandbox.
func (s *Session) Close() {
	if s.env != nil {
		s.env.Stop()
		s.env = nil
	}
}

// Eval evaluates one chunk of source and returns the printed value of its
// last form. Panics inside the interpreter are returned as errors.
func (s *Session) Eval(source string) (out string, err error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during evaluation: %v", r)
		}
	}()

	v, evalErr := s.env.EvalString(preprocessSource(source))
	if evalErr != nil {
		return "", parseZygomysError(evalErr)[0]
	}
	if v == nil {
		return "", nil
	}
	return restoreNames(v.SexpString(nil)), nil
}

// Result validates the shapes defined so far. The returned graph is
// shared with the session and changes on the next Eval.
func (s *Session) Result() *EvalResult {
	return s.b.finish()
}
