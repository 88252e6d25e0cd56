package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started before this
// one finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// ErrTimeout is returned when an evaluation exceeds EvalTimeout.
var ErrTimeout = errors.New("evaluation timed out")

type evalResult struct {
	result *EvalResult
	err    error
}

// waitWithTimeout waits for a result from ch, giving up after EvalTimeout
// or when ctx ends. The generation counter discards results of
// evaluations that a newer call has replaced.
//
// On timeout the goroutine may still be running; its result lands in the
// buffered channel and is dropped.
func waitWithTimeout(
	ctx context.Context,
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*EvalResult, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, ErrSuperseded
		}
		return res.result, res.err

	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, EvalTimeout)

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
