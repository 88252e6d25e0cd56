package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/chazu/provel/pkg/engine"
	"github.com/chazu/provel/pkg/kernel"
	"github.com/chazu/provel/pkg/stl"
	"github.com/chazu/provel/pkg/tessellate"
)

// REPL evaluates DSL forms one line at a time in a persistent session.
// Lines starting with ':' are commands.
type REPL struct {
	session *engine.Session
	kernel  kernel.Kernel
	out     io.Writer
}

// NewREPL returns a REPL that meshes print objects with k and prints to out.
func NewREPL(k kernel.Kernel, out io.Writer) *REPL {
	return &REPL{session: engine.NewSession(), kernel: k, out: out}
}

// Close releases the session.
func (r *REPL) Close() {
	r.session.Close()
}

// Run reads lines until EOF, :quit or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "provel> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()
	r.out = rl.Stdout()

	fmt.Fprintln(r.out, "provel REPL. Type :help for commands.")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if r.Handle(ctx, line) {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the REPL should exit.
func (r *REPL) Handle(ctx context.Context, line string) (quit bool) {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}
	if !strings.HasPrefix(input, ":") {
		v, err := r.session.Eval(input)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			return false
		}
		if v != "" {
			fmt.Fprintln(r.out, v)
		}
		return false
	}

	parts := strings.Fields(input)
	switch cmd, args := parts[0], parts[1:]; cmd {
	case ":help", ":h", ":?":
		r.printHelp()
	case ":objects", ":o":
		r.cmdObjects()
	case ":check", ":c":
		r.cmdCheck()
	case ":render", ":r":
		r.cmdRender(ctx, args)
	case ":reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "session cleared")
	case ":quit", ":exit", ":q":
		return true
	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, `
Enter DSL forms to evaluate them, for example:
  (def cup (tube :outer 40 :inner 36 :height 80))
  (print-object "cup" cup)

Commands:
  :objects          - List print objects defined so far
  :check            - Validate the shapes defined so far
  :render <file>    - Write every print object to an STL file
  :reset            - Discard all definitions
  :quit             - Exit`)
}

func (r *REPL) cmdObjects() {
	res := r.session.Result()
	if res.Graph == nil {
		fmt.Fprintln(r.out, "shapes are invalid; run :check")
		return
	}
	objs := res.Graph.Objects()
	if len(objs) == 0 {
		fmt.Fprintln(r.out, "no print objects")
		return
	}
	for _, n := range objs {
		fmt.Fprintf(r.out, "  %s (%s)\n", n.Name, n.ID.Short())
	}
}

func (r *REPL) cmdCheck() {
	res := r.session.Result()
	for _, w := range res.Warnings {
		fmt.Fprintf(r.out, "warning: %s\n", w.Message)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(r.out, "error: %s\n", e.Message)
	}
	if res.OK() {
		fmt.Fprintf(r.out, "ok: %d nodes, %d print objects\n", res.Graph.NodeCount(), len(res.Graph.Roots))
	}
}

func (r *REPL) cmdRender(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "usage: :render <file.stl>")
		return
	}
	res := r.session.Result()
	if !res.OK() {
		r.cmdCheck()
		return
	}
	soup, err := tessellate.Stream(ctx, res.Graph, r.kernel)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	if err := stl.WriteFile(args[0], soup); err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "Wrote %s (%d triangles)\n", args[0], len(soup)/9)
}
