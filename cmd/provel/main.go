// Command provel slices meshes and print-object sources into layer rings
// and G-code from the command line.
//
// Usage:
//
//	provel <command> [flags] <file>
//
// Commands:
//
//	slice      Slice an STL file or DSL source
//	printtime  Estimate the print time of a saved model
//	gcode      Write G-code for a saved model
//	render     Tessellate DSL source to an STL file
//	repl       Build print objects interactively
//
// Examples:
//
//	# Slice a cup, compensate for shrinkage and save a snapshot
//	provel slice -shrink -o cup.prvl examples/cup.provel
//
//	# Slice an STL file straight to G-code
//	provel slice -blend 1 -gcode vase.gcode vase.stl
//
//	# Estimate a saved model
//	provel printtime cup.prvl
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chazu/provel/cmd/provel/commands"
	"github.com/chazu/provel/pkg/logger"
	"github.com/chazu/provel/pkg/settings"
)

const usage = `provel - radial slicer for clay and paste printers

Usage:
  provel <command> [flags] <file>

Commands:
  slice      Slice an STL file or DSL source
  printtime  Estimate the print time of a saved model
  gcode      Write G-code for a saved model
  render     Tessellate DSL source to an STL file
  repl       Build print objects interactively

Every command accepts -config <file.yaml> (default provel.yaml or $PROVEL_SETTINGS).
Use "provel <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	logger.Init(logger.FromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logger.Named("cli").WithContext(ctx)

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "slice":
		err = runSlice(ctx, args)
	case "printtime":
		err = runPrintTime(args)
	case "gcode":
		err = runGCode(ctx, args)
	case "render":
		err = runRender(ctx, args)
	case "repl":
		err = runREPL(ctx, args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(name, synopsis string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "provel %s - %s\n\nUsage:\n  provel %s [flags] <file>\n\nFlags:\n", name, synopsis, name)
		fs.PrintDefaults()
	}
	def := os.Getenv("PROVEL_SETTINGS")
	if def == "" {
		def = "provel.yaml"
	}
	return fs, fs.String("config", def, "Settings file")
}

// parse parses args and returns the single positional argument.
func parse(fs *flag.FlagSet, args []string, what string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: %s required\n", what)
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runSlice(ctx context.Context, args []string) error {
	fs, config := newFlagSet("slice", "Slice an STL file or DSL source")
	output := fs.String("o", "", "Write the model to a .json or .prvl file")
	gcodeOut := fs.String("gcode", "", "Write G-code to this file")
	center := fs.String("center", "", "Scan center as x,y,z (default: mesh bounding box center)")
	shrink := fs.Bool("shrink", false, "Compensate for material shrinkage and nozzle offset")
	blendTol := fs.Float64("blend", 0, "Blend layers closer than this tolerance (0 disables)")
	input := parse(fs, args, "input file")

	s, err := settings.Load(*config)
	if err != nil {
		return err
	}
	opts := commands.SliceOptions{
		Input:  input,
		Output: *output,
		GCode:  *gcodeOut,
		Shrink: *shrink,
		Blend:  *blendTol,
	}
	if *center != "" {
		if opts.Center, err = parseVec(*center); err != nil {
			return err
		}
	}

	p, closeProvider, err := s.OpenProvider(ctx)
	if err != nil {
		return err
	}
	defer closeProvider()
	return commands.RunSlice(ctx, s, p, opts, os.Stdout)
}

func runPrintTime(args []string) error {
	fs, config := newFlagSet("printtime", "Estimate the print time of a saved model")
	input := parse(fs, args, "model file")

	s, err := settings.Load(*config)
	if err != nil {
		return err
	}
	return commands.RunPrintTime(s, input, os.Stdout)
}

func runGCode(ctx context.Context, args []string) error {
	fs, config := newFlagSet("gcode", "Write G-code for a saved model")
	output := fs.String("o", "out.gcode", "Output file")
	input := parse(fs, args, "model file")

	s, err := settings.Load(*config)
	if err != nil {
		return err
	}
	p, closeProvider, err := s.OpenProvider(ctx)
	if err != nil {
		return err
	}
	defer closeProvider()
	return commands.RunGCode(ctx, s, p, input, *output, os.Stdout)
}

func runRender(ctx context.Context, args []string) error {
	fs, config := newFlagSet("render", "Tessellate DSL source to an STL file")
	output := fs.String("o", "out.stl", "Output file")
	input := parse(fs, args, "source file")

	s, err := settings.Load(*config)
	if err != nil {
		return err
	}
	return commands.RunRender(ctx, s, input, *output, os.Stdout)
}

func runREPL(ctx context.Context, args []string) error {
	fs, config := newFlagSet("repl", "Build print objects interactively")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s, err := settings.Load(*config)
	if err != nil {
		return err
	}
	k, err := s.NewKernel()
	if err != nil {
		return err
	}
	r := commands.NewREPL(k, os.Stdout)
	defer r.Close()
	return r.Run(ctx)
}

func parseVec(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("center %q: want x,y,z", s)
	}
	v := make([]float64, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("center %q: %w", s, err)
		}
		v[i] = f
	}
	return v, nil
}
