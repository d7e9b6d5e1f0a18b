package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rheehot/dsp/codegen"
	"github.com/rheehot/dsp/toolchain"
)

const usage = `Damn Small Python compiles a Python subset for Arduino boards.

Usage: dsp [flags] <build|flash|emit> <file.py>...

Commands:
  build   compile and link each file into a hex image
  flash   build one file and upload it (needs -p)
  emit    write the LLVM IR of each file next to it

Flags:
`

type options struct {
	command     string
	emitLLVM    bool
	noOpt       bool
	strictArity bool
	watch       bool
	verbose     bool
	port        string
	board       string
	jobs        int
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("dsp: ")

	var opts options
	flag.BoolVar(&opts.emitLLVM, "emit-llvm", false, "keep the generated .ll file")
	flag.BoolVar(&opts.noOpt, "no-opt", false, "disable llc optimizations")
	flag.BoolVar(&opts.strictArity, "strict-arity", false, "reject calls with the wrong number of arguments")
	flag.BoolVar(&opts.watch, "w", false, "rebuild when a source file changes")
	flag.BoolVar(&opts.verbose, "v", false, "log compiler progress")
	flag.StringVar(&opts.port, "p", "", "serial port to flash")
	flag.StringVar(&opts.board, "board", codegen.DefaultTarget.Board, fmt.Sprintf("target board %v", codegen.BoardNames()))
	flag.IntVar(&opts.jobs, "j", runtime.NumCPU(), "number of files compiled in parallel")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}
	opts.command = flag.Arg(0)
	if opts.command == "upload" {
		opts.command = "flash"
	}
	files := flag.Args()[1:]

	d, err := newDriver(opts)
	if err != nil {
		log.Fatal(err)
	}
	if opts.command == "flash" && len(files) != 1 {
		log.Fatal("flash takes exactly one file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.watch {
		if err := watch(ctx, files, d.run); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal(err)
		}
		return
	}
	if err := d.run(ctx, files); err != nil {
		log.Fatal(err)
	}
}

// driver runs one command over a set of source files.
type driver struct {
	opts   options
	target codegen.Target
	tools  toolchain.Config
	logger *log.Logger
}

func newDriver(opts options) (*driver, error) {
	switch opts.command {
	case "build", "flash", "emit":
	default:
		return nil, fmt.Errorf("unknown command %q", opts.command)
	}
	target, err := codegen.LookupBoard(opts.board)
	if err != nil {
		return nil, err
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}
	tools := toolchain.ConfigFromEnv(target)
	tools.Optimize = !opts.noOpt

	logger := log.New(io.Discard, "", 0)
	if opts.verbose {
		logger = log.New(os.Stderr, "dsp: ", log.Lmsgprefix|log.Ltime)
	}
	return &driver{opts: opts, target: target, tools: tools, logger: logger}, nil
}

// run compiles every file, at most opts.jobs at a time. Each file is an
// independent unit; the first failure cancels the rest.
func (d *driver) run(ctx context.Context, files []string) error {
	if d.opts.command != "emit" {
		if _, err := d.tools.CheckLLC(ctx); err != nil {
			return err
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			return d.unit(gctx, file)
		})
	}
	return g.Wait()
}

func (d *driver) unit(ctx context.Context, file string) error {
	ll, err := d.emit(file)
	if err != nil {
		return err
	}
	if d.opts.command == "emit" {
		log.Printf("wrote %s", ll)
		return nil
	}
	if !d.opts.emitLLVM {
		defer os.Remove(ll)
	}

	hex, err := d.tools.Build(ctx, ll)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	if d.opts.command != "flash" {
		log.Printf("built %s", hex)
		return nil
	}

	fmt.Printf("%s << %s...", d.opts.port, file)
	if err := d.tools.Flash(ctx, hex, d.opts.port); err != nil {
		fmt.Println()
		return fmt.Errorf("%s: %w", file, err)
	}
	os.Remove(hex)
	fmt.Println("[Done]")
	return nil
}
