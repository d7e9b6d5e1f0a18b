package main

import (
	"fmt"
	"os"

	"github.com/rheehot/dsp/codegen"
	"github.com/rheehot/dsp/parser"
)

// emit compiles one source file to LLVM IR and writes it to file+".ll".
// Lowering errors are printed with the file name before returning.
func (d *driver) emit(file string) (string, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	stmts, err := parser.ParseFile(string(src))
	if err != nil {
		return "", fmt.Errorf("%s:%w", file, err)
	}

	opts := []codegen.Option{codegen.WithTarget(d.target), codegen.WithLogger(d.logger)}
	if d.opts.strictArity {
		opts = append(opts, codegen.WithStrictArity())
	}
	cg := codegen.NewCodeGen(opts...)
	m, err := cg.Generate(stmts)
	if err != nil {
		diags := cg.Diagnostics()
		fmt.Fprintln(os.Stderr, diags.Format(file))
		return "", fmt.Errorf("%s: %d error(s)", file, diags.ErrorCount())
	}

	if diags := cg.Diagnostics(); len(diags.All()) > 0 {
		fmt.Fprintln(os.Stderr, diags.Format(file))
	}

	ll := file + ".ll"
	if err := os.WriteFile(ll, []byte(m.String()), 0o644); err != nil {
		return "", err
	}
	d.logger.Printf("%s: %d function(s)", file, len(m.Funcs))
	return ll, nil
}
