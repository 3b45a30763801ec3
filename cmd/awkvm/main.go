// Command awkvm loads an assembled bytecode program and runs it against
// one or more input files, the counterpart to the teacher's own flag-driven
// main: parse flags, build the machine, run it to completion, report the
// exit code. Where the teacher's main.go takes raw VM programs by file
// path, this one takes the line-oriented textual form internal/asm parses.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/awkvm/core/engine"
	"github.com/awkvm/core/internal/asm"
)

var (
	fieldSep  = flag.String("F", "", "input field separator (FS)")
	logLevel  = flag.String("loglevel", "info", "log level: debug, info, warn, error")
	logJSON   = flag.Bool("json-log", false, "emit structured JSON logs instead of console output")
	tabular   = flag.String("tabular", "", "treat input as tabular: csv or tsv")
	noUTF8    = flag.Bool("no-utf8-check", false, "set Config.CheckUTF8 to false (records are not UTF-8 validated either way)")
	chunkSize = flag.Int("chunksize", 4096, "tabular reader chunk size hint")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: awkvm [flags] <program.asm> [input files...]")
		os.Exit(2)
	}

	progPath := args[0]
	inputFiles := args[1:]

	src, err := os.ReadFile(progPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	prog, err := asm.Assemble(string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := engine.DefaultConfig()
	cfg.LogLevel = *logLevel
	cfg.ChunkSize = *chunkSize
	if *noUTF8 {
		cfg.CheckUTF8 = false
	}
	if *logJSON {
		cfg.LogFormat = engine.LogJSON
	}

	cancel := &engine.CancelSignal{}
	source, err := buildSource(inputFiles, *tabular, *fieldSep, cancel, *chunkSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	interp := engine.NewInterpreter(prog, cfg, source)
	code, runErr := interp.Run()
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// buildSource picks a RecordSource the way the program's own field
// separator and tabular flags describe the input, mirroring spec.md 6's
// three source flavors: a line splitter (byte or regex RS), a chain of
// named files falling back to stdin, or a chunked CSV/TSV reader.
func buildSource(files []string, tabularKind, fs string, cancel *engine.CancelSignal, chunkSize int) (engine.RecordSource, error) {
	if tabularKind != "" {
		r, name, err := openFirstInput(files)
		if err != nil {
			return nil, err
		}
		switch tabularKind {
		case "csv":
			return engine.NewChunkedCSVSource(r, name, chunkSize, cancel), nil
		case "tsv":
			return engine.NewChunkedTSVSource(r, name, chunkSize, cancel), nil
		default:
			return nil, fmt.Errorf("awkvm: unknown -tabular kind %q", tabularKind)
		}
	}

	rsByte := byte('\n')
	if len(fs) == 1 {
		rsByte = fs[0]
	}
	if len(files) == 0 {
		files = []string{"-"}
	}
	return engine.NewFileChainSource(files, rsByte, cancel), nil
}

func openFirstInput(files []string) (*os.File, string, error) {
	if len(files) == 0 {
		return os.Stdin, "-", nil
	}
	f, err := os.Open(files[0])
	if err != nil {
		return nil, "", err
	}
	return f, files[0], nil
}
