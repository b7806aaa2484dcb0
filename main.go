// Command carp lexes, reads, and translates Lisp-flavored source into a
// flat operation list, executes compiled programs against the single-
// accumulator machine, and can drive either debugger front end over a run.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carp-lang/carp/config"
	"github.com/carp-lang/carp/control"
	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/debugger"
	"github.com/carp-lang/carp/lexer"
	"github.com/carp-lang/carp/ops"
	"github.com/carp-lang/carp/reader"
	"github.com/carp-lang/carp/schema"
	"github.com/carp-lang/carp/service"
	"github.com/carp-lang/carp/translator"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "translate":
		runTranslate(os.Args[2:])
	case "execute":
		runExecute(os.Args[2:])
	case "generate-schema":
		runGenerateSchema(os.Args[2:])
	case "debug":
		runDebug(os.Args[2:])
	case "-help", "--help", "help":
		printHelp()
	case "-version", "--version", "version":
		fmt.Printf("carp %s (%s)\n", Version, Commit)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`carp - a Lisp-flavored translator and single-accumulator executor

Usage:
  carp translate [--save-parsed] <source> [<out>]
  carp execute [--save-log] <program> [<input>] [<out>]
  carp generate-schema [<path>]
  carp debug [--tui|--gui] <source-or-program> [<input>]

Flags are only recognized before the positional arguments; anything after
the first positional argument is taken as a positional argument.

Commands:
  translate   Lex, read, and translate source into a compiled program.
  execute     Run a compiled program to completion and print its output.
  generate-schema  Dump the operation JSON schema.
  debug       Translate (or load) a program and step through it interactively.
`)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// translateFile lexes, reads, and translates source text against cfg's
// device dimensions. A translation error it returns carries the offending
// symbol's position and text, which reportTranslationError prints as
// "Translation error occurred at L:C (text): <msg>" (§7).
func translateFile(path string, cfg *config.Config) ([]ops.Operation, []lexer.Symbol, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified source path
	if err != nil {
		return nil, nil, err
	}

	symbols, err := lexer.Scan(string(data))
	if err != nil {
		return nil, nil, err
	}

	program, err := translator.TranslateWithConfig(reader.New(symbols), machineConfig(cfg))
	if err != nil {
		return nil, symbols, err
	}
	return program, symbols, nil
}

// machineConfig lowers a loaded config.Config's Machine section into the
// translator's MachineConfig shape, the same dimensions runExecute and
// runDebug hand to the datapath/control side of the same run.
func machineConfig(cfg *config.Config) translator.MachineConfig {
	return translator.MachineConfig{
		DeviceCount:   cfg.Machine.DeviceCount,
		InputAddress:  cfg.Machine.InputAddress,
		OutputAddress: cfg.Machine.OutputAddress,
	}
}

func reportTranslationError(err error) {
	var tErr *reader.TranslationError
	if errors.As(err, &tErr) {
		fmt.Fprintf(os.Stderr, "Translation error occurred at %d:%d (%s): %s\n",
			tErr.Line, tErr.Column, tErr.Text, tErr.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "Translation error: %v\n", err)
}

// loadConfigOrExit loads the user's config file, falling back to defaults
// when none exists, and exits the process on a malformed one.
func loadConfigOrExit() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runTranslate(args []string) {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	saveParsed := fs.Bool("save-parsed", false, "Also write a parsed-symbol dump to <stem>.cpar")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: carp translate [--save-parsed] <source> [<out>]")
		os.Exit(1)
	}
	source := fs.Arg(0)
	out := fs.Arg(1)
	if out == "" {
		out = stem(source) + ".curp"
	}

	cfg := loadConfigOrExit()
	program, symbols, err := translateFile(source, cfg)
	if err != nil {
		reportTranslationError(err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(program, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding program: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}

	if *saveParsed {
		parsedOut := stem(source) + ".cpar"
		parsedData, err := json.MarshalIndent(symbols, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding parsed symbols: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(parsedOut, parsedData, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", parsedOut, err)
			os.Exit(1)
		}
	}
}

func loadProgram(path string) ([]ops.Operation, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified program path
	if err != nil {
		return nil, err
	}
	var program []ops.Operation
	if err := json.Unmarshal(data, &program); err != nil {
		return nil, fmt.Errorf("failed to parse compiled program: %w", err)
	}
	return program, nil
}

func runExecute(args []string) {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	saveLog := fs.Bool("save-log", false, "Dump the execution log to <stem>.clog")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: carp execute [--save-log] <program> [<input>] [<out>]")
		os.Exit(1)
	}
	programPath := fs.Arg(0)
	inputPath := fs.Arg(1)
	out := fs.Arg(2)

	program, err := loadProgram(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	var input []int64
	if inputPath != "" {
		data, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified input path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		input = service.StringToInput(string(data))
	}

	cfg := loadConfigOrExit()

	dp := datapath.NewWithConfig(datapath.MachineConfig{
		DeviceCount:    cfg.Machine.DeviceCount,
		InputAddress:   cfg.Machine.InputAddress,
		OutputAddress:  cfg.Machine.OutputAddress,
		DataMemorySize: cfg.Machine.DataMemorySize,
	}, program, input)
	cu := control.New(dp)
	cu.MaxCycles = cfg.Machine.MaxCycles
	runErr := cu.Run()

	if *saveLog || runErr != nil {
		logPath := stem(programPath) + ".clog"
		logData, err := json.MarshalIndent(cu.Log, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding log: %v\n", err)
		} else if err := os.WriteFile(logPath, logData, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", logPath, err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", runErr)
		os.Exit(1)
	}

	outputChars := make([]rune, len(dp.Output()))
	for i, v := range dp.Output() {
		outputChars[i] = rune(v)
	}
	outputText := string(outputChars)

	if out == "" {
		fmt.Print(outputText)
	} else if err := os.WriteFile(out, []byte(outputText), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out, err)
		os.Exit(1)
	}
}

func runGenerateSchema(args []string) {
	fs := flag.NewFlagSet("generate-schema", flag.ExitOnError)
	_ = fs.Parse(args)

	data, err := schema.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(fs.Arg(0), data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}
}

func runDebug(args []string) {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	tuiMode := fs.Bool("tui", true, "Use the terminal debugger (default)")
	guiMode := fs.Bool("gui", false, "Use the desktop debugger")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: carp debug [--tui|--gui] <source-or-program> [<input>]")
		os.Exit(1)
	}
	path := fs.Arg(0)
	inputPath := fs.Arg(1)
	cfg := loadConfigOrExit()

	var sess *service.Session
	if strings.HasSuffix(path, ".curp") {
		program, err := loadProgram(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
			os.Exit(1)
		}
		sess = service.NewSessionWithConfig(program, cfg)
	} else {
		data, err := os.ReadFile(path) // #nosec G304 -- user-specified source path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading source: %v\n", err)
			os.Exit(1)
		}
		sess, err = service.TranslateSourceWithConfig(string(data), cfg)
		if err != nil {
			reportTranslationError(err)
			os.Exit(1)
		}
	}

	var input []int64
	if inputPath != "" {
		data, err := os.ReadFile(inputPath) // #nosec G304 -- user-specified input path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		input = service.StringToInput(string(data))
	}

	sess.Load(input, cfg.Machine.DataMemorySize)

	if *guiMode {
		if err := debugger.RunGUI(sess); err != nil {
			fmt.Fprintf(os.Stderr, "GUI error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *tuiMode {
		if err := debugger.RunTUI(sess); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
	}
}
