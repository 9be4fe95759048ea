package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mgomes/vibequery/query"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "eval":
		return evalCommand(args[2:])
	case "tokens":
		return tokensCommand(args[2:])
	case "fmt":
		return fmtCommand(args[2:])
	case "analyze":
		return analyzeCommand(args[2:])
	case "lsp":
		return lspCommand(args[2:])
	case "repl":
		return runREPL()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	checkOnly := fs.Bool("check", false, "only compile the script without executing")
	traceTokens := fs.Bool("trace-tokens", false, "write every lexed token to stderr")
	noColor := fs.Bool("no-color", false, "disable coloured output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyColorFlag(*noColor)

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("vq run: script path required")
	}
	scriptPath, err := filepath.Abs(remaining[0])
	if err != nil {
		return fmt.Errorf("resolve script path: %w", err)
	}
	input, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	cfg := query.Config{Output: os.Stdout}
	if *traceTokens {
		cfg.TokenTrace = os.Stderr
	}
	engine, err := query.NewEngine(cfg)
	if err != nil {
		return err
	}
	program, err := engine.Compile(string(input))
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}
	if *checkOnly {
		return nil
	}
	result, err := engine.NewExecution(query.CallOptions{}).Run(context.Background(), program)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	printResult(os.Stdout, result)
	return nil
}

func evalCommand(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	noColor := fs.Bool("no-color", false, "disable coloured output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyColorFlag(*noColor)

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("vq eval: source required")
	}
	engine, err := query.NewEngine(query.Config{Output: os.Stdout})
	if err != nil {
		return err
	}
	result, err := engine.Evaluate(context.Background(), remaining[0])
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	printResult(os.Stdout, result)
	return nil
}

func tokensCommand(args []string) error {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("vq tokens: script path required")
	}
	input, err := os.ReadFile(remaining[0])
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	source := string(input)

	tokens, err := query.Tokenize(source)
	for _, tok := range tokens {
		pos := query.PositionOf(source, tok.Span.Lo)
		fmt.Printf("%d:%d\t%s\t%s\n", pos.Line, pos.Column, tok, tok.Span)
	}
	return err
}

func printResult(w io.Writer, result query.Value) {
	if result.IsNone() {
		return
	}
	fmt.Fprintln(w, color.GreenString(result.String()))
}

// reportError writes err to w with the headline in colour and any code frame
// left dim underneath.
func reportError(w io.Writer, err error) {
	headline, frame, hasFrame := strings.Cut(err.Error(), "\n")
	color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, headline)
	if hasFrame {
		fmt.Fprintln(w, color.New(color.FgHiBlack).Sprint(frame))
	}
}

func applyColorFlag(disabled bool) {
	if disabled {
		color.NoColor = true
	}
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags] [args]\n", prog)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run [-check] [-trace-tokens] [-no-color] <script>")
	fmt.Fprintln(os.Stderr, "    evaluate a script and print its final value")
	fmt.Fprintln(os.Stderr, "  eval [-no-color] <source>")
	fmt.Fprintln(os.Stderr, "    evaluate source given on the command line")
	fmt.Fprintln(os.Stderr, "  tokens <script>")
	fmt.Fprintln(os.Stderr, "    print the token stream with positions and spans")
	fmt.Fprintln(os.Stderr, "  fmt [-w] [-check] <path>...")
	fmt.Fprintln(os.Stderr, "    format .vq files")
	fmt.Fprintln(os.Stderr, "  analyze <script>")
	fmt.Fprintln(os.Stderr, "    report likely mistakes without running the script")
	fmt.Fprintln(os.Stderr, "  lsp")
	fmt.Fprintln(os.Stderr, "    serve the language server protocol over stdio")
	fmt.Fprintln(os.Stderr, "  repl")
	fmt.Fprintln(os.Stderr, "    start an interactive session")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
