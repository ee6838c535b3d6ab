package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"rusht/interpreter-go/pkg/driver"
	"rusht/interpreter-go/pkg/interpreter"
	"rusht/interpreter-go/pkg/parser"
	"rusht/interpreter-go/pkg/runtime"
)

type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

type replConfig struct {
	prompt      string
	historyFile string
	historySize int
}

// newLineReader is replaced in tests with a scripted reader.
var newLineReader = func(cfg replConfig, complete func(word string) []string) (lineReader, error) {
	return newLinerReader(cfg, complete), nil
}

func (p *project) replConfig() replConfig {
	cfg := replConfig{prompt: driver.DefaultPrompt, historySize: driver.DefaultHistorySize}
	if p != nil && p.manifest != nil {
		cfg.prompt = p.manifest.Prompt
		cfg.historySize = p.manifest.History.Size
		if file := p.manifest.History.File; file != "" {
			cfg.historyFile = p.manifest.ResolvePath(file)
		}
	}
	if cfg.historyFile == "" {
		if file, err := driver.DefaultHistoryFile(); err == nil {
			cfg.historyFile = file
		}
	}
	return cfg
}

func runREPL() int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to determine working directory: %v\n", err)
		return 1
	}
	proj, err := loadProject(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load project: %v\n", err)
		return 1
	}
	interp, err := proj.newSession(os.Stdin, os.Stdout)
	if err != nil {
		return reportError(err)
	}
	cfg := proj.replConfig()
	reader, err := newLineReader(cfg, symbolCompleter(interp.GlobalEnvironment()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start line editor: %v\n", err)
		return 1
	}
	defer reader.Close()
	return replLoop(interp, reader, cfg.prompt, os.Stdout, os.Stderr)
}

// replLoop reads forms until end of input. Each complete input is evaluated
// in the root environment; errors are reported and the loop continues.
func replLoop(interp *interpreter.Interpreter, reader lineReader, prompt string, stdout, stderr io.Writer) int {
	var pending strings.Builder
	for {
		current := prompt
		if pending.Len() > 0 {
			current = continuationPrompt(prompt)
		}
		line, err := reader.Prompt(current)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				pending.Reset()
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(stdout)
				return 0
			}
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}

		if pending.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ":") {
				reader.AppendHistory(trimmed)
				if done := replCommand(trimmed, stdout, stderr); done {
					return 0
				}
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteByte('\n')
		source := pending.String()
		forms, err := parser.ParseProgramSource(source)
		if incompleteInput(err) {
			continue
		}
		pending.Reset()
		reader.AppendHistory(strings.Join(strings.Fields(source), " "))
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			continue
		}
		for _, form := range forms {
			val, err := interp.Evaluate(form, nil)
			if err != nil {
				var exitErr *interpreter.ExitError
				if errors.As(err, &exitErr) {
					return exitErr.Code
				}
				fmt.Fprintf(stderr, "error: %v\n", err)
				break
			}
			fmt.Fprintln(stdout, runtime.Inspect(val))
		}
	}
}

func incompleteInput(err error) bool {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind == parser.ParseUnexpectedEOF
	}
	var lexErr *parser.LexError
	if errors.As(err, &lexErr) {
		return lexErr.Kind == parser.LexUnterminatedString
	}
	return false
}

func continuationPrompt(prompt string) string {
	width := len([]rune(prompt))
	if width < 2 {
		return "."
	}
	return strings.Repeat(" ", width-2) + ". "
}

// replCommand handles colon commands and reports whether the REPL should exit.
func replCommand(input string, stdout, stderr io.Writer) bool {
	name, rest, _ := strings.Cut(input, " ")
	switch name {
	case ":q", ":quit":
		return true
	case ":ast":
		if strings.TrimSpace(rest) == "" {
			fmt.Fprintln(stderr, ":ast requires an expression")
			return false
		}
		dumpASTTo(stdout, stderr, rest)
	case ":help":
		fmt.Fprintln(stdout, ":ast <expr>   show the parsed expression tree")
		fmt.Fprintln(stdout, ":quit         leave the REPL")
	default:
		fmt.Fprintf(stderr, "unknown command %s (try :help)\n", name)
	}
	return false
}

// symbolCompleter offers names bound in env or any enclosing scope.
func symbolCompleter(env *runtime.Environment) func(word string) []string {
	return func(word string) []string {
		var out []string
		for _, name := range env.VisibleKeys() {
			if strings.HasPrefix(name, word) {
				out = append(out, name)
			}
		}
		return out
	}
}

// splitWord separates the symbol under the cursor from the rest of the line.
func splitWord(line string, pos int) (head, word, tail string) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	start := pos
	for start > 0 && !strings.ContainsRune(" \t()\"", runes[start-1]) {
		start--
	}
	return string(runes[:start]), string(runes[start:pos]), string(runes[pos:])
}

type linerReader struct {
	state *liner.State
	cfg   replConfig
}

func newLinerReader(cfg replConfig, complete func(word string) []string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetTabCompletionStyle(liner.TabPrints)
	state.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		head, word, tail := splitWord(line, pos)
		return head, complete(word), tail
	})
	if cfg.historyFile != "" && cfg.historySize > 0 {
		if f, err := os.Open(cfg.historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return &linerReader{state: state, cfg: cfg}
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.state.Prompt(prompt)
}

func (r *linerReader) AppendHistory(line string) {
	r.state.AppendHistory(line)
}

func (r *linerReader) Close() error {
	defer r.state.Close()
	if r.cfg.historyFile == "" || r.cfg.historySize <= 0 {
		return nil
	}
	var buf bytes.Buffer
	if _, err := r.state.WriteHistory(&buf); err != nil {
		return err
	}
	return writeHistory(r.cfg.historyFile, buf.String(), r.cfg.historySize)
}

// writeHistory keeps the newest size entries.
func writeHistory(path, history string, size int) error {
	lines := strings.Split(strings.TrimRight(history, "\n"), "\n")
	if len(lines) > size {
		lines = lines[len(lines)-size:]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}
