package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"rusht/interpreter-go/pkg/driver"
	"rusht/interpreter-go/pkg/interpreter"
	"rusht/interpreter-go/pkg/parser"
	"rusht/interpreter-go/pkg/runtime"
)

const cliToolVersion = "rusht-cli 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runREPL()
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "repl":
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "rusht repl does not take arguments (received %s)\n", strings.Join(args[1:], " "))
			return 1
		}
		return runREPL()
	case "run":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "rusht run requires exactly one source file")
			return 1
		}
		return runFile(args[1])
	case "ast":
		return runAST(args[1:])
	case "deps":
		return runDeps(args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "unknown flag %q\n", args[0])
			printUsage(os.Stderr)
			return 1
		}
		if len(args) > 1 {
			fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
			return 1
		}
		return runFile(args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  rusht                      start the REPL")
	fmt.Fprintln(w, "  rusht <file.rsh>           run a program and print its final value")
	fmt.Fprintln(w, "  rusht run <file.rsh>")
	fmt.Fprintln(w, "  rusht ast <source>         dump the parsed expression tree")
	fmt.Fprintln(w, "  rusht deps install         fetch git libraries listed in rusht.yml")
	fmt.Fprintln(w, "  rusht deps update [lib ...]")
}

// project bundles the configuration found around the working directory or
// an entry file. manifest is nil when no rusht.yml exists.
type project struct {
	manifest *driver.Manifest
	lock     *driver.Lockfile
	home     string
}

func loadProject(start string) (*project, error) {
	manifestPath, err := driver.FindManifest(start)
	if err != nil {
		if errors.Is(err, driver.ErrManifestNotFound) {
			return &project{}, nil
		}
		return nil, err
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	home, err := driver.ResolveHome()
	if err != nil {
		return nil, err
	}
	lock, err := loadLockfileForManifest(manifest)
	if err != nil {
		return nil, err
	}
	return &project{manifest: manifest, lock: lock, home: home}, nil
}

func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	lockPath := filepath.Join(manifest.Dir(), driver.LockfileFileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}
	if lock.Root != manifest.Name {
		return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
	}
	return lock, nil
}

// newSession builds an interpreter and evaluates the project's libraries and
// preload files into its root environment.
func (p *project) newSession(stdin io.Reader, stdout io.Writer) (*interpreter.Interpreter, error) {
	interp := interpreter.New(
		interpreter.WithInput(stdin),
		interpreter.WithOutput(stdout),
		interpreter.WithExitHandler(func(int) {}),
	)
	if p == nil || p.manifest == nil {
		return interp, nil
	}
	sources, err := p.manifest.PreloadSources(p.lock, p.home)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if _, err := interp.RunFile(src); err != nil {
			return nil, fmt.Errorf("preload: %w", err)
		}
	}
	return interp, nil
}

func runFile(path string) int {
	proj, err := loadProject(filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load project: %v\n", err)
		return 1
	}
	interp, err := proj.newSession(os.Stdin, os.Stdout)
	if err != nil {
		return reportError(err)
	}
	val, err := interp.RunFile(path)
	if err != nil {
		return reportError(err)
	}
	fmt.Fprintln(os.Stdout, runtime.Inspect(val))
	return 0
}

// reportError prints an evaluation failure and maps it to an exit status.
// An exit builtin call is not a failure.
func reportError(err error) int {
	var exitErr *interpreter.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

var astDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func runAST(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "rusht ast requires source text")
		return 1
	}
	return dumpASTTo(os.Stdout, os.Stderr, strings.Join(args, " "))
}

func dumpASTTo(w, errOut io.Writer, source string) int {
	forms, err := parser.ParseProgramSource(source)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	for _, form := range forms {
		astDumper.Fdump(w, form)
	}
	return 0
}
