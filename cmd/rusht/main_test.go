package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/peterh/liner"

	"rusht/interpreter-go/pkg/driver"
	"rusht/interpreter-go/pkg/interpreter"
	"rusht/interpreter-go/pkg/runtime"
)

func TestRunFilePrintsFinalValue(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.rsh")
	writeFile(t, entry, `
(def square (func (n) (* n n)))
(print "computing")
(list (square 4) "done")
`)

	code, stdout, stderr := captureCLI(t, []string{entry})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr)
	}
	if stdout != "computing\n(16 \"done\")\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}

	code, stdout, _ = captureCLI(t, []string{"run", entry})
	if code != 0 || !strings.HasSuffix(stdout, "(16 \"done\")\n") {
		t.Fatalf("run subcommand: code %d stdout %q", code, stdout)
	}
}

func TestRunFileExitCode(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.rsh")
	writeFile(t, entry, "(print \"before\")\n(exit 4)\n(print \"after\")\n")

	code, stdout, stderr := captureCLI(t, []string{entry})
	if code != 4 {
		t.Fatalf("expected exit code 4, got %d", code)
	}
	if stdout != "before\n" || stderr != "" {
		t.Fatalf("unexpected output stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestRunFileReportsErrors(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.rsh")
	writeFile(t, entry, "(def x 1)\n(foo x)\n")

	code, stdout, stderr := captureCLI(t, []string{entry})
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if stdout != "" || !strings.Contains(stderr, "undefined symbol 'foo'") {
		t.Fatalf("unexpected output stdout=%q stderr=%q", stdout, stderr)
	}

	code, _, stderr = captureCLI(t, []string{filepath.Join(dir, "missing.rsh")})
	if code != 1 || !strings.Contains(stderr, "missing.rsh") {
		t.Fatalf("expected missing file error, got %d %q", code, stderr)
	}
}

func TestRunFileWithManifestPreload(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app")
	writeFile(t, filepath.Join(app, driver.ManifestFileName), `
name: app
preload: boot.rsh
libraries:
  helpers:
    path: vendor/helpers
`)
	writeFile(t, filepath.Join(app, "vendor", "helpers", "main.rsh"), "(def double (func (n) (* n 2)))\n")
	writeFile(t, filepath.Join(app, "boot.rsh"), "(def base (double 20))\n")
	entry := filepath.Join(app, "src", "main.rsh")
	writeFile(t, entry, "(+ base 2)\n")

	code, stdout, stderr := captureCLI(t, []string{entry})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr)
	}
	if stdout != "42\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
}

func TestRunFileRequiresFetchedGitLibrary(t *testing.T) {
	root := t.TempDir()
	t.Setenv(driver.HomeEnvVar, filepath.Join(root, "home"))
	writeFile(t, filepath.Join(root, driver.ManifestFileName), `
name: app
libraries:
  remote:
    git: https://example.com/remote.git
    branch: main
`)
	entry := filepath.Join(root, "main.rsh")
	writeFile(t, entry, "1\n")

	code, _, stderr := captureCLI(t, []string{entry})
	if code != 1 || !strings.Contains(stderr, "not fetched") {
		t.Fatalf("expected unfetched library failure, got %d %q", code, stderr)
	}
}

func TestASTCommand(t *testing.T) {
	code, stdout, stderr := captureCLI(t, []string{"ast", "(+ 1", "2)"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr)
	}
	for _, fragment := range []string{"ast.List", "NumberLiteral", "(float64) 2", "\"+\""} {
		if !strings.Contains(stdout, fragment) {
			t.Fatalf("expected %q in dump:\n%s", fragment, stdout)
		}
	}

	code, _, stderr = captureCLI(t, []string{"ast", "(+ 1"})
	if code != 1 || !strings.Contains(stderr, "unexpected end of input") {
		t.Fatalf("expected parse failure, got %d %q", code, stderr)
	}
}

func TestUsageAndVersion(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"--version"})
	if code != 0 || strings.TrimSpace(stdout) != cliToolVersion {
		t.Fatalf("version: %d %q", code, stdout)
	}
	code, stdout, _ = captureCLI(t, []string{"--help"})
	if code != 0 || !strings.Contains(stdout, "rusht deps install") {
		t.Fatalf("help: %d %q", code, stdout)
	}
	code, _, stderr := captureCLI(t, []string{"--bogus"})
	if code != 1 || !strings.Contains(stderr, "unknown flag") {
		t.Fatalf("unknown flag: %d %q", code, stderr)
	}
}

type scriptedReader struct {
	lines   []string
	err     []error
	prompts []string
	history []string
	closed  bool
}

func (r *scriptedReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	var err error
	if len(r.err) > 0 {
		err = r.err[0]
		r.err = r.err[1:]
	}
	return line, err
}

func (r *scriptedReader) AppendHistory(line string) { r.history = append(r.history, line) }

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func newTestInterpreter(stdout io.Writer) *interpreter.Interpreter {
	return interpreter.New(
		interpreter.WithInput(strings.NewReader("")),
		interpreter.WithOutput(stdout),
		interpreter.WithExitHandler(func(int) {}),
	)
}

func TestReplLoop(t *testing.T) {
	var stdout, stderr strings.Builder
	reader := &scriptedReader{lines: []string{
		"(def x 2)",
		"",
		"(+ x",
		"   3)",
		"(foo)",
		":ast (f 1)",
		"(* x 10) (- x)",
	}}

	code := replLoop(newTestInterpreter(&stdout), reader, "rusht> ", &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "2\n5\n") {
		t.Fatalf("unexpected stdout prefix:\n%s", out)
	}
	if !strings.Contains(out, "ast.Symbol") || !strings.HasSuffix(out, "20\n-2\n\n") {
		t.Fatalf("unexpected stdout:\n%s", out)
	}
	if !strings.Contains(stderr.String(), "undefined symbol 'foo'") {
		t.Fatalf("expected evaluation error on stderr, got %q", stderr.String())
	}
	if reader.prompts[3] != "     . " {
		t.Fatalf("expected continuation prompt, got %q", reader.prompts[3])
	}
	if reader.history[1] != "(+ x 3)" {
		t.Fatalf("expected joined multi-line history entry, got %#v", reader.history)
	}
}

func TestReplLoopExitAndAbort(t *testing.T) {
	var stdout, stderr strings.Builder
	reader := &scriptedReader{
		lines: []string{"(+ 1", "", "(exit 9)", "(print \"unreached\")"},
		err:   []error{nil, liner.ErrPromptAborted},
	}
	code := replLoop(newTestInterpreter(&stdout), reader, "> ", &stdout, &stderr)
	if code != 9 {
		t.Fatalf("expected exit code 9, got %d", code)
	}
	if stdout.String() != "" || stderr.String() != "" {
		t.Fatalf("unexpected output stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
	if reader.prompts[2] != "> " {
		t.Fatalf("expected abort to reset the prompt, got %#v", reader.prompts)
	}
}

func TestReplLoopQuitCommand(t *testing.T) {
	var stdout, stderr strings.Builder
	reader := &scriptedReader{lines: []string{":nope", ":quit", "1"}}
	if code := replLoop(newTestInterpreter(&stdout), reader, "> ", &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown command :nope") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
	if len(reader.lines) != 1 {
		t.Fatalf("expected :quit to stop reading, remaining %#v", reader.lines)
	}
}

func TestRunREPLUsesManifestConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, driver.ManifestFileName), `
name: calc
prompt: "calc> "
history:
  file: state/history
  size: 5
preload: boot.rsh
`)
	writeFile(t, filepath.Join(root, "boot.rsh"), "(def answer 42)\n")
	testChdir(t, root)

	reader := &scriptedReader{lines: []string{"answer"}}
	var gotCfg replConfig
	var completions []string
	original := newLineReader
	newLineReader = func(cfg replConfig, complete func(string) []string) (lineReader, error) {
		gotCfg = cfg
		completions = complete("ans")
		return reader, nil
	}
	t.Cleanup(func() { newLineReader = original })

	code, stdout, stderr := captureCLI(t, nil)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr)
	}
	if stdout != "42\n\n" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	if gotCfg.prompt != "calc> " || gotCfg.historySize != 5 || gotCfg.historyFile != filepath.Join(root, "state", "history") {
		t.Fatalf("unexpected repl config %#v", gotCfg)
	}
	if len(completions) != 1 || completions[0] != "answer" {
		t.Fatalf("expected preload symbols in completion, got %#v", completions)
	}
	if reader.prompts[0] != "calc> " || !reader.closed {
		t.Fatalf("expected configured prompt and closed reader, got %#v closed=%v", reader.prompts, reader.closed)
	}
}

func TestSymbolCompletion(t *testing.T) {
	env := interpreter.NewRootEnvironment()
	env.Define("append-all", runtime.NumberValue{Val: 1})
	child := env.Extend()
	child.Define("apple", runtime.NumberValue{Val: 2})

	got := symbolCompleter(child)("app")
	if strings.Join(got, ",") != "append,append-all,apple" {
		t.Fatalf("unexpected completions %#v", got)
	}

	head, word, tail := splitWord(`(concat "a" (app x)`, 16)
	if head != `(concat "a" (` || word != "app" || tail != " x)" {
		t.Fatalf("splitWord = %q %q %q", head, word, tail)
	}
}

func TestWriteHistoryKeepsNewest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")
	if err := writeHistory(path, "a\nb\nc\nd\n", 2); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}
	if string(data) != "c\nd\n" {
		t.Fatalf("unexpected history %q", data)
	}
}

func TestGitFetcherBranchAndRev(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "repo")
	writeFile(t, filepath.Join(repoDir, "main.rsh"), "(def value \"from git\")\n")
	rev := initGitRepo(t, repoDir)

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		t.Fatalf("PlainOpen: %v", err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature"), plumbing.NewHash(rev))
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	home := filepath.Join(root, "home")
	fetcher := newGitFetcher(home)

	cases := []struct {
		lib         *driver.LibrarySpec
		wantVersion string
	}{
		{&driver.LibrarySpec{Name: "lib", Git: repoDir, Branch: "master", Main: "main.rsh"}, "master@" + rev},
		{&driver.LibrarySpec{Name: "lib", Git: repoDir, Branch: "feature", Main: "main.rsh"}, "feature@" + rev},
		{&driver.LibrarySpec{Name: "lib", Git: repoDir, Rev: rev, Main: "main.rsh"}, rev},
	}
	for _, tc := range cases {
		locked, err := fetcher.Fetch(tc.lib)
		if err != nil {
			t.Fatalf("Fetch(%#v): %v", tc.lib, err)
		}
		if locked.Version != tc.wantVersion || locked.Commit != rev {
			t.Fatalf("locked = %#v, want version %q", locked, tc.wantVersion)
		}
		if locked.Source != fmt.Sprintf("git+%s@%s", repoDir, rev) || locked.Checksum == "" {
			t.Fatalf("unexpected source/checksum %#v", locked)
		}
		if _, err := os.Stat(filepath.Join(driver.LibraryCacheDir(home, "lib", locked.Version), "main.rsh")); err != nil {
			t.Fatalf("expected checkout for %s: %v", locked.Version, err)
		}
	}

	short := rev[:10]
	if err := os.MkdirAll(driver.LibraryCacheDir(home, "lib", short), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	locked, err := fetcher.Fetch(&driver.LibrarySpec{Name: "lib", Git: repoDir, Rev: short, Main: "main.rsh"})
	if err != nil {
		t.Fatalf("Fetch short rev: %v", err)
	}
	if locked.Commit != rev || locked.Version != short+"@"+rev || locked.Source != fmt.Sprintf("git+%s@%s", repoDir, rev) {
		t.Fatalf("expected short rev pinned to full commit, got %#v", locked)
	}

	if _, err := fetcher.Fetch(&driver.LibrarySpec{Name: "lib", Git: repoDir, Branch: "missing", Main: "main.rsh"}); err == nil {
		t.Fatalf("expected unknown branch to fail")
	}
	if _, err := fetcher.Fetch(&driver.LibrarySpec{Name: "other", Git: repoDir, Branch: "master", Main: "lib.rsh"}); err == nil {
		t.Fatalf("expected missing entry file to fail")
	}
}

func TestDepsInstallAndRunWithGitLibrary(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "greeter")
	writeFile(t, filepath.Join(repoDir, "main.rsh"), "(def greet (func (n) (concat \"hi \" n)))\n")
	rev := initGitRepo(t, repoDir)

	home := filepath.Join(root, "home")
	t.Setenv(driver.HomeEnvVar, home)

	app := filepath.Join(root, "app")
	writeFile(t, filepath.Join(app, driver.ManifestFileName), `
name: app
libraries:
  greeter:
    git: `+repoDir+`
    branch: master
  local: vendor/local
`)
	writeFile(t, filepath.Join(app, "vendor", "local", "main.rsh"), "(def who \"bob\")\n")
	entry := filepath.Join(app, "main.rsh")
	writeFile(t, entry, "(greet who)\n")
	testChdir(t, app)

	code, stdout, stderr := captureCLI(t, []string{"deps", "install"})
	if code != 0 {
		t.Fatalf("deps install failed: %d (stderr: %s)", code, stderr)
	}
	if !strings.Contains(stdout, "Fetched greeter master@"+rev) || !strings.Contains(stdout, "Created ") {
		t.Fatalf("unexpected deps output:\n%s", stdout)
	}

	lock, err := driver.LoadLockfile(filepath.Join(app, driver.LockfileFileName))
	if err != nil {
		t.Fatalf("LoadLockfile: %v", err)
	}
	if lock.Root != "app" || lock.Tool != cliToolVersion || len(lock.Libraries) != 1 {
		t.Fatalf("unexpected lockfile %#v", lock)
	}
	if got := lock.Libraries[0]; got.Name != "greeter" || got.Commit != rev || got.Version != "master@"+rev {
		t.Fatalf("unexpected locked library %#v", got)
	}

	code, stdout, stderr = captureCLI(t, []string{entry})
	if code != 0 || stdout != "\"hi bob\"\n" {
		t.Fatalf("run with git library: %d stdout=%q stderr=%q", code, stdout, stderr)
	}

	code, stdout, _ = captureCLI(t, []string{"deps"})
	if code != 0 || !strings.Contains(stdout, "Using greeter") || !strings.Contains(stdout, "Lockfile up to date") {
		t.Fatalf("second install: %d\n%s", code, stdout)
	}

	code, stdout, _ = captureCLI(t, []string{"deps", "update", "greeter"})
	if code != 0 || !strings.Contains(stdout, "Fetched greeter") {
		t.Fatalf("update: %d\n%s", code, stdout)
	}
}

func TestDepsUpdateRejectsUnknownTargets(t *testing.T) {
	root := t.TempDir()
	t.Setenv(driver.HomeEnvVar, filepath.Join(root, "home"))
	writeFile(t, filepath.Join(root, driver.ManifestFileName), "name: app\nlibraries:\n  local: vendor\n")
	testChdir(t, root)

	code, _, stderr := captureCLI(t, []string{"deps", "update", "ghost"})
	if code != 1 || !strings.Contains(stderr, `library "ghost" is not declared`) {
		t.Fatalf("unknown target: %d %q", code, stderr)
	}
	code, _, stderr = captureCLI(t, []string{"deps", "update", "local"})
	if code != 1 || !strings.Contains(stderr, "path library") {
		t.Fatalf("path target: %d %q", code, stderr)
	}
	code, _, stderr = captureCLI(t, []string{"deps", "prune"})
	if code != 1 || !strings.Contains(stderr, "unknown deps subcommand") {
		t.Fatalf("unknown subcommand: %d %q", code, stderr)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimLeft(contents, "\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	}); err != nil {
		t.Fatalf("stage files: %v", err)
	}
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Rusht CLI",
			Email: "rusht@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code := run(args)

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}

	os.Stdout = stdout
	os.Stderr = stderr

	outBytes, err := io.ReadAll(rOut)
	if err != nil {
		t.Fatalf("stdout read: %v", err)
	}
	errBytes, err := io.ReadAll(rErr)
	if err != nil {
		t.Fatalf("stderr read: %v", err)
	}
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}

// testChdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd %s: %v", prev, err)
		}
	})
}
