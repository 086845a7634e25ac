package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Root        string
	Parser      string
	IndexerPath string
	Kind        string
	Prefix      int
	HTTP        string
	JSON        bool
	Verbose     bool
	Version     bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: tfindex [flags] <command> [args]

commands:
  scan                         index the workspace and print stats and diagnostics (default)
  symbols [pattern]            list workspace symbols
  refs <id>                    list reference sites of an identifier
  def <file> <line> <column>   find the definition under a position
  rename <id> <newName>        print rename edits
  watch                        keep the index live and print diagnostics as they change
  serve                        serve MCP tools over stdio (or -http)
  diagram                      print the file dependency graph as Mermaid
  graph                        print the reference graph as JSON
  export <dir>                 write the reference graph to a Kuzu database

flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return newApp(os.Stdout, os.Stderr).run(args)
}

// app carries the output streams so commands can be tested.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  cliFlags
	log    *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) run(args []string) error {
	flags := &a.flags

	fs := flag.NewFlagSet("tfindex", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprint(a.stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.Root, "root", ".", "path to the Terraform workspace")
	fs.StringVar(&flags.Parser, "parser", "", "parser to use: hcl or exec (default from config)")
	fs.StringVar(&flags.IndexerPath, "indexer-path", "", "path to the terraform-index tool (default from config)")
	fs.StringVar(&flags.Kind, "kind", "", "symbol kind filter for symbols")
	fs.IntVar(&flags.Prefix, "prefix", len("var."), "columns before the bare name when the parser reports no identifier range")
	fs.StringVar(&flags.HTTP, "http", "", "serve MCP over streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.JSON, "json", false, "print results as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(a.stdout, version)
		return nil
	}

	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	// Logs go to stderr; stdout carries results and the MCP stdio stream.
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	cmd, rest := "scan", []string(nil)
	if fs.NArg() > 0 {
		cmd, rest = fs.Arg(0), fs.Args()[1:]
	}

	switch cmd {
	case "scan":
		return a.runScan()
	case "symbols":
		return a.runSymbols(rest)
	case "refs":
		return a.runRefs(rest)
	case "def":
		return a.runDef(rest)
	case "rename":
		return a.runRename(rest)
	case "watch":
		return a.runWatch()
	case "serve":
		return a.runServe()
	case "diagram":
		return a.runDiagram()
	case "graph":
		return a.runGraph()
	case "export":
		return a.runExport(rest)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
