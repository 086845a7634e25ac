// Package parser provides the index.Parser implementations: ExecParser,
// which runs the external terraform-index tool, and HCLParser, which parses
// configuration in-process.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/dusk-indust/tfindex/internal/index"
)

// DefaultIndexerPath is the tool looked up on PATH when no path is configured.
const DefaultIndexerPath = "terraform-index"

// Compile-time assertion: *ExecParser satisfies index.Parser.
var _ index.Parser = (*ExecParser)(nil)

// ExecParser runs `<Path> -` once per file, writing the file text to the
// tool's stdin and decoding the JSON it prints on stdout.
type ExecParser struct {
	// Path is the tool to run. Defaults to DefaultIndexerPath.
	Path string
	// Dir is the working directory of the tool, normally the workspace root.
	Dir string
	// Supported is the accepted result version list. Nil means
	// index.SupportedVersions.
	Supported []string
}

// NewExecParser creates an ExecParser for the tool at path running in dir.
func NewExecParser(path, dir string) *ExecParser {
	return &ExecParser{Path: path, Dir: dir}
}

// Parse runs the tool on text. A tool that cannot be started yields an error
// wrapping index.ErrToolUnavailable. A tool that exits non-zero but still
// prints a result is treated as successful; the result carries its own
// parse errors.
func (p *ExecParser) Parse(ctx context.Context, file string, text []byte) (*index.FileResult, error) {
	path := p.Path
	if path == "" {
		path = DefaultIndexerPath
	}

	cmd := exec.CommandContext(ctx, path, "-")
	cmd.Dir = p.Dir
	cmd.Stdin = bytes.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s: %v", index.ErrToolUnavailable, path, err)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case stdout.Len() == 0:
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return nil, fmt.Errorf("%w: %s %s: %s", index.ErrParseFailure, path, file, msg)
		}
	}

	result, err := index.DecodeResult(stdout.Bytes(), p.Supported)
	if err != nil {
		return nil, fmt.Errorf("decode %s output for %s: %w", path, file, err)
	}
	return result, nil
}
