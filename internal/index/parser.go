package index

import "context"

// Parser turns file text into a FileResult. Implementations live in
// internal/parser: ExecParser (external terraform-index tool) and HCLParser
// (in-process).
//
// Parse returns an error wrapping ErrToolUnavailable when the underlying tool
// cannot run; any other error is treated as a parse failure. Neither kind of
// failure changes the index.
type Parser interface {
	Parse(ctx context.Context, file string, text []byte) (*FileResult, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, file string, text []byte) (*FileResult, error)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, file string, text []byte) (*FileResult, error) {
	return f(ctx, file, text)
}

// Notifier receives advisories that are not tied to a file.
type Notifier interface {
	// MissingTool is called at most once per Index when the parser tool
	// cannot be found.
	MissingTool(tool string)
}

// DiagnosticsSink receives the diagnostics of each file after every rebuild.
type DiagnosticsSink interface {
	SetDiagnostics(file string, diags []Diagnostic)
	ClearDiagnostics(file string)
}
