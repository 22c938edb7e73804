package errors

import (
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("unknown category").Build(), expected: 2},
		{name: "not found", err: NotFoundError("unknown task").Build(), expected: 3},
		{name: "auth", err: AuthError("bad api key").Build(), expected: 5},
		{name: "config", err: ConfigError("bad yaml").Build(), expected: 7},
		{name: "network", err: NetworkError("timeout").Build(), expected: 8},
		{name: "external", err: ExternalError("sass missing").Build(), expected: 8},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "build", err: BuildError("stage failed").Build(), expected: 11},
		{name: "filesystem", err: FileSystemError("write failed").Build(), expected: 11},
		{name: "runtime", err: RuntimeError("port in use").Build(), expected: 12},
		{name: "unclassified", err: stderrors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := BuildError("style stage failed").WithCause(stderrors.New("sass exited 65")).Build()

	quiet := NewCLIErrorAdapter(false, nil)
	if got := quiet.FormatError(err); got != "Error: style stage failed: sass exited 65" {
		t.Errorf("FormatError() = %q", got)
	}

	verbose := NewCLIErrorAdapter(true, nil)
	if got := verbose.FormatError(err); !strings.Contains(got, "[build]") {
		t.Errorf("verbose FormatError() = %q, want category tag", got)
	}

	if got := quiet.FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q", got)
	}
}
