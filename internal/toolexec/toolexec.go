// Package toolexec runs the external binaries that some stages delegate to
// (sass, cwebp, fontforge).
package toolexec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// ErrBinaryNotFound is the cause of errors for tools missing from PATH.
var ErrBinaryNotFound = stderrors.New("binary not found")

// Tool is an executable located on PATH or given by path.
type Tool struct {
	Binary string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// New returns a Tool for binary.
func New(binary string) *Tool {
	return &Tool{Binary: binary}
}

// Available reports whether the binary can be resolved.
func (t *Tool) Available() bool {
	_, err := exec.LookPath(t.Binary)
	return err == nil
}

// Run executes the tool with args, feeding stdin when non-nil, and returns
// stdout. A failing command yields an external error carrying the tool output.
func (t *Tool) Run(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(t.Binary)
	if err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", ErrBinaryNotFound, err), errors.CategoryExternal, "binary not found").
			WithContext("tool", t.Binary).UserAction().Build()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = t.Dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	slog.Debug("Running external tool", logfields.Tool(t.Binary), slog.Any("args", args))
	err = cmd.Run()
	if errStr := stderr.String(); errStr != "" {
		slog.Debug("External tool stderr", logfields.Tool(t.Binary), slog.String("error_output", errStr))
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		}
		cause := err
		if output != "" {
			cause = fmt.Errorf("%w: %s", err, output)
		}
		return nil, errors.WrapError(cause, errors.CategoryExternal, t.Binary+" failed").
			WithContext("tool", t.Binary).Build()
	}

	slog.Debug("External tool finished", logfields.Tool(t.Binary), logfields.Elapsed(time.Since(start)))
	return stdout.Bytes(), nil
}
