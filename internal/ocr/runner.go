package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// maxStderr bounds how much tool stderr is kept on a ToolError.
const maxStderr = 4 << 10

// Runner executes an external text tool and returns its stdout. A failed
// run should return a *ToolError so callers can surface the tool's stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ToolError is a failed external command. Stderr holds the tail of the
// tool's diagnostics, capped at maxStderr bytes.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process did not exit on its own
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	tool := filepath.Base(e.Tool)
	var msg string
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", tool, e.ExitCode)
	} else {
		msg = fmt.Sprintf("%s: %v", tool, e.Err)
	}
	if line := lastLine(e.Stderr); line != "" {
		msg += ": " + line
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	log := r.logger.With("tool", filepath.Base(name), "elapsed_ms", time.Since(start).Milliseconds())
	if err == nil {
		log.Debug("ocr.exec.ok", "stdout_bytes", stdout.Len(), "stderr_bytes", stderr.Len())
		return stdout.Bytes(), nil
	}

	terr := &ToolError{Tool: name, Args: args, ExitCode: -1, Stderr: tail(stderr.String(), maxStderr), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		terr.ExitCode = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		terr.Err = fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	log.Error("ocr.exec.failed", "exit_code", terr.ExitCode, "error", err, "stderr", terr.Stderr)
	return stdout.Bytes(), terr
}

// tail keeps the last n bytes of s, where tools usually print the
// actual failure, without leaving a broken rune at the cut.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "...(truncated)" + strings.ToValidUTF8(s[len(s)-n:], "")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	return s
}
