// Package runner executes skill scripts through their resolved interpreters
// and captures their output under a hard size cap.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/envutil"
)

type Runner struct {
	logger         *zap.Logger
	maxOutputBytes int
	binDir         string
}

type Options struct {
	Logger *zap.Logger
	// MaxOutputBytes caps each captured stream. Zero means the configured
	// default.
	MaxOutputBytes int
	// BinDir, when set, is prepended to the subprocess PATH so scripts can
	// invoke installed wrappers.
	BinDir string
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	max := opts.MaxOutputBytes
	if max <= 0 {
		max = envutil.MaxOutputBytes()
	}
	return &Runner{
		logger:         logger.Named("runner"),
		maxOutputBytes: max,
		binDir:         opts.BinDir,
	}
}

// RunScript executes one skill script with the given arguments. The exit
// code is the script's own; a failure to start at all is reported as an
// error instead.
func (r *Runner) RunScript(ctx context.Context, meta domain.ScriptMetadata, args []string) (domain.CommandResult, error) {
	if meta.Path == "" {
		return domain.CommandResult{}, errors.New("script has no path")
	}
	interpreter := InterpreterForExtension(meta.Extension)

	argv := append([]string{meta.Path}, args...)
	cmd := exec.CommandContext(ctx, interpreter, argv...)
	cmd.Env = envutil.EnsureDirOnPATH(os.Environ(), r.binDir)
	cmd.Dir = filepath.Dir(meta.Path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = newCappedWriter(&stdout, r.maxOutputBytes)
	cmd.Stderr = newCappedWriter(&stderr, r.maxOutputBytes)

	r.logger.Debug("running script",
		zap.String("interpreter", interpreter),
		zap.String("path", meta.Path),
		zap.Int("args", len(args)),
	)

	err := cmd.Run()
	result := domain.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return domain.CommandResult{}, fmt.Errorf("run %s: %w", meta.Path, err)
	}
	return result, nil
}

// cappedWriter discards bytes past the cap but keeps counting so the
// subprocess never blocks on a full pipe.
type cappedWriter struct {
	buf *bytes.Buffer
	max int
}

func newCappedWriter(buf *bytes.Buffer, max int) *cappedWriter {
	return &cappedWriter{buf: buf, max: max}
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	remaining := w.max - w.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			w.buf.Write(p[:remaining])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
