package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"cmdbridge/internal/domain"
)

// shellSession satisfies the router's shell contract with one-shot bash
// invocations. The agent-side persistent session lives outside this binary;
// this keeps native commands working when the bridge runs standalone.
type shellSession struct{}

func (s *shellSession) Execute(ctx context.Context, command string) (domain.CommandResult, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

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
		return domain.CommandResult{}, err
	}
	return result, nil
}
