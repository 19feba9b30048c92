// Package command runs whitelisted commands as argument vectors. There is no
// shell interpreter anywhere in the path: the validated line is split into
// argv and executed directly, so shell metacharacters have no interpretation
// surface even if the upstream filter were bypassed.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"ssci-go/internal/gateway"
)

// Executor runs processes on the host with a hard wall-clock timeout.
type Executor struct{}

var _ gateway.CommandRunner = (*Executor)(nil)

func NewExecutor() *Executor { return &Executor{} }

// Run executes argv, capturing stdout and stderr separately. Exit code zero
// yields a success result with stdout; any other exit code yields a failure
// with stderr. A timeout is mapped deterministically to a failure with
// return code -1 and output "timed out"; the process is killed. Run never
// returns an error: every outcome is a result.
func (Executor) Run(argv []string, timeout time.Duration) *gateway.CommandResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Do not linger waiting for inherited pipes after the kill.
	cmd.WaitDelay = time.Second

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return &gateway.CommandResult{
			Status:     gateway.StatusFailure,
			Output:     "timed out",
			ReturnCode: -1,
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &gateway.CommandResult{
				Status:     gateway.StatusFailure,
				Output:     stderr.String(),
				ReturnCode: exitErr.ExitCode(),
			}
		}
		// Spawn failure (e.g. binary not installed on this host).
		return &gateway.CommandResult{
			Status:     gateway.StatusFailure,
			Output:     strings.TrimSpace(err.Error()),
			ReturnCode: -1,
		}
	}

	return &gateway.CommandResult{
		Status:     gateway.StatusSuccess,
		Output:     stdout.String(),
		ReturnCode: 0,
	}
}
