package gateway

import (
	"fmt"
	"strings"
	"time"
)

// CommandTimeout is the hard wall-clock limit on an executed command.
const CommandTimeout = 10 * time.Second

// commandMetachars are the shell metacharacters rejected anywhere in a
// command line. Commands run through an argv vector with no shell, so these
// could never be interpreted anyway; the filter keeps rejection explicit and
// auditable rather than letting "ls | rm" surface as a weird exec error.
const commandMetachars = ";&|><`$()"

// CommandResult is the outcome of an accepted command execution. A timeout is
// not an exception path: it maps to StatusFailure, ReturnCode -1, and
// Output "timed out".
type CommandResult struct {
	Status     AuditStatus
	Output     string
	ReturnCode int
}

// CommandRunner executes a validated argument vector with a hard timeout,
// forcibly terminating the process when the timeout is exceeded.
type CommandRunner interface {
	Run(argv []string, timeout time.Duration) *CommandResult
}

// CommandPolicy validates command lines against a fixed whitelist of leading
// tokens plus a shell-metacharacter filter. Configured at startup, immutable
// at runtime.
type CommandPolicy struct {
	allowed map[string]struct{}
	names   []string
}

// NewCommandPolicy creates a policy permitting the given leading tokens.
func NewCommandPolicy(allowed []string) *CommandPolicy {
	p := &CommandPolicy{
		allowed: make(map[string]struct{}, len(allowed)),
		names:   make([]string, 0, len(allowed)),
	}
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := p.allowed[name]; ok {
			continue
		}
		p.allowed[name] = struct{}{}
		p.names = append(p.names, name)
	}
	return p
}

// Allowed returns the whitelisted command names in configured order.
func (p *CommandPolicy) Allowed() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Validate checks a raw command line against both layers of the policy and
// returns the argument vector to execute. Both checks run before any process
// is spawned.
func (p *CommandPolicy) Validate(commandLine string) ([]string, error) {
	line := strings.TrimSpace(commandLine)
	if line == "" {
		return nil, fmt.Errorf("empty command: %w", ErrCommandRejected)
	}

	argv := strings.Fields(line)
	if _, ok := p.allowed[argv[0]]; !ok {
		return nil, fmt.Errorf("%q is not a permitted command: %w", argv[0], ErrCommandRejected)
	}

	if i := strings.IndexAny(line, commandMetachars); i >= 0 {
		return nil, fmt.Errorf("forbidden character %q in command: %w", line[i], ErrCommandRejected)
	}

	return argv, nil
}
