package gateway

import (
	"errors"
	"reflect"
	"testing"
)

func testPolicy() *CommandPolicy {
	return NewCommandPolicy([]string{
		"ls", "dir", "pwd", "whoami", "date", "echo",
		"ipconfig", "hostname", "systeminfo", "tasklist",
	})
}

func TestCommandPolicy_Validate(t *testing.T) {
	p := testPolicy()

	t.Run("accepts whitelisted commands", func(t *testing.T) {
		cases := map[string][]string{
			"ls":            {"ls"},
			"ls -la":        {"ls", "-la"},
			"  echo hello ": {"echo", "hello"},
			"date":          {"date"},
			"echo a  b   c": {"echo", "a", "b", "c"},
		}
		for line, want := range cases {
			argv, err := p.Validate(line)
			if err != nil {
				t.Errorf("Validate(%q) error = %v", line, err)
				continue
			}
			if !reflect.DeepEqual(argv, want) {
				t.Errorf("Validate(%q) = %v, want %v", line, argv, want)
			}
		}
	})

	t.Run("rejects commands off the whitelist", func(t *testing.T) {
		lines := []string{
			"rm -rf /",
			"cat /etc/passwd",
			"curl http://evil.example",
			"bash",
			"sudo ls",
			"LS", // case sensitive
		}
		for _, line := range lines {
			if _, err := p.Validate(line); !errors.Is(err, ErrCommandRejected) {
				t.Errorf("Validate(%q) error = %v, want ErrCommandRejected", line, err)
			}
		}
	})

	t.Run("rejects shell metacharacters even on whitelisted commands", func(t *testing.T) {
		lines := []string{
			"ls; rm -rf /",
			"ls && whoami",
			"echo hi | tee /tmp/x",
			"echo hi > /tmp/x",
			"ls < input",
			"echo `whoami`",
			"echo $HOME",
			"echo $(whoami)",
			"ls (x)",
		}
		for _, line := range lines {
			if _, err := p.Validate(line); !errors.Is(err, ErrCommandRejected) {
				t.Errorf("Validate(%q) error = %v, want ErrCommandRejected", line, err)
			}
		}
	})

	t.Run("rejects empty and blank lines", func(t *testing.T) {
		for _, line := range []string{"", "   ", "\t\n"} {
			if _, err := p.Validate(line); !errors.Is(err, ErrCommandRejected) {
				t.Errorf("Validate(%q) error = %v, want ErrCommandRejected", line, err)
			}
		}
	})
}

func TestCommandPolicy_Allowed(t *testing.T) {
	t.Run("preserves configured order", func(t *testing.T) {
		p := NewCommandPolicy([]string{"ls", "echo", "date"})
		want := []string{"ls", "echo", "date"}
		if got := p.Allowed(); !reflect.DeepEqual(got, want) {
			t.Errorf("Allowed() = %v, want %v", got, want)
		}
	})

	t.Run("drops blanks and duplicates", func(t *testing.T) {
		p := NewCommandPolicy([]string{"ls", "", "  ", "ls", "echo"})
		want := []string{"ls", "echo"}
		if got := p.Allowed(); !reflect.DeepEqual(got, want) {
			t.Errorf("Allowed() = %v, want %v", got, want)
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		p := NewCommandPolicy([]string{"ls", "echo"})
		got := p.Allowed()
		got[0] = "rm"
		if p.Allowed()[0] != "ls" {
			t.Errorf("mutating the returned slice changed the policy")
		}
	})
}
