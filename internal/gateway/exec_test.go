package gateway_test

import (
	"errors"
	"strings"
	"testing"

	"ssci-go/internal/gateway"
	"ssci-go/internal/testutil"
)

func TestExecute(t *testing.T) {
	t.Run("runs a whitelisted command", func(t *testing.T) {
		f := testutil.NewFixture(t)

		res, err := f.Gateway.Execute(testutil.Alice, "echo hello", "local")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Status != gateway.StatusSuccess {
			t.Errorf("Status = %s, want success", res.Status)
		}
		if len(f.Runner.Calls) != 1 {
			t.Fatalf("runner called %d times, want 1", len(f.Runner.Calls))
		}
		if got := strings.Join(f.Runner.Calls[0], " "); got != "echo hello" {
			t.Errorf("argv = %q, want %q", got, "echo hello")
		}

		last := lastAudit(t, f)
		if last.ActionType != gateway.ActionExecute || last.Status != gateway.StatusSuccess {
			t.Errorf("audit = %s/%s", last.ActionType, last.Status)
		}
	})

	t.Run("rejection never reaches the runner", func(t *testing.T) {
		f := testutil.NewFixture(t)

		_, err := f.Gateway.Execute(testutil.Alice, "rm -rf /", "local")
		if !errors.Is(err, gateway.ErrCommandRejected) {
			t.Fatalf("Execute() error = %v, want ErrCommandRejected", err)
		}
		if len(f.Runner.Calls) != 0 {
			t.Errorf("runner called for a rejected command")
		}

		last := lastAudit(t, f)
		if last.Status != gateway.StatusFailure {
			t.Errorf("audit status = %s, want failure", last.Status)
		}
		if !strings.Contains(last.Details, "unauthorized command") {
			t.Errorf("audit details = %q", last.Details)
		}
	})

	t.Run("metacharacters are rejected", func(t *testing.T) {
		f := testutil.NewFixture(t)
		_, err := f.Gateway.Execute(testutil.Alice, "echo hi; whoami", "local")
		if !errors.Is(err, gateway.ErrCommandRejected) {
			t.Errorf("Execute() error = %v, want ErrCommandRejected", err)
		}
		if len(f.Runner.Calls) != 0 {
			t.Errorf("runner called for a rejected command")
		}
	})

	t.Run("failure results are recorded as failures", func(t *testing.T) {
		f := testutil.NewFixture(t)
		f.Runner.Result = &gateway.CommandResult{
			Status:     gateway.StatusFailure,
			Output:     "timed out",
			ReturnCode: -1,
		}

		res, err := f.Gateway.Execute(testutil.Alice, "ls", "local")
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.Status != gateway.StatusFailure || res.ReturnCode != -1 {
			t.Errorf("result = %+v", res)
		}

		last := lastAudit(t, f)
		if last.Status != gateway.StatusFailure {
			t.Errorf("audit status = %s, want failure", last.Status)
		}
	})

	t.Run("exactly one audit record per call", func(t *testing.T) {
		f := testutil.NewFixture(t)

		f.Gateway.Execute(testutil.Alice, "ls", "local")
		f.Gateway.Execute(testutil.Alice, "rm -rf /", "local")
		if n := auditCount(t, f); n != 2 {
			t.Errorf("audit count = %d, want 2", n)
		}
	})

	t.Run("requires identity", func(t *testing.T) {
		f := testutil.NewFixture(t)
		_, err := f.Gateway.Execute(testutil.Nobody, "ls", "local")
		if !errors.Is(err, gateway.ErrIdentityRequired) {
			t.Errorf("Execute() error = %v, want ErrIdentityRequired", err)
		}
	})
}

func TestCommandHistoryScoping(t *testing.T) {
	f := testutil.NewFixture(t)

	f.Gateway.Execute(testutil.Alice, "ls", "local")
	f.Gateway.Execute(testutil.Alice, "date", "local")
	f.Gateway.Execute(testutil.Bob, "pwd", "local")

	t.Run("each user sees only their own", func(t *testing.T) {
		alice, err := f.Gateway.CommandHistory(testutil.Alice, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(alice) != 2 {
			t.Errorf("alice history = %d records, want 2", len(alice))
		}

		bob, err := f.Gateway.CommandHistory(testutil.Bob, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(bob) != 1 || bob[0].Command != "pwd" {
			t.Errorf("bob history = %+v", bob)
		}
	})

	t.Run("stats are per user", func(t *testing.T) {
		stats, err := f.Gateway.CommandStatsFor(testutil.Alice)
		if err != nil {
			t.Fatal(err)
		}
		if stats.Total != 2 || stats.Successful != 2 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("rejected commands are not history entries", func(t *testing.T) {
		f.Gateway.Execute(testutil.Bob, "sudo ls", "local")
		bob, err := f.Gateway.CommandHistory(testutil.Bob, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(bob) != 1 {
			t.Errorf("bob history = %d records after rejection, want 1", len(bob))
		}
	})
}

func TestAllowedCommands(t *testing.T) {
	f := testutil.NewFixture(t)

	allowed, err := f.Gateway.AllowedCommands(testutil.Viewer)
	if err != nil {
		t.Fatalf("AllowedCommands() error = %v", err)
	}
	if len(allowed) != 10 {
		t.Errorf("AllowedCommands() = %d names, want 10", len(allowed))
	}
	found := false
	for _, name := range allowed {
		if name == "ls" {
			found = true
		}
	}
	if !found {
		t.Errorf("ls missing from %v", allowed)
	}
}
