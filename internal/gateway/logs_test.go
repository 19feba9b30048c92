package gateway_test

import (
	"errors"
	"testing"

	"ssci-go/internal/gateway"
	"ssci-go/internal/testutil"
)

// seedTrail produces audit activity for three identities.
func seedTrail(t *testing.T, f *testutil.Fixture) {
	t.Helper()
	if err := f.Gateway.CreateFile(testutil.Alice, "a.txt", "x", "local"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Gateway.ReadFile(testutil.Bob, "a.txt", "", "local"); err != nil {
		t.Fatal(err)
	}
	if err := f.Gateway.CreateFile(testutil.Admin, "b.txt", "y", "local"); err != nil {
		t.Fatal(err)
	}
}

func TestQueryLogs(t *testing.T) {
	t.Run("admin sees everyone", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seedTrail(t, f)

		records, err := f.Gateway.QueryLogs(testutil.Admin, gateway.QueryLogsOptions{})
		if err != nil {
			t.Fatalf("QueryLogs() error = %v", err)
		}
		if len(records) != 3 {
			t.Errorf("admin sees %d records, want 3", len(records))
		}
	})

	t.Run("admin can scope to one user", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seedTrail(t, f)

		uid := testutil.Bob.UserID
		records, err := f.Gateway.QueryLogs(testutil.Admin, gateway.QueryLogsOptions{UserID: &uid})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || *records[0].UserID != uid {
			t.Errorf("scoped query = %d records", len(records))
		}
	})

	t.Run("non-admins are forced to self scope", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seedTrail(t, f)

		// Alice asking for Bob's records still gets her own.
		uid := testutil.Bob.UserID
		records, err := f.Gateway.QueryLogs(testutil.Alice, gateway.QueryLogsOptions{UserID: &uid})
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range records {
			if r.UserID == nil || *r.UserID != testutil.Alice.UserID {
				t.Errorf("alice saw record for user %v", r.UserID)
			}
		}
		if len(records) != 1 {
			t.Errorf("alice sees %d records, want 1", len(records))
		}
	})

	t.Run("action type filter and details decryption", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seedTrail(t, f)

		records, err := f.Gateway.QueryLogs(testutil.Admin, gateway.QueryLogsOptions{
			ActionType: gateway.ActionFileRead,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("filtered query = %d records, want 1", len(records))
		}
		if records[0].Details != "read file: a.txt" {
			t.Errorf("Details = %q, want decrypted text", records[0].Details)
		}
	})

	t.Run("requires identity", func(t *testing.T) {
		f := testutil.NewFixture(t)
		_, err := f.Gateway.QueryLogs(testutil.Nobody, gateway.QueryLogsOptions{})
		if !errors.Is(err, gateway.ErrIdentityRequired) {
			t.Errorf("QueryLogs() error = %v, want ErrIdentityRequired", err)
		}
	})
}

func TestLogActionTypes(t *testing.T) {
	f := testutil.NewFixture(t)
	seedTrail(t, f)

	types, err := f.Gateway.LogActionTypes(testutil.Viewer)
	if err != nil {
		t.Fatalf("LogActionTypes() error = %v", err)
	}
	want := map[string]bool{
		gateway.ActionFileCreate: true,
		gateway.ActionFileRead:   true,
	}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %d distinct", types, len(want))
	}
	for _, typ := range types {
		if !want[typ] {
			t.Errorf("unexpected action type %q", typ)
		}
	}
}

func TestLogStats(t *testing.T) {
	t.Run("admin only", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seedTrail(t, f)

		for _, id := range []gateway.Identity{testutil.Alice, testutil.Viewer} {
			if _, err := f.Gateway.LogStats(id); !gateway.IsPermissionDenied(err) {
				t.Errorf("LogStats() as %s error = %v, want denial", id.Username, err)
			}
		}
	})

	t.Run("summarizes the whole trail", func(t *testing.T) {
		f := testutil.NewFixture(t)
		seedTrail(t, f)

		stats, err := f.Gateway.LogStats(testutil.Admin)
		if err != nil {
			t.Fatalf("LogStats() error = %v", err)
		}
		if stats.Total != 3 {
			t.Errorf("Total = %d, want 3", stats.Total)
		}
		if stats.ByStatus[gateway.StatusSuccess] != 3 {
			t.Errorf("ByStatus = %v", stats.ByStatus)
		}
		if stats.ByAction[gateway.ActionFileCreate] != 2 {
			t.Errorf("ByAction = %v", stats.ByAction)
		}
	})
}

func TestFailureSignal(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{gateway.ErrInvalidPath, "invalid"},
		{gateway.ErrNotFound, "not-found"},
		{gateway.ErrConflict, "conflict"},
		{gateway.ErrCommandRejected, "rejected"},
		{gateway.ErrIdentityRequired, "forbidden"},
		{gateway.ErrLocked(), "forbidden"},
		{gateway.ErrDenied("nope"), "forbidden"},
		{errors.New("disk on fire"), "internal"},
	}
	for _, tc := range cases {
		if got := gateway.FailureSignal(tc.err); got != tc.want {
			t.Errorf("FailureSignal(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
