package testutil

import (
	"testing"

	"ssci-go/internal/audit"
	"ssci-go/internal/audit/migrations"
	"ssci-go/internal/encryption"
	"ssci-go/internal/gateway"
)

// TestSecret keys the sealer used by test audit stores.
const TestSecret = "testutil-audit-secret"

// NewTestSealer creates a sealer keyed with TestSecret.
func NewTestSealer(t *testing.T) *encryption.Sealer {
	t.Helper()

	sealer, err := encryption.NewSealer(TestSecret)
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	return sealer
}

// NewTestAuditLog creates an in-memory SQLite audit store with migrations
// applied. The store is automatically closed when the test completes.
func NewTestAuditLog(t *testing.T, clock gateway.Clock) *audit.Store {
	t.Helper()

	db, err := audit.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open audit database: %v", err)
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		t.Fatalf("failed to migrate audit database: %v", err)
	}

	store := audit.NewFromDB(db, NewTestSealer(t), clock)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
