// Package audit persists the append-only audit trail and the per-user
// command history in SQLite. Record details are sealed before they touch the
// database and opened only at query time; there is no update or delete path
// for a written record.
package audit

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ssci-go/internal/audit/migrations"
	"ssci-go/internal/encryption"
	"ssci-go/internal/gateway"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements gateway.AuditLog over SQLite.
type Store struct {
	db     *sql.DB
	sealer *encryption.Sealer
	clock  gateway.Clock
}

var _ gateway.AuditLog = (*Store)(nil)

// Open opens (or creates) the audit database at path and applies migrations.
// path can be ":memory:" for tests.
func Open(path string, sealer *encryption.Sealer, clock gateway.Clock) (*Store, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit database: %w", err)
	}
	return NewFromDB(db, sealer, clock), nil
}

// NewFromDB wraps an existing, already-migrated connection.
func NewFromDB(db *sql.DB, sealer *encryption.Sealer, clock gateway.Clock) *Store {
	return &Store{db: db, sealer: sealer, clock: clock}
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs
// the store relies on.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	return db, nil
}

// Append seals details and inserts one record. The returned id is assigned
// monotonically by SQLite.
func (s *Store) Append(userID *int64, actionType, ip string, status gateway.AuditStatus, details string) (int64, error) {
	sealed, err := s.sealer.EncryptString(details)
	if err != nil {
		return 0, fmt.Errorf("sealing details: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO logs (user_id, action_type, ip_address, status, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, actionType, ip, string(status), sealed, s.clock.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting audit record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading audit record id: %w", err)
	}
	return id, nil
}

// Query returns records newest first, decrypting details for the caller.
// The gateway has already applied role scoping through q.UserID.
func (s *Store) Query(q gateway.LogQuery) ([]*gateway.AuditRecord, error) {
	var (
		where []string
		args  []any
	)
	if q.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *q.UserID)
	}
	if q.ActionType != "" {
		where = append(where, "action_type = ?")
		args = append(args, q.ActionType)
	}

	query := "SELECT id, user_id, action_type, ip_address, status, details, created_at FROM logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var records []*gateway.AuditRecord
	for rows.Next() {
		var (
			rec    gateway.AuditRecord
			userID sql.NullInt64
			status string
			sealed string
		)
		if err := rows.Scan(&rec.ID, &userID, &rec.ActionType, &rec.IPAddress, &status, &sealed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		if userID.Valid {
			uid := userID.Int64
			rec.UserID = &uid
		}
		rec.Status = gateway.AuditStatus(status)
		rec.Details = s.sealer.DecryptString(sealed)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit records: %w", err)
	}
	return records, nil
}

// ActionTypes returns the distinct action types present in the trail.
func (s *Store) ActionTypes() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT action_type FROM logs ORDER BY action_type")
	if err != nil {
		return nil, fmt.Errorf("querying action types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning action type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action types: %w", err)
	}
	return types, nil
}

// Stats summarizes the whole trail for admin reporting.
func (s *Store) Stats() (*gateway.LogStats, error) {
	stats := &gateway.LogStats{
		ByStatus: make(map[gateway.AuditStatus]int64),
		ByAction: make(map[string]int64),
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM logs").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("counting audit records: %w", err)
	}

	rows, err := s.db.Query("SELECT status, COUNT(*) FROM logs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("grouping by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.ByStatus[gateway.AuditStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}

	actionRows, err := s.db.Query("SELECT action_type, COUNT(*) FROM logs GROUP BY action_type")
	if err != nil {
		return nil, fmt.Errorf("grouping by action: %w", err)
	}
	defer actionRows.Close()
	for actionRows.Next() {
		var (
			action string
			count  int64
		)
		if err := actionRows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scanning action count: %w", err)
		}
		stats.ByAction[action] = count
	}
	if err := actionRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action counts: %w", err)
	}

	cutoff := s.clock.Now().UTC().Add(-24 * time.Hour)
	if err := s.db.QueryRow("SELECT COUNT(*) FROM logs WHERE created_at >= ?", cutoff).Scan(&stats.Recent24h); err != nil {
		return nil, fmt.Errorf("counting recent records: %w", err)
	}
	return stats, nil
}

// RecordCommand stores one command execution in the per-user history.
// Command lines and output are operational data, not secrets; they are kept
// in the clear so history queries stay cheap.
func (s *Store) RecordCommand(userID int64, command, output string, status gateway.AuditStatus) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO system_calls (user_id, command, output, status, executed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, command, output, string(status), s.clock.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting command record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading command record id: %w", err)
	}
	return id, nil
}

// CommandHistory returns one user's executions, newest first.
func (s *Store) CommandHistory(userID int64, limit, offset int) ([]*gateway.CommandRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, command, output, status, executed_at FROM system_calls
		 WHERE user_id = ? ORDER BY executed_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying command history: %w", err)
	}
	defer rows.Close()

	var records []*gateway.CommandRecord
	for rows.Next() {
		var (
			rec    gateway.CommandRecord
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Command, &rec.Output, &status, &rec.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scanning command record: %w", err)
		}
		rec.Status = gateway.AuditStatus(status)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command records: %w", err)
	}
	return records, nil
}

// CommandStats summarizes one user's execution history.
func (s *Store) CommandStats(userID int64) (*gateway.CommandStats, error) {
	stats := &gateway.CommandStats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM system_calls WHERE user_id = ?", userID).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("counting commands: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM system_calls WHERE user_id = ? AND status = ?",
		userID, string(gateway.StatusSuccess)).Scan(&stats.Successful); err != nil {
		return nil, fmt.Errorf("counting successful commands: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM system_calls WHERE user_id = ? AND status = ?",
		userID, string(gateway.StatusFailure)).Scan(&stats.Failed); err != nil {
		return nil, fmt.Errorf("counting failed commands: %w", err)
	}

	cutoff := s.clock.Now().UTC().Add(-24 * time.Hour)
	if err := s.db.QueryRow("SELECT COUNT(*) FROM system_calls WHERE user_id = ? AND executed_at >= ?",
		userID, cutoff).Scan(&stats.Recent24h); err != nil {
		return nil, fmt.Errorf("counting recent commands: %w", err)
	}
	return stats, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
