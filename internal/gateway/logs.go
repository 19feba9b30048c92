package gateway

import "fmt"

// QueryLogsOptions filter an audit trail query. UserID narrows the actor and
// is honored only for admins; everyone else is scoped to themselves.
type QueryLogsOptions struct {
	UserID     *int64
	ActionType string
	Limit      int
	Offset     int
}

// QueryLogs returns audit records newest first. Users and viewers see only
// their own actions; admins see everyone's. Details are decrypted at query
// time, only here, for the authorized viewer.
func (g *Gateway) QueryLogs(id Identity, opts QueryLogsOptions) ([]*AuditRecord, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	q := LogQuery{
		ActionType: opts.ActionType,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}

	if id.IsAdmin() {
		q.UserID = opts.UserID
	} else {
		uid := id.UserID
		q.UserID = &uid
	}

	records, err := g.audit.Query(q)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	return records, nil
}

// LogActionTypes returns the distinct action types present in the trail.
func (g *Gateway) LogActionTypes(id Identity) ([]string, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}
	types, err := g.audit.ActionTypes()
	if err != nil {
		return nil, fmt.Errorf("loading action types: %w", err)
	}
	return types, nil
}

// LogStats returns trail-wide statistics. Admin only.
func (g *Gateway) LogStats(id Identity) (*LogStats, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, ErrDenied("log statistics are restricted to admins")
	}
	stats, err := g.audit.Stats()
	if err != nil {
		return nil, fmt.Errorf("loading log stats: %w", err)
	}
	return stats, nil
}
