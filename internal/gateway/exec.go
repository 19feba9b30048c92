package gateway

import "fmt"

// Execute validates a command line against the whitelist and metacharacter
// filter, then runs it as an argument vector with the hard timeout. A
// rejection short-circuits with no side effect beyond its audit record.
// Exactly one audit record is produced per call regardless of outcome.
func (g *Gateway) Execute(id Identity, commandLine, ip string) (*CommandResult, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	argv, err := g.policy.Validate(commandLine)
	if err != nil {
		g.record(id, ActionExecute, ip, StatusFailure, fmt.Sprintf("unauthorized command: %s", commandLine))
		return nil, err
	}

	result := g.runner.Run(argv, CommandTimeout)

	g.record(id, ActionExecute, ip, result.Status, fmt.Sprintf("executed: %s", commandLine))

	if _, err := g.audit.RecordCommand(id.UserID, commandLine, result.Output, result.Status); err != nil {
		g.logger.Error("recording command history failed", "command", argv[0], "error", err)
	}

	g.logger.Info("command executed", "command", argv[0], "status", result.Status, "code", result.ReturnCode, "user", id.Username)
	return result, nil
}

// AllowedCommands returns the whitelisted command names.
func (g *Gateway) AllowedCommands(id Identity) ([]string, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}
	return g.policy.Allowed(), nil
}

// CommandHistory returns the caller's own command execution history, newest
// first. All roles see only their own history.
func (g *Gateway) CommandHistory(id Identity, limit, offset int) ([]*CommandRecord, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := g.audit.CommandHistory(id.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("loading command history: %w", err)
	}
	return records, nil
}

// CommandStatsFor returns the caller's command execution statistics.
func (g *Gateway) CommandStatsFor(id Identity) (*CommandStats, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}
	stats, err := g.audit.CommandStats(id.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading command stats: %w", err)
	}
	return stats, nil
}
