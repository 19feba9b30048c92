package gateway

// Gateway composes the sandbox, permission store, recycle bin, audit log, and
// command executor behind the operation verbs. Every verb validates identity
// presence, resolves the target name, evaluates lock and ACL state, performs
// the operation, and writes exactly one audit record.
type Gateway struct {
	fs        SandboxFS
	perms     PermissionStore
	bin       RecycleBin
	audit     AuditLog
	runner    CommandRunner
	policy    *CommandPolicy
	cipher    ContentCipher
	passcodes PasscodeVerifier
	logger    Logger
	clock     Clock
}

// New creates a Gateway with the provided dependencies.
func New(fs SandboxFS, perms PermissionStore, bin RecycleBin, audit AuditLog,
	runner CommandRunner, policy *CommandPolicy, cipher ContentCipher,
	passcodes PasscodeVerifier, logger Logger, clock Clock) *Gateway {
	return &Gateway{
		fs:        fs,
		perms:     perms,
		bin:       bin,
		audit:     audit,
		runner:    runner,
		policy:    policy,
		cipher:    cipher,
		passcodes: passcodes,
		logger:    logger,
		clock:     clock,
	}
}

// guard is one capability check evaluated before an operation body.
type guard func() error

// check runs guards in order, short-circuiting on the first failure.
func check(guards ...guard) error {
	for _, g := range guards {
		if err := g(); err != nil {
			return err
		}
	}
	return nil
}

// identityPresent rejects operations with no usable identity.
func identityPresent(id Identity) guard {
	return func() error {
		if !id.Present() {
			return ErrIdentityRequired
		}
		return nil
	}
}

// lockCheck gates a locked file on a caller-supplied passcode. It applies to
// every role, admin included.
func (g *Gateway) lockCheck(rec PermissionRecord, passcode string) guard {
	return func() error {
		if !rec.Locked {
			return nil
		}
		if passcode == "" || !g.passcodes.Check(rec.LockHash, passcode) {
			return ErrLocked()
		}
		return nil
	}
}

// aclCheck gates a capability flag for non-admin callers. Admin bypasses the
// ACL (but never the lock).
func aclCheck(id Identity, allowed bool, capability string) guard {
	return func() error {
		if id.IsAdmin() || allowed {
			return nil
		}
		return ErrDenied("you do not have permission to %s this file", capability)
	}
}

// ownerOrAdmin gates record administration to the record's owner or an admin.
func ownerOrAdmin(id Identity, rec PermissionRecord) guard {
	return func() error {
		if id.IsAdmin() || (rec.Owner != 0 && rec.Owner == id.UserID) {
			return nil
		}
		return ErrDenied("only the file owner or an admin may change this")
	}
}

// userRef returns the identity's user id as an optional audit actor.
func userRef(id Identity) *int64 {
	if id.UserID == 0 {
		return nil
	}
	uid := id.UserID
	return &uid
}

// record appends one audit record. Auditing must never be skipped because the
// primary operation failed, and a failed append must not fail the operation;
// append errors are surfaced through the structured log instead.
func (g *Gateway) record(id Identity, actionType, ip string, status AuditStatus, details string) {
	if _, err := g.audit.Append(userRef(id), actionType, ip, status, details); err != nil {
		g.logger.Error("audit append failed", "action", actionType, "error", err)
	}
}
