package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditActionKind tags the closed set of AuditAction variants (spec.md §3,
// §6). Kept as a string so the wire encoding in §6 ("action" + "data") is a
// direct field, not a derived mapping.
type AuditActionKind string

const (
	ActionLogin                 AuditActionKind = "login"
	ActionRefreshToken          AuditActionKind = "refreshToken"
	ActionManagementTokenIssued AuditActionKind = "managementTokenIssued"
	ActionSessionRevoked        AuditActionKind = "sessionRevoked"
	ActionRegister              AuditActionKind = "register"
	ActionChangePassword        AuditActionKind = "changePassword"
	ActionAdminChangePassword   AuditActionKind = "adminChangePassword"
	ActionAdminChangeUsername   AuditActionKind = "adminChangeUsername"
	ActionQueryManagementTokens AuditActionKind = "queryManagementTokens"
	ActionChangeAccountDetails  AuditActionKind = "changeAccountDetails"
)

// AuditAction is the tagged payload of an audit log entry. Exactly one of
// the pointer fields matching Kind is populated; this mirrors the
// externally-tagged enum encoding used for Change (spec.md §6) but is kept
// as a flat struct-of-optionals rather than an interface because the audit
// log has a fixed, closed, flat vocabulary with no per-kind behavior to
// dispatch on beyond serialization.
type AuditAction struct {
	Kind AuditActionKind

	ManagementTokenIssued *ManagementTokenIssuedData
	SessionRevoked        *SessionRevokedData
	Register              *RegisterData
	AdminChangePassword   *AdminChangePasswordData
	AdminChangeUsername   *AdminChangeUsernameData
}

type ManagementTokenIssuedData struct {
	Session uuid.UUID
}

type SessionRevokedData struct {
	Session   uuid.UUID
	WasLogout bool
}

type RegisterData struct {
	Username string
	Email    string
}

type AdminChangePasswordData struct {
	ForUser int64
}

type AdminChangeUsernameData struct {
	ForUser     int64
	NewUsername string
}

// AuditLogEntry is one append-only audit record (spec.md §3).
type AuditLogEntry struct {
	ID       int64
	UserID   int64
	Datetime time.Time
	IP       string
	Action   AuditAction
}
