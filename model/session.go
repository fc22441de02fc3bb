package model

import (
	"time"

	"github.com/google/uuid"
)

// Session is a refresh-token session (spec.md §3); its UUID is also the
// refresh JWT's jti.
type Session struct {
	ID         uuid.UUID
	UserID     int64
	IP         string
	UserAgent  string
	Expiration time.Time
	Revoked    bool
}

// AccessSession is a child row keyed by an access-token jti, pointing back
// at the refresh Session that minted it (spec.md §3, §4.4 "origin").
type AccessSession struct {
	ID         uuid.UUID
	RefreshID  uuid.UUID
	UserID     int64
	Expiration time.Time
}

// ManagementTokenRecord is the persisted row backing a management token
// (spec.md §4.4): a named, revocable credential tied to a Session.
type ManagementTokenRecord struct {
	ID     uuid.UUID
	Name   string
	UserID int64
	Token  string
}
