// Package audit implements Component E (spec.md §3, §4.4): the append-only
// audit log every sensitive auth/account operation writes to, plus the
// read-side access check that gates who may list whose log.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/model"
	"github.com/intermodalis/transitcore/permissions"
	"github.com/intermodalis/transitcore/store"
)

// Notifier is notified of audit entries as they are recorded, so a chat
// relay (auditnotify) can watch the high-signal subset without the writer
// of an entry needing to know whether anyone is listening.
type Notifier interface {
	Notify(ctx context.Context, entry model.AuditLogEntry)
}

// NullNotifier discards everything; NewService substitutes it for a nil
// notifier so audit logging never depends on a chat integration being
// configured.
type NullNotifier struct{}

// Notify implements Notifier.
func (NullNotifier) Notify(context.Context, model.AuditLogEntry) {}

// Service is Component E: a thin layer over store.AuditStore adding the
// viewing permission check and notifier fan-out that the raw store
// interface has no business knowing about.
type Service struct {
	logger   *zap.Logger
	txs      store.TransactionRunner
	notifier Notifier
}

// NewService builds a Service. A nil notifier is replaced with
// NullNotifier.
func NewService(logger *zap.Logger, txs store.TransactionRunner, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NullNotifier{}
	}
	return &Service{logger: logger, txs: txs, notifier: notifier}
}

// Record appends entry inside the caller's transaction and passes it to
// the notifier right after the append, before that transaction commits.
// It is called by auth.Service from inside its own transactions rather
// than opening one of its own, matching how every
// other write in this module is already scoped (spec.md §5).
func (s *Service) Record(ctx context.Context, tx store.Tx, entry model.AuditLogEntry) (int64, error) {
	id, err := tx.Audit().Append(ctx, entry)
	if err != nil {
		return 0, err
	}
	entry.ID = id
	s.notifier.Notify(ctx, entry)
	return id, nil
}

// ListForUser returns targetUserID's audit log, paginated. A requester may
// always list their own log; listing someone else's requires
// Admin.ManageUsers, the same capability that gates acting on another
// user's account (spec.md §4.4/§4.5).
func (s *Service) ListForUser(ctx context.Context, requesterID int64, requesterPerms permissions.Permissions, targetUserID int64, offset, limit int) ([]model.AuditLogEntry, int, error) {
	if requesterID != targetUserID && !requesterPerms.Admin.ManageUsers {
		return nil, 0, coreerrors.Forbidden.New("not permitted to view audit log for user %d", targetUserID)
	}

	var entries []model.AuditLogEntry
	var total int
	err := s.txs.Transaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		entries, total, err = tx.Audit().ListForUser(ctx, targetUserID, offset, limit)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
