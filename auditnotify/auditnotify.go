// Package auditnotify relays a chosen subset of audit.Notifier events to a
// Slack channel, grounded on the teacher's slack.slackInterface
// (slack/slack.go): the same slack.Client wiring and PostMessageContext
// idiom, repointed from build announcements at a chat channel's
// subscribers to account-security events at an operations channel.
package auditnotify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/intermodalis/transitcore/model"
)

// highSignal is the closed subset of audit action kinds worth paging a
// human over. Everything else is dropped silently: routine login/refresh
// traffic would drown the channel out.
var highSignal = map[model.AuditActionKind]bool{
	model.ActionAdminChangePassword:   true,
	model.ActionAdminChangeUsername:   true,
	model.ActionSessionRevoked:        true,
	model.ActionRegister:              true,
	model.ActionManagementTokenIssued: true,
}

// poster is the subset of *slack.Client this package depends on, declared
// as an interface for the same testability reason as picpipeline.BlobStore:
// so Relay can be tested without a real Slack workspace.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Relay implements audit.Notifier by posting a one-line summary of each
// high-signal entry to a fixed Slack channel. It never blocks the caller:
// Notify launches the post in its own goroutine, matching the "audit
// writes must not fail because Slack is down" requirement (spec.md §9).
type Relay struct {
	logger    *zap.Logger
	api       poster
	channelID string
}

// NewRelay builds a Relay posting to channelID with an already-authenticated
// Slack client.
func NewRelay(logger *zap.Logger, api *slack.Client, channelID string) *Relay {
	return &Relay{logger: logger, api: api, channelID: channelID}
}

// Notify implements audit.Notifier.
func (r *Relay) Notify(ctx context.Context, entry model.AuditLogEntry) {
	if !highSignal[entry.Action.Kind] {
		return
	}
	text := summarize(entry)
	go func() {
		if _, _, err := r.api.PostMessageContext(context.Background(), r.channelID, slack.MsgOptionText(text, false)); err != nil {
			r.logger.Error("auditnotify: failed to relay audit entry", zap.Error(err), zap.Int64("entry_id", entry.ID))
		}
	}()
}

func summarize(e model.AuditLogEntry) string {
	switch e.Action.Kind {
	case model.ActionAdminChangePassword:
		return fmt.Sprintf("user %d changed the password for user %d (ip %s)", e.UserID, e.Action.AdminChangePassword.ForUser, e.IP)
	case model.ActionAdminChangeUsername:
		return fmt.Sprintf("user %d renamed user %d to %q (ip %s)", e.UserID, e.Action.AdminChangeUsername.ForUser, e.Action.AdminChangeUsername.NewUsername, e.IP)
	case model.ActionSessionRevoked:
		if e.Action.SessionRevoked.WasLogout {
			return fmt.Sprintf("user %d logged out session %s (ip %s)", e.UserID, e.Action.SessionRevoked.Session, e.IP)
		}
		return fmt.Sprintf("user %d revoked session %s (ip %s)", e.UserID, e.Action.SessionRevoked.Session, e.IP)
	case model.ActionRegister:
		return fmt.Sprintf("new account registered: %q <%s> (ip %s)", e.Action.Register.Username, e.Action.Register.Email, e.IP)
	case model.ActionManagementTokenIssued:
		return fmt.Sprintf("management token issued for user %d, session %s (ip %s)", e.UserID, e.Action.ManagementTokenIssued.Session, e.IP)
	default:
		return fmt.Sprintf("audit event %s for user %d (ip %s)", e.Action.Kind, e.UserID, e.IP)
	}
}
