package orchestrators

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/Abichu1/gym-members/internal/adapters/email"
	"github.com/Abichu1/gym-members/internal/domain/member"
)

// DefaultReminderWindowDays is how far ahead of expiry a renewal notice goes out.
const DefaultReminderWindowDays = 7

// MemberStoreForReminders defines the store interface needed by the
// reminder sweep.
type MemberStoreForReminders interface {
	ListDueReminders(ctx context.Context, from, until string) ([]member.Member, error)
	MarkReminded(ctx context.Context, id string, at time.Time) error
}

// RemindExpiringInput carries input for the reminder orchestrator.
type RemindExpiringInput struct {
	Now        time.Time
	WindowDays int // defaults to DefaultReminderWindowDays when <= 0
}

// RemindExpiringDeps holds dependencies for RemindExpiring.
type RemindExpiringDeps struct {
	MemberStore MemberStoreForReminders
	Sender      email.Sender
	From        string
	ReplyTo     string
}

// ExecuteRemindExpiring sends renewal notices to members whose membership
// expires within the window and who have not been reminded yet. Returns the
// number of notices sent.
// POST: each successfully-notified member has reminded_at stamped, so a
// second sweep never re-sends
func ExecuteRemindExpiring(ctx context.Context, input RemindExpiringInput, deps RemindExpiringDeps) (int, error) {
	window := input.WindowDays
	if window <= 0 {
		window = DefaultReminderWindowDays
	}
	from := input.Now.Format(member.DateLayout)
	until := input.Now.AddDate(0, 0, window).Format(member.DateLayout)

	due, err := deps.MemberStore.ListDueReminders(ctx, from, until)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range due {
		// The store query already bounds by expiry, but the rows are only as
		// fresh as the sweep that read them; re-check against the domain
		// window so a stale or over-broad row never triggers a notice.
		if !m.ExpiresWithin(input.Now, window) {
			continue
		}
		req := email.SendRequest{
			To:      []string{m.Email},
			From:    deps.From,
			ReplyTo: deps.ReplyTo,
			Subject: fmt.Sprintf("Your membership expires on %s", m.Expiry),
			HTML:    renewalBody(m),
		}
		if _, err := deps.Sender.Send(ctx, req); err != nil {
			// Leave reminded_at unset so the next sweep retries this member.
			slog.Error("reminder_send_failed", "member_id", m.ID, "error", err.Error())
			continue
		}
		if err := deps.MemberStore.MarkReminded(ctx, m.ID, input.Now); err != nil {
			slog.Error("reminder_mark_failed", "member_id", m.ID, "error", err.Error())
			continue
		}
		sent++
	}

	if sent > 0 {
		slog.Info("member_event", "event", "expiry_reminders_sent", "count", sent)
	}
	return sent, nil
}

// renewalBody builds the HTML notice with user-supplied fields escaped.
func renewalBody(m member.Member) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Your gym membership expires on <strong>%s</strong>. Renew at the front desk to keep training.</p>",
		template.HTMLEscapeString(m.Name),
		template.HTMLEscapeString(m.Expiry),
	)
}

// StartReminderWorker runs the reminder sweep on a fixed interval until
// stopCh closes.
func StartReminderWorker(deps RemindExpiringDeps, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				input := RemindExpiringInput{Now: time.Now()}
				if _, err := ExecuteRemindExpiring(ctx, input, deps); err != nil {
					slog.Error("reminder_sweep_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("reminder_worker_stopped")
				return
			}
		}
	}()
}
