package orchestrators

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	memberStore "github.com/Abichu1/gym-members/internal/adapters/storage/member"
	"github.com/Abichu1/gym-members/internal/domain/id"
	"github.com/Abichu1/gym-members/internal/domain/member"
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	Insert(ctx context.Context, m member.Member) error
}

// AssetStore defines the interface for photo persistence.
type AssetStore interface {
	Save(hint string, src io.Reader) (string, error)
	Remove(ref string) error
}

// CreateMemberInput carries input for the orchestrator. Photo is nil when
// no file was uploaded.
type CreateMemberInput struct {
	Name         string
	MembershipID string
	Email        string
	Phone        string
	Expiry       string
	Notes        string
	Photo        io.Reader
	PhotoName    string
}

// CreateMemberDeps holds dependencies for CreateMember.
type CreateMemberDeps struct {
	MemberStore MemberStore
	AssetStore  AssetStore
}

// ExecuteCreateMember coordinates member creation:
// validate, persist photo, assign identifier, insert record.
// PRE: deps are non-nil; input.Photo, if set, is an unread reader
// POST: Member persisted with a fresh id, or nothing persisted at all —
// if the record insert fails after the photo was written, the photo is
// removed again (no orphaned assets)
// INVARIANT: an id collision is retried once with a fresh id, never
// silently overwritten
func ExecuteCreateMember(ctx context.Context, input CreateMemberInput, deps CreateMemberDeps) (member.Member, error) {
	m := member.Member{
		Name:         input.Name,
		MembershipID: input.MembershipID,
		Email:        input.Email,
		Phone:        input.Phone,
		Expiry:       input.Expiry,
		Notes:        input.Notes,
		CreatedAt:    time.Now().UTC(),
	}

	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	// Normalize the expiry to its canonical form (zero-padded fields).
	parsed, err := time.Parse(member.DateLayout, m.Expiry)
	if err != nil {
		return member.Member{}, &member.ValidationError{Field: "expiry", Msg: "must be a date in YYYY-MM-DD form"}
	}
	m.Expiry = parsed.Format(member.DateLayout)

	// Persist the photo before the record; a failed upload must not leave
	// a record pointing at nothing.
	if input.Photo != nil {
		ref, err := deps.AssetStore.Save(input.PhotoName, input.Photo)
		if err != nil {
			return member.Member{}, err
		}
		m.PhotoPath = ref
	}

	for attempt := 0; ; attempt++ {
		m.ID = id.New()
		m.MemberURL = "/members/" + m.ID

		err := deps.MemberStore.Insert(ctx, m)
		if err == nil {
			slog.Info("member_event", "event", "member_created", "member_id", m.ID, "name", m.Name)
			return m, nil
		}
		if errors.Is(err, memberStore.ErrDuplicateID) && attempt == 0 {
			continue
		}

		// Compensating cleanup: the record was not created, so the photo
		// must not linger as an orphan.
		if m.PhotoPath != "" {
			if rmErr := deps.AssetStore.Remove(m.PhotoPath); rmErr != nil {
				slog.Warn("member_photo_cleanup_failed", "ref", m.PhotoPath, "error", rmErr.Error())
			}
		}
		return member.Member{}, err
	}
}
