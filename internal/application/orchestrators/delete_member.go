package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Abichu1/gym-members/internal/domain/member"
)

// MemberStoreForDelete defines the store interface needed by DeleteMember.
type MemberStoreForDelete interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Delete(ctx context.Context, id string) error
}

// DeleteMemberInput carries input for the delete orchestrator.
type DeleteMemberInput struct {
	MemberID string
}

// DeleteMemberDeps holds dependencies for DeleteMember.
type DeleteMemberDeps struct {
	MemberStore MemberStoreForDelete
	AssetStore  AssetStore
}

// ExecuteDeleteMember removes a member and its photo asset.
// PRE: MemberID is non-empty
// POST: Record removed and photo deleted; memberStore.ErrNotFound if the id
// is absent (callers decide whether that is a 404 or a no-op). Deletion is
// immediate and irreversible; there is no soft delete.
func ExecuteDeleteMember(ctx context.Context, input DeleteMemberInput, deps DeleteMemberDeps) error {
	if input.MemberID == "" {
		return errors.New("member ID is required")
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return err
	}

	if err := deps.MemberStore.Delete(ctx, input.MemberID); err != nil {
		return err
	}

	// The record is gone; remove the photo so it does not linger as an
	// orphan. Best effort: the delete itself has already succeeded.
	if m.PhotoPath != "" {
		if rmErr := deps.AssetStore.Remove(m.PhotoPath); rmErr != nil {
			slog.Warn("member_photo_cleanup_failed", "ref", m.PhotoPath, "error", rmErr.Error())
		}
	}

	slog.Info("member_event", "event", "member_deleted", "member_id", input.MemberID)
	return nil
}
