package member

import (
	"context"
	"errors"
	"time"

	domain "github.com/Abichu1/gym-members/internal/domain/member"
)

// Sentinel errors returned by all Store implementations.
var (
	// ErrNotFound indicates the requested member does not exist.
	ErrNotFound = errors.New("member not found")

	// ErrDuplicateID indicates a member already exists with the generated id.
	// The caller may retry with a fresh id.
	ErrDuplicateID = errors.New("member id already exists")

	// ErrDuplicateMembership indicates the membership_id business key is
	// already taken. Not retryable; the caller must pick a different key.
	ErrDuplicateMembership = errors.New("membership id already exists")
)

// List orderings. Insertion order is the default; newest-first must be
// requested explicitly.
const (
	OrderOldest = "oldest"
	OrderNewest = "newest"
)

// ListFilter carries parameters for List operations.
type ListFilter struct {
	Order string // OrderOldest (default) or OrderNewest
}

// Store persists Member state. Implementations translate driver errors to
// the sentinel errors above; callers never see driver-specific failures for
// the conditions those sentinels name.
type Store interface {
	// Insert persists a new member. Fails with ErrDuplicateID or
	// ErrDuplicateMembership on a uniqueness violation; the existing record
	// is never altered.
	Insert(ctx context.Context, m domain.Member) error

	// GetByID retrieves a member by id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (domain.Member, error)

	// List returns all members in the requested order.
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)

	// Count returns the total number of members.
	Count(ctx context.Context) (int, error)

	// Delete removes a member. Returns ErrNotFound if the id is absent;
	// the caller decides whether that is fatal.
	Delete(ctx context.Context, id string) error

	// ListDueReminders returns members whose expiry falls in [from, until]
	// (DateLayout strings), who have an email and no reminder sent yet.
	ListDueReminders(ctx context.Context, from, until string) ([]domain.Member, error)

	// MarkReminded stamps the reminder time on a member.
	MarkReminded(ctx context.Context, id string, at time.Time) error
}
