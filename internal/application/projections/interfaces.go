package projections

import (
	"context"
	"time"

	memberStore "github.com/Abichu1/gym-members/internal/adapters/storage/member"
	domain "github.com/Abichu1/gym-members/internal/domain/member"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// MemberStore defines the read interface projections need.
type MemberStore interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	List(ctx context.Context, filter memberStore.ListFilter) ([]domain.Member, error)
	Count(ctx context.Context) (int, error)
}

// MemberView is a member as presented to clients: stored fields plus the
// status derived from expiry at read time. Status is never read from
// storage, so it can never go stale.
type MemberView struct {
	ID           string
	MembershipID string
	Name         string
	Email        string
	Phone        string
	Expiry       string
	Status       string
	PhotoPath    string
	MemberURL    string
	Notes        string
	CreatedAt    time.Time
}

// viewOf derives the presentation of a member at the given instant.
func viewOf(m domain.Member, now time.Time) MemberView {
	return MemberView{
		ID:           m.ID,
		MembershipID: m.MembershipID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		Expiry:       m.Expiry,
		Status:       m.StatusOn(now),
		PhotoPath:    m.PhotoPath,
		MemberURL:    m.MemberURL,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}
