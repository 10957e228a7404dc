package projections

import (
	"context"
	"testing"
	"time"

	memberStore "github.com/Abichu1/gym-members/internal/adapters/storage/member"
	domain "github.com/Abichu1/gym-members/internal/domain/member"
)

// fakeMemberStore implements MemberStore over a slice.
type fakeMemberStore struct {
	members []domain.Member
}

func (f *fakeMemberStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Member{}, memberStore.ErrNotFound
}

func (f *fakeMemberStore) List(ctx context.Context, filter memberStore.ListFilter) ([]domain.Member, error) {
	out := make([]domain.Member, len(f.members))
	copy(out, f.members)
	if filter.Order == memberStore.OrderNewest {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (f *fakeMemberStore) Count(ctx context.Context) (int, error) {
	return len(f.members), nil
}

// fixNow pins the projection clock for the duration of a test.
func fixNow(t *testing.T, now time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = old })
}

// TestQueryGetMemberListDerivesStatus tests status derivation at read time
// for the mixed expired/active scenario.
func TestQueryGetMemberListDerivesStatus(t *testing.T) {
	fixNow(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))

	store := &fakeMemberStore{members: []domain.Member{
		{ID: "ada", Name: "Ada", Expiry: "2024-01-01"},
		{ID: "lin", Name: "Lin", Expiry: "2099-01-01"},
	}}
	deps := GetMemberListDeps{MemberStore: store}

	result, err := QueryGetMemberList(context.Background(), GetMemberListQuery{}, deps)
	if err != nil {
		t.Fatalf("QueryGetMemberList() error: %v", err)
	}

	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2", result.Total)
	}
	if got := result.Members[0]; got.ID != "ada" || got.Status != domain.StatusExpired {
		t.Errorf("first = %s/%s, want ada/expired", got.ID, got.Status)
	}
	if got := result.Members[1]; got.ID != "lin" || got.Status != domain.StatusActive {
		t.Errorf("second = %s/%s, want lin/active", got.ID, got.Status)
	}
}

// TestQueryGetMemberListNewestFirst tests the explicit descending order.
func TestQueryGetMemberListNewestFirst(t *testing.T) {
	fixNow(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	store := &fakeMemberStore{members: []domain.Member{
		{ID: "first", Name: "First", Expiry: "2099-01-01"},
		{ID: "second", Name: "Second", Expiry: "2099-01-01"},
	}}
	deps := GetMemberListDeps{MemberStore: store}

	result, err := QueryGetMemberList(context.Background(), GetMemberListQuery{Order: memberStore.OrderNewest}, deps)
	if err != nil {
		t.Fatalf("QueryGetMemberList() error: %v", err)
	}
	if result.Members[0].ID != "second" {
		t.Errorf("first listed = %s, want second (newest)", result.Members[0].ID)
	}
}

// TestQueryGetMemberListEmpty tests the empty store.
func TestQueryGetMemberListEmpty(t *testing.T) {
	fixNow(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	deps := GetMemberListDeps{MemberStore: &fakeMemberStore{}}
	result, err := QueryGetMemberList(context.Background(), GetMemberListQuery{}, deps)
	if err != nil {
		t.Fatalf("QueryGetMemberList() error: %v", err)
	}
	if result.Total != 0 || len(result.Members) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}
