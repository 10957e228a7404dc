package projections

import (
	"context"

	memberStore "github.com/Abichu1/gym-members/internal/adapters/storage/member"
)

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Order string // memberStore.OrderOldest (default) or memberStore.OrderNewest
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members []MemberView
	Total   int
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore MemberStore
}

// QueryGetMemberList retrieves all members with their derived status.
// POST: Members are in insertion order unless newest-first was requested;
// every view carries active/expired evaluated against the current date
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	members, err := deps.MemberStore.List(ctx, memberStore.ListFilter{Order: query.Order})
	if err != nil {
		return GetMemberListResult{}, err
	}

	now := timeNow()
	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewOf(m, now))
	}

	return GetMemberListResult{Members: views, Total: len(views)}, nil
}
