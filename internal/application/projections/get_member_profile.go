package projections

import (
	"context"
)

// GetMemberProfileQuery carries query parameters.
type GetMemberProfileQuery struct {
	MemberID string
}

// GetMemberProfileResult carries the query result.
type GetMemberProfileResult struct {
	Member MemberView
}

// GetMemberProfileDeps holds dependencies for GetMemberProfile.
type GetMemberProfileDeps struct {
	MemberStore MemberStore
}

// QueryGetMemberProfile retrieves a single member with derived status.
// POST: Returns the view, or passes through memberStore.ErrNotFound
func QueryGetMemberProfile(ctx context.Context, query GetMemberProfileQuery, deps GetMemberProfileDeps) (GetMemberProfileResult, error) {
	m, err := deps.MemberStore.GetByID(ctx, query.MemberID)
	if err != nil {
		return GetMemberProfileResult{}, err
	}
	return GetMemberProfileResult{Member: viewOf(m, timeNow())}, nil
}
