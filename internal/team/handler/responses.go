package handler

import (
	"crew/internal/catalog"
	"crew/internal/team/service"
	id "crew/pkg/domain"
	dErrors "crew/pkg/domain-errors"
)

// TeamSummary is one row of the team listing: the catalog definition plus
// the current member count.
type TeamSummary struct {
	catalog.TeamDefinition
	MemberCount int `json:"member_count"`
}

// MutationResponse reports the permission delta of one membership change.
type MutationResponse struct {
	UserID               id.UserID `json:"user_id"`
	AddedPermissions     []string  `json:"added_permissions"`
	RemovedPermissions   []string  `json:"removed_permissions"`
	EffectivePermissions []string  `json:"effective_permissions"`
	Version              int64     `json:"version"`
}

func toMutationResponse(res *service.MutationResult) MutationResponse {
	return MutationResponse{
		UserID:               res.Profile.UserID,
		AddedPermissions:     emptyIfNil(res.AddedPermissions),
		RemovedPermissions:   emptyIfNil(res.RemovedPermissions),
		EffectivePermissions: emptyIfNil(res.AfterPermissions),
		Version:              res.Profile.Version,
	}
}

// BulkItemResponse is the outcome for one user in a bulk assignment. The
// user ID echoes the request entry verbatim, so malformed IDs that never
// parsed still appear in the result list.
type BulkItemResponse struct {
	UserID           string   `json:"user_id"`
	Status           string   `json:"status"`
	Error            string   `json:"error,omitempty"`
	ErrorDescription string   `json:"error_description,omitempty"`
	AddedPermissions []string `json:"added_permissions,omitempty"`
	EffectiveCount   int      `json:"effective_count,omitempty"`
}

// BulkAssignResponse aggregates per-user outcomes.
type BulkAssignResponse struct {
	Results   []BulkItemResponse `json:"results"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

func toBulkItemResponse(item service.BulkItemResult) BulkItemResponse {
	r := BulkItemResponse{UserID: item.UserID.String()}
	if item.Err != nil {
		r.Status = "failed"
		r.Error = string(dErrors.CodeOf(item.Err))
		r.ErrorDescription = dErrors.MessageOf(item.Err)
		return r
	}
	r.Status = "assigned"
	r.AddedPermissions = emptyIfNil(item.AddedPermissions)
	r.EffectiveCount = item.EffectiveCount
	return r
}

func failedBulkItem(rawUserID string, err error) BulkItemResponse {
	return BulkItemResponse{
		UserID:           rawUserID,
		Status:           "failed",
		Error:            string(dErrors.CodeOf(err)),
		ErrorDescription: dErrors.MessageOf(err),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
