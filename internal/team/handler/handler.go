// Package handler is the HTTP surface of the team management engine. It
// delegates to the service layer and keeps transport concerns (parsing,
// status codes, guard middleware) out of the domain.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crew/internal/audit"
	"crew/internal/authz"
	"crew/internal/catalog"
	"crew/internal/team/models"
	"crew/internal/team/service"
	id "crew/pkg/domain"
	"crew/pkg/platform/httputil"
	"crew/pkg/requestcontext"
)

// ManageStaffRolesPermission gates every mutating route. It is granted by
// the operations manager role and by base permission grants.
const ManageStaffRolesPermission = "manage_staff_roles"

// Service defines the team management operations the handler delegates to.
type Service interface {
	AssignUserToTeam(ctx context.Context, userID id.UserID, teamID catalog.TeamID, role catalog.Role, actor id.UserID) (*service.MutationResult, error)
	RemoveUserFromTeam(ctx context.Context, userID id.UserID, teamID catalog.TeamID, actor id.UserID) (*service.MutationResult, error)
	UpdateUserTeamRole(ctx context.Context, userID id.UserID, teamID catalog.TeamID, newRole catalog.Role, actor id.UserID) (*service.MutationResult, error)
	BulkAssignUsersToTeam(ctx context.Context, userIDs []id.UserID, teamID catalog.TeamID, role catalog.Role, actor id.UserID) (*service.BulkResult, error)
	RecalculateUserPermissions(ctx context.Context, userID id.UserID, actor id.UserID) (*service.MutationResult, error)
	RecalculateAllStaffPermissions(ctx context.Context, actor id.UserID) (*service.RecalcAllSummary, error)
	EnsureStaffProfile(ctx context.Context, userID id.UserID, basePermissions []string) (*models.StaffProfile, error)

	GetUserTeamInfo(ctx context.Context, userID id.UserID) (*models.StaffProfile, error)
	GetTeamMembers(ctx context.Context, teamID catalog.TeamID) ([]service.TeamMember, error)
	GetTeamMemberCount(ctx context.Context, teamID catalog.TeamID) (int, error)
	GetUnassignedStaffUsers(ctx context.Context) ([]id.UserID, error)
	TeamStats(ctx context.Context) ([]service.TeamStat, error)
}

// AuditReader exposes the read side of the audit trail.
type AuditReader interface {
	ListByTarget(ctx context.Context, targetUserID id.UserID) ([]audit.Entry, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Handler handles team management endpoints.
type Handler struct {
	logger  *slog.Logger
	teams   Service
	audits  AuditReader
	catalog *catalog.Catalog
	guard   *authz.Guard
}

func New(teams Service, audits AuditReader, cat *catalog.Catalog, guard *authz.Guard, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		teams:   teams,
		audits:  audits,
		catalog: cat,
		guard:   guard,
	}
}

// Register mounts the team routes. Callers are already authenticated; the
// guard loads the caller's profile once and gates each route on membership
// or permissions.
func (h *Handler) Register(r chi.Router) {
	r.Route("/teams", func(r chi.Router) {
		r.Use(h.guard.LoadProfile)

		r.Get("/", h.handleListTeams)
		r.Get("/stats", h.handleTeamStats)
		r.Get("/{teamID}", h.handleGetTeam)

		r.With(h.guard.RequireTeamMember).Get("/{teamID}/members", h.handleListMembers)
		r.With(h.guard.RequireTeamMember).Get("/{teamID}/members/count", h.handleMemberCount)

		manage := h.guard.RequireAnyPermission(ManageStaffRolesPermission)
		r.Group(func(r chi.Router) {
			r.Use(manage)
			r.Get("/users/unassigned", h.handleUnassigned)
			r.Get("/users/{userID}", h.handleGetUser)
			r.Get("/users/{userID}/audit", h.handleUserAudit)
			r.Get("/audit/recent", h.handleRecentAudit)

			r.Post("/{teamID}/members", h.handleAssign)
			r.Post("/{teamID}/members/bulk", h.handleBulkAssign)
			r.Delete("/{teamID}/members/{userID}", h.handleRemove)
			r.Put("/{teamID}/members/{userID}/role", h.handleChangeRole)

			r.Post("/users/{userID}/recalculate", h.handleRecalcUser)
			r.Post("/recalculate", h.handleRecalcAll)
		})
	})

	r.With(h.guard.LoadProfile, h.guard.RequireAnyPermission(ManageStaffRolesPermission)).
		Post("/staff", h.handleCreateStaff)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	stats, err := h.teams.TeamStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	counts := make(map[catalog.TeamID]int, len(stats))
	for _, st := range stats {
		counts[st.TeamID] = st.MemberCount
	}

	teams := make([]TeamSummary, 0, h.catalog.Len())
	for _, teamID := range h.catalog.TeamIDs() {
		def, err := h.catalog.Get(teamID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		teams = append(teams, TeamSummary{
			TeamDefinition: def,
			MemberCount:    counts[teamID],
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	def, err := h.catalog.Get(teamID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, def)
}

func (h *Handler) handleTeamStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.teams.TeamStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	members, err := h.teams.GetTeamMembers(r.Context(), teamID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"team_id": teamID, "members": members})
}

func (h *Handler) handleMemberCount(w http.ResponseWriter, r *http.Request) {
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	count, err := h.teams.GetTeamMemberCount(r.Context(), teamID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"team_id": teamID, "count": count})
}

func (h *Handler) handleUnassigned(w http.ResponseWriter, r *http.Request) {
	users, err := h.teams.GetUnassignedStaffUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if users == nil {
		users = []id.UserID{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"user_ids": users})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.teams.GetUserTeamInfo(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUserAudit(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.audits.ListByTarget(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audits.ListRecent(r.Context(), 100)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateStaffRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.teams.EnsureStaffProfile(ctx, userID, req.BasePermissions)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignMemberRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := catalog.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.teams.AssignUserToTeam(ctx, userID, teamID, role, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMutationResponse(res))
}

func (h *Handler) handleBulkAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[BulkAssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	role, err := catalog.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// A malformed entry fails only its own slot; the remaining valid
	// entries still go through the service.
	resp := BulkAssignResponse{Results: make([]BulkItemResponse, len(req.UserIDs))}
	userIDs := make([]id.UserID, 0, len(req.UserIDs))
	validSlots := make([]int, 0, len(req.UserIDs))
	for i, raw := range req.UserIDs {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			resp.Results[i] = failedBulkItem(raw, err)
			resp.Failed++
			continue
		}
		userIDs = append(userIDs, userID)
		validSlots = append(validSlots, i)
	}

	res, err := h.teams.BulkAssignUsersToTeam(ctx, userIDs, teamID, role, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	for j, item := range res.Results {
		resp.Results[validSlots[j]] = toBulkItemResponse(item)
	}
	resp.Succeeded = res.Succeeded
	resp.Failed += res.Failed

	httputil.WriteJSON(w, http.StatusMultiStatus, resp)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.teams.RemoveUserFromTeam(ctx, userID, teamID, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMutationResponse(res))
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teamID, err := h.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChangeRoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	role, err := catalog.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.teams.UpdateUserTeamRole(ctx, userID, teamID, role, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMutationResponse(res))
}

func (h *Handler) handleRecalcUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.teams.RecalculateUserPermissions(ctx, userID, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMutationResponse(res))
}

// handleRecalcAll starts a full-staff recalculation in the background and
// returns 202. The pass can take a while on a large staff roster; clients
// follow progress through the audit trail.
func (h *Handler) handleRecalcAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := requestcontext.UserID(ctx)

	// Detach from the request context so the pass survives the response,
	// keeping the actor and request ID for the audit trail and logs.
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, 10*time.Minute)
		defer cancel()
		if _, err := h.teams.RecalculateAllStaffPermissions(ctx, actor); err != nil {
			h.logger.ErrorContext(ctx, "background recalculation failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "recalculation started"})
}
