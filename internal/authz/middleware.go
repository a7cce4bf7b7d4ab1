package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crew/internal/catalog"
	teammetrics "crew/internal/team/metrics"
	"crew/internal/team/models"
	dErrors "crew/pkg/domain-errors"
	"crew/pkg/platform/httputil"
	"crew/pkg/requestcontext"
)

type contextKeyProfile struct{}

// ProfileFromContext returns the staff profile stashed by LoadProfile, or
// nil when the middleware did not run or the user has no profile.
func ProfileFromContext(ctx context.Context) *models.StaffProfile {
	p, _ := ctx.Value(contextKeyProfile{}).(*models.StaffProfile)
	return p
}

// Guard wires authorization decisions into the HTTP stack. It loads the
// caller's profile once per request and exposes middleware that gate routes
// on membership or permissions.
type Guard struct {
	profiles ProfileSource
	catalog  *catalog.Catalog
	metrics  *teammetrics.Metrics
	logger   *slog.Logger
}

func NewGuard(profiles ProfileSource, cat *catalog.Catalog, metrics *teammetrics.Metrics, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{profiles: profiles, catalog: cat, metrics: metrics, logger: logger}
}

// LoadProfile resolves the authenticated caller's profile and stores it in
// the request context. A caller with no staff profile proceeds with a nil
// profile; the check middlewares deny it as unknown_user. Run after the
// authentication middleware.
func (g *Guard) LoadProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := requestcontext.UserID(ctx)
		if userID.IsNil() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}

		p, err := g.profiles.GetUserTeamInfo(ctx, userID)
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			httputil.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyProfile{}, p)))
	})
}

// RequireTeamMember gates a route on membership in the team named by the
// teamID URL parameter.
func (g *Guard) RequireTeamMember(next http.Handler) http.Handler {
	return g.requireTeam(next, TeamMember)
}

// RequireTeamManager gates a route on holding the manager role in the team
// named by the teamID URL parameter.
func (g *Guard) RequireTeamManager(next http.Handler) http.Handler {
	return g.requireTeam(next, TeamManager)
}

func (g *Guard) requireTeam(next http.Handler, check func(*models.StaffProfile, catalog.TeamID) Decision) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teamID, err := g.catalog.ParseTeamID(chi.URLParam(r, "teamID"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		g.enforce(w, r, next, check(ProfileFromContext(r.Context()), teamID))
	})
}

// RequireAnyPermission gates a route on holding at least one of the named
// permissions.
func (g *Guard) RequireAnyPermission(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.enforce(w, r, next, AnyPermission(ProfileFromContext(r.Context()), perms...))
		})
	}
}

// RequireAllPermissions gates a route on holding every named permission.
func (g *Guard) RequireAllPermissions(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.enforce(w, r, next, AllPermissions(ProfileFromContext(r.Context()), perms...))
		})
	}
}

func (g *Guard) enforce(w http.ResponseWriter, r *http.Request, next http.Handler, d Decision) {
	if d.Allowed {
		next.ServeHTTP(w, r)
		return
	}
	ctx := r.Context()
	g.logger.WarnContext(ctx, "authorization denied",
		"user_id", requestcontext.UserID(ctx),
		"reason", d.Reason,
		"required", d.Required,
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(ctx),
	)
	if g.metrics != nil {
		g.metrics.IncrementDenial(d.Reason)
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, d.Explain()))
}
