package http

import (
	"net/http"

	"campusgate/internal/guard"
	"campusgate/pkg/platform/httputil"
)

// protect applies the route guard before the wrapped handler runs. Redirect
// outcomes become 303s; the two blocking screens surface as 403 with the
// outcome named so the client renders the matching screen.
func (h *handler) protect(requiresParentRole bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome := guard.Decide(h.machine.State(), r.URL.Path, requiresParentRole)
			switch outcome.Kind {
			case guard.KindRender:
				next.ServeHTTP(w, r)
			case guard.KindRedirect:
				if h.metrics != nil {
					h.metrics.GuardRedirects.Inc()
				}
				http.Redirect(w, r, outcome.Path, http.StatusSeeOther)
			default:
				httputil.WriteJSON(w, http.StatusForbidden, toDecisionResponse(outcome))
			}
		})
	}
}
