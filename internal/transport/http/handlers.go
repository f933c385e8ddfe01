package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"campusgate/internal/audit"
	"campusgate/internal/authstate"
	"campusgate/internal/guard"
	"campusgate/internal/identity"
	"campusgate/internal/platform/metrics"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/httputil"
)

type handler struct {
	machine  *authstate.Machine
	provider identity.Provider
	metrics  *metrics.Metrics
	logger   *slog.Logger
	auditLog *audit.MemorySink
	health   func() error
}

type userResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	EmailVerified   bool      `json:"email_verified"`
	AdminVerified   bool      `json:"admin_verified"`
	AdmissionNumber string    `json:"admission_number,omitempty"`
	StaffID         string    `json:"staff_id,omitempty"`
	LastLogin       time.Time `json:"last_login,omitzero"`
}

type stateResponse struct {
	User            *userResponse `json:"user"`
	Token           string        `json:"token,omitempty"`
	IsAuthenticated bool          `json:"is_authenticated"`
	IsLoading       bool          `json:"is_loading"`
	Error           string        `json:"error,omitempty"`
	IsAdminVerified bool          `json:"is_admin_verified"`
}

func toStateResponse(st authstate.State) stateResponse {
	resp := stateResponse{
		Token:           st.Token,
		IsAuthenticated: st.IsAuthenticated,
		IsLoading:       st.IsLoading,
		Error:           st.Err,
		IsAdminVerified: st.IsAdminVerified,
	}
	if st.User != nil {
		resp.User = &userResponse{
			ID:              st.User.ID,
			Email:           st.User.Email,
			Name:            st.User.Name,
			Role:            string(st.User.Role),
			EmailVerified:   st.User.EmailVerified,
			AdminVerified:   st.User.AdminVerified,
			AdmissionNumber: st.User.AdmissionNumber,
			StaffID:         st.User.StaffID,
			LastLogin:       st.User.LastLogin,
		}
	}
	return resp
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.machine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *handler) parentLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdmissionNumber string `json:"admission_number"`
		Password        string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.machine.ParentLogin(r.Context(), req.AdmissionNumber, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *handler) teacherLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID  string `json:"staff_id"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.machine.TeacherLogin(r.Context(), req.StaffID, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.machine.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toStateResponse(st))
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	st, err := h.machine.Logout(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *handler) verifyAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	st, err := h.machine.VerifyAdminCode(r.Context(), req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStateResponse(st))
}

func (h *handler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.provider.SendPasswordReset(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) passwordResetVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	email, err := h.provider.VerifyResetCode(r.Context(), req.Code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (h *handler) passwordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.provider.ConfirmReset(r.Context(), req.Code, req.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.provider.ResendVerificationEmail(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) confirmEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.provider.ConfirmEmail(r.Context(), req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toStateResponse(h.machine.State()))
}

type decisionResponse struct {
	Outcome string `json:"outcome"`
	Path    string `json:"path,omitempty"`
}

func toDecisionResponse(o guard.Outcome) decisionResponse {
	return decisionResponse{Outcome: o.Kind.String(), Path: o.Path}
}

// guardDecision evaluates the route guard for a hypothetical navigation so
// clients can ask before rendering.
func (h *handler) guardDecision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "path query parameter is required"))
		return
	}
	requiresParent, _ := strconv.ParseBool(r.URL.Query().Get("requires_parent_role"))
	public, _ := strconv.ParseBool(r.URL.Query().Get("public"))

	st := h.machine.State()
	var outcome guard.Outcome
	if public {
		outcome = guard.DecidePublic(st)
	} else {
		outcome = guard.Decide(st, path, requiresParent)
	}
	httputil.WriteJSON(w, http.StatusOK, toDecisionResponse(outcome))
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "dashboard"})
}

func (h *handler) parentHome(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"view": "parent"})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) auditRecent(w http.ResponseWriter, r *http.Request) {
	if h.auditLog == nil {
		httputil.WriteJSON(w, http.StatusOK, []audit.Event{})
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	httputil.WriteJSON(w, http.StatusOK, h.auditLog.Recent(n))
}
