package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"hradmin/internal/domain"
	"hradmin/internal/service"
)

// AdminAPI covers role, user and organization administration.
type AdminAPI struct {
	Roles *service.RoleService
}

func (a *AdminAPI) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/roles", a.handleListRoles).Methods(http.MethodGet)
	mux.HandleFunc("/v1/roles", a.handleCreateRole).Methods(http.MethodPost)
	mux.HandleFunc("/v1/roles/{id}", a.handleUpdateRole).Methods(http.MethodPut)
	mux.HandleFunc("/v1/roles/{id}", a.handleDeleteRole).Methods(http.MethodDelete)

	mux.HandleFunc("/v1/users", a.handleListUsers).Methods(http.MethodGet)
	mux.HandleFunc("/v1/users", a.handleOnboardUser).Methods(http.MethodPost)
	mux.HandleFunc("/v1/users/{id}/role", a.handleSetUserRole).Methods(http.MethodPut)
	mux.HandleFunc("/v1/users/{id}/status", a.handleSetUserStatus).Methods(http.MethodPut)
	mux.HandleFunc("/v1/users/{id}", a.handleDeleteUser).Methods(http.MethodDelete)

	mux.HandleFunc("/v1/organizations", a.handleListOrganizations).Methods(http.MethodGet)
	mux.HandleFunc("/v1/organizations/{id}", a.handleDeleteOrganization).Methods(http.MethodDelete)
}

// roleErrStatus maps role validation failures onto HTTP codes shared by
// create and update.
func roleErrStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrReservedRoleName),
		errors.Is(err, domain.ErrMalformedRoleName):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrDuplicateRoleName):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrSystemRole):
		return http.StatusForbidden, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, true
	}
	return 0, false
}

func (a *AdminAPI) handleListRoles(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	roles, err := a.Roles.ListRoles(r.Context(), orgID)
	if err != nil {
		slog.Error("list roles failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	writeJSON(w, http.StatusOK, roles)
}

type roleRequest struct {
	OrgID       string   `json:"orgId"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func (a *AdminAPI) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.OrgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	role, err := a.Roles.CreateRole(r.Context(), req.OrgID, req.Name, req.Permissions)
	if err != nil {
		if status, ok := roleErrStatus(err); ok {
			http.Error(w, err.Error(), status)
			return
		}
		slog.Error("create role failed", "err", err, "org_id", req.OrgID, "name", req.Name)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (a *AdminAPI) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := a.Roles.UpdateRole(r.Context(), id, req.Name, req.Permissions); err != nil {
		if status, ok := roleErrStatus(err); ok {
			http.Error(w, err.Error(), status)
			return
		}
		slog.Error("update role failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := a.Roles.DeleteRole(r.Context(), id)
	if err != nil {
		var inUse *domain.RoleInUseError
		switch {
		case errors.As(err, &inUse):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": inUse.Error(),
				"users": inUse.Users,
			})
		case errors.Is(err, service.ErrSystemRole):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, ErrNotFound, http.StatusNotFound)
		default:
			slog.Error("delete role failed", "err", err, "id", id)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) handleListUsers(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	users, err := a.Roles.ListUsers(r.Context(), orgID)
	if err != nil {
		slog.Error("list users failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *AdminAPI) handleOnboardUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID  string `json:"orgId"`
		Email  string `json:"email"`
		Name   string `json:"name"`
		RoleID string `json:"roleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	u, err := a.Roles.OnboardUser(r.Context(), req.OrgID, req.Email, req.Name, req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			slog.Error("onboard user failed", "err", err, "org_id", req.OrgID, "email", req.Email)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *AdminAPI) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		RoleID string `json:"roleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := a.Roles.SetUserRole(r.Context(), id, req.RoleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		slog.Error("set user role failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) handleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := a.Roles.SetUserStatus(r.Context(), id, domain.UserStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, ErrNotFound, http.StatusNotFound)
		default:
			slog.Error("set user status failed", "err", err, "id", id)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.Roles.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("delete user failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *AdminAPI) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := a.Roles.ListOrganizations(r.Context())
	if err != nil {
		slog.Error("list organizations failed", "err", err)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if orgs == nil {
		orgs = []domain.Organization{}
	}
	writeJSON(w, http.StatusOK, orgs)
}

// handleDeleteOrganization requires the caller to retype the exact
// organization name in the request body.
func (a *AdminAPI) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		ConfirmName string `json:"confirmName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	report, err := a.Roles.DeleteOrganization(r.Context(), id, req.ConfirmName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConfirmMismatch):
			http.Error(w, err.Error(), http.StatusPreconditionFailed)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, ErrNotFound, http.StatusNotFound)
		default:
			slog.Error("delete organization failed", "err", err, "id", id)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}
