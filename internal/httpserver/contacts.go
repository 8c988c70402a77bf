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

// ContactAPI covers the contact directory and the campaign category
// vocabulary.
type ContactAPI struct {
	Contacts   *service.ContactService
	Categories *service.CategoryService
}

func (a *ContactAPI) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/contacts", a.handleListContacts).Methods(http.MethodGet)
	mux.HandleFunc("/v1/contacts", a.handleCreateContact).Methods(http.MethodPost)
	mux.HandleFunc("/v1/contacts/import", a.handleImportCSV).Methods(http.MethodPost)
	mux.HandleFunc("/v1/contacts/tags", a.handleListTags).Methods(http.MethodGet)
	mux.HandleFunc("/v1/contacts/{id}", a.handleDeleteContact).Methods(http.MethodDelete)
	mux.HandleFunc("/v1/contacts/{id}/tags", a.handleSetTags).Methods(http.MethodPut)
	mux.HandleFunc("/v1/recipients/add-by-tag", a.handleAddByTag).Methods(http.MethodPost)

	mux.HandleFunc("/v1/categories", a.handleListCategories).Methods(http.MethodGet)
	mux.HandleFunc("/v1/categories", a.handleCreateCategory).Methods(http.MethodPost)
	mux.HandleFunc("/v1/categories/{name}", a.handleDeleteCategory).Methods(http.MethodDelete)
}

func (a *ContactAPI) handleListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orgID := q.Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	contacts, err := a.Contacts.Search(r.Context(), orgID, q.Get("q"), q.Get("tag"))
	if err != nil {
		slog.Error("list contacts failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (a *ContactAPI) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateContactInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	c, err := a.Contacts.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateContact):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrInvalidEmail):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.Error("create contact failed", "err", err, "org_id", in.OrgID)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *ContactAPI) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	res, err := a.Contacts.ImportCSV(r.Context(), orgID, r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *ContactAPI) handleListTags(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	tags, err := a.Contacts.Tags(r.Context(), orgID)
	if err != nil {
		slog.Error("list tags failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (a *ContactAPI) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.Contacts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("delete contact failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *ContactAPI) handleSetTags(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := a.Contacts.SetTags(r.Context(), id, req.Tags); err != nil {
		slog.Error("set tags failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *ContactAPI) handleAddByTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID   string             `json:"orgId"`
		Tag     string             `json:"tag"`
		Current []domain.Recipient `json:"current"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.OrgID == "" || req.Tag == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	recipients, added, err := a.Contacts.AddByTag(r.Context(), req.OrgID, req.Tag, req.Current)
	if err != nil {
		slog.Error("add by tag failed", "err", err, "org_id", req.OrgID, "tag", req.Tag)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recipients": recipients,
		"added":      added,
	})
}

func (a *ContactAPI) handleListCategories(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	categories, err := a.Categories.List(r.Context(), orgID)
	if err != nil {
		slog.Error("list categories failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (a *ContactAPI) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID string `json:"orgId"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.OrgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	name, err := a.Categories.Create(r.Context(), req.OrgID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCategory) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("create category failed", "err", err, "org_id", req.OrgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (a *ContactAPI) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	fallback, err := a.Categories.Delete(r.Context(), orgID, mux.Vars(r)["name"])
	if err != nil {
		if errors.Is(err, service.ErrEmptyCategory) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("delete category failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"fallback": fallback})
}
