package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"hradmin/internal/domain"
	"hradmin/internal/service"
)

// RecordsAPI covers business licenses and employee document collection.
type RecordsAPI struct {
	Licenses  *service.LicenseService
	Documents *service.DocumentService

	// MaxDocumentBytes bounds one uploaded document after decoding.
	MaxDocumentBytes int64
}

func (a *RecordsAPI) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/licenses", a.handleListLicenses).Methods(http.MethodGet)
	mux.HandleFunc("/v1/licenses", a.handleCreateLicense).Methods(http.MethodPost)
	mux.HandleFunc("/v1/licenses/{id}", a.handleGetLicense).Methods(http.MethodGet)
	mux.HandleFunc("/v1/licenses/{id}", a.handleUpdateLicense).Methods(http.MethodPut)
	mux.HandleFunc("/v1/licenses/{id}", a.handleDeleteLicense).Methods(http.MethodDelete)

	mux.HandleFunc("/v1/documents", a.handleListDocuments).Methods(http.MethodGet)
	mux.HandleFunc("/v1/documents", a.handleUploadDocument).Methods(http.MethodPost)
	mux.HandleFunc("/v1/documents/{id}/verify", a.handleVerifyDocument).Methods(http.MethodPost)
	mux.HandleFunc("/v1/documents/{id}/content", a.handleDownloadDocument).Methods(http.MethodGet)
	mux.HandleFunc("/v1/documents/{id}", a.handleDeleteDocument).Methods(http.MethodDelete)

	mux.HandleFunc("/v1/document-requests", a.handleListDocumentRequests).Methods(http.MethodGet)
	mux.HandleFunc("/v1/document-requests", a.handleCreateDocumentRequest).Methods(http.MethodPost)
	mux.HandleFunc("/v1/employees/{employeeId}/documents", a.handleEmployeeDocuments).Methods(http.MethodGet)
}

func (a *RecordsAPI) handleListLicenses(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	licenses, err := a.Licenses.List(r.Context(), orgID)
	if err != nil {
		slog.Error("list licenses failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if licenses == nil {
		licenses = []service.LicenseView{}
	}
	writeJSON(w, http.StatusOK, licenses)
}

func (a *RecordsAPI) handleCreateLicense(w http.ResponseWriter, r *http.Request) {
	var in domain.LicenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	l, err := a.Licenses.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) || errors.Is(err, domain.ErrInvalidDateRange) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("create license failed", "err", err, "org_id", in.OrgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (a *RecordsAPI) handleGetLicense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, err := a.Licenses.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("get license failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *RecordsAPI) handleUpdateLicense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in domain.LicenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	l, err := a.Licenses.Update(r.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields), errors.Is(err, domain.ErrInvalidDateRange):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, ErrNotFound, http.StatusNotFound)
		default:
			slog.Error("update license failed", "err", err, "id", id)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (a *RecordsAPI) handleDeleteLicense(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.Licenses.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("delete license failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *RecordsAPI) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	docs, err := a.Documents.List(r.Context(), orgID)
	if err != nil {
		slog.Error("list documents failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

type uploadDocumentRequest struct {
	OrgID      string `json:"orgId"`
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type"`
	Filename   string `json:"filename"`
	MIMEType   string `json:"mimeType"`
	// Content is base64-encoded file bytes.
	Content string `json:"content"`
}

func (a *RecordsAPI) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		http.Error(w, "content is not valid base64", http.StatusBadRequest)
		return
	}
	if a.MaxDocumentBytes > 0 && int64(len(content)) > a.MaxDocumentBytes {
		http.Error(w, "document exceeds the size limit", http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := a.Documents.Upload(r.Context(), service.UploadInput{
		OrgID:      req.OrgID,
		EmployeeID: req.EmployeeID,
		Type:       req.Type,
		Filename:   req.Filename,
		MIMEType:   req.MIMEType,
		Content:    content,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("upload document failed", "err", err, "org_id", req.OrgID, "employee_id", req.EmployeeID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (a *RecordsAPI) handleVerifyDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		VerifiedBy string `json:"verifiedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := a.Documents.Verify(r.Context(), id, req.VerifiedBy); err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, ErrNotFound, http.StatusNotFound)
		default:
			slog.Error("verify document failed", "err", err, "id", id)
			http.Error(w, ErrDependency, http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *RecordsAPI) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	filename, mimeType, content, err := a.Documents.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("download document failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(content)
}

func (a *RecordsAPI) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.Documents.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("delete document failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *RecordsAPI) handleListDocumentRequests(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	requests, err := a.Documents.ListRequests(r.Context(), orgID)
	if err != nil {
		slog.Error("list document requests failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if requests == nil {
		requests = []domain.DocumentRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (a *RecordsAPI) handleCreateDocumentRequest(w http.ResponseWriter, r *http.Request) {
	var in domain.DocumentRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	req, err := a.Documents.CreateRequest(r.Context(), in)
	if err != nil {
		if errors.Is(err, domain.ErrMissingFields) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("create document request failed", "err", err, "org_id", in.OrgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (a *RecordsAPI) handleEmployeeDocuments(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	employeeID := mux.Vars(r)["employeeId"]
	docs, err := a.Documents.ListForEmployee(r.Context(), orgID, employeeID)
	if err != nil {
		slog.Error("list employee documents failed", "err", err, "employee_id", employeeID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}
