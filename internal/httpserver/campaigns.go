package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hradmin/internal/domain"
	"hradmin/internal/service"
	"hradmin/internal/util"
)

// CampaignAPI covers compose drafts, the gated send and the sent view.
type CampaignAPI struct {
	Compose *service.ComposeService

	// MaxAttachmentBytes bounds a single staged file.
	MaxAttachmentBytes int64
}

func (a *CampaignAPI) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/drafts", a.handleCreateDraft).Methods(http.MethodPost)
	mux.HandleFunc("/v1/drafts/{id}/attachments", a.handleAddAttachment).Methods(http.MethodPost)
	mux.HandleFunc("/v1/drafts/{id}/attachments/{index}", a.handleRemoveAttachment).Methods(http.MethodDelete)
	mux.HandleFunc("/v1/campaigns/send", a.handleSend).Methods(http.MethodPost)
	mux.HandleFunc("/v1/campaigns", a.handleListCampaigns).Methods(http.MethodGet)
	mux.HandleFunc("/v1/campaigns/{id}", a.handleGetCampaign).Methods(http.MethodGet)
}

func (a *CampaignAPI) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID string `json:"orgId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.OrgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	d := a.Compose.Drafts.Create(req.OrgID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": d.ID})
}

type addAttachmentRequest struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
	// Data is the file content as a data URL; only image files are
	// submitted for a compliance check.
	Data string `json:"data"`
}

func (a *CampaignAPI) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	draftID := mux.Vars(r)["id"]

	var req addAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.Filename == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	if a.MaxAttachmentBytes > 0 && req.Size > a.MaxAttachmentBytes {
		http.Error(w, service.ErrAttachmentTooLarge.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := a.Compose.AddAttachment(r.Context(), draftID, domain.Attachment{
		Filename: req.Filename,
		MIMEType: req.MIMEType,
		Size:     req.Size,
	}, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDraftNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrDuplicateAttach), errors.Is(err, service.ErrCheckBudgetSpent):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			slog.Error("add attachment failed", "err", err, "draft_id", draftID, "filename", req.Filename)
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *CampaignAPI) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	if err := a.Compose.RemoveAttachment(vars["id"], index); err != nil {
		switch {
		case errors.Is(err, service.ErrDraftNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, service.ErrAttachmentIndex):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, ErrDependency, http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSend returns 200 for both outcomes of a valid request; a
// compliance block is a result, not an error.
func (a *CampaignAPI) handleSend(w http.ResponseWriter, r *http.Request) {
	var req domain.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}

	outcome, err := a.Compose.Send(r.Context(), req, util.NowUTC())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFields),
			errors.Is(err, domain.ErrNoRecipients),
			errors.Is(err, domain.ErrInvalidEmail):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, service.ErrDraftNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			slog.Error("send failed", "err", err, "org_id", req.OrgID, "subject", req.Subject)
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (a *CampaignAPI) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		http.Error(w, ErrMissingID, http.StatusBadRequest)
		return
	}
	campaigns, err := a.Compose.ListSent(r.Context(), orgID)
	if err != nil {
		slog.Error("list campaigns failed", "err", err, "org_id", orgID)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (a *CampaignAPI) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	campaign, recipients, err := a.Compose.GetCampaign(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, ErrNotFound, http.StatusNotFound)
			return
		}
		slog.Error("get campaign failed", "err", err, "id", id)
		http.Error(w, ErrDependency, http.StatusBadGateway)
		return
	}
	if recipients == nil {
		recipients = []domain.Recipient{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaign":   campaign,
		"recipients": recipients,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
