package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"hradmin/internal/observability"
	sqsqueue "hradmin/internal/queue/sqs"
	"hradmin/internal/util"
)

type CallbackQueue interface {
	Enqueue(ctx context.Context, ev sqsqueue.DeliveryCallback) error
}

// Webhook accepts signed delivery callbacks from the campaign agent and
// hands them to the queue. Processing happens out of band so the agent
// always gets a fast 200.
type Webhook struct {
	Queue           CallbackQueue
	VerifySignature func(secret, fullURL, provided string, body []byte) bool
	Secret          string
	PublicURL       string

	// MaxBodyBytes guards against oversized callback bodies. Zero means
	// the 1MB default.
	MaxBodyBytes int64
}

func (w *Webhook) Register(mux *mux.Router) {
	mux.HandleFunc("/v1/webhooks/agent/delivery", w.handleDelivery).Methods(http.MethodPost)
}

type deliveryCallbackBody struct {
	EventID    string            `json:"eventId"`
	CampaignID string            `json:"campaignId"`
	Email      string            `json:"email"`
	Status     string            `json:"status"`
	Reason     string            `json:"reason"`
	Payload    map[string]string `json:"payload"`
}

func (w *Webhook) handleDelivery(rw http.ResponseWriter, r *http.Request) {
	limit := w.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		http.Error(rw, ErrBadForm, http.StatusBadRequest)
		return
	}

	if w.VerifySignature == nil || !w.VerifySignature(w.Secret, w.PublicURL, r.Header.Get("X-Agent-Signature"), body) {
		http.Error(rw, ErrInvalidSignature, http.StatusUnauthorized)
		return
	}

	var cb deliveryCallbackBody
	if err := json.Unmarshal(body, &cb); err != nil {
		http.Error(rw, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if cb.CampaignID == "" || cb.Email == "" || cb.Status == "" {
		http.Error(rw, ErrMissingID, http.StatusBadRequest)
		return
	}
	if cb.EventID == "" {
		// Agent versions before callback v2 omit the event ID; synthesize
		// one so dedup still has a key, at the cost of no replay protection
		// for those versions.
		cb.EventID = util.NewID("evt")
	}

	observability.DeliveryEvents.WithLabelValues(cb.Status).Inc()

	if err := w.Queue.Enqueue(r.Context(), sqsqueue.DeliveryCallback{
		EventID:    cb.EventID,
		CampaignID: cb.CampaignID,
		Email:      cb.Email,
		Status:     cb.Status,
		Reason:     cb.Reason,
		Payload:    cb.Payload,
		ReceivedAt: util.NowUTC(),
	}); err != nil {
		slog.Error("webhook enqueue delivery callback failed", "err", err,
			"campaign_id", cb.CampaignID, "status", cb.Status)
		http.Error(rw, ErrDependency, http.StatusInternalServerError)
		return
	}
	rw.WriteHeader(http.StatusOK)
}
