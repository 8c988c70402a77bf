// mock-backend emulates the campaign agent and the compliance service
// for local development and integration tests. It is deliberately
// quirky in the same ways the real backends are: the create response
// key and the list shape vary with configuration, and delivery statuses
// only move after a triggerScan.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"hradmin/internal/logging"
)

type config struct {
	Port string `envconfig:"PORT" default:"8081"`

	// CreateIDKey selects the key carrying the new campaign id in the
	// create response: "id" or "campaignId".
	CreateIDKey string `envconfig:"MOCK_CREATE_ID_KEY" default:"campaignId"`

	// WrapLists switches list responses between a bare array and an
	// object wrapping the array.
	WrapLists bool `envconfig:"MOCK_WRAP_LISTS" default:"true"`

	// DeliveryRate is the fraction of recipients marked delivered per
	// scan; the rest fail.
	DeliveryRate float64 `envconfig:"MOCK_DELIVERY_RATE" default:"0.9"`

	// BannedWords trigger text-check violations, comma-separated.
	BannedWords string `envconfig:"MOCK_BANNED_WORDS" default:"young,energetic,recent graduate,able-bodied"`

	// RejectImages makes every image check fail, for gate testing.
	RejectImages bool `envconfig:"MOCK_REJECT_IMAGES" default:"false"`
}

type recipient struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type campaign struct {
	ID             string      `json:"id"`
	Subject        string      `json:"subject"`
	Category       string      `json:"category"`
	Status         string      `json:"status"`
	SentCount      int         `json:"sentCount"`
	DeliveredCount int         `json:"deliveredCount"`
	FailedCount    int         `json:"failedCount"`
	SentAt         time.Time   `json:"sentAt"`
	Recipients     []recipient `json:"-"`
	Dispatched     bool        `json:"-"`
}

type backend struct {
	cfg config

	mu        sync.Mutex
	campaigns map[string]*campaign
	seq       int
	banned    []string
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	logging.Init("mock-backend", "text", "info")

	b := &backend{cfg: cfg, campaigns: map[string]*campaign{}}
	for _, w := range strings.Split(cfg.BannedWords, ",") {
		if w = strings.TrimSpace(strings.ToLower(w)); w != "" {
			b.banned = append(b.banned, w)
		}
	}

	m := mux.NewRouter()
	m.HandleFunc("/campaigns/create", b.handleCreate).Methods(http.MethodPost)
	m.HandleFunc("/campaigns/triggerScan", b.handleTriggerScan).Methods(http.MethodPost)
	m.HandleFunc("/campaigns", b.handleList).Methods(http.MethodGet)
	m.HandleFunc("/campaigns/{id}/saveConfig", b.handleSaveConfig).Methods(http.MethodPost)
	m.HandleFunc("/campaigns/{id}/addRecipients", b.handleAddRecipients).Methods(http.MethodPost)
	m.HandleFunc("/campaigns/{id}/send", b.handleSend).Methods(http.MethodPost)
	m.HandleFunc("/campaigns/{id}/getRecipients", b.handleGetRecipients).Methods(http.MethodGet)
	m.HandleFunc("/compliance/checkImage", b.handleCheckImage).Methods(http.MethodPost)
	m.HandleFunc("/compliance/checkText", b.handleCheckText).Methods(http.MethodPost)

	slog.Info("mock-backend listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, m); err != nil {
		slog.Error("mock-backend failed", "err", err)
		os.Exit(1)
	}
}

func (b *backend) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject  string `json:"subject"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	b.seq++
	id := fmt.Sprintf("cmp_%06d", b.seq)
	b.campaigns[id] = &campaign{
		ID:       id,
		Subject:  req.Subject,
		Category: req.Category,
		Status:   "Draft",
	}
	b.mu.Unlock()

	writeJSON(w, map[string]string{b.cfg.CreateIDKey: id})
}

func (b *backend) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject  string `json:"subject"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	b.withCampaign(w, r, func(c *campaign) {
		if req.Subject != "" {
			c.Subject = req.Subject
		}
		if req.Category != "" {
			c.Category = req.Category
		}
		writeJSON(w, map[string]bool{"ok": true})
	})
}

func (b *backend) handleAddRecipients(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recipients []recipient `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	b.withCampaign(w, r, func(c *campaign) {
		for _, rc := range req.Recipients {
			rc.Status = "Sent"
			c.Recipients = append(c.Recipients, rc)
		}
		writeJSON(w, map[string]int{"count": len(c.Recipients)})
	})
}

func (b *backend) handleSend(w http.ResponseWriter, r *http.Request) {
	b.withCampaign(w, r, func(c *campaign) {
		if len(c.Recipients) == 0 {
			http.Error(w, `{"error":"campaign has no recipients"}`, http.StatusConflict)
			return
		}
		c.Dispatched = true
		c.Status = "Sent"
		c.SentCount = len(c.Recipients)
		c.SentAt = time.Now().UTC()
		writeJSON(w, map[string]bool{"ok": true})
	})
}

// handleTriggerScan resolves every dispatched campaign's recipients to a
// terminal status. Statuses never move outside a scan.
func (b *backend) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	for _, c := range b.campaigns {
		if !c.Dispatched {
			continue
		}
		delivered, failed := 0, 0
		for i := range c.Recipients {
			if c.Recipients[i].Status == "Sent" {
				if rand.Float64() < b.cfg.DeliveryRate {
					c.Recipients[i].Status = "Delivered"
				} else {
					c.Recipients[i].Status = "Failed"
				}
			}
			switch c.Recipients[i].Status {
			case "Delivered":
				delivered++
			case "Failed":
				failed++
			}
		}
		c.DeliveredCount = delivered
		c.FailedCount = failed
		switch {
		case failed == len(c.Recipients):
			c.Status = "Failed"
		case delivered+failed == len(c.Recipients):
			c.Status = "Delivered"
		}
	}
	b.mu.Unlock()
	writeJSON(w, map[string]bool{"ok": true})
}

func (b *backend) handleList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	out := make([]campaign, 0, len(b.campaigns))
	for _, c := range b.campaigns {
		if c.Dispatched {
			out = append(out, *c)
		}
	}
	b.mu.Unlock()

	if b.cfg.WrapLists {
		writeJSON(w, map[string]any{"campaigns": out})
		return
	}
	writeJSON(w, out)
}

func (b *backend) handleGetRecipients(w http.ResponseWriter, r *http.Request) {
	b.withCampaign(w, r, func(c *campaign) {
		if b.cfg.WrapLists {
			writeJSON(w, map[string]any{"recipients": c.Recipients})
			return
		}
		writeJSON(w, c.Recipients)
	})
}

type violation struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (b *backend) handleCheckImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if b.cfg.RejectImages {
		writeJSON(w, map[string]any{
			"isCompliant": false,
			"violations": []violation{{
				Message:  "image content may target a protected class",
				Severity: "high",
			}},
		})
		return
	}
	writeJSON(w, map[string]any{
		"isCompliant": true,
		"url":         "https://cdn.mock.invalid/images/" + req.Filename,
	})
}

func (b *backend) handleCheckText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	text := strings.ToLower(req.Subject + " " + req.Body)
	var found []violation
	for _, word := range b.banned {
		if strings.Contains(text, word) {
			found = append(found, violation{
				Message:  fmt.Sprintf("phrase %q may discourage protected applicants", word),
				Severity: "medium",
			})
		}
	}
	writeJSON(w, map[string]any{
		"isCompliant": len(found) == 0,
		"violations":  found,
	})
}

func (b *backend) withCampaign(w http.ResponseWriter, r *http.Request, fn func(*campaign)) {
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.campaigns[id]
	if !ok {
		http.Error(w, `{"error":"campaign not found"}`, http.StatusNotFound)
		return
	}
	fn(c)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
