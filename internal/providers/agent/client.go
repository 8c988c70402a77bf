package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hradmin/internal/domain"
)

// Client talks to the external campaign-agent API. All calls are
// JSON-over-HTTPS with a bearer token; response-shape quirks are
// normalized here so nothing downstream branches on backend shape.
type Client struct {
	BaseURL   string
	AuthToken string
	HTTP      *http.Client
}

type createResponse struct {
	// The backend returns the new id under either key depending on
	// deployment version. Both must be handled.
	ID         string `json:"id"`
	CampaignID string `json:"campaignId"`
}

type Config struct {
	Subject      string   `json:"subject"`
	BodyTemplate string   `json:"bodyTemplate"`
	Category     string   `json:"category"`
	Images       []string `json:"images"`
}

type RecipientInput struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// CampaignRecord is the agent's view of a campaign, fetched on refresh.
type CampaignRecord struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	SentCount      int       `json:"sentCount"`
	DeliveredCount int       `json:"deliveredCount"`
	FailedCount    int       `json:"failedCount"`
	SentAt         time.Time `json:"sentAt"`
}

type RecipientRecord struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Create registers a new campaign and returns its id.
func (c *Client) Create(ctx context.Context, subject, category string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/campaigns/create", map[string]string{
		"subject":  subject,
		"category": domain.NormalizeCategory(category),
	})
	if err != nil {
		return "", err
	}
	var out createResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("agent create: decode response: %w", err)
	}
	id := out.ID
	if id == "" {
		id = out.CampaignID
	}
	if id == "" {
		return "", errors.New("agent create: response carried no campaign id")
	}
	return id, nil
}

func (c *Client) SaveConfig(ctx context.Context, campaignID string, cfg Config) error {
	cfg.Category = domain.NormalizeCategory(cfg.Category)
	_, err := c.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/saveConfig", cfg)
	return err
}

func (c *Client) AddRecipients(ctx context.Context, campaignID string, recipients []RecipientInput) error {
	_, err := c.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/addRecipients", map[string]any{
		"recipients": recipients,
	})
	return err
}

func (c *Client) Send(ctx context.Context, campaignID string) error {
	_, err := c.do(ctx, http.MethodPost, "/campaigns/"+campaignID+"/send", nil)
	return err
}

// TriggerScan asks the agent to run its bounce/delivery scan. The scan
// result is not returned inline; it lands in subsequent list/recipient
// fetches.
func (c *Client) TriggerScan(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/campaigns/triggerScan", nil)
	return err
}

func (c *Client) ListCampaigns(ctx context.Context) ([]CampaignRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/campaigns", nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeList[CampaignRecord](body, "campaigns")
	if err != nil {
		return nil, fmt.Errorf("agent list campaigns: %w", err)
	}
	for i := range records {
		records[i].Category = domain.NormalizeCategory(records[i].Category)
	}
	return records, nil
}

func (c *Client) GetRecipients(ctx context.Context, campaignID string) ([]RecipientRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/campaigns/"+campaignID+"/getRecipients", nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeList[RecipientRecord](body, "recipients")
	if err != nil {
		return nil, fmt.Errorf("agent get recipients: %w", err)
	}
	return records, nil
}

// decodeList accepts both a bare JSON array and an object wrapping the
// array under the given key; both shapes have been observed.
func decodeList[T any](body []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var out []T
		err := json.Unmarshal(trimmed, &out)
		return out, err
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	raw, ok := wrapper[key]
	if !ok {
		return nil, fmt.Errorf("response carried neither an array nor %q", key)
	}
	var out []T
	err := json.Unmarshal(raw, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(b, &apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		if msg == "" {
			msg = "campaign agent call failed"
		}
		return nil, fmt.Errorf("%s %s: %s (status %d)", method, path, msg, resp.StatusCode)
	}
	return b, nil
}
