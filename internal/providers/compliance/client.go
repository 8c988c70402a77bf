package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hradmin/internal/domain"
)

// Client calls the external EEOC compliance-check service. A violation
// is a normal outcome, not an error; errors mean the check itself did
// not run.
type Client struct {
	BaseURL   string
	AuthToken string
	HTTP      *http.Client

	// UseAI forwards the text check to the service's AI reviewer.
	UseAI bool
}

type ImageCheckRequest struct {
	Image      string `json:"image"` // base64 data URL
	Filename   string `json:"filename"`
	CampaignID string `json:"campaignId,omitempty"`
}

type TextCheckRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	UseAI   bool   `json:"useAI"`
}

type checkResponse struct {
	IsCompliant bool               `json:"isCompliant"`
	Violations  []domain.Violation `json:"violations"`
	URL         string             `json:"url"`
}

func (c *Client) CheckImage(ctx context.Context, req ImageCheckRequest) (domain.ComplianceResult, error) {
	return c.check(ctx, "/compliance/checkImage", req)
}

func (c *Client) CheckText(ctx context.Context, subject, body string) (domain.ComplianceResult, error) {
	return c.check(ctx, "/compliance/checkText", TextCheckRequest{
		Subject: subject,
		Body:    body,
		UseAI:   c.UseAI,
	})
}

func (c *Client) check(ctx context.Context, path string, payload any) (domain.ComplianceResult, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return domain.ComplianceResult{}, err
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(b))
	if err != nil {
		return domain.ComplianceResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.AuthToken)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return domain.ComplianceResult{}, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ComplianceResult{}, fmt.Errorf("compliance check failed with status %d", resp.StatusCode)
	}

	var out checkResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.ComplianceResult{}, fmt.Errorf("compliance check: decode response: %w", err)
	}
	// A non-compliant verdict without findings would be unactionable;
	// surface a generic one so the caller always has a message to show.
	if !out.IsCompliant && len(out.Violations) == 0 {
		out.Violations = []domain.Violation{{Message: "content failed compliance review"}}
	}
	return domain.ComplianceResult{
		IsCompliant: out.IsCompliant,
		Violations:  out.Violations,
		URL:         out.URL,
	}, nil
}
