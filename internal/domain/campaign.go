package domain

import (
	"errors"
	"strings"
	"time"
)

type CampaignStatus string

const (
	StatusSent      CampaignStatus = "Sent"
	StatusDelivered CampaignStatus = "Delivered"
	StatusFailed    CampaignStatus = "Failed"
)

// Campaign mirrors backend truth for one sent campaign. Status and the
// counters are owned by the campaign agent; this side only records the
// optimistic state right after dispatch and overwrites it on refresh.
type Campaign struct {
	ID               string         `json:"id"`
	OrgID            string         `json:"orgId"`
	Subject          string         `json:"subject"`
	BodyHTML         string         `json:"bodyHtml"`
	Category         string         `json:"category"`
	RecipientSummary string         `json:"recipientSummary"`
	Status           CampaignStatus `json:"status"`
	Attachments      []string       `json:"attachments"`
	SentCount        int            `json:"sentCount"`
	DeliveredCount   int            `json:"deliveredCount"`
	FailedCount      int            `json:"failedCount"`
	SentAt           time.Time      `json:"sentAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Recipient is one row of a campaign's delivery list.
type Recipient struct {
	Email  string         `json:"email"`
	Name   string         `json:"name"`
	Status CampaignStatus `json:"status"`
}

type SendRequest struct {
	OrgID      string      `json:"orgId"`
	DraftID    string      `json:"draftId"`
	Subject    string      `json:"subject"`
	BodyHTML   string      `json:"bodyHtml"`
	Category   string      `json:"category"`
	Recipients []Recipient `json:"recipients"`
}

func (r SendRequest) Validate() error {
	if r.OrgID == "" || r.Subject == "" || r.BodyHTML == "" {
		return ErrMissingFields
	}
	if len(r.Recipients) == 0 {
		return ErrNoRecipients
	}
	for _, rc := range r.Recipients {
		if !strings.Contains(rc.Email, "@") {
			return ErrInvalidEmail
		}
	}
	return nil
}

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrNoRecipients  = errors.New("at least one recipient is required")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrNotFound      = errors.New("not found")
)
