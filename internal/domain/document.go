package domain

import (
	"errors"
	"time"
)

type DocumentStatus string

const (
	DocPending  DocumentStatus = "pending"
	DocVerified DocumentStatus = "verified"
	DocRejected DocumentStatus = "rejected"
)

type Document struct {
	ID         string         `json:"id"`
	OrgID      string         `json:"orgId"`
	EmployeeID string         `json:"employeeId"`
	Type       string         `json:"type"`
	Filename   string         `json:"filename"`
	MIMEType   string         `json:"mimeType"`
	Size       int64          `json:"size"`
	Status     DocumentStatus `json:"status"`
	VerifiedBy string         `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time     `json:"verifiedAt,omitempty"`
	UploadedAt time.Time      `json:"uploadedAt"`
}

type DocumentRequest struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"orgId"`
	EmployeeID string    `json:"employeeId"`
	Type       string    `json:"type"`
	Note       string    `json:"note,omitempty"`
	DueAt      time.Time `json:"dueAt"`
	Fulfilled  bool      `json:"fulfilled"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DocumentRequestInput struct {
	OrgID      string    `json:"orgId"`
	EmployeeID string    `json:"employeeId"`
	Type       string    `json:"type"`
	Note       string    `json:"note"`
	DueAt      time.Time `json:"dueAt"`
}

func (in DocumentRequestInput) Validate() error {
	if in.OrgID == "" || in.EmployeeID == "" || in.Type == "" {
		return ErrMissingFields
	}
	return nil
}

var ErrInvalidDateRange = errors.New("expiry date precedes issue date")
