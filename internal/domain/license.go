package domain

import "time"

type LicenseStatus string

const (
	LicenseActive   LicenseStatus = "active"
	LicenseExpiring LicenseStatus = "expiring"
	LicenseExpired  LicenseStatus = "expired"
)

// ExpiringWindow is how close to expiry a license is flagged "expiring".
const ExpiringWindow = 30 * 24 * time.Hour

type License struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Name      string    `json:"name"`
	Number    string    `json:"number"`
	Authority string    `json:"authority"`
	State     string    `json:"state"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusAt derives the license status; it is never stored.
func (l License) StatusAt(now time.Time) LicenseStatus {
	switch {
	case !now.Before(l.ExpiresAt):
		return LicenseExpired
	case l.ExpiresAt.Sub(now) <= ExpiringWindow:
		return LicenseExpiring
	default:
		return LicenseActive
	}
}

type LicenseInput struct {
	OrgID     string    `json:"orgId"`
	Name      string    `json:"name"`
	Number    string    `json:"number"`
	Authority string    `json:"authority"`
	State     string    `json:"state"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (in LicenseInput) Validate() error {
	if in.OrgID == "" || in.Name == "" || in.Number == "" {
		return ErrMissingFields
	}
	if !in.ExpiresAt.IsZero() && !in.IssuedAt.IsZero() && in.ExpiresAt.Before(in.IssuedAt) {
		return ErrInvalidDateRange
	}
	return nil
}
