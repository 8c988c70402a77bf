package domain

import (
	"errors"
	"testing"
	"time"
)

func TestLicenseStatusAt(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	l := License{IssuedAt: now.AddDate(-1, 0, 0)}

	l.ExpiresAt = now.AddDate(0, 6, 0)
	if got := l.StatusAt(now); got != LicenseActive {
		t.Fatalf("expected active, got %s", got)
	}

	l.ExpiresAt = now.Add(10 * 24 * time.Hour)
	if got := l.StatusAt(now); got != LicenseExpiring {
		t.Fatalf("expected expiring inside the 30-day window, got %s", got)
	}

	l.ExpiresAt = now.Add(-time.Hour)
	if got := l.StatusAt(now); got != LicenseExpired {
		t.Fatalf("expected expired, got %s", got)
	}

	// The boundary itself counts as expired.
	l.ExpiresAt = now
	if got := l.StatusAt(now); got != LicenseExpired {
		t.Fatalf("expected expired at the boundary, got %s", got)
	}
}

func TestLicenseInputValidate(t *testing.T) {
	in := LicenseInput{OrgID: "org_1", Name: "Business License", Number: "BL-1"}
	if err := in.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	in.IssuedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	in.ExpiresAt = in.IssuedAt.AddDate(0, -1, 0)
	if err := in.Validate(); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}

	if err := (LicenseInput{}).Validate(); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}
