package domain

import (
	"strings"
	"time"
)

type Contact struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Company   string    `json:"company,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Contact) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		return c.Email
	}
	return name
}

// HasTag is an exact-membership check, case-insensitive.
func (c Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Matches reports whether the contact matches a free-text query over
// name, email and company, case-insensitive substring.
func (c Contact) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Company, c.DisplayName()} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

type CreateContactInput struct {
	OrgID     string   `json:"orgId"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Company   string   `json:"company"`
	Tags      []string `json:"tags"`
}

func (in CreateContactInput) Validate() error {
	if in.OrgID == "" || in.Email == "" {
		return ErrMissingFields
	}
	if !strings.Contains(in.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}
