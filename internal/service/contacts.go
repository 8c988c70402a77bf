package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"hradmin/internal/domain"
	"hradmin/internal/store"
	"hradmin/internal/util"
)

type ContactStore interface {
	InsertContact(ctx context.Context, in store.ContactInsert) error
	GetContactByEmail(ctx context.Context, orgID, email string) (domain.Contact, bool, error)
	ListContacts(ctx context.Context, orgID string) ([]domain.Contact, error)
	SetContactTags(ctx context.Context, contactID string, tags []string) error
	DeleteContact(ctx context.Context, contactID string) (bool, error)
}

var ErrDuplicateContact = errors.New("a contact with this email already exists")

// ContactService is the contact directory: list, search, tag filtering
// and recipient selection.
type ContactService struct {
	Store ContactStore
}

func (s *ContactService) Create(ctx context.Context, in domain.CreateContactInput) (domain.Contact, error) {
	if err := in.Validate(); err != nil {
		return domain.Contact{}, err
	}
	email := util.NormalizeEmail(in.Email)

	_, exists, err := s.Store.GetContactByEmail(ctx, in.OrgID, email)
	if err != nil {
		return domain.Contact{}, err
	}
	if exists {
		return domain.Contact{}, ErrDuplicateContact
	}

	c := domain.Contact{
		ID:        util.NewID("ct"),
		OrgID:     in.OrgID,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Company:   strings.TrimSpace(in.Company),
		Tags:      normalizeTags(in.Tags),
		CreatedAt: util.NowUTC(),
	}
	if err := s.Store.InsertContact(ctx, store.ContactInsert{
		ID: c.ID, OrgID: c.OrgID, Email: c.Email,
		FirstName: c.FirstName, LastName: c.LastName, Company: c.Company,
		Tags: c.Tags, Now: c.CreatedAt,
	}); err != nil {
		return domain.Contact{}, err
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, contactID string) error {
	deleted, err := s.Store.DeleteContact(ctx, contactID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *ContactService) SetTags(ctx context.Context, contactID string, tags []string) error {
	return s.Store.SetContactTags(ctx, contactID, normalizeTags(tags))
}

// Search filters by free-text query (name/email/company substring,
// case-insensitive) and an optional single tag (exact membership).
func (s *ContactService) Search(ctx context.Context, orgID, query, tag string) ([]domain.Contact, error) {
	all, err := s.Store.ListContacts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Contact, 0, len(all))
	for _, c := range all {
		if !c.Matches(query) {
			continue
		}
		if tag != "" && !c.HasTag(tag) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Tags returns the org's tag vocabulary: every distinct tag in use.
func (s *ContactService) Tags(ctx context.Context, orgID string) ([]string, error) {
	all, err := s.Store.ListContacts(ctx, orgID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var tags []string
	for _, c := range all {
		for _, t := range c.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags, nil
}

// AddByTag appends every contact carrying the tag to the recipient set,
// skipping emails already present. Calling it twice yields the same set
// as calling it once; the returned count is how many were newly added.
func (s *ContactService) AddByTag(ctx context.Context, orgID, tag string, current []domain.Recipient) ([]domain.Recipient, int, error) {
	tagged, err := s.Search(ctx, orgID, "", tag)
	if err != nil {
		return nil, 0, err
	}

	present := make(map[string]bool, len(current))
	for _, r := range current {
		present[util.NormalizeEmail(r.Email)] = true
	}

	added := 0
	out := current
	for _, c := range tagged {
		if present[c.Email] {
			continue
		}
		present[c.Email] = true
		out = append(out, domain.Recipient{Email: c.Email, Name: c.DisplayName()})
		added++
	}
	return out, added, nil
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV bulk-creates contacts from a CSV stream with the header
// email,firstName,lastName,company,tags (tags semicolon-separated).
// Row failures are reported per row; successfully imported rows stay.
func (s *ContactService) ImportCSV(ctx context.Context, orgID string, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["email"]; !ok {
		return ImportResult{}, errors.New("csv is missing the email column")
	}

	var res ImportResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			res.Skipped++
			continue
		}

		in := domain.CreateContactInput{
			OrgID:     orgID,
			Email:     field(record, col, "email"),
			FirstName: field(record, col, "firstname"),
			LastName:  field(record, col, "lastname"),
			Company:   field(record, col, "company"),
		}
		if raw := field(record, col, "tags"); raw != "" {
			in.Tags = strings.Split(raw, ";")
		}

		if _, err := s.Create(ctx, in); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d (%s): %v", line, in.Email, err))
			res.Skipped++
			continue
		}
		res.Imported++
	}
	return res, nil
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func normalizeTags(tags []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
