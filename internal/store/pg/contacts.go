package pg

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/domain"
	"hradmin/internal/store"
)

func (s *Store) InsertContact(ctx context.Context, in store.ContactInsert) error {
	tags, _ := json.Marshal(in.Tags)
	_, err := s.DB.Exec(ctx, `
		INSERT INTO contacts (id, org_id, email, first_name, last_name, company, tags_json, created_at)
		VALUES ($1,$2,lower($3),$4,$5,$6,$7,$8)
	`, in.ID, in.OrgID, in.Email, in.FirstName, in.LastName, nullIfEmpty(in.Company), tags, in.Now)
	return err
}

func (s *Store) GetContactByEmail(ctx context.Context, orgID, email string) (domain.Contact, bool, error) {
	var c domain.Contact
	var tagsJSON []byte
	var company *string
	row := s.DB.QueryRow(ctx, `
		SELECT id, org_id, email, first_name, last_name, company, tags_json, created_at
		FROM contacts WHERE org_id=$1 AND email=lower($2)
	`, orgID, email)
	err := row.Scan(&c.ID, &c.OrgID, &c.Email, &c.FirstName, &c.LastName, &company, &tagsJSON, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Contact{}, false, nil
		}
		return domain.Contact{}, false, err
	}
	if company != nil {
		c.Company = *company
	}
	_ = json.Unmarshal(tagsJSON, &c.Tags)
	return c, true, nil
}

func (s *Store) ListContacts(ctx context.Context, orgID string) ([]domain.Contact, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, email, first_name, last_name, company, tags_json, created_at
		FROM contacts WHERE org_id=$1 ORDER BY email
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		var tagsJSON []byte
		var company *string
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Email, &c.FirstName, &c.LastName, &company, &tagsJSON, &c.CreatedAt); err != nil {
			return nil, err
		}
		if company != nil {
			c.Company = *company
		}
		_ = json.Unmarshal(tagsJSON, &c.Tags)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SetContactTags(ctx context.Context, contactID string, tags []string) error {
	b, _ := json.Marshal(tags)
	_, err := s.DB.Exec(ctx, `UPDATE contacts SET tags_json=$2 WHERE id=$1`, contactID, b)
	return err
}

func (s *Store) DeleteContact(ctx context.Context, contactID string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM contacts WHERE id=$1`, contactID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) InsertCategory(ctx context.Context, orgID, name string) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO categories (org_id, name, created_at)
		VALUES ($1,lower($2),now())
		ON CONFLICT (org_id, name) DO NOTHING
	`, orgID, name)
	return err
}

func (s *Store) DeleteCategory(ctx context.Context, orgID, name string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM categories WHERE org_id=$1 AND name=lower($2)`, orgID, name)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) ListCategories(ctx context.Context, orgID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT name FROM categories WHERE org_id=$1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
