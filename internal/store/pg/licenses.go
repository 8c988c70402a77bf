package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/domain"
)

func (s *Store) InsertLicense(ctx context.Context, l domain.License) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO licenses (id, org_id, name, number, authority, state, issued_at, expires_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
	`, l.ID, l.OrgID, l.Name, l.Number, nullIfEmpty(l.Authority), nullIfEmpty(l.State), l.IssuedAt, l.ExpiresAt, l.CreatedAt)
	return err
}

func (s *Store) UpdateLicense(ctx context.Context, l domain.License) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE licenses SET name=$2, number=$3, authority=$4, state=$5, issued_at=$6, expires_at=$7, updated_at=$8
		WHERE id=$1
	`, l.ID, l.Name, l.Number, nullIfEmpty(l.Authority), nullIfEmpty(l.State), l.IssuedAt, l.ExpiresAt, l.UpdatedAt)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) GetLicense(ctx context.Context, id string) (domain.License, bool, error) {
	var l domain.License
	var authority, state *string
	row := s.DB.QueryRow(ctx, `
		SELECT id, org_id, name, number, authority, state, issued_at, expires_at, created_at, updated_at
		FROM licenses WHERE id=$1
	`, id)
	err := row.Scan(&l.ID, &l.OrgID, &l.Name, &l.Number, &authority, &state, &l.IssuedAt, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.License{}, false, nil
		}
		return domain.License{}, false, err
	}
	if authority != nil {
		l.Authority = *authority
	}
	if state != nil {
		l.State = *state
	}
	return l, true, nil
}

func (s *Store) ListLicenses(ctx context.Context, orgID string) ([]domain.License, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, name, number, authority, state, issued_at, expires_at, created_at, updated_at
		FROM licenses WHERE org_id=$1 ORDER BY expires_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.License
	for rows.Next() {
		var l domain.License
		var authority, state *string
		if err := rows.Scan(&l.ID, &l.OrgID, &l.Name, &l.Number, &authority, &state, &l.IssuedAt, &l.ExpiresAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		if authority != nil {
			l.Authority = *authority
		}
		if state != nil {
			l.State = *state
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) DeleteLicense(ctx context.Context, id string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM licenses WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
