package pg

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"hradmin/internal/domain"
)

func (s *Store) InsertRole(ctx context.Context, r domain.Role) error {
	perms, _ := json.Marshal(r.Permissions)
	_, err := s.DB.Exec(ctx, `
		INSERT INTO roles (id, org_id, name, permissions_json, is_system, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, r.ID, r.OrgID, r.Name, perms, r.System, r.CreatedAt)
	return err
}

func (s *Store) UpdateRole(ctx context.Context, roleID, name string, permissions []string) (bool, error) {
	perms, _ := json.Marshal(permissions)
	ct, err := s.DB.Exec(ctx, `
		UPDATE roles SET name=$2, permissions_json=$3 WHERE id=$1 AND NOT is_system
	`, roleID, name, perms)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM roles WHERE id=$1 AND NOT is_system`, roleID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) GetRole(ctx context.Context, roleID string) (domain.Role, bool, error) {
	var r domain.Role
	var perms []byte
	row := s.DB.QueryRow(ctx, `
		SELECT id, org_id, name, permissions_json, is_system, created_at FROM roles WHERE id=$1
	`, roleID)
	err := row.Scan(&r.ID, &r.OrgID, &r.Name, &perms, &r.System, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Role{}, false, nil
		}
		return domain.Role{}, false, err
	}
	_ = json.Unmarshal(perms, &r.Permissions)
	return r, true, nil
}

func (s *Store) GetRoleByName(ctx context.Context, orgID, name string) (domain.Role, bool, error) {
	var r domain.Role
	var perms []byte
	row := s.DB.QueryRow(ctx, `
		SELECT id, org_id, name, permissions_json, is_system, created_at
		FROM roles WHERE org_id=$1 AND lower(name)=lower($2)
	`, orgID, name)
	err := row.Scan(&r.ID, &r.OrgID, &r.Name, &perms, &r.System, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Role{}, false, nil
		}
		return domain.Role{}, false, err
	}
	_ = json.Unmarshal(perms, &r.Permissions)
	return r, true, nil
}

func (s *Store) ListRoles(ctx context.Context, orgID string) ([]domain.Role, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, name, permissions_json, is_system, created_at
		FROM roles WHERE org_id=$1 ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Role
	for rows.Next() {
		var r domain.Role
		var perms []byte
		if err := rows.Scan(&r.ID, &r.OrgID, &r.Name, &perms, &r.System, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(perms, &r.Permissions)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountUsersWithRole backs the delete guard: a role held by anyone may
// not be removed.
func (s *Store) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `SELECT count(*) FROM users WHERE role_id=$1`, roleID).Scan(&n)
	return n, err
}

func (s *Store) InsertUser(ctx context.Context, u domain.User) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO users (id, org_id, email, name, role_id, status, created_at)
		VALUES ($1,$2,lower($3),$4,$5,$6,$7)
	`, u.ID, u.OrgID, u.Email, u.Name, nullIfEmpty(u.RoleID), u.Status, u.CreatedAt)
	return err
}

func (s *Store) ListUsers(ctx context.Context, orgID string) ([]domain.User, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, org_id, email, name, COALESCE(role_id,''), status, created_at
		FROM users WHERE org_id=$1 ORDER BY email
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.OrgID, &u.Email, &u.Name, &u.RoleID, &u.Status, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetUserRole(ctx context.Context, userID, roleID string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `UPDATE users SET role_id=$2 WHERE id=$1`, userID, nullIfEmpty(roleID))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) SetUserStatus(ctx context.Context, userID, status string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `UPDATE users SET status=$2 WHERE id=$1`, userID, status)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Store) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, created_at FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Organization
	for rows.Next() {
		var o domain.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOrganization(ctx context.Context, orgID string) (domain.Organization, bool, error) {
	var o domain.Organization
	row := s.DB.QueryRow(ctx, `SELECT id, name, created_at FROM organizations WHERE id=$1`, orgID)
	err := row.Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organization{}, false, nil
		}
		return domain.Organization{}, false, err
	}
	return o, true, nil
}

func (s *Store) DeleteOrgUsers(ctx context.Context, orgID string) (int, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM users WHERE org_id=$1`, orgID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (s *Store) DeleteOrgRoles(ctx context.Context, orgID string) (int, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM roles WHERE org_id=$1`, orgID)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func (s *Store) DeleteOrganization(ctx context.Context, orgID string) (bool, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM organizations WHERE id=$1`, orgID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
