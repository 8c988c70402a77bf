package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hradmin/internal/domain"
	"hradmin/internal/util"
)

type RoleStore interface {
	InsertRole(ctx context.Context, r domain.Role) error
	UpdateRole(ctx context.Context, roleID, name string, permissions []string) (bool, error)
	DeleteRole(ctx context.Context, roleID string) (bool, error)
	GetRole(ctx context.Context, roleID string) (domain.Role, bool, error)
	GetRoleByName(ctx context.Context, orgID, name string) (domain.Role, bool, error)
	ListRoles(ctx context.Context, orgID string) ([]domain.Role, error)
	CountUsersWithRole(ctx context.Context, roleID string) (int, error)

	InsertUser(ctx context.Context, u domain.User) error
	ListUsers(ctx context.Context, orgID string) ([]domain.User, error)
	SetUserRole(ctx context.Context, userID, roleID string) (bool, error)
	SetUserStatus(ctx context.Context, userID, status string) (bool, error)
	DeleteUser(ctx context.Context, userID string) (bool, error)

	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	GetOrganization(ctx context.Context, orgID string) (domain.Organization, bool, error)
	DeleteOrgUsers(ctx context.Context, orgID string) (int, error)
	DeleteOrgRoles(ctx context.Context, orgID string) (int, error)
	DeleteOrganization(ctx context.Context, orgID string) (bool, error)
}

var (
	ErrConfirmMismatch = errors.New("confirmation does not match the organization name")
	ErrSystemRole      = errors.New("system roles cannot be modified")
)

// RoleService covers role, user and organization administration. All
// validation runs before any store mutation.
type RoleService struct {
	Store RoleStore
}

func (s *RoleService) ListRoles(ctx context.Context, orgID string) ([]domain.Role, error) {
	return s.Store.ListRoles(ctx, orgID)
}

func (s *RoleService) ListUsers(ctx context.Context, orgID string) ([]domain.User, error) {
	return s.Store.ListUsers(ctx, orgID)
}

func (s *RoleService) CreateRole(ctx context.Context, orgID, name string, permissions []string) (domain.Role, error) {
	if err := domain.ValidateRoleName(name); err != nil {
		return domain.Role{}, err
	}
	name = strings.TrimSpace(name)

	_, exists, err := s.Store.GetRoleByName(ctx, orgID, name)
	if err != nil {
		return domain.Role{}, err
	}
	if exists {
		return domain.Role{}, domain.ErrDuplicateRoleName
	}

	r := domain.Role{
		ID:          util.NewID("rol"),
		OrgID:       orgID,
		Name:        name,
		Permissions: permissions,
		CreatedAt:   util.NowUTC(),
	}
	if err := s.Store.InsertRole(ctx, r); err != nil {
		return domain.Role{}, err
	}
	return r, nil
}

func (s *RoleService) UpdateRole(ctx context.Context, roleID, name string, permissions []string) error {
	if err := domain.ValidateRoleName(name); err != nil {
		return err
	}
	role, found, err := s.Store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}
	if role.System {
		return ErrSystemRole
	}
	if !strings.EqualFold(role.Name, name) {
		_, exists, err := s.Store.GetRoleByName(ctx, role.OrgID, name)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRoleName
		}
	}

	updated, err := s.Store.UpdateRole(ctx, roleID, strings.TrimSpace(name), permissions)
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteRole refuses, before any delete is issued, to remove a role
// that users still hold; the error carries the affected user count.
func (s *RoleService) DeleteRole(ctx context.Context, roleID string) error {
	role, found, err := s.Store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}
	if role.System {
		return ErrSystemRole
	}

	assigned, err := s.Store.CountUsersWithRole(ctx, roleID)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return &domain.RoleInUseError{RoleID: roleID, Users: assigned}
	}

	deleted, err := s.Store.DeleteRole(ctx, roleID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RoleService) OnboardUser(ctx context.Context, orgID, email, name, roleID string) (domain.User, error) {
	if orgID == "" || email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrMissingFields
	}
	if roleID != "" {
		_, found, err := s.Store.GetRole(ctx, roleID)
		if err != nil {
			return domain.User{}, err
		}
		if !found {
			return domain.User{}, fmt.Errorf("role %s: %w", roleID, domain.ErrNotFound)
		}
	}
	u := domain.User{
		ID:        util.NewID("usr"),
		OrgID:     orgID,
		Email:     util.NormalizeEmail(email),
		Name:      strings.TrimSpace(name),
		RoleID:    roleID,
		Status:    domain.UserActive,
		CreatedAt: util.NowUTC(),
	}
	if err := s.Store.InsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *RoleService) SetUserRole(ctx context.Context, userID, roleID string) error {
	if roleID != "" {
		_, found, err := s.Store.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("role %s: %w", roleID, domain.ErrNotFound)
		}
	}
	updated, err := s.Store.SetUserRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RoleService) SetUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	if status != domain.UserActive && status != domain.UserDisabled {
		return domain.ErrMissingFields
	}
	updated, err := s.Store.SetUserStatus(ctx, userID, string(status))
	if err != nil {
		return err
	}
	if !updated {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RoleService) DeleteUser(ctx context.Context, userID string) error {
	deleted, err := s.Store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *RoleService) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.Store.ListOrganizations(ctx)
}

// OrgDeleteReport lists each sub-step's outcome. Steps that succeeded
// before a later failure are NOT rolled back; the report says exactly
// what happened.
type OrgDeleteReport struct {
	UsersRemoved int      `json:"usersRemoved"`
	RolesRemoved int      `json:"rolesRemoved"`
	OrgRemoved   bool     `json:"orgRemoved"`
	Errors       []string `json:"errors,omitempty"`
}

// DeleteOrganization is irreversible and therefore requires the caller
// to retype the exact organization name.
func (s *RoleService) DeleteOrganization(ctx context.Context, orgID, confirmName string) (OrgDeleteReport, error) {
	org, found, err := s.Store.GetOrganization(ctx, orgID)
	if err != nil {
		return OrgDeleteReport{}, err
	}
	if !found {
		return OrgDeleteReport{}, domain.ErrNotFound
	}
	if confirmName != org.Name {
		return OrgDeleteReport{}, ErrConfirmMismatch
	}

	var report OrgDeleteReport
	if n, err := s.Store.DeleteOrgUsers(ctx, orgID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("remove users: %v", err))
	} else {
		report.UsersRemoved = n
	}
	if n, err := s.Store.DeleteOrgRoles(ctx, orgID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("remove roles: %v", err))
	} else {
		report.RolesRemoved = n
	}
	if ok, err := s.Store.DeleteOrganization(ctx, orgID); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("remove organization: %v", err))
	} else {
		report.OrgRemoved = ok
	}
	return report, nil
}
