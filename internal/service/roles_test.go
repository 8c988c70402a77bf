package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hradmin/internal/domain"
)

type fakeRoleStore struct {
	roles map[string]domain.Role
	users map[string]domain.User
	orgs  map[string]domain.Organization

	deletedRoles []string
}

func newFakeRoleStore() *fakeRoleStore {
	return &fakeRoleStore{
		roles: map[string]domain.Role{},
		users: map[string]domain.User{},
		orgs:  map[string]domain.Organization{},
	}
}

func (f *fakeRoleStore) InsertRole(ctx context.Context, r domain.Role) error {
	f.roles[r.ID] = r
	return nil
}

func (f *fakeRoleStore) UpdateRole(ctx context.Context, roleID, name string, permissions []string) (bool, error) {
	r, ok := f.roles[roleID]
	if !ok {
		return false, nil
	}
	r.Name, r.Permissions = name, permissions
	f.roles[roleID] = r
	return true, nil
}

func (f *fakeRoleStore) DeleteRole(ctx context.Context, roleID string) (bool, error) {
	if _, ok := f.roles[roleID]; !ok {
		return false, nil
	}
	delete(f.roles, roleID)
	f.deletedRoles = append(f.deletedRoles, roleID)
	return true, nil
}

func (f *fakeRoleStore) GetRole(ctx context.Context, roleID string) (domain.Role, bool, error) {
	r, ok := f.roles[roleID]
	return r, ok, nil
}

func (f *fakeRoleStore) GetRoleByName(ctx context.Context, orgID, name string) (domain.Role, bool, error) {
	for _, r := range f.roles {
		if r.OrgID == orgID && r.Name == name {
			return r, true, nil
		}
	}
	return domain.Role{}, false, nil
}

func (f *fakeRoleStore) ListRoles(ctx context.Context, orgID string) ([]domain.Role, error) {
	var out []domain.Role
	for _, r := range f.roles {
		if r.OrgID == orgID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRoleStore) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	n := 0
	for _, u := range f.users {
		if u.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRoleStore) InsertUser(ctx context.Context, u domain.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeRoleStore) ListUsers(ctx context.Context, orgID string) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.OrgID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRoleStore) SetUserRole(ctx context.Context, userID, roleID string) (bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	u.RoleID = roleID
	f.users[userID] = u
	return true, nil
}

func (f *fakeRoleStore) SetUserStatus(ctx context.Context, userID, status string) (bool, error) {
	u, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	u.Status = domain.UserStatus(status)
	f.users[userID] = u
	return true, nil
}

func (f *fakeRoleStore) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if _, ok := f.users[userID]; !ok {
		return false, nil
	}
	delete(f.users, userID)
	return true, nil
}

func (f *fakeRoleStore) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	var out []domain.Organization
	for _, o := range f.orgs {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeRoleStore) GetOrganization(ctx context.Context, orgID string) (domain.Organization, bool, error) {
	o, ok := f.orgs[orgID]
	return o, ok, nil
}

func (f *fakeRoleStore) DeleteOrgUsers(ctx context.Context, orgID string) (int, error) {
	n := 0
	for id, u := range f.users {
		if u.OrgID == orgID {
			delete(f.users, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRoleStore) DeleteOrgRoles(ctx context.Context, orgID string) (int, error) {
	n := 0
	for id, r := range f.roles {
		if r.OrgID == orgID {
			delete(f.roles, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRoleStore) DeleteOrganization(ctx context.Context, orgID string) (bool, error) {
	if _, ok := f.orgs[orgID]; !ok {
		return false, nil
	}
	delete(f.orgs, orgID)
	return true, nil
}

func TestCreateRoleValidation(t *testing.T) {
	svc := &RoleService{Store: newFakeRoleStore()}
	ctx := context.Background()

	if _, err := svc.CreateRole(ctx, "org_1", "Admin", nil); !errors.Is(err, domain.ErrReservedRoleName) {
		t.Fatalf("expected reserved-name rejection, got %v", err)
	}
	if _, err := svc.CreateRole(ctx, "org_1", "x", nil); !errors.Is(err, domain.ErrMalformedRoleName) {
		t.Fatalf("expected malformed-name rejection, got %v", err)
	}
	if _, err := svc.CreateRole(ctx, "org_1", "HR Manager", []string{"contacts:read"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateRole(ctx, "org_1", "HR Manager", nil); !errors.Is(err, domain.ErrDuplicateRoleName) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestDeleteRoleInUseCountsUsersAndDeletesNothing(t *testing.T) {
	st := newFakeRoleStore()
	svc := &RoleService{Store: st}
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "org_1", "Recruiter", nil)
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.OnboardUser(ctx, "org_1", string(rune('a'+i))+"@x.com", "", role.ID); err != nil {
			t.Fatalf("onboard: %v", err)
		}
	}

	err = svc.DeleteRole(ctx, role.ID)
	var inUse *domain.RoleInUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("expected RoleInUseError, got %v", err)
	}
	if inUse.Users != 3 {
		t.Fatalf("expected 3 affected users, got %d", inUse.Users)
	}
	if len(st.deletedRoles) != 0 {
		t.Fatal("no delete may be issued while the role is in use")
	}

	// Freeing the role makes the delete go through.
	for id := range st.users {
		if _, err := st.SetUserRole(ctx, id, ""); err != nil {
			t.Fatalf("unassign: %v", err)
		}
	}
	if err := svc.DeleteRole(ctx, role.ID); err != nil {
		t.Fatalf("delete after unassign: %v", err)
	}
}

func TestSystemRoleCannotBeModified(t *testing.T) {
	st := newFakeRoleStore()
	st.roles["rol_sys"] = domain.Role{ID: "rol_sys", OrgID: "org_1", Name: "Org Admin", System: true}
	svc := &RoleService{Store: st}
	ctx := context.Background()

	if err := svc.UpdateRole(ctx, "rol_sys", "Renamed", nil); !errors.Is(err, ErrSystemRole) {
		t.Fatalf("expected ErrSystemRole on update, got %v", err)
	}
	if err := svc.DeleteRole(ctx, "rol_sys"); !errors.Is(err, ErrSystemRole) {
		t.Fatalf("expected ErrSystemRole on delete, got %v", err)
	}
}

func TestDeleteOrganizationRequiresTypedName(t *testing.T) {
	st := newFakeRoleStore()
	st.orgs["org_1"] = domain.Organization{ID: "org_1", Name: "Acme HR", CreatedAt: time.Now()}
	svc := &RoleService{Store: st}
	ctx := context.Background()

	if _, err := svc.DeleteOrganization(ctx, "org_1", "acme hr"); !errors.Is(err, ErrConfirmMismatch) {
		t.Fatalf("case-insensitive match must not pass, got %v", err)
	}

	role, err := svc.CreateRole(ctx, "org_1", "Recruiter", nil)
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := svc.OnboardUser(ctx, "org_1", "a@x.com", "", role.ID); err != nil {
		t.Fatalf("onboard: %v", err)
	}

	report, err := svc.DeleteOrganization(ctx, "org_1", "Acme HR")
	if err != nil {
		t.Fatalf("delete org: %v", err)
	}
	if report.UsersRemoved != 1 || report.RolesRemoved != 1 || !report.OrgRemoved {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("expected clean delete, got errors %v", report.Errors)
	}
}

func TestOnboardUserChecksRoleExists(t *testing.T) {
	svc := &RoleService{Store: newFakeRoleStore()}
	if _, err := svc.OnboardUser(context.Background(), "org_1", "a@x.com", "A", "rol_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not-found role rejection, got %v", err)
	}
}
