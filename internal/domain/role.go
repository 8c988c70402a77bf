package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Role struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	System      bool      `json:"system"`
	CreatedAt   time.Time `json:"createdAt"`
}

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

type User struct {
	ID        string     `json:"id"`
	OrgID     string     `json:"orgId"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	RoleID    string     `json:"roleId"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// reservedRoleNames cannot be created or deleted by tenants.
var reservedRoleNames = map[string]bool{
	"admin":      true,
	"owner":      true,
	"superadmin": true,
}

var roleNameRe = regexp.MustCompile(`^[A-Za-z0-9 _-]{2,40}$`)

var (
	ErrReservedRoleName  = errors.New("role name is reserved")
	ErrMalformedRoleName = errors.New("role name may only contain letters, digits, spaces, dashes and underscores (2-40 chars)")
	ErrDuplicateRoleName = errors.New("a role with this name already exists")
)

// ValidateRoleName enforces the client-side rules that must hold before
// any network or store call is made.
func ValidateRoleName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrMissingFields
	}
	if reservedRoleNames[strings.ToLower(trimmed)] {
		return ErrReservedRoleName
	}
	if !roleNameRe.MatchString(trimmed) {
		return ErrMalformedRoleName
	}
	return nil
}

// RoleInUseError rejects deletion of a role that users still hold. The
// message names the affected user count so the caller can surface it.
type RoleInUseError struct {
	RoleID string
	Users  int
}

func (e *RoleInUseError) Error() string {
	return fmt.Sprintf("role is assigned to %d user(s) and cannot be deleted", e.Users)
}
