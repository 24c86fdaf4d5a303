package models

import "strings"

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Identity is the authenticated caller as reported by the identity provider.
// A nil *Identity means the caller is anonymous.
type Identity struct {
	UserID string `json:"user_id"`
	Roles  []Role `json:"roles"`
}

func (i *Identity) Authenticated() bool {
	return i != nil && strings.TrimSpace(i.UserID) != ""
}

func (i *Identity) HasRole(role Role) bool {
	if !i.Authenticated() {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *Identity) IsAdmin() bool {
	return i.HasRole(RoleAdmin)
}
