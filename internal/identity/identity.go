// Package identity models the caller as seen by the access gate. Identities
// are minted by the external authentication provider as signed tokens; this
// package only verifies them and never stores credentials.
package identity

import (
	"context"
	"slices"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Identity is a read-only snapshot. The zero value is unauthenticated.
type Identity struct {
	Authenticated bool
	Subject       string
	Name          string
	Roles         []Role
}

func Anonymous() Identity {
	return Identity{}
}

func (i Identity) HasRole(r Role) bool {
	return i.Authenticated && slices.Contains(i.Roles, r)
}

func (i Identity) IsTeacher() bool {
	return i.HasRole(RoleTeacher)
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}
