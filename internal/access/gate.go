// Package access decides whether a route renders for the current identity.
package access

import (
	"net/url"

	"github.com/edushell/portal/internal/identity"
)

// Capability is the access level a route demands.
type Capability int

const (
	CapNone Capability = iota
	CapAuthenticated
	CapTeacher
)

func (c Capability) String() string {
	switch c {
	case CapNone:
		return "none"
	case CapAuthenticated:
		return "authenticated"
	case CapTeacher:
		return "teacher"
	}
	return "unknown"
}

type Outcome int

const (
	Render Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	if o == Render {
		return "render"
	}
	return "redirect"
}

// Decision is the gate's verdict. Location is set only for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Gate holds the redirect destinations. A single Gate is shared by every
// route so the teacher fallback stays consistent.
type Gate struct {
	LoginPath string
	HomePath  string
}

func NewGate() Gate {
	return Gate{LoginPath: "/login", HomePath: "/"}
}

// Evaluate decides for the given requirement and identity. requested is the
// path the caller asked for; it is carried to the login page as ?next=.
//
// Authentication is checked before role: an anonymous caller on a teacher
// route goes to login, an authenticated non-teacher goes home.
func (g Gate) Evaluate(required Capability, id identity.Identity, requested string) Decision {
	switch required {
	case CapNone:
		return Decision{Outcome: Render}
	case CapAuthenticated:
		if !id.Authenticated {
			return g.toLogin(requested)
		}
		return Decision{Outcome: Render}
	case CapTeacher:
		if !id.Authenticated {
			return g.toLogin(requested)
		}
		if !id.IsTeacher() {
			return Decision{Outcome: Redirect, Location: g.HomePath}
		}
		return Decision{Outcome: Render}
	}
	// Unknown requirements never render.
	return Decision{Outcome: Redirect, Location: g.HomePath}
}

func (g Gate) toLogin(requested string) Decision {
	loc := g.LoginPath
	if requested != "" {
		loc += "?next=" + url.QueryEscape(requested)
	}
	return Decision{Outcome: Redirect, Location: loc}
}
