// Package permission decides whether an identity may perform a request.
//
// Every policy answers with an explicit Decision. Anything a policy does not
// recognise as permitted is denied.
package permission

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/models"
)

type Decision bool

const (
	Deny   Decision = false
	Permit Decision = true
)

func (d Decision) Allowed() bool { return bool(d) }

func (d Decision) String() string {
	if d {
		return "permit"
	}
	return "deny"
}

// Identity is the acting party of a request. The zero value is anonymous.
type Identity struct {
	UserID   string
	Username string
	Role     models.Role
	IsStaff  bool
}

// Anonymous returns the unauthenticated identity.
func Anonymous() Identity { return Identity{} }

// FromUser builds an authenticated identity from a stored user.
func FromUser(u *models.User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		IsStaff:  u.IsStaff,
	}
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role.CanAdminister()
}

func (i Identity) IsModerator() bool {
	return i.Authenticated() && i.Role == models.RoleModerator
}

// Request is what a policy sees of an incoming request.
type Request struct {
	Method   string
	Identity Identity
}

// Owned is implemented by objects that have an author.
type Owned interface {
	OwnerID() string
}

// Policy is evaluated first against the request alone and then, once the
// target has been loaded, against the object.
type Policy interface {
	HasPermission(r Request) Decision
	HasObjectPermission(r Request, obj Owned) Decision
}

// IsSafeMethod reports whether method only reads.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AdminOnly permits authenticated admins and staff.
type AdminOnly struct{}

func (AdminOnly) HasPermission(r Request) Decision {
	id := r.Identity
	if id.Authenticated() && (id.IsAdmin() || id.IsStaff) {
		return Permit
	}
	return Deny
}

func (p AdminOnly) HasObjectPermission(r Request, _ Owned) Decision {
	return p.HasPermission(r)
}

// AdminOrReadOnly permits reads to everyone and writes to admins and staff.
type AdminOrReadOnly struct{}

func (AdminOrReadOnly) HasPermission(r Request) Decision {
	if IsSafeMethod(r.Method) {
		return Permit
	}
	id := r.Identity
	if id.Authenticated() && (id.IsStaff || id.IsAdmin()) {
		return Permit
	}
	return Deny
}

func (p AdminOrReadOnly) HasObjectPermission(r Request, _ Owned) Decision {
	return p.HasPermission(r)
}

// AuthorOrModeratorOrAdmin guards reviews and comments: anyone reads, any
// authenticated user creates, authors edit their own objects and moderators,
// admins and staff edit everything.
type AuthorOrModeratorOrAdmin struct{}

func (AuthorOrModeratorOrAdmin) HasPermission(r Request) Decision {
	if IsSafeMethod(r.Method) || r.Identity.Authenticated() {
		return Permit
	}
	return Deny
}

func (AuthorOrModeratorOrAdmin) HasObjectPermission(r Request, obj Owned) Decision {
	id := r.Identity
	if id.Authenticated() {
		switch {
		case id.IsStaff, id.IsAdmin(), id.IsModerator():
			return Permit
		case obj != nil && obj.OwnerID() == id.UserID:
			return Permit
		case r.Method == http.MethodPost:
			return Permit
		}
		return Deny
	}
	if IsSafeMethod(r.Method) {
		return Permit
	}
	return Deny
}

// IsAuthenticated permits any authenticated identity.
type IsAuthenticated struct{}

func (IsAuthenticated) HasPermission(r Request) Decision {
	if r.Identity.Authenticated() {
		return Permit
	}
	return Deny
}

func (p IsAuthenticated) HasObjectPermission(r Request, _ Owned) Decision {
	return p.HasPermission(r)
}
