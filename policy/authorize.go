package policy

import (
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// Op names a mutation guarded by Authorize.
type Op int

const (
	CreatePost Op = iota + 1
	EditPost
	DeletePost
	CreateComment
	EditComment
	DeleteComment
	EditProfile
	ChangePassword
	ManageTaxonomy
)

// Reason explains a denial.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonNotOwner
	ReasonNotAdmin
)

func (r Reason) String() string {
	switch r {
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonNotOwner:
		return "not owner"
	case ReasonNotAdmin:
		return "not admin"
	default:
		return "none"
	}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

var allow = Decision{Allowed: true}

func deny(r Reason) Decision { return Decision{Reason: r} }

// Err converts a denial to the shared error taxonomy; nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return utils.ErrUnauthenticated
	default:
		return utils.ErrForbidden
	}
}

// Authorize decides whether who may perform op on resource.
// resource is a *models.Post, *models.Comment or *models.User depending on op, and may be nil for creations.
func Authorize(op Op, who *Identity, resource interface{}) Decision {
	if !who.Authenticated() {
		return deny(ReasonUnauthenticated)
	}
	switch op {
	case CreatePost, CreateComment, ChangePassword:
		return allow
	case EditPost, DeletePost:
		p, ok := resource.(*models.Post)
		if !ok || p == nil || !who.Is(p.AuthorID) {
			return deny(ReasonNotOwner)
		}
		return allow
	case EditComment, DeleteComment:
		c, ok := resource.(*models.Comment)
		if !ok || c == nil || !who.Is(c.AuthorID) {
			return deny(ReasonNotOwner)
		}
		return allow
	case EditProfile:
		u, ok := resource.(*models.User)
		if !ok || u == nil || !who.Is(u.ID) {
			return deny(ReasonNotOwner)
		}
		return allow
	case ManageTaxonomy:
		if !who.IsAdmin {
			return deny(ReasonNotAdmin)
		}
		return allow
	}
	return deny(ReasonNotOwner)
}
