package policy

// Identity is the authenticated caller of a request. A nil *Identity is an anonymous visitor.
type Identity struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// Authenticated reports whether the identity belongs to a logged-in user.
func (i *Identity) Authenticated() bool {
	return i != nil && i.UserID != 0
}

// Is reports whether the identity is the user with the given id.
func (i *Identity) Is(userID uint) bool {
	return i.Authenticated() && i.UserID == userID
}
