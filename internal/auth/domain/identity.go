package domain

// Identity is what a session knows about its caller.
type Identity struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	IsSuperuser     bool   `json:"is_superuser"`
	Username        string `json:"username,omitempty"` // Empty for anonymous sessions
}

// AnonymousIdentity is the identity of a session with nobody logged in.
func AnonymousIdentity() Identity {
	return Identity{}
}

// IdentityFor builds the authenticated identity for u.
func IdentityFor(u User) Identity {
	return Identity{
		IsAuthenticated: true,
		IsSuperuser:     u.Superuser,
		Username:        u.Username,
	}
}
