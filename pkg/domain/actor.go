package domain

// Actor is the authenticated principal attached to a request, as established
// by the auth middleware. It is what services check authorization against.
type Actor struct {
	ID   RegistrantID
	Role Role
}
