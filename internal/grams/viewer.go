package grams

// Viewer is the authorization context of one request: either anonymous or
// a signed-in user.
type Viewer struct {
	userID int64
	email  string
}

// Anonymous returns a viewer without a signed-in user.
func Anonymous() Viewer {
	return Viewer{}
}

// SignedIn returns a viewer acting as the given user.
func SignedIn(userID int64, email string) Viewer {
	return Viewer{userID: userID, email: email}
}

// Authenticated reports whether a user is signed in.
func (v Viewer) Authenticated() bool {
	return v.userID > 0
}

// UserID returns the signed-in user id.
func (v Viewer) UserID() (int64, bool) {
	return v.userID, v.Authenticated()
}

// Email returns the signed-in user's email, or "" for anonymous viewers.
func (v Viewer) Email() string {
	return v.email
}
