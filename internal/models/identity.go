package models

// Identity is the authenticated user on whose behalf the core talks to the backing store
type Identity struct {
	UserID string
	Token  string
}

// Anonymous is the identity used when no bearer token was presented
var Anonymous = Identity{}

// IsAuthenticated reports whether the identity carries both a user id and a bearer token
func (i Identity) IsAuthenticated() bool {
	return i.UserID != "" && i.Token != ""
}
