package kv

import "strings"

// Identity selects the namespace a value belongs to: the anonymous context or a signed-in user.
type Identity struct {
	UserID string
}

// Anonymous is the identity of callers that did not present a user id.
var Anonymous = Identity{}

// UserIdentity returns the identity of userID. A blank id is anonymous.
func UserIdentity(userID string) Identity {
	return Identity{UserID: strings.TrimSpace(userID)}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	return "user:" + i.UserID
}

// Key namespaces prefix for the identity: prefix itself when anonymous, prefix_user_<id> otherwise.
func (i Identity) Key(prefix string) string {
	if i.IsAnonymous() {
		return prefix
	}
	return prefix + "_user_" + i.UserID
}
