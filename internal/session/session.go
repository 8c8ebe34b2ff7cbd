// Package session defines the authenticated principal passed explicitly
// into services and controllers. There is no ambient current-user state;
// ownership checks always run against a Principal value handed in by the
// caller.
package session

// Principal is the currently authenticated identity.
type Principal struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Owns reports whether the principal is the author identified by userID.
func (p Principal) Owns(userID string) bool {
	return p.ID != "" && p.ID == userID
}
