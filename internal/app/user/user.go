/*
Package user contains core data structures related to user identity.

It defines the basic representation of a user within the voice system (the User struct),
used for passing user information both internally and to clients.
*/
package user

// User represents the basic identity information of a voice participant.
// Fields use JSON tags for serialization in WebSocket messages.
type User struct {
	// ID is the stable unique identifier for the user (the token subject).
	ID string `json:"id"`

	// Name is the display name shown in the online-user list.
	Name string `json:"name"`

	// IsOnline reports whether the user currently has a live signaling connection.
	IsOnline bool `json:"isOnline"`
}
