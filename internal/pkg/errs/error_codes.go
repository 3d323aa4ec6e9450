/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Account and Credential Errors
const (
	// ErrInvalidUsername indicates the username does not match the required format.
	ErrInvalidUsername = 2001

	// ErrInvalidDisplayName indicates the display name is empty or too long.
	ErrInvalidDisplayName = 2002

	// ErrInvalidPassword indicates the password length is outside the allowed range.
	ErrInvalidPassword = 2003

	// ErrUserAlreadyExists indicates that the requested username is already taken.
	ErrUserAlreadyExists = 2004

	// ErrInvalidCredentials indicates that the username/password combination is wrong.
	ErrInvalidCredentials = 2005

	// ErrAlreadyLoggedIn indicates that the request carried a valid identity where none was expected.
	ErrAlreadyLoggedIn = 2006
)

// 3xxx: Session and Security Errors
const (
	// ErrUnauthorized indicates a missing, malformed, expired or otherwise invalid identity token.
	ErrUnauthorized = 3001

	// ErrSessionReplaced indicates that the connection was closed because the same
	// identity opened a newer connection.
	ErrSessionReplaced = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
