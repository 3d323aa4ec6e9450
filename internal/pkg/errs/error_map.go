/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Account and Credential Errors
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Invalid username."},
	ErrInvalidDisplayName: {Code: ErrInvalidDisplayName, Message: "Invalid display name."},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password."},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken."},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password."},
	ErrAlreadyLoggedIn:    {Code: ErrAlreadyLoggedIn, Message: "You are already signed in."},

	// 3xxx: Session and Security Errors
	ErrUnauthorized:    {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionReplaced: {Code: ErrSessionReplaced, Message: "You were signed in on another device."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
