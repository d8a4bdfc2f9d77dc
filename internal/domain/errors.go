package domain

import "errors"

// These texts go to clients verbatim, so they are part of the wire protocol.
// The tier check runs before the password check; a non-premium caller never
// learns whether a password was correct.
var (
	ErrRoomNotFound    = errors.New("Room not found")
	ErrPremiumRequired = errors.New("This is a private room. Premium membership required.")
	ErrWrongPassword   = errors.New("Incorrect room password")
	ErrChatForbidden   = errors.New("Your account is not allowed to send messages")
)
