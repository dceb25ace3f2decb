package chat

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidJoin       = errors.New("username and room name are required")
	ErrAlreadyJoined     = errors.New("connection already joined a room")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrPasswordMismatch  = errors.New("wrong room password")
	ErrNotAuthorized     = errors.New("only the host can do that")
	ErrNotMember         = errors.New("connection is not in a room")
	ErrUnknownTarget     = errors.New("target is not a member of the room")
	ErrRateLimited       = errors.New("message rate limit exceeded")
	ErrInvalidKind       = errors.New("invalid message type")
	ErrShuttingDown      = errors.New("server is shutting down")
)

// PasswordError is returned by Join when an existing room rejects the
// supplied password. Nothing about the room changes.
type PasswordError struct {
	Room string
}

func (e *PasswordError) Error() string {
	return fmt.Sprintf("room %q: %v", e.Room, ErrPasswordMismatch)
}

func (e *PasswordError) Is(target error) bool {
	return target == ErrPasswordMismatch
}

// userMessage is what the joiner is shown.
func (e *PasswordError) userMessage() string {
	return "Wrong password!"
}
