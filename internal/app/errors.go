package app

import (
	"context"
	"errors"

	"doodleduel/internal/domain"
	"doodleduel/internal/store"
)

// Terminal session outcomes returned by Run
var (
	ErrRoomClosed      = errors.New("host ended the game")
	ErrKicked          = errors.New("removed from the room")
	ErrRoomUnavailable = errors.New("room data never arrived")
	ErrLeft            = errors.New("left the room")
)

// Action error codes beyond the domain ones
const (
	CodeRoomNotFound = "ROOM_NOT_FOUND"
	CodeBusy         = "ROOM_BUSY"
	CodeNetwork      = "NETWORK_ERROR"
)

// ActionError is what a failed player action surfaces to the UI
type ActionError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// newActionError converts err into a user-facing ActionError
func newActionError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *ActionError
	if errors.As(err, &existing) {
		return existing
	}

	ae := &ActionError{
		Op:      op,
		Code:    domain.ErrorCode(err),
		Message: domain.UserMessage(err),
		Err:     err,
	}
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		ae.Code, ae.Message = CodeRoomNotFound, "This room no longer exists"
	case errors.Is(err, store.ErrVersionConflict):
		ae.Code, ae.Message = CodeBusy, "The room is busy, please try again"
	case errors.Is(err, context.DeadlineExceeded):
		ae.Code, ae.Message = CodeNetwork, "Connection problem, please try again"
	}
	return ae
}
