package domain

import "errors"

// Domain errors
var (
	ErrRoomFull          = errors.New("room is full")
	ErrNotEnoughPlayers  = errors.New("not enough players to start")
	ErrAlreadySubmitted  = errors.New("already submitted this round")
	ErrAlreadyVoted      = errors.New("already voted this round")
	ErrInvalidPhase      = errors.New("invalid action for current phase")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrNotHost           = errors.New("only host can perform this action")
	ErrNotUploader       = errors.New("only the uploader can submit the image")
	ErrNotSaboteur       = errors.New("only the saboteur can choose a sabotage")
	ErrNotActive         = errors.New("player is not part of the current round")
	ErrNotWaiting        = errors.New("player is not waiting to join")
	ErrCannotVoteSelf    = errors.New("cannot vote for yourself")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrInvalidSettings   = errors.New("invalid room settings")
	ErrInvalidEffect     = errors.New("invalid sabotage effect")
	ErrEmptyImage        = errors.New("image url cannot be empty")
	ErrCannotKickSelf    = errors.New("host cannot kick themselves")
)

// Error codes
const (
	CodeRoomFull       = "ROOM_FULL"
	CodeNotEnough      = "NOT_ENOUGH_PLAYERS"
	CodeAlreadySubmit  = "ALREADY_SUBMITTED"
	CodeAlreadyVoted   = "ALREADY_VOTED"
	CodeInvalidAction  = "INVALID_ACTION"
	CodeNotHost        = "NOT_HOST"
	CodeNotAllowed     = "NOT_ALLOWED"
	CodeCannotVoteSelf = "CANNOT_VOTE_SELF"
	CodeInvalidInput   = "INVALID_INPUT"
	CodePlayerNotFound = "PLAYER_NOT_FOUND"
	CodeInternalError  = "INTERNAL_ERROR"
)

var errorMessages = []struct {
	err     error
	code    string
	message string
}{
	{ErrRoomFull, CodeRoomFull, "This room is full"},
	{ErrNotEnoughPlayers, CodeNotEnough, "Not enough players to start"},
	{ErrAlreadySubmitted, CodeAlreadySubmit, "You have already submitted"},
	{ErrAlreadyVoted, CodeAlreadyVoted, "You have already voted"},
	{ErrInvalidPhase, CodeInvalidAction, "You can't do that right now"},
	{ErrInvalidTransition, CodeInvalidAction, "You can't do that right now"},
	{ErrNotHost, CodeNotHost, "Only the host can do that"},
	{ErrNotUploader, CodeNotAllowed, "Only the uploader can choose the image"},
	{ErrNotSaboteur, CodeNotAllowed, "Only the saboteur can choose a sabotage"},
	{ErrNotActive, CodeNotAllowed, "You are not playing this round"},
	{ErrNotWaiting, CodeNotAllowed, "You are already playing"},
	{ErrCannotKickSelf, CodeNotAllowed, "You can't kick yourself"},
	{ErrCannotVoteSelf, CodeCannotVoteSelf, "You can't vote for yourself"},
	{ErrInvalidTarget, CodeInvalidInput, "Pick another player"},
	{ErrInvalidSettings, CodeInvalidInput, "Those settings are out of range"},
	{ErrInvalidEffect, CodeInvalidInput, "Pick a valid sabotage"},
	{ErrEmptyImage, CodeInvalidInput, "Choose an image first"},
	{ErrPlayerNotFound, CodePlayerNotFound, "Player not found"},
}

// ErrorCode maps a domain error to a stable code
func ErrorCode(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return CodeInternalError
}

// UserMessage maps a domain error to a message fit for a toast
func UserMessage(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return "Something went wrong, please try again"
}
