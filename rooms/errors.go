package rooms

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomAlreadyStarted = errors.New("race already started")
	ErrRoomFull           = errors.New("room is full")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
)
