package server

import "errors"

var (
	ErrAlreadyRunning = errors.New("session is already running")
	ErrFinished       = errors.New("session has already run")
)
