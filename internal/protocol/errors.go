package protocol

import "errors"

var (
	ErrHubAlreadyRunning = errors.New("protocol hub is already running")
	ErrHubNotRunning     = errors.New("protocol hub is not running")
	ErrEventQueueFull    = errors.New("event queue is full")
)
