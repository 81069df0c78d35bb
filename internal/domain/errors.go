package domain

import "errors"

var (
	// ErrNotHost is returned when a host-only action is attempted by a non-host participant.
	ErrNotHost = errors.New("participant is not the host")
	// ErrNotStarted is returned when an action needs a running client.
	ErrNotStarted = errors.New("client not started")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("client already started")
	// ErrQuestionsNotFound indicates the question bank could not be loaded.
	ErrQuestionsNotFound = errors.New("questions not found")
	// ErrScoreNotFound indicates no persisted score exists for a participant.
	ErrScoreNotFound = errors.New("score not found")
	// ErrBusClosed is returned when sending on a closed broadcast bus.
	ErrBusClosed = errors.New("broadcast bus closed")
)
