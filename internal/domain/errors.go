package domain

import "errors"

var (
	// ErrAlreadyRunning is returned when a round is started while one is in progress.
	ErrAlreadyRunning = errors.New("a round is already running")
	// ErrNotRunning is returned when ending a round that does not exist.
	ErrNotRunning = errors.New("no round is running")
	// ErrNotAccepting is returned when closing a question that is not open.
	ErrNotAccepting = errors.New("no question is accepting answers")
	// ErrNoParticipants is returned when an invite-only round has nobody enrolled.
	ErrNoParticipants = errors.New("no participants have joined")
	// ErrEmptyBank indicates the question bank holds zero questions.
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrBankNotFound indicates the question bank source could not be found.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrMalformedLeaderboard indicates the persisted snapshot failed validation.
	ErrMalformedLeaderboard = errors.New("malformed leaderboard snapshot")
	// ErrChannelNotFound is returned for channels without a game controller.
	ErrChannelNotFound = errors.New("game channel not found")
	// ErrUnknownCommand is returned for unrecognised chat commands.
	ErrUnknownCommand = errors.New("unknown command")
)
