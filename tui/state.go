package tui

type state int

const (
	loadingState state = iota
	playerState
	scrubState
	errorState
)
