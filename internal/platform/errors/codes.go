// Package errors provides structured, coded error handling for the engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Game errors
	CodeGameIDEmpty                Code = "GAME_ID_EMPTY"
	CodeGameInvalidConfig          Code = "GAME_INVALID_CONFIG"
	CodeGameInvalidPhaseTransition Code = "GAME_INVALID_PHASE_TRANSITION"
	CodeGameAlreadyEnded           Code = "GAME_ALREADY_ENDED"
	CodeGameErrored                Code = "GAME_ERRORED"
	CodeGameNotRunning             Code = "GAME_NOT_RUNNING"

	// Player errors
	CodePlayerIDEmpty     Code = "PLAYER_ID_EMPTY"
	CodePlayerNameEmpty   Code = "PLAYER_NAME_EMPTY"
	CodePlayerUnknown     Code = "PLAYER_UNKNOWN"
	CodePlayerDead        Code = "PLAYER_DEAD"
	CodePlayerInvalidRole Code = "PLAYER_INVALID_ROLE"
	CodePlayerNotCapable  Code = "PLAYER_NOT_CAPABLE"

	// Action errors
	CodeActionInvalidKind    Code = "ACTION_INVALID_KIND"
	CodeActionDeadTarget     Code = "ACTION_DEAD_TARGET"
	CodeActionSelfTarget     Code = "ACTION_SELF_TARGET"
	CodeActionRepeatProtect  Code = "ACTION_REPEAT_PROTECT"
	CodeActionShotsExhausted Code = "ACTION_SHOTS_EXHAUSTED"
	CodeActionUnknownTarget  Code = "ACTION_UNKNOWN_TARGET"

	// Vote errors
	CodeVoteInvalidTarget Code = "VOTE_INVALID_TARGET"
	CodeVoteWindowClosed  Code = "VOTE_WINDOW_CLOSED"

	// Event errors
	CodeEventInvalidType       Code = "EVENT_INVALID_TYPE"
	CodeEventInvalidVisibility Code = "EVENT_INVALID_VISIBILITY"
	CodeEventSequenceGap       Code = "EVENT_SEQUENCE_GAP"
	CodeEventSequenceDuplicate Code = "EVENT_SEQUENCE_DUPLICATE"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeStorageFailed Code = "STORAGE_FAILED"

	// Random/seed errors
	CodeSeedOutOfRange Code = "SEED_OUT_OF_RANGE"
)
