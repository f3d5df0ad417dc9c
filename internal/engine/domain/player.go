package domain

import (
	"strings"

	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
)

// Player is a participant in a game. Players are owned by the game state in
// a flat collection keyed by ID; any cross-reference elsewhere (teammate
// lists, targets) stores the ID, never the struct.
type Player struct {
	ID    string
	Name  string
	Roles RoleSet
	Alive bool
	// EliminatedRound is the round the player died in, nil while alive.
	EliminatedRound *int
}

// NewPlayer validates and constructs a living player.
func NewPlayer(playerID, name string, roles RoleSet) (Player, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return Player{}, apperrors.New(apperrors.CodePlayerIDEmpty, "player id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, apperrors.New(apperrors.CodePlayerNameEmpty, "player name is required")
	}
	if len(roles) == 0 {
		return Player{}, apperrors.New(apperrors.CodePlayerInvalidRole, "player needs at least one role")
	}
	for _, role := range roles {
		if !role.IsValid() {
			return Player{}, apperrors.WithMetadata(apperrors.CodePlayerInvalidRole,
				"unknown role", map[string]string{"role": string(role)})
		}
	}

	return Player{
		ID:    playerID,
		Name:  name,
		Roles: roles,
		Alive: true,
	}, nil
}

// MafiaAligned reports whether the player counts toward the mafia faction.
func (p Player) MafiaAligned() bool {
	return p.Roles.MafiaAligned()
}
