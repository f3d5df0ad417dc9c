package domain

import (
	"time"

	apperrors "github.com/louisbranch/nocturne/internal/platform/errors"
)

// TiePolicy selects the behavior when a day vote ends in a plurality tie.
type TiePolicy string

const (
	// TieNoElimination spares everyone on a tie.
	TieNoElimination TiePolicy = "no_elimination"
	// TieRandom eliminates a seed-derived random candidate among the tied.
	TieRandom TiePolicy = "random"
	// TieSkip skips the elimination and continues to the next night.
	TieSkip TiePolicy = "skip"
	// TieRevote re-runs the vote restricted to the tied candidates once;
	// a second tie falls back to no elimination.
	TieRevote TiePolicy = "revote"
)

// IsValid reports whether the tie policy is one of the closed set.
func (p TiePolicy) IsValid() bool {
	switch p {
	case TieNoElimination, TieRandom, TieSkip, TieRevote:
		return true
	default:
		return false
	}
}

// WinTiePolicy selects the outcome when the last mafia and the last
// townsperson die in the same resolution.
type WinTiePolicy string

const (
	// WinTieTown resolves the simultaneous edge case in town's favor.
	// Town-win is evaluated before mafia-win, so a resolution that
	// satisfies both conditions deterministically ends with a town win.
	WinTieTown WinTiePolicy = "town"
	// WinTieDraw declares a draw instead.
	WinTieDraw WinTiePolicy = "draw"
)

// IsValid reports whether the win tie policy is one of the closed set.
func (p WinTiePolicy) IsValid() bool {
	return p == WinTieTown || p == WinTieDraw
}

// Config holds the per-game rule configuration committed at creation time.
type Config struct {
	// Seed drives every random draw for the game.
	Seed int64
	// RoleCounts maps each role to the number of players holding it.
	RoleCounts map[Role]int
	// MultiRole allows a player to hold more than one capability.
	MultiRole bool
	// VigilanteShots caps cumulative shots per vigilante-capable player.
	VigilanteShots int
	// VigilanteBlockable lets doctor protection block the vigilante shot.
	// The default is false: the shot is unblockable.
	VigilanteBlockable bool
	// TiePolicy governs day-vote plurality ties.
	TiePolicy TiePolicy
	// WinTiePolicy governs the simultaneous-win edge case.
	WinTiePolicy WinTiePolicy
	// RetryLimit bounds re-requests after an invalid agent response.
	RetryLimit int
	// PhaseTimeout bounds how long one action window stays open.
	PhaseTimeout time.Duration
	// SnapshotEveryPhase writes a state snapshot at each phase boundary.
	SnapshotEveryPhase bool
}

// Normalize applies defaults and validates the configuration.
func (c Config) Normalize() (Config, error) {
	if c.VigilanteShots == 0 {
		c.VigilanteShots = 1
	}
	if c.VigilanteShots < 0 {
		return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "vigilante shots must not be negative")
	}
	if c.TiePolicy == "" {
		c.TiePolicy = TieNoElimination
	}
	if !c.TiePolicy.IsValid() {
		return Config{}, apperrors.WithMetadata(apperrors.CodeGameInvalidConfig,
			"unknown tie policy", map[string]string{"tie_policy": string(c.TiePolicy)})
	}
	if c.WinTiePolicy == "" {
		c.WinTiePolicy = WinTieTown
	}
	if !c.WinTiePolicy.IsValid() {
		return Config{}, apperrors.WithMetadata(apperrors.CodeGameInvalidConfig,
			"unknown win tie policy", map[string]string{"win_tie_policy": string(c.WinTiePolicy)})
	}
	if c.RetryLimit < 0 {
		return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "retry limit must not be negative")
	}
	if c.RetryLimit == 0 {
		c.RetryLimit = 2
	}
	if c.PhaseTimeout < 0 {
		return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "phase timeout must not be negative")
	}
	if len(c.RoleCounts) == 0 {
		return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "role counts are required")
	}
	total := 0
	for role, count := range c.RoleCounts {
		if !role.IsValid() {
			return Config{}, apperrors.WithMetadata(apperrors.CodeGameInvalidConfig,
				"unknown role in counts", map[string]string{"role": string(role)})
		}
		if count < 0 {
			return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "role count must not be negative")
		}
		total += count
	}
	if c.RoleCounts[RoleMafia] <= 0 {
		return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "at least one mafia is required")
	}
	if total < 3 {
		return Config{}, apperrors.New(apperrors.CodeGameInvalidConfig, "at least three players are required")
	}
	return c, nil
}

// PlayerCount returns the number of players the role counts imply. Under a
// multi-role configuration the caller supplies the player list explicitly,
// so PlayerCount is only meaningful for single-role setups.
func (c Config) PlayerCount() int {
	total := 0
	for _, count := range c.RoleCounts {
		total += count
	}
	return total
}
