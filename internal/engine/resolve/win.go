package resolve

import (
	"github.com/louisbranch/nocturne/internal/engine/domain"
	"github.com/louisbranch/nocturne/internal/engine/state"
)

// Win evaluates the win conditions against the given state. Town-win is
// checked before mafia-win, so when the last mafia and the last townsperson
// die in the same resolution the outcome follows the configured policy
// instead of evaluation order accidents.
func Win(s state.State, policy domain.WinTiePolicy) domain.Winner {
	mafia := s.AliveMafiaCount()
	town := s.AliveTownCount()

	if mafia == 0 && town == 0 && policy == domain.WinTieDraw {
		return domain.WinnerDraw
	}
	if mafia == 0 {
		return domain.WinnerTown
	}
	if mafia >= town {
		return domain.WinnerMafia
	}
	return domain.WinnerNone
}
