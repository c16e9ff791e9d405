package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds shared by every layer that handles teams and games.
var (
	// Data missing.
	ErrTeamNotFound    = errors.New("team not found")
	ErrGameLogNotFound = errors.New("game log not found")

	// Data invalid.
	ErrInvalidGame       = errors.New("invalid game record")
	ErrInvalidSeasonRow  = errors.New("invalid season summary row")
	ErrNoGamesPlayed     = errors.New("no games played")
	ErrInvalidMatchup    = errors.New("invalid matchup")
	ErrDuplicateSeasonID = errors.New("duplicate team in season summary")
)

// TeamNotFoundError names the identifier that failed to resolve.
type TeamNotFoundError struct {
	Team string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team not found: %q", e.Team)
}

// Is reports ErrTeamNotFound so callers can match on the kind alone.
func (e *TeamNotFoundError) Is(target error) bool {
	return target == ErrTeamNotFound
}
