// Package model contains the immutable records passed between layers:
// games, season summary rows, composite metrics and predictions.
package model

import (
	"fmt"
	"strings"
)

// Venue is where a game was played, from the team's point of view.
type Venue int

const (
	VenueHome Venue = iota
	VenueAway
	VenueNeutral
)

func (v Venue) String() string {
	switch v {
	case VenueHome:
		return "home"
	case VenueAway:
		return "away"
	case VenueNeutral:
		return "neutral"
	default:
		return fmt.Sprintf("venue(%d)", int(v))
	}
}

// ParseVenue accepts home/away/neutral and their one-letter forms, any case.
func ParseVenue(s string) (Venue, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "h":
		return VenueHome, nil
	case "away", "a":
		return VenueAway, nil
	case "neutral", "n":
		return VenueNeutral, nil
	default:
		return 0, fmt.Errorf("%w: unknown venue %q", ErrInvalidGame, s)
	}
}

// Result is the outcome of a game for the team.
type Result int

const (
	Win Result = iota
	Loss
)

func (r Result) String() string {
	if r == Win {
		return "W"
	}
	return "L"
}

// ParseResult accepts W/L or win/loss, any case.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "win":
		return Win, nil
	case "l", "loss":
		return Loss, nil
	default:
		return 0, fmt.Errorf("%w: unknown result %q", ErrInvalidGame, s)
	}
}

// Game is one row of a team's game log.
type Game struct {
	Opponent string
	// OpponentRank is zero when the opponent was unranked.
	OpponentRank  int
	Venue         Venue
	Result        Result
	TeamScore     int
	OpponentScore int
}

// NewGame validates and builds a Game.
func NewGame(opponent string, opponentRank int, venue Venue, result Result, teamScore, opponentScore int) (Game, error) {
	opponent = strings.TrimSpace(opponent)
	switch {
	case opponent == "":
		return Game{}, fmt.Errorf("%w: empty opponent", ErrInvalidGame)
	case opponentRank < 0:
		return Game{}, fmt.Errorf("%w: negative opponent rank %d", ErrInvalidGame, opponentRank)
	case teamScore < 0 || opponentScore < 0:
		return Game{}, fmt.Errorf("%w: negative score %d-%d", ErrInvalidGame, teamScore, opponentScore)
	case venue < VenueHome || venue > VenueNeutral:
		return Game{}, fmt.Errorf("%w: %s", ErrInvalidGame, venue)
	case result != Win && result != Loss:
		return Game{}, fmt.Errorf("%w: unknown result %d", ErrInvalidGame, int(result))
	}
	return Game{
		Opponent:      opponent,
		OpponentRank:  opponentRank,
		Venue:         venue,
		Result:        result,
		TeamScore:     teamScore,
		OpponentScore: opponentScore,
	}, nil
}

// Ranked reports whether the opponent carried a rank.
func (g Game) Ranked() bool { return g.OpponentRank > 0 }

// Won reports whether the team won.
func (g Game) Won() bool { return g.Result == Win }

// Margin is the absolute point difference.
func (g Game) Margin() int {
	d := g.TeamScore - g.OpponentScore
	if d < 0 {
		return -d
	}
	return d
}

// GameLog is every game one team played in the season. Order is irrelevant
// and rematches are allowed.
type GameLog struct {
	Team  string
	Games []Game
}
