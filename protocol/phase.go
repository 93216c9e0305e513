/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownPhase = errors.New("unknown room state")

// Phase is the server-authoritative stage of a room's game.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseStarting
	PhasePlaying
	PhaseScoreboard
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseStarting:
		return "starting"
	case PhasePlaying:
		return "playing"
	case PhaseScoreboard:
		return "scoreboard"
	default:
		return "unknown"
	}
}

// ParsePhase parses the roomState "state" field, ignoring case.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lobby":
		return PhaseLobby, nil
	case "starting":
		return PhaseStarting, nil
	case "playing":
		return PhasePlaying, nil
	case "scoreboard":
		return PhaseScoreboard, nil
	default:
		return PhaseLobby, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
