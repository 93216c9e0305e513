/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package view projects session and notification state into what the player
// sees. Render is pure; the same inputs always give the same View.
package view

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/protocol"
	"github.com/Seednode/partybox-client/session"
)

type Screen int

const (
	ScreenLobby Screen = iota
	ScreenRoom
)

func (s Screen) String() string {
	switch s {
	case ScreenLobby:
		return "lobby"
	case ScreenRoom:
		return "room"
	default:
		return "unknown"
	}
}

func (s Screen) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Banner struct {
	Visible  bool            `json:"visible"`
	Text     string          `json:"text,omitempty"`
	Severity notify.Severity `json:"severity"`
}

type View struct {
	Screen         Screen   `json:"screen"`
	Connection     string   `json:"connection"`
	DisplayName    string   `json:"displayName,omitempty"`
	Code           string   `json:"code,omitempty"`
	RoomCode       string   `json:"roomCode,omitempty"`
	Players        []string `json:"players"`
	ShowStart      bool     `json:"showStart"`
	ShowGame       bool     `json:"showGame"`
	ShowScoreboard bool     `json:"showScoreboard"`
	Leaving        bool     `json:"leaving"`
	PhaseLabel     string   `json:"phase,omitempty"`
	Countdown      string   `json:"countdown,omitempty"`
	Song           string   `json:"song,omitempty"`
	Banner         Banner   `json:"banner"`
}

// Equal reports whether a and b would display identically.
func Equal(a, b View) bool {
	if !slices.Equal(a.Players, b.Players) {
		return false
	}

	a.Players, b.Players = nil, nil

	return reflect.DeepEqual(a, b)
}

func Render(s session.Snapshot, n notify.Notification, visible bool) View {
	v := View{
		Screen:      ScreenLobby,
		Connection:  connectionLabel(s),
		DisplayName: s.DisplayName,
		Players:     []string{},
	}

	if visible {
		v.Banner = Banner{Visible: true, Text: n.Message, Severity: n.Severity}
	}

	if !s.InRoom {
		return v
	}

	v.Screen = ScreenRoom
	v.Code = s.RoomCode
	v.RoomCode = "Room Code: " + s.RoomCode
	v.Leaving = s.PendingLeave

	for _, p := range s.Players {
		v.Players = append(v.Players, p.Name)
	}

	switch s.Phase {
	case protocol.PhaseLobby:
		v.PhaseLabel = "Waiting for players"
		v.ShowStart = s.Owner && !s.PendingLeave

	case protocol.PhaseStarting:
		v.PhaseLabel = "Get ready..."

	case protocol.PhasePlaying:
		v.PhaseLabel = "Playing"
		v.ShowGame = true
		v.Countdown = countdownLabel(s.Countdown)

		if s.HasSong {
			v.Song = songLabel(s.Song)
		}

	case protocol.PhaseScoreboard:
		v.PhaseLabel = "Scoreboard"
		v.ShowScoreboard = true
	}

	return v
}

func connectionLabel(s session.Snapshot) string {
	switch {
	case s.Status == session.StatusDisconnected:
		return "Disconnected"
	case s.Resumed:
		return "Connected (resumed)"
	default:
		return "Connected"
	}
}

func countdownLabel(c session.Countdown) string {
	switch {
	case c.Ended:
		return "Round ended"
	case c.Running:
		return fmt.Sprintf("Time left: %d:%02d", c.Remaining/60, c.Remaining%60)
	default:
		return ""
	}
}

func songLabel(s protocol.Song) string {
	if s.Artist == "" {
		return s.Title
	}

	return s.Title + " - " + s.Artist
}
