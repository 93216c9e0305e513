/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"sort"
	"time"

	"github.com/Seednode/partybox-client/protocol"
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Countdown struct {
	Remaining int  `json:"remaining"`
	Running   bool `json:"running"`
	Ended     bool `json:"ended"`
}

// Snapshot is a copy of the machine's state. Nothing in it aliases the
// machine.
type Snapshot struct {
	Status       Status         `json:"status"`
	Resumed      bool           `json:"resumed"`
	HasSession   bool           `json:"hasSession"`
	DisplayName  string         `json:"displayName,omitempty"`
	InRoom       bool           `json:"inRoom"`
	RoomCode     string         `json:"roomCode,omitempty"`
	Players      []Player       `json:"players"`
	Owner        bool           `json:"owner"`
	Phase        protocol.Phase `json:"phase"`
	Song         protocol.Song  `json:"song"`
	HasSong      bool           `json:"hasSong"`
	RoomEnd      time.Time      `json:"roomEnd"`
	Countdown    Countdown      `json:"countdown"`
	PendingLeave bool           `json:"pendingLeave"`
}

func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		Status:       m.Status(),
		Resumed:      m.resumed,
		HasSession:   m.token != "",
		DisplayName:  m.displayName,
		InRoom:       m.inRoom,
		RoomCode:     m.roomCode,
		Players:      sortedPlayers(m.players),
		Owner:        m.owner,
		Phase:        m.phase,
		RoomEnd:      m.roomEnd,
		PendingLeave: m.pendingLeave,
		Countdown: Countdown{
			Remaining: m.countdown.remaining,
			Running:   m.countdown.running,
			Ended:     m.countdown.ended,
		},
	}

	if m.song != nil {
		s.Song = *m.song
		s.HasSong = true
	}

	return s
}

// sortedPlayers orders by display name, then id.
func sortedPlayers(players map[string]string) []Player {
	out := make([]Player, 0, len(players))
	for id, name := range players {
		out = append(out, Player{ID: id, Name: name})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}

		return out[i].ID < out[j].ID
	})

	return out
}
