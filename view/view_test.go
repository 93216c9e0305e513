package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/protocol"
	"github.com/Seednode/partybox-client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inRoom(phase protocol.Phase) session.Snapshot {
	return session.Snapshot{
		Status:   session.StatusInRoom,
		InRoom:   true,
		RoomCode: "ABCD",
		Players:  []session.Player{{ID: "p1", Name: "Ann"}, {ID: "p2", Name: "Bob"}},
		Owner:    true,
		Phase:    phase,
	}
}

func TestRender(t *testing.T) {
	playing := inRoom(protocol.PhasePlaying)
	playing.Countdown = session.Countdown{Remaining: 75, Running: true}
	playing.Song = protocol.Song{Title: "Hey Ya!", Artist: "OutKast"}
	playing.HasSong = true

	ended := inRoom(protocol.PhasePlaying)
	ended.Countdown = session.Countdown{Ended: true}

	scoreboard := inRoom(protocol.PhaseScoreboard)
	scoreboard.Countdown = session.Countdown{Remaining: 5, Running: true}

	guest := inRoom(protocol.PhaseLobby)
	guest.Owner = false

	leaving := inRoom(protocol.PhaseLobby)
	leaving.PendingLeave = true

	offline := inRoom(protocol.PhaseLobby)
	offline.Status = session.StatusDisconnected

	tests := []struct {
		name string
		snap session.Snapshot
		want View
	}{
		{
			name: "no room",
			snap: session.Snapshot{Status: session.StatusConnected},
			want: View{Screen: ScreenLobby, Connection: "Connected", Players: []string{}},
		},
		{
			name: "owner in lobby",
			snap: inRoom(protocol.PhaseLobby),
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, ShowStart: true, PhaseLabel: "Waiting for players",
			},
		},
		{
			name: "guest in lobby",
			snap: guest,
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, PhaseLabel: "Waiting for players",
			},
		},
		{
			name: "leave pending",
			snap: leaving,
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, Leaving: true, PhaseLabel: "Waiting for players",
			},
		},
		{
			name: "starting",
			snap: inRoom(protocol.PhaseStarting),
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, PhaseLabel: "Get ready...",
			},
		},
		{
			name: "playing",
			snap: playing,
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, ShowGame: true, PhaseLabel: "Playing",
				Countdown: "Time left: 1:15", Song: "Hey Ya! - OutKast",
			},
		},
		{
			name: "round ended",
			snap: ended,
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, ShowGame: true, PhaseLabel: "Playing",
				Countdown: "Round ended",
			},
		},
		{
			name: "scoreboard hides countdown and game",
			snap: scoreboard,
			want: View{
				Screen: ScreenRoom, Connection: "Connected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, ShowScoreboard: true, PhaseLabel: "Scoreboard",
			},
		},
		{
			name: "disconnected keeps room",
			snap: offline,
			want: View{
				Screen: ScreenRoom, Connection: "Disconnected", Code: "ABCD", RoomCode: "Room Code: ABCD",
				Players: []string{"Ann", "Bob"}, ShowStart: true, PhaseLabel: "Waiting for players",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.snap, notify.Notification{}, false))
		})
	}
}

func TestRender_Banner(t *testing.T) {
	n := notify.Notification{Message: "Room not found", Severity: notify.Error}

	v := Render(session.Snapshot{}, n, true)
	assert.Equal(t, Banner{Visible: true, Text: "Room not found", Severity: notify.Error}, v.Banner)

	v = Render(session.Snapshot{}, n, false)
	assert.Equal(t, Banner{}, v.Banner)
}

func TestRender_IsPure(t *testing.T) {
	snap := inRoom(protocol.PhasePlaying)
	snap.RoomEnd = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	snap.Countdown = session.Countdown{Remaining: 3, Running: true}

	a := Render(snap, notify.Notification{}, false)
	b := Render(snap, notify.Notification{}, false)

	assert.True(t, Equal(a, b))
}

func TestEqual(t *testing.T) {
	a := Render(inRoom(protocol.PhaseLobby), notify.Notification{}, false)

	b := a
	b.Players = []string{"Ann", "Bob"}
	assert.True(t, Equal(a, b))

	b.Players = []string{"Ann"}
	assert.False(t, Equal(a, b))

	c := a
	c.Countdown = "Round ended"
	assert.False(t, Equal(a, c))
}

func TestText(t *testing.T) {
	v := Render(inRoom(protocol.PhaseLobby), notify.Notification{Message: "Not enough players to start"}, true)

	assert.Equal(t, "partybox [Connected]\n"+
		"[info] Not enough players to start\n"+
		"Room Code: ABCD\n"+
		"Players (2):\n"+
		"  - Ann\n"+
		"  - Bob\n"+
		"Waiting for players\n"+
		"Commands: start | leave\n", Text(v))

	lobby := Render(session.Snapshot{Status: session.StatusDisconnected}, notify.Notification{}, false)
	assert.Equal(t, "partybox [Disconnected]\n"+
		"Commands: create <name> | join <code> <name> | help\n", Text(lobby))
}

func TestView_JSON(t *testing.T) {
	v := Render(inRoom(protocol.PhaseStarting), notify.Notification{Message: "x", Severity: notify.Warning}, true)

	data, err := json.Marshal(v)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"screen": "room",
		"connection": "Connected",
		"code": "ABCD",
		"roomCode": "Room Code: ABCD",
		"players": ["Ann", "Bob"],
		"showStart": false,
		"showGame": false,
		"showScoreboard": false,
		"leaving": false,
		"phase": "Get ready...",
		"banner": {"visible": true, "text": "x", "severity": "warning"}
	}`, string(data))
}
