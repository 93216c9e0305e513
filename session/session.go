/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session tracks the client's session identity, room membership and
// room phase.
//
// The server is the only authority for transitions. Intents are validated
// locally and sent; state only moves when the server answers.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/protocol"
	"github.com/Seednode/partybox-client/store"
	"github.com/Seednode/partybox-client/timer"
	"go.uber.org/zap"
)

const (
	DefaultTick        = time.Second
	DefaultSaveTimeout = time.Second

	msgNoDisplayName    = "Please enter a display name"
	msgNoRoomCode       = "Please enter a room code"
	msgRoomNotFound     = "Room not found"
	msgNotInRoom        = "The server says you are not in a room. Refresh to rejoin"
	msgNotEnoughPlayers = "Not enough players to start"
	msgServerError      = "Server error"
	msgSaveFailed       = "Could not save session"
)

var (
	ErrNoSender    = errors.New("sender cannot be nil")
	ErrNoNotifier  = errors.New("notifier cannot be nil")
	ErrNoStore     = errors.New("store cannot be nil")
	ErrNoScheduler = errors.New("scheduler cannot be nil")
)

// Sender delivers an outbound message to the server, or reports why it could
// not.
type Sender interface {
	Send(msg protocol.Outbound)
}

type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
	StatusInRoom
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnected:
		return "connected"
	case StatusInRoom:
		return "in room"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Config struct {
	Sender      Sender
	Notifier    notify.Notifier
	Store       store.Store
	Scheduler   timer.Scheduler
	Logger      *zap.SugaredLogger
	Tick        time.Duration
	SaveTimeout time.Duration
}

// Machine must only be used from the goroutine that owns its Scheduler.
type Machine struct {
	cfg Config
	log *zap.SugaredLogger

	token       string
	resumed     bool
	connected   bool
	displayName string

	inRoom       bool
	roomCode     string
	players      map[string]string
	owner        bool
	phase        protocol.Phase
	song         *protocol.Song
	roomEnd      time.Time
	pendingLeave bool

	countdown countdown
}

func New(cfg Config) (*Machine, error) {
	switch {
	case cfg.Sender == nil:
		return nil, ErrNoSender
	case cfg.Notifier == nil:
		return nil, ErrNoNotifier
	case cfg.Store == nil:
		return nil, ErrNoStore
	case cfg.Scheduler == nil:
		return nil, ErrNoScheduler
	}

	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultSaveTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	return &Machine{
		cfg:     cfg,
		log:     cfg.Logger,
		players: map[string]string{},
	}, nil
}

// Init loads the persisted session token. A token that cannot be read is
// treated as absent.
func (m *Machine) Init(ctx context.Context) {
	token, err := m.cfg.Store.Load(ctx)
	if err != nil {
		m.log.Warnf("SESSION: Failed to load session token: %v", err)
		token = ""
	}

	m.token = token

	if token != "" {
		m.log.Debugf("SESSION: Loaded session token")
	}
}

func (m *Machine) Status() Status {
	switch {
	case !m.connected:
		return StatusDisconnected
	case m.inRoom:
		return StatusInRoom
	default:
		return StatusConnected
	}
}

// Resumed reports whether the server resumed a prior session rather than
// issuing a fresh one.
func (m *Machine) Resumed() bool {
	return m.resumed
}

func (m *Machine) SessionToken() string {
	return m.token
}

func (m *Machine) CreateRoom(displayName string) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		m.cfg.Notifier.Show(msgNoDisplayName, notify.Info)
		return
	}

	m.displayName = name
	m.cfg.Sender.Send(protocol.NewCreateRoom(name, m.token))
}

func (m *Machine) JoinRoom(displayName, roomCode string) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		m.cfg.Notifier.Show(msgNoDisplayName, notify.Info)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(roomCode))
	if code == "" {
		m.cfg.Notifier.Show(msgNoRoomCode, notify.Info)
		return
	}

	m.displayName = name
	m.cfg.Sender.Send(protocol.NewJoinRoom(name, m.token, code))
}

// StartGame is sent regardless of ownership or phase; the server rejects it if
// it does not apply.
func (m *Machine) StartGame() {
	m.cfg.Sender.Send(protocol.NewStartGame(m.token))
}

// LeaveRoom asks the server to remove us. The room is kept until leftRoom.
// While disconnected the request is dropped by the sender, so nothing is
// pending.
func (m *Machine) LeaveRoom() {
	m.pendingLeave = m.connected
	m.cfg.Sender.Send(protocol.NewLeaveRoom(m.token))
}

func (m *Machine) HandleOpen() {
	m.connected = true
}

// HandleDisconnect keeps the room so the next announce can resume it. A leave
// in flight is lost with the channel.
func (m *Machine) HandleDisconnect() {
	m.connected = false
	m.pendingLeave = false
}

func (m *Machine) HandleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeSession, protocol.TypeNewSession:
		m.resumed = false
		m.renew(msg.SessionToken)

	case protocol.TypeJoinedRoom, protocol.TypeRoomJoined, protocol.TypeRoomCreated:
		m.resumed = false
		m.enterRoom(msg)

	case protocol.TypeReconnected:
		m.resumed = true
		m.enterRoom(msg)

	case protocol.TypeRoomState:
		m.replaceRoom(msg)

	case protocol.TypeFailedJoin:
		m.cfg.Notifier.Show(msgRoomNotFound, notify.Error)

	case protocol.TypeNotInRoom:
		m.log.Warnf("SESSION: Server reports we are not in room %q", m.roomCode)
		m.cfg.Notifier.Show(msgNotInRoom, notify.Warning)

	case protocol.TypeNotEnoughPlayers:
		m.cfg.Notifier.Show(msgNotEnoughPlayers, notify.Info)

	case protocol.TypeLeftRoom:
		m.leaveRoom()

	case protocol.TypeError:
		text := msg.Error
		if text == "" {
			text = msgServerError
		}
		m.cfg.Notifier.Show(text, notify.Error)

	default:
		m.log.Infof("SESSION: Unhandled message type %q", msg.Type)
	}
}

// renew replaces and persists the session token.
func (m *Machine) renew(token string) {
	if token == "" || token == m.token {
		return
	}

	m.token = token

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SaveTimeout)
	defer cancel()

	if err := m.cfg.Store.Save(ctx, token); err != nil {
		m.log.Errorf("SESSION: Failed to save session token: %v", err)
		m.cfg.Notifier.Show(msgSaveFailed, notify.Warning)
	}
}

func (m *Machine) enterRoom(msg protocol.Message) {
	m.renew(msg.SessionToken)

	m.inRoom = true
	m.pendingLeave = false
	if msg.RoomCode != "" {
		m.roomCode = strings.ToUpper(msg.RoomCode)
	}
	m.players = copyPlayers(msg.Players)
	m.owner = msg.RoomOwner
	m.song = copySong(msg.Song)

	phase := protocol.PhaseLobby
	if msg.HasPhase {
		phase = msg.Phase
	}

	m.log.Infof("SESSION: Entered room %s (%s)", m.roomCode, phase)

	m.setPhase(phase, msg.RoomEnd)
}

// replaceRoom applies a full room snapshot. It is the only way the phase
// advances once in a room.
func (m *Machine) replaceRoom(msg protocol.Message) {
	if !m.inRoom {
		m.log.Debugf("SESSION: Ignored roomState for %q while not in a room", msg.RoomCode)
		return
	}

	if msg.RoomCode != "" {
		m.roomCode = strings.ToUpper(msg.RoomCode)
	}
	m.players = copyPlayers(msg.Players)
	m.owner = msg.RoomOwner
	m.song = copySong(msg.Song)

	phase := m.phase
	if msg.HasPhase {
		phase = msg.Phase
	}

	m.setPhase(phase, msg.RoomEnd)
}

func (m *Machine) leaveRoom() {
	if m.inRoom {
		m.log.Infof("SESSION: Left room %s", m.roomCode)
	}

	m.countdown.stop()

	m.inRoom = false
	m.pendingLeave = false
	m.roomCode = ""
	m.players = map[string]string{}
	m.owner = false
	m.phase = protocol.PhaseLobby
	m.song = nil
	m.roomEnd = time.Time{}
}

func (m *Machine) setPhase(next protocol.Phase, roomEnd time.Time) {
	prev, prevEnd := m.phase, m.roomEnd
	m.phase, m.roomEnd = next, roomEnd

	switch next {
	case protocol.PhasePlaying:
		if roomEnd.IsZero() {
			m.countdown.stop()
			return
		}

		if prev != protocol.PhasePlaying || !roomEnd.Equal(prevEnd) || !m.countdown.armed() {
			m.startCountdown()
		}

	default:
		m.countdown.stop()
	}
}

func copyPlayers(players map[string]string) map[string]string {
	out := make(map[string]string, len(players))
	for id, name := range players {
		out[id] = name
	}

	return out
}

func copySong(song *protocol.Song) *protocol.Song {
	if song == nil {
		return nil
	}

	s := *song

	return &s
}
