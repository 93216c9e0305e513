/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package protocol defines the JSON envelopes exchanged with the partybox
// game server. Every frame is a text message of the form {"type": ..., ...}.
package protocol

// Messages sent to the server
const (
	TypeAnnounce   = "announce"
	TypeCreateRoom = "createRoom"
	TypeJoinRoom   = "joinRoom"
	TypeStartGame  = "startGame"
	TypeLeaveRoom  = "leaveRoom"
)

// Messages sent by the server
const (
	TypeSession          = "session"
	TypeNewSession       = "newSession"
	TypeJoinedRoom       = "joinedRoom"
	TypeRoomJoined       = "roomJoined"
	TypeRoomCreated      = "roomCreated"
	TypeReconnected      = "reconnected"
	TypeRoomState        = "roomState"
	TypeFailedJoin       = "failedJoin"
	TypeNotInRoom        = "notInRoom"
	TypeNotEnoughPlayers = "notEnoughPlayers"
	TypeLeftRoom         = "leftRoom"
	TypeError            = "error"
)

// Outbound is a message the client may send.
type Outbound interface {
	MessageType() string
}

// Announce is sent as soon as a channel opens. An empty token asks the server
// for a fresh session.
type Announce struct {
	Type         string `json:"type"` // "announce"
	SessionToken string `json:"sessionToken"`
}

type CreateRoom struct {
	Type         string `json:"type"` // "createRoom"
	DisplayName  string `json:"displayName"`
	SessionToken string `json:"sessionToken"`
}

type JoinRoom struct {
	Type         string `json:"type"` // "joinRoom"
	DisplayName  string `json:"displayName"`
	SessionToken string `json:"sessionToken"`
	RoomCode     string `json:"roomCode"`
}

type StartGame struct {
	Type         string `json:"type"` // "startGame"
	SessionToken string `json:"sessionToken"`
}

type LeaveRoom struct {
	Type         string `json:"type"` // "leaveRoom"
	SessionToken string `json:"sessionToken"`
}

func NewAnnounce(token string) Announce {
	return Announce{Type: TypeAnnounce, SessionToken: token}
}

func NewCreateRoom(displayName, token string) CreateRoom {
	return CreateRoom{Type: TypeCreateRoom, DisplayName: displayName, SessionToken: token}
}

func NewJoinRoom(displayName, token, roomCode string) JoinRoom {
	return JoinRoom{Type: TypeJoinRoom, DisplayName: displayName, SessionToken: token, RoomCode: roomCode}
}

func NewStartGame(token string) StartGame {
	return StartGame{Type: TypeStartGame, SessionToken: token}
}

func NewLeaveRoom(token string) LeaveRoom {
	return LeaveRoom{Type: TypeLeaveRoom, SessionToken: token}
}

func (Announce) MessageType() string   { return TypeAnnounce }
func (CreateRoom) MessageType() string { return TypeCreateRoom }
func (JoinRoom) MessageType() string   { return TypeJoinRoom }
func (StartGame) MessageType() string  { return TypeStartGame }
func (LeaveRoom) MessageType() string  { return TypeLeaveRoom }
