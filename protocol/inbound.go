/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrMissingType = errors.New("message has no type")
	ErrBadRoomEnd  = errors.New("invalid roomEnd")
)

// Song is the track attached to a round, when the server sends one.
type Song struct {
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
}

// Message is a decoded server message. Fields not carried by a given type are
// left at their zero values.
type Message struct {
	Type         string
	SessionToken string
	RoomCode     string

	// Players maps player id to display name. HasPlayers is false when the
	// payload carried no players field at all.
	Players    map[string]string
	HasPlayers bool

	RoomOwner bool

	Phase    Phase
	HasPhase bool

	Song *Song

	// RoomEnd is the absolute end of the current round, zero if absent.
	RoomEnd time.Time

	Error string
}

type wireMessage struct {
	Type         string          `json:"type"`
	SessionToken string          `json:"sessionToken"`
	RoomCode     string          `json:"roomCode"`
	Players      json.RawMessage `json:"players"`
	RoomOwner    json.RawMessage `json:"roomOwner"`
	State        string          `json:"state"`
	Song         json.RawMessage `json:"song"`
	RoomEnd      json.RawMessage `json:"roomEnd"`
	Error        string          `json:"error"`
}

// Decode parses one text frame from the server.
func Decode(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	if w.Type == "" {
		return Message{}, ErrMissingType
	}

	msg := Message{
		Type:         w.Type,
		SessionToken: w.SessionToken,
		RoomCode:     w.RoomCode,
		RoomOwner:    decodeOwner(w.RoomOwner),
		Error:        w.Error,
	}

	players, ok, err := decodePlayers(w.Players)
	if err != nil {
		return Message{}, fmt.Errorf("decode %s players: %w", w.Type, err)
	}
	msg.Players = players
	msg.HasPlayers = ok

	if w.State != "" {
		phase, err := ParsePhase(w.State)
		if err != nil {
			return Message{}, fmt.Errorf("decode %s: %w", w.Type, err)
		}
		msg.Phase = phase
		msg.HasPhase = true
	}

	song, err := decodeSong(w.Song)
	if err != nil {
		return Message{}, fmt.Errorf("decode %s song: %w", w.Type, err)
	}
	msg.Song = song

	end, err := decodeRoomEnd(w.RoomEnd)
	if err != nil {
		return Message{}, fmt.Errorf("decode %s: %w", w.Type, err)
	}
	msg.RoomEnd = end

	return msg, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodePlayers accepts the id -> name object, or the older list of names in
// which case the list index becomes the id.
func decodePlayers(raw json.RawMessage) (map[string]string, bool, error) {
	players := make(map[string]string)
	if isNull(raw) {
		return players, false, nil
	}

	switch bytes.TrimSpace(raw)[0] {
	case '{':
		if err := json.Unmarshal(raw, &players); err != nil {
			return nil, false, err
		}
	case '[':
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			return nil, false, err
		}
		for i, name := range names {
			players[strconv.Itoa(i)] = name
		}
	default:
		return nil, false, fmt.Errorf("unexpected players payload %s", raw)
	}

	return players, true, nil
}

func decodeOwner(raw json.RawMessage) bool {
	var owner bool
	if isNull(raw) {
		return false
	}
	if err := json.Unmarshal(raw, &owner); err != nil {
		return false
	}
	return owner
}

func decodeSong(raw json.RawMessage) (*Song, error) {
	if isNull(raw) {
		return nil, nil
	}

	var title string
	if err := json.Unmarshal(raw, &title); err == nil {
		if title == "" {
			return nil, nil
		}
		return &Song{Title: title}, nil
	}

	var song Song
	if err := json.Unmarshal(raw, &song); err != nil {
		return nil, err
	}

	return &song, nil
}

// decodeRoomEnd reads unix milliseconds, or an RFC 3339 string.
func decodeRoomEnd(raw json.RawMessage) (time.Time, error) {
	if isNull(raw) {
		return time.Time{}, nil
	}

	var millis float64
	if err := json.Unmarshal(raw, &millis); err == nil {
		if millis <= 0 {
			return time.Time{}, nil
		}
		return time.UnixMilli(int64(millis)), nil
	}

	var stamp string
	if err := json.Unmarshal(raw, &stamp); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrBadRoomEnd, raw)
	}

	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrBadRoomEnd, err)
	}

	return t, nil
}
