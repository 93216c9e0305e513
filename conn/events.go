/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package conn

import (
	"errors"

	"github.com/gorilla/websocket"
)

// Event is a socket event for Manager.Handle.
type Event interface{ connEvent() }

type dialed struct {
	attempt string
	ws      *websocket.Conn
	err     error
}

type received struct {
	attempt string
	data    []byte
}

type closed struct {
	attempt string
	err     error
}

type failed struct {
	attempt string
	err     error
}

func (dialed) connEvent()   {}
func (received) connEvent() {}
func (closed) connEvent()   {}
func (failed) connEvent()   {}

// Closure describes how a channel ended.
type Closure struct {
	Code  int
	Clean bool
	// Local is set when this client started the close.
	Local bool
	Err   error
}

// IsCleanDeparture reports a clean going-away closure started by this client,
// the kind leaving on purpose produces. It never triggers a reconnect. A server
// going away is not a departure and is reconnected like any other loss.
func (c Closure) IsCleanDeparture() bool {
	return c.Local && c.Clean && c.Code == websocket.CloseGoingAway
}

// classify turns the reader's terminal error into a Closure. Only a channel this
// client closed is Local. A close frame from the peer is clean; gorilla reports
// a dropped socket as 1006, which is not.
func classify(ch *channel, err error) Closure {
	if ch.departing {
		return Closure{Code: websocket.CloseGoingAway, Clean: true, Local: true}
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return Closure{
			Code:  ce.Code,
			Clean: ce.Code != websocket.CloseAbnormalClosure,
			Err:   err,
		}
	}

	return Closure{Code: websocket.CloseAbnormalClosure, Err: err}
}
