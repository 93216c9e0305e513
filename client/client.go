/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package client wires the connection, session and notification components to
// one event loop and publishes a fresh View whenever what the player would see
// changes.
package client

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Seednode/partybox-client/clock"
	"github.com/Seednode/partybox-client/conn"
	"github.com/Seednode/partybox-client/loop"
	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/protocol"
	"github.com/Seednode/partybox-client/session"
	"github.com/Seednode/partybox-client/store"
	"github.com/Seednode/partybox-client/timer"
	"github.com/Seednode/partybox-client/view"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrNoStore = errors.New("token store cannot be nil")

// Publisher receives every changed View on the loop goroutine. It must not
// block.
type Publisher interface {
	Publish(v view.View)
}

type PublisherFunc func(v view.View)

func (f PublisherFunc) Publish(v view.View) { f(v) }

type Config struct {
	URL            string
	Header         http.Header
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration
	InfoDuration   time.Duration
	Tick           time.Duration

	Store      store.Store
	Clock      clock.Clock
	Dialer     *websocket.Dialer
	Logger     *zap.SugaredLogger
	Publishers []Publisher
}

type Client struct {
	loop    *loop.Loop
	queue   *notify.Queue
	conn    *conn.Manager
	session *session.Machine
	log     *zap.SugaredLogger

	publishers []Publisher
	last       view.View
	current    atomic.Pointer[view.View]
}

func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	c := &Client{
		loop:       loop.New(cfg.Clock, 0),
		log:        cfg.Logger,
		publishers: cfg.Publishers,
	}

	c.queue = notify.New(notify.Config{
		Scheduler:    c,
		InfoDuration: cfg.InfoDuration,
		Logger:       cfg.Logger,
	})

	var err error

	c.session, err = session.New(session.Config{
		Sender:    c,
		Notifier:  c.queue,
		Store:     cfg.Store,
		Scheduler: c,
		Logger:    cfg.Logger,
		Tick:      cfg.Tick,
	})
	if err != nil {
		return nil, err
	}

	c.conn, err = conn.New(conn.Config{
		URL:            cfg.URL,
		Header:         cfg.Header,
		ConnectTimeout: cfg.ConnectTimeout,
		ReconnectDelay: cfg.ReconnectDelay,
		Loop:           c,
		Handler:        c,
		Notifier:       c.queue,
		Dialer:         cfg.Dialer,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	v := c.render()
	c.last = v
	c.current.Store(&v)

	return c, nil
}

// Run connects and processes events until ctx is done, then departs cleanly.
func (c *Client) Run(ctx context.Context) error {
	c.session.Init(ctx)
	c.conn.Connect()
	c.publish(true)

	c.loop.Run(ctx, c.dispatch)

	c.conn.Close()

	c.log.Debugf("CLIENT: Stopped")

	return nil
}

// View returns the most recently rendered View. It is safe to call from any
// goroutine.
func (c *Client) View() view.View {
	return *c.current.Load()
}

func (c *Client) CreateRoom(displayName string) bool {
	return c.loop.Post(createRoom{displayName: displayName})
}

func (c *Client) JoinRoom(displayName, roomCode string) bool {
	return c.loop.Post(joinRoom{displayName: displayName, roomCode: roomCode})
}

func (c *Client) StartGame() bool {
	return c.loop.Post(startGame{})
}

func (c *Client) LeaveRoom() bool {
	return c.loop.Post(leaveRoom{})
}

// Dismiss closes the banner, whatever its severity.
func (c *Client) Dismiss() bool {
	return c.loop.Post(dismiss{})
}

func (c *Client) dispatch(ev loop.Event) {
	switch ev := ev.(type) {
	case conn.Event:
		c.conn.Handle(ev)
	case createRoom:
		c.session.CreateRoom(ev.displayName)
	case joinRoom:
		c.session.JoinRoom(ev.displayName, ev.roomCode)
	case startGame:
		c.session.StartGame()
	case leaveRoom:
		c.session.LeaveRoom()
	case dismiss:
		c.queue.Hide(false)
	default:
		c.log.Warnf("CLIENT: Dropped unknown event %T", ev)
	}

	c.publish(false)
}

func (c *Client) render() view.View {
	n, ok := c.queue.Active()

	return view.Render(c.session.Snapshot(), n, ok)
}

func (c *Client) publish(force bool) {
	v := c.render()
	if !force && view.Equal(v, c.last) {
		return
	}

	c.last = v
	c.current.Store(&v)

	for _, p := range c.publishers {
		p.Publish(v)
	}
}

// Now, After and Post make the Client the scheduler for every component, so
// that a view is published after timer callbacks as well as events.
func (c *Client) Now() time.Time {
	return c.loop.Now()
}

func (c *Client) After(d time.Duration, fire func()) *timer.Handle {
	return c.loop.After(d, func() {
		fire()
		c.publish(false)
	})
}

func (c *Client) Post(ev loop.Event) bool {
	return c.loop.Post(ev)
}

func (c *Client) Send(msg protocol.Outbound) {
	c.conn.Send(msg)
}

func (c *Client) SessionToken() string {
	return c.session.SessionToken()
}

// HandleOpen also clears a standing disconnect warning, leaving an Info
// banner alone.
func (c *Client) HandleOpen() {
	c.session.HandleOpen()
	c.queue.Hide(true)
}

func (c *Client) HandleMessage(msg protocol.Message) {
	c.session.HandleMessage(msg)
}

func (c *Client) HandleDisconnect() {
	c.session.HandleDisconnect()
}
