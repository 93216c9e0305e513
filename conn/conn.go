/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package conn owns the single WebSocket to the game server.
//
// The Manager connects, announces the session, classifies closures and
// reconnects after a fixed delay, forever. All of its methods run on the
// client loop goroutine; the dialer, reader and writer goroutines only post
// events back to the loop, tagged with the attempt they belong to so that
// anything from a superseded attempt is dropped.
package conn

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/partybox-client/loop"
	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/protocol"
	"github.com/Seednode/partybox-client/timer"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultConnectTimeout = 2500 * time.Millisecond
	DefaultReconnectDelay = 1500 * time.Millisecond

	writeWait        = 10 * time.Second
	maxMessageSize   = 64 << 10
	defaultSendQueue = 32

	reconnectMessage    = "Disconnected from server. Attempting to reconnect..."
	notConnectedMessage = "Not connected to server"
)

var (
	ErrNoURL          = errors.New("server url cannot be empty")
	ErrNoLoop         = errors.New("loop cannot be nil")
	ErrNoHandler      = errors.New("handler cannot be nil")
	ErrNoNotifier     = errors.New("notifier cannot be nil")
	ErrConnectTimeout = errors.New("connection attempt timed out")
	ErrSendQueueFull  = errors.New("send queue full")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Handler is told about channel lifecycle and inbound traffic, on the loop
// goroutine.
type Handler interface {
	// SessionToken is announced on every open; empty means no prior session.
	SessionToken() string
	HandleOpen()
	HandleMessage(msg protocol.Message)
	HandleDisconnect()
}

// Loop is where the Manager schedules timers and posts socket events.
type Loop interface {
	timer.Scheduler
	Post(ev loop.Event) bool
}

type Config struct {
	URL            string
	Header         http.Header
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration
	SendQueue      int

	Loop     Loop
	Handler  Handler
	Notifier notify.Notifier
	Dialer   *websocket.Dialer
	Logger   *zap.SugaredLogger
}

// channel is one open socket. Its send queue is closed by the loop when the
// channel is dropped.
type channel struct {
	attempt   string
	ws        *websocket.Conn
	send      chan []byte
	departing bool
	closeOnce sync.Once
}

func (ch *channel) forceClose() {
	ch.closeOnce.Do(func() {
		_ = ch.ws.Close()
	})
}

type Manager struct {
	cfg    Config
	loop   Loop
	dialer *websocket.Dialer
	log    *zap.SugaredLogger

	state      State
	attempt    string
	cur        *channel
	cancelDial context.CancelFunc

	connectTimeout *timer.Handle
	reconnect      *timer.Handle
	closed         bool
}

func New(cfg Config) (*Manager, error) {
	switch {
	case cfg.URL == "":
		return nil, ErrNoURL
	case cfg.Loop == nil:
		return nil, ErrNoLoop
	case cfg.Handler == nil:
		return nil, ErrNoHandler
	case cfg.Notifier == nil:
		return nil, ErrNoNotifier
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = defaultSendQueue
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.ConnectTimeout,
		}
	}

	return &Manager{
		cfg:    cfg,
		loop:   cfg.Loop,
		dialer: dialer,
		log:    cfg.Logger,
	}, nil
}

func (m *Manager) State() State {
	return m.state
}

// Connect opens a new channel, superseding any live channel, pending dial and
// pending timer from earlier attempts.
func (m *Manager) Connect() {
	m.stopTimers()
	m.abandon()

	m.closed = false
	m.state = StateConnecting

	attempt := uuid.NewString()
	m.attempt = attempt

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelDial = cancel

	m.connectTimeout = m.loop.After(m.cfg.ConnectTimeout, func() {
		m.timedOut(attempt)
	})

	m.log.Debugf("CONN: Dialing %s (attempt %s)", m.cfg.URL, attempt)

	go m.dial(ctx, attempt)
}

// Close departs cleanly: a going-away close frame is sent and no reconnect
// is attempted.
func (m *Manager) Close() {
	m.closed = true
	m.stopTimers()

	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	m.attempt = ""

	if ch := m.cur; ch != nil {
		ch.departing = true
		_ = ch.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "client leaving"),
			time.Now().Add(time.Second))
		m.drop(ch)
		m.log.Debugf("CONN: Closed channel %s", ch.attempt)
	}

	m.state = StateDisconnected
}

// Send queues msg for the live channel. It never blocks.
func (m *Manager) Send(msg protocol.Outbound) {
	ch := m.cur
	if ch == nil || m.state != StateConnected {
		m.log.Warnf("CONN: Dropped %s, not connected", msg.MessageType())
		m.cfg.Notifier.Show(notConnectedMessage, notify.Warning)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		m.log.Errorf("CONN: Failed to encode %s: %v", msg.MessageType(), err)
		return
	}

	select {
	case ch.send <- data:
		m.log.Debugf("CONN: Sent %s", data)
	default:
		m.failed(ch, ErrSendQueueFull)
	}
}

// Handle processes one socket event on the loop goroutine.
func (m *Manager) Handle(ev Event) {
	switch ev := ev.(type) {
	case dialed:
		m.handleDialed(ev)

	case received:
		if m.cur == nil || ev.attempt != m.cur.attempt {
			return
		}

		msg, err := protocol.Decode(ev.data)
		if err != nil {
			m.log.Warnf("CONN: Dropped unreadable message %q: %v", ev.data, err)
			return
		}

		m.cfg.Handler.HandleMessage(msg)

	case closed:
		ch := m.cur
		if ch == nil || ev.attempt != ch.attempt {
			return
		}

		closure := classify(ch, ev.err)
		m.drop(ch)
		m.lost(closure)

	case failed:
		if m.cur == nil || ev.attempt != m.cur.attempt {
			return
		}

		m.failed(m.cur, ev.err)
	}
}

func (m *Manager) handleDialed(ev dialed) {
	if ev.attempt != m.attempt || m.closed {
		if ev.ws != nil {
			_ = ev.ws.Close()
		}
		return
	}

	m.connectTimeout.Stop()
	m.connectTimeout = nil
	m.cancelDial = nil

	if ev.err != nil {
		m.log.Infof("CONN: Failed to connect to %s: %v", m.cfg.URL, ev.err)
		m.attempt = ""
		m.lost(Closure{Code: websocket.CloseAbnormalClosure, Err: ev.err})
		return
	}

	ch := &channel{
		attempt: ev.attempt,
		ws:      ev.ws,
		send:    make(chan []byte, m.cfg.SendQueue),
	}
	m.cur = ch
	m.state = StateConnected

	go m.readPump(ch)
	go m.writePump(ch)

	m.log.Infof("CONN: Connected to %s", m.cfg.URL)

	m.Send(protocol.NewAnnounce(m.cfg.Handler.SessionToken()))
	m.cfg.Handler.HandleOpen()
}

func (m *Manager) timedOut(attempt string) {
	m.connectTimeout = nil

	if attempt != m.attempt || m.state != StateConnecting {
		return
	}

	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	m.attempt = ""

	m.log.Infof("CONN: Timed out connecting to %s after %s", m.cfg.URL, m.cfg.ConnectTimeout)
	m.lost(Closure{Code: websocket.CloseAbnormalClosure, Err: ErrConnectTimeout})
}

// failed handles a channel error: no advisory, just force the socket shut so
// the closure path decides what happens next.
func (m *Manager) failed(ch *channel, err error) {
	m.log.Warnf("CONN: Channel error: %v", err)
	ch.forceClose()
}

// lost runs once per ended channel or failed attempt.
func (m *Manager) lost(c Closure) {
	m.state = StateDisconnected
	m.cfg.Handler.HandleDisconnect()

	if c.IsCleanDeparture() || m.closed {
		m.log.Infof("CONN: Channel closed cleanly (%d)", c.Code)
		return
	}

	m.log.Warnf("CONN: Channel lost (%d, %v), reconnecting in %s", c.Code, c.Err, m.cfg.ReconnectDelay)
	m.cfg.Notifier.Show(reconnectMessage, notify.Warning)

	m.reconnect.Stop()
	m.reconnect = m.loop.After(m.cfg.ReconnectDelay, func() {
		m.reconnect = nil
		m.Connect()
	})
}

// abandon silently discards the live channel and any dial in flight.
func (m *Manager) abandon() {
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}

	if m.cur != nil {
		m.drop(m.cur)
	}

	m.attempt = ""
}

func (m *Manager) drop(ch *channel) {
	ch.forceClose()
	close(ch.send)

	if m.cur == ch {
		m.cur = nil
	}
}

func (m *Manager) stopTimers() {
	m.connectTimeout.Stop()
	m.connectTimeout = nil

	m.reconnect.Stop()
	m.reconnect = nil
}

func (m *Manager) dial(ctx context.Context, attempt string) {
	ws, _, err := m.dialer.DialContext(ctx, m.cfg.URL, m.cfg.Header)

	if !m.loop.Post(dialed{attempt: attempt, ws: ws, err: err}) && ws != nil {
		_ = ws.Close()
	}
}

func (m *Manager) readPump(ch *channel) {
	ch.ws.SetReadLimit(maxMessageSize)

	for {
		_, data, err := ch.ws.ReadMessage()
		if err != nil {
			m.loop.Post(closed{attempt: ch.attempt, err: err})
			return
		}

		if !m.loop.Post(received{attempt: ch.attempt, data: data}) {
			ch.forceClose()
			return
		}
	}
}

func (m *Manager) writePump(ch *channel) {
	for data := range ch.send {
		_ = ch.ws.SetWriteDeadline(time.Now().Add(writeWait))

		if err := ch.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			m.loop.Post(failed{attempt: ch.attempt, err: err})
			return
		}
	}
}
