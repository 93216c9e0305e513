package conn

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Seednode/partybox-client/loop"
	"github.com/Seednode/partybox-client/notify"
	"github.com/Seednode/partybox-client/protocol"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const waitFor = 2 * time.Second

type call func()

type recorder struct {
	token       string
	opens       chan struct{}
	messages    chan protocol.Message
	disconnects chan struct{}
}

func newRecorder(token string) *recorder {
	return &recorder{
		token:       token,
		opens:       make(chan struct{}, 8),
		messages:    make(chan protocol.Message, 8),
		disconnects: make(chan struct{}, 8),
	}
}

// offer never blocks the loop; tests only look at the first few events.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (r *recorder) SessionToken() string               { return r.token }
func (r *recorder) HandleOpen()                        { offer(r.opens, struct{}{}) }
func (r *recorder) HandleMessage(msg protocol.Message) { offer(r.messages, msg) }
func (r *recorder) HandleDisconnect()                  { offer(r.disconnects, struct{}{}) }

type noteRecorder chan notify.Notification

func (n noteRecorder) Show(message string, severity notify.Severity) {
	offer(n, notify.Notification{Message: message, Severity: severity})
}

type fakeServer struct {
	*httptest.Server
	url   string
	conns chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{conns: make(chan *websocket.Conn, 8)}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	router := httprouter.New()
	router.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		fs.conns <- c
	})

	fs.Server = httptest.NewServer(router)
	fs.url = "ws" + strings.TrimPrefix(fs.Server.URL, "http") + "/ws"
	t.Cleanup(fs.Close)

	return fs
}

func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case c := <-fs.conns:
		t.Cleanup(func() { _ = c.Close() })
		return c
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for client to connect")
		return nil
	}
}

func (fs *fakeServer) assertNoConnect(t *testing.T, within time.Duration) {
	t.Helper()

	select {
	case c := <-fs.conns:
		_ = c.Close()
		t.Fatalf("unexpected reconnect")
	case <-time.After(within):
	}
}

func readJSON(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(waitFor)))

	var v map[string]any
	require.NoError(t, c.ReadJSON(&v))

	return v
}

type harness struct {
	t     *testing.T
	loop  *loop.Loop
	m     *Manager
	h     *recorder
	notes noteRecorder
}

func newHarness(t *testing.T, url string, configure ...func(*Config)) *harness {
	t.Helper()

	l := loop.New(nil, 64)
	h := newRecorder("tok-1")
	notes := make(noteRecorder, 8)

	cfg := Config{
		URL:            url,
		ConnectTimeout: 500 * time.Millisecond,
		ReconnectDelay: 50 * time.Millisecond,
		Loop:           l,
		Handler:        h,
		Notifier:       notes,
		Logger:         zaptest.NewLogger(t).Sugar(),
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	m, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx, func(ev loop.Event) {
		switch ev := ev.(type) {
		case Event:
			m.Handle(ev)
		case call:
			ev()
		}
	})

	hs := &harness{t: t, loop: l, m: m, h: h, notes: notes}

	t.Cleanup(func() {
		hs.on(m.Close)
		cancel()
		<-l.Done()
	})

	return hs
}

// on runs fn on the loop goroutine and waits for it.
func (hs *harness) on(fn func()) {
	hs.t.Helper()

	done := make(chan struct{})
	require.True(hs.t, hs.loop.Post(call(func() {
		fn()
		close(done)
	})))

	select {
	case <-done:
	case <-time.After(waitFor):
		hs.t.Fatalf("timed out waiting for loop")
	}
}

func (hs *harness) state() State {
	var s State
	hs.on(func() { s = hs.m.State() })

	return s
}

func (hs *harness) waitOpen() {
	hs.t.Helper()

	select {
	case <-hs.h.opens:
	case <-time.After(waitFor):
		hs.t.Fatalf("timed out waiting for open")
	}
}

func (hs *harness) waitDisconnect() {
	hs.t.Helper()

	select {
	case <-hs.h.disconnects:
	case <-time.After(waitFor):
		hs.t.Fatalf("timed out waiting for disconnect")
	}
}

func (hs *harness) waitNote() notify.Notification {
	hs.t.Helper()

	select {
	case n := <-hs.notes:
		return n
	case <-time.After(waitFor):
		hs.t.Fatalf("timed out waiting for notification")
		return notify.Notification{}
	}
}

func (hs *harness) assertNoNote(within time.Duration) {
	hs.t.Helper()

	select {
	case n := <-hs.notes:
		hs.t.Fatalf("unexpected notification %+v", n)
	case <-time.After(within):
	}
}

func TestNew_Validates(t *testing.T) {
	l := loop.New(nil, 1)
	h := newRecorder("")
	notes := make(noteRecorder, 1)

	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"no url", Config{Loop: l, Handler: h, Notifier: notes}, ErrNoURL},
		{"no loop", Config{URL: "ws://x", Handler: h, Notifier: notes}, ErrNoLoop},
		{"no handler", Config{URL: "ws://x", Loop: l, Notifier: notes}, ErrNoHandler},
		{"no notifier", Config{URL: "ws://x", Loop: l, Handler: h}, ErrNoNotifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestManager_AnnouncesOnOpen(t *testing.T) {
	fs := newFakeServer(t)
	hs := newHarness(t, fs.url)

	assert.Equal(t, StateDisconnected, hs.state())

	hs.on(hs.m.Connect)
	server := fs.accept(t)

	assert.Equal(t, map[string]any{
		"type":         "announce",
		"sessionToken": "tok-1",
	}, readJSON(t, server))

	hs.waitOpen()
	assert.Equal(t, StateConnected, hs.state())
}

func TestManager_DeliversMessagesInOrder(t *testing.T) {
	fs := newFakeServer(t)
	hs := newHarness(t, fs.url)

	hs.on(hs.m.Connect)
	server := fs.accept(t)
	readJSON(t, server)

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"newSession","sessionToken":"abc"}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"roomState","roomCode":"ABCD"}`)))

	var got []string
	for len(got) < 2 {
		select {
		case msg := <-hs.h.messages:
			got = append(got, msg.Type)
		case <-time.After(waitFor):
			t.Fatalf("timed out after %v", got)
		}
	}

	assert.Equal(t, []string{"newSession", "roomState"}, got)
}

func TestManager_SendReachesServer(t *testing.T) {
	fs := newFakeServer(t)
	hs := newHarness(t, fs.url)

	hs.on(hs.m.Connect)
	server := fs.accept(t)
	readJSON(t, server)
	hs.waitOpen()

	hs.on(func() { hs.m.Send(protocol.NewJoinRoom("Ann", "tok-1", "ABCD")) })

	assert.Equal(t, map[string]any{
		"type":         "joinRoom",
		"displayName":  "Ann",
		"sessionToken": "tok-1",
		"roomCode":     "ABCD",
	}, readJSON(t, server))
}

func TestManager_SendWhileDisconnectedWarns(t *testing.T) {
	hs := newHarness(t, "ws://127.0.0.1:1/ws")

	hs.on(func() { hs.m.Send(protocol.NewStartGame("tok-1")) })

	assert.Equal(t, notify.Notification{
		Message:  "Not connected to server",
		Severity: notify.Warning,
	}, hs.waitNote())
}

func TestManager_ServerGoingAwayReconnects(t *testing.T) {
	fs := newFakeServer(t)
	hs := newHarness(t, fs.url)

	hs.on(hs.m.Connect)
	server := fs.accept(t)
	readJSON(t, server)
	hs.waitOpen()

	require.NoError(t, server.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server restarting"),
		time.Now().Add(time.Second)))

	hs.waitDisconnect()
	assert.Equal(t, notify.Notification{
		Message:  "Disconnected from server. Attempting to reconnect...",
		Severity: notify.Warning,
	}, hs.waitNote())

	second := fs.accept(t)
	assert.Equal(t, "announce", readJSON(t, second)["type"])
	hs.waitOpen()
	assert.Equal(t, StateConnected, hs.state())
}

func TestManager_ReconnectsAfterNonCleanClosure(t *testing.T) {
	tests := []struct {
		name  string
		close func(*websocket.Conn) error
	}{
		{"dropped socket", func(c *websocket.Conn) error {
			return c.Close()
		}},
		{"normal close frame", func(c *websocket.Conn) error {
			return c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			hs := newHarness(t, fs.url)

			hs.on(hs.m.Connect)
			first := fs.accept(t)
			readJSON(t, first)
			hs.waitOpen()

			require.NoError(t, tt.close(first))
			hs.waitDisconnect()

			assert.Equal(t, notify.Notification{
				Message:  "Disconnected from server. Attempting to reconnect...",
				Severity: notify.Warning,
			}, hs.waitNote())

			second := fs.accept(t)
			assert.Equal(t, "announce", readJSON(t, second)["type"])
			hs.waitOpen()

			// one closure, one reconnect
			fs.assertNoConnect(t, 200*time.Millisecond)
		})
	}
}

func TestManager_ConnectTimeoutReconnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	// accept and never answer the handshake
	var accepted atomic.Int32
	held := make(chan net.Conn, 64)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			offer(held, c)
		}
	}()
	t.Cleanup(func() {
		for {
			select {
			case c := <-held:
				_ = c.Close()
			default:
				return
			}
		}
	})

	hs := newHarness(t, "ws://"+ln.Addr().String()+"/ws", func(cfg *Config) {
		cfg.ConnectTimeout = 100 * time.Millisecond
	})

	hs.on(hs.m.Connect)

	assert.Equal(t, notify.Warning, hs.waitNote().Severity)
	hs.waitDisconnect()

	assert.Eventually(t, func() bool {
		return accepted.Load() >= 2
	}, waitFor, 10*time.Millisecond)
}

func TestManager_CloseDepartsCleanly(t *testing.T) {
	fs := newFakeServer(t)
	hs := newHarness(t, fs.url)

	hs.on(hs.m.Connect)
	server := fs.accept(t)
	readJSON(t, server)
	hs.waitOpen()

	hs.on(hs.m.Close)

	require.NoError(t, server.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := server.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	fs.assertNoConnect(t, 200*time.Millisecond)
	hs.assertNoNote(0)
	assert.Equal(t, StateDisconnected, hs.state())
}

func TestManager_ConnectSupersedesLiveChannel(t *testing.T) {
	fs := newFakeServer(t)
	hs := newHarness(t, fs.url)

	hs.on(hs.m.Connect)
	first := fs.accept(t)
	readJSON(t, first)
	hs.waitOpen()

	hs.on(hs.m.Connect)
	second := fs.accept(t)
	readJSON(t, second)
	hs.waitOpen()

	// the first channel's closure belongs to a superseded attempt
	hs.assertNoNote(200 * time.Millisecond)
	assert.Empty(t, hs.h.disconnects)

	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte(`{"type":"leftRoom"}`)))
	select {
	case msg := <-hs.h.messages:
		assert.Equal(t, "leftRoom", msg.Type)
	case <-time.After(waitFor):
		t.Fatalf("timed out waiting for message")
	}
}

func TestManager_DropsStaleEvents(t *testing.T) {
	hs := newHarness(t, "ws://127.0.0.1:1/ws")

	hs.on(func() {
		hs.m.Handle(received{attempt: "old", data: []byte(`{"type":"leftRoom"}`)})
		hs.m.Handle(closed{attempt: "old"})
		hs.m.Handle(failed{attempt: "old"})
	})

	assert.Empty(t, hs.h.messages)
	assert.Empty(t, hs.h.disconnects)
	hs.assertNoNote(50 * time.Millisecond)
}

func TestClassify(t *testing.T) {
	peer := &websocket.CloseError{Code: websocket.CloseGoingAway, Text: "bye"}

	got := classify(&channel{}, peer)
	assert.False(t, got.IsCleanDeparture(), "a server going away is reconnected")
	assert.True(t, got.Clean)

	got = classify(&channel{departing: true}, peer)
	assert.True(t, got.IsCleanDeparture())

	got = classify(&channel{}, &websocket.CloseError{Code: websocket.CloseAbnormalClosure})
	assert.False(t, got.Clean)
}

func TestClosure_IsCleanDeparture(t *testing.T) {
	tests := []struct {
		name    string
		closure Closure
		want    bool
	}{
		{"local going away", Closure{Code: websocket.CloseGoingAway, Clean: true, Local: true}, true},
		{"server going away", Closure{Code: websocket.CloseGoingAway, Clean: true}, false},
		{"going away unclean", Closure{Code: websocket.CloseGoingAway, Local: true}, false},
		{"normal", Closure{Code: websocket.CloseNormalClosure, Clean: true}, false},
		{"abnormal", Closure{Code: websocket.CloseAbnormalClosure}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.closure.IsCleanDeparture())
		})
	}
}
