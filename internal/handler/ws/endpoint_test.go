package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/alpadrive/server/internal/domain/lobby"
	"github.com/alpadrive/server/internal/domain/model"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLobby struct {
	mu           sync.Mutex
	connected    []string
	disconnected []string
	modes        []model.Mode
	msgs         []model.ClientMessage
}

func (f *fakeLobby) Connect(connID, roomID string, sender model.Sender, mb lobby.Mailbox) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, connID)
}

func (f *fakeLobby) Disconnect(connID, roomID, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, connID)
}

func (f *fakeLobby) ClientMessage(connID, roomID string, mode model.Mode, msg model.ClientMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	f.msgs = append(f.msgs, msg)
}

func (f *fakeLobby) snapshot() (connected, disconnected []string, msgs []model.ClientMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.connected...), append([]string{}, f.disconnected...), append([]model.ClientMessage{}, f.msgs...)
}

type fakeDispatcher struct {
	mu      sync.Mutex
	vids    []string
	samples []model.Sample
}

func (f *fakeDispatcher) Dispatch(_ context.Context, vid string, sample model.Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vids = append(f.vids, vid)
	f.samples = append(f.samples, sample)
	return nil
}

func (f *fakeDispatcher) Publisher() message.Publisher { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startEndpoint serves one endpoint over a real socket and dials it.
func startEndpoint(t *testing.T, lb lobby.Lobbier, disp *fakeDispatcher, sender model.Sender, opts ...EndpointOption) (*websocket.Conn, *Endpoint) {
	t.Helper()

	epCh := make(chan *Endpoint, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ep := NewEndpoint("c1", "v1", sender, conn, lb, disp, testLogger(), 16, opts...)
		epCh <- ep
		ep.Run()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case ep := <-epCh:
		return client, ep
	case <-time.After(2 * time.Second):
		t.Fatal("endpoint never started")
		return nil, nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never settled")
}

func TestEndpointForwardsFramesAndTelemetry(t *testing.T) {
	lb := &fakeLobby{}
	disp := &fakeDispatcher{}
	client, _ := startEndpoint(t, lb, disp, model.Sender{Kind: model.SenderAdmin})

	frame := `{"mode":"broadcast","vid":"v1","conn_id":"","status":"{\"speed\":42,\"odo\":100}","message":"vitals","attachments":[]}`
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(frame)))

	waitFor(t, func() bool {
		_, _, msgs := lb.snapshot()
		return len(msgs) == 1
	})
	_, _, msgs := lb.snapshot()
	assert.Equal(t, "vitals", msgs[0].Message)

	// Vehicle broadcasts feed the telemetry bus.
	waitFor(t, func() bool {
		disp.mu.Lock()
		defer disp.mu.Unlock()
		return len(disp.samples) == 1
	})
	disp.mu.Lock()
	defer disp.mu.Unlock()
	assert.Equal(t, "v1", disp.vids[0])
	require.NotNil(t, disp.samples[0].Speed)
	assert.Equal(t, int64(42), *disp.samples[0].Speed)
	assert.Equal(t, int64(100), disp.samples[0].Odo)
}

func TestEndpointUserFramesSkipTelemetry(t *testing.T) {
	lb := &fakeLobby{}
	disp := &fakeDispatcher{}
	client, _ := startEndpoint(t, lb, disp, model.Sender{Kind: model.SenderClient, UID: "u1"})

	frame := `{"mode":"broadcast","vid":"v1","status":"ok","message":"hello"}`
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(frame)))

	waitFor(t, func() bool {
		_, _, msgs := lb.snapshot()
		return len(msgs) == 1
	})
	disp.mu.Lock()
	defer disp.mu.Unlock()
	assert.Empty(t, disp.samples)
}

func TestEndpointRejectsMalformedFrame(t *testing.T) {
	lb := &fakeLobby{}
	client, _ := startEndpoint(t, lb, &fakeDispatcher{}, model.Sender{Kind: model.SenderClient, UID: "u1"})

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("garbage")))

	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "This message is not in the specified format")

	// Nothing reached the lobby.
	_, _, msgs := lb.snapshot()
	assert.Empty(t, msgs)
}

func TestEndpointRejectsBadMode(t *testing.T) {
	lb := &fakeLobby{}
	client, _ := startEndpoint(t, lb, &fakeDispatcher{}, model.Sender{Kind: model.SenderClient, UID: "u1"})

	frame := `{"mode":"shout","vid":"v1","status":"ok","message":"hello"}`
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(frame)))

	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "incorrect mode parameter")
}

func TestEndpointEchoesBinary(t *testing.T) {
	client, _ := startEndpoint(t, &fakeLobby{}, &fakeDispatcher{}, model.Sender{Kind: model.SenderClient, UID: "u1"})

	payload := []byte{0x01, 0x02, 0x03}
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, payload))

	kind, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, payload, data)
}

func TestEndpointIdleTimeout(t *testing.T) {
	lb := &fakeLobby{}
	// Client never reads, so it never answers the server's pings.
	startEndpoint(t, lb, &fakeDispatcher{}, model.Sender{Kind: model.SenderClient, UID: "u1"},
		WithHeartbeat(10*time.Millisecond, 60*time.Millisecond))

	waitFor(t, func() bool {
		_, disconnected, _ := lb.snapshot()
		return len(disconnected) == 1 && disconnected[0] == "c1"
	})
}

func TestDisconnectCommandClosesSocket(t *testing.T) {
	lb := &fakeLobby{}
	client, ep := startEndpoint(t, lb, &fakeDispatcher{}, model.Sender{Kind: model.SenderClient, UID: "u1"})

	ep.enqueue(model.Command{
		Action:  model.ActionDisconnect,
		Message: "Vehicle with the specified ID has already connected.",
		Code:    model.ClosePolicy,
	})

	_, _, err := client.ReadMessage()
	var closeErr *websocket.CloseError
	require.True(t, errors.As(err, &closeErr))
	assert.Equal(t, model.ClosePolicy, closeErr.Code)
	assert.Equal(t, "Vehicle with the specified ID has already connected.", closeErr.Text)
}
