package lobby

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alpadrive/server/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stub struct {
	id   string
	ch   chan model.Command
	done chan struct{}
}

func newStub(id string) *stub {
	return &stub{id: id, ch: make(chan model.Command, 16), done: make(chan struct{})}
}

func (s *stub) mailbox() Mailbox { return NewMailbox(s.ch, s.done) }

func (s *stub) next(t *testing.T) model.Command {
	t.Helper()
	select {
	case cmd := <-s.ch:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatalf("no command arrived for %s", s.id)
		return model.Command{}
	}
}

func (s *stub) silent(t *testing.T) {
	t.Helper()
	select {
	case cmd := <-s.ch:
		t.Fatalf("unexpected command for %s: %+v", s.id, cmd)
	case <-time.After(100 * time.Millisecond):
	}
}

func envelope(t *testing.T, raw string) model.Envelope {
	t.Helper()
	var env model.Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	return env
}

func newTestLobby(t *testing.T) (*Lobby, *Presence) {
	t.Helper()
	presence := NewPresence()
	l := New(presence, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(l.Shutdown)
	return l, presence
}

// openRoom connects a vehicle and drains its join confirmation.
func openRoom(t *testing.T, l *Lobby, room string) *stub {
	t.Helper()
	v := newStub("c-" + room)
	l.Connect(v.id, room, model.Sender{Kind: model.SenderAdmin}, v.mailbox())
	cmd := v.next(t)
	require.Equal(t, model.ActionSend, cmd.Action)
	return v
}

// joinRoom connects a user and drains both join-side envelopes.
func joinRoom(t *testing.T, l *Lobby, v *stub, room, connID, uid string) *stub {
	t.Helper()
	u := newStub(connID)
	l.Connect(u.id, room, model.Sender{Kind: model.SenderClient, UID: uid}, u.mailbox())
	require.Equal(t, model.ActionSend, u.next(t).Action)
	require.Equal(t, model.ActionSend, v.next(t).Action)
	return u
}

func TestVehicleOpensRoom(t *testing.T) {
	l, presence := newTestLobby(t)

	v := newStub("cV")
	l.Connect(v.id, "v1", model.Sender{Kind: model.SenderAdmin}, v.mailbox())

	cmd := v.next(t)
	require.Equal(t, model.ActionSend, cmd.Action)
	env := envelope(t, cmd.Message)
	assert.Equal(t, "connect", env.Event)
	assert.Equal(t, "Connection successful", env.Message)
	assert.Equal(t, "cV", env.Client.ConnID)

	vehicles, sessions := presence.Counts()
	assert.Equal(t, 1, vehicles)
	assert.Equal(t, 1, sessions)

	admin, ok := presence.AdminOf("v1")
	require.True(t, ok)
	assert.Equal(t, "cV", admin)
}

func TestUserJoinThenConnectedNotice(t *testing.T) {
	l, presence := newTestLobby(t)
	v := openRoom(t, l, "v1")

	u := newStub("cU")
	l.Connect(u.id, "v1", model.Sender{Kind: model.SenderClient, UID: "u1"}, u.mailbox())

	joined := u.next(t)
	require.Equal(t, model.ActionSend, joined.Action)
	env := envelope(t, joined.Message)
	assert.Equal(t, "connect", env.Event)
	assert.Equal(t, "Connection successful", env.Message)
	assert.Equal(t, "u1", env.Client.UID)

	notice := v.next(t)
	require.Equal(t, model.ActionSend, notice.Action)
	var connected model.ConnectedEnvelope
	require.NoError(t, json.Unmarshal([]byte(notice.Message), &connected))
	assert.Equal(t, "connected", connected.Event)
	assert.Equal(t, "u1", connected.Client.UID)
	assert.Equal(t, "cU", connected.Client.ConnID)

	_, sessions := presence.Counts()
	assert.Equal(t, 2, sessions)
}

func TestUserDeniedWhenRoomAbsent(t *testing.T) {
	l, presence := newTestLobby(t)

	u := newStub("cU")
	l.Connect(u.id, "ghost", model.Sender{Kind: model.SenderClient, UID: "u1"}, u.mailbox())

	cmd := u.next(t)
	assert.Equal(t, model.ActionDisconnect, cmd.Action)
	assert.Equal(t, model.CloseProtocol, cmd.Code)
	assert.Equal(t, "Vehicle isn't active at the moment. Try again later.", cmd.Message)

	vehicles, sessions := presence.Counts()
	assert.Zero(t, vehicles)
	assert.Zero(t, sessions)
}

func TestSecondVehicleDenied(t *testing.T) {
	l, _ := newTestLobby(t)
	openRoom(t, l, "v1")

	rival := newStub("cV2")
	l.Connect(rival.id, "v1", model.Sender{Kind: model.SenderAdmin}, rival.mailbox())

	cmd := rival.next(t)
	assert.Equal(t, model.ActionDisconnect, cmd.Action)
	assert.Equal(t, model.ClosePolicy, cmd.Code)
	assert.Equal(t, "Vehicle with the specified ID has already connected.", cmd.Message)
}

func TestPairEndpointIsTransient(t *testing.T) {
	l, presence := newTestLobby(t)
	v := openRoom(t, l, "v1")

	p := newStub("cP")
	payload := `{"message":"Pair successful","uid":"u1","vid":"v1"}`
	l.Connect(p.id, "v1", model.Sender{Kind: model.SenderPair, Payload: payload}, p.mailbox())

	delivered := v.next(t)
	assert.Equal(t, model.ActionSend, delivered.Action)
	assert.Equal(t, payload, delivered.Message)

	closed := p.next(t)
	assert.Equal(t, model.ActionDisconnect, closed.Action)
	assert.Equal(t, model.CloseNormal, closed.Code)
	assert.Equal(t, payload, closed.Message)

	// The pairing endpoint never counts as a session.
	_, sessions := presence.Counts()
	assert.Equal(t, 1, sessions)
}

func TestVehicleLeaveClosesRoom(t *testing.T) {
	l, presence := newTestLobby(t)
	v := openRoom(t, l, "v1")
	u := joinRoom(t, l, v, "v1", "cU", "u1")

	l.Disconnect(v.id, "v1", "vehicle gone")

	cmd := u.next(t)
	require.Equal(t, model.ActionDisconnect, cmd.Action)
	assert.Equal(t, model.CloseNormal, cmd.Code)
	env := envelope(t, cmd.Message)
	assert.Equal(t, "disconnect", env.Event)
	assert.Equal(t, "Vehicle left and the room is being closed", env.Message)
	assert.Equal(t, "cU", env.Client.ConnID)

	waitFor(t, func() bool {
		vehicles, sessions := presence.Counts()
		return vehicles == 0 && sessions == 0
	})
	_, ok := presence.AdminOf("v1")
	assert.False(t, ok)
}

func TestUserLeaveNotifiesVehicle(t *testing.T) {
	l, presence := newTestLobby(t)
	v := openRoom(t, l, "v1")
	u := joinRoom(t, l, v, "v1", "cU", "u1")

	l.Disconnect(u.id, "v1", "user gone")

	cmd := v.next(t)
	require.Equal(t, model.ActionSend, cmd.Action)
	env := envelope(t, cmd.Message)
	assert.Equal(t, "disconnect", env.Event)
	assert.Equal(t, "A client has disconnected", env.Message)
	assert.Equal(t, "cU", env.Client.ConnID)

	waitFor(t, func() bool {
		vehicles, sessions := presence.Counts()
		return vehicles == 1 && sessions == 1
	})
}

func TestDisconnectUnknownIsIgnored(t *testing.T) {
	l, presence := newTestLobby(t)
	openRoom(t, l, "v1")

	l.Disconnect("never-seen", "v1", "noise")

	waitFor(t, func() bool {
		vehicles, sessions := presence.Counts()
		return vehicles == 1 && sessions == 1
	})
}

func TestBroadcastSkipsSender(t *testing.T) {
	l, _ := newTestLobby(t)
	v := openRoom(t, l, "v1")
	u1 := joinRoom(t, l, v, "v1", "cU1", "u1")
	u2 := joinRoom(t, l, v, "v1", "cU2", "u2")

	msg := model.ClientMessage{Mode: "broadcast", VID: "v1", Status: "ok", Message: "hello"}
	l.ClientMessage(u1.id, "v1", model.ModeBroadcast, msg)

	assert.Equal(t, msg.String(), u2.next(t).Message)
	assert.Equal(t, msg.String(), v.next(t).Message)
	u1.silent(t)
}

func TestWhisperReachesOnlyTarget(t *testing.T) {
	l, _ := newTestLobby(t)
	v := openRoom(t, l, "v1")
	u1 := joinRoom(t, l, v, "v1", "cU1", "u1")
	u2 := joinRoom(t, l, v, "v1", "cU2", "u2")

	msg := model.ClientMessage{Mode: "whisper", VID: "v1", ConnID: u2.id, Status: "ok", Message: "psst"}
	l.ClientMessage(u1.id, "v1", model.ModeWhisper, msg)

	assert.Equal(t, msg.String(), u2.next(t).Message)
	u1.silent(t)
	v.silent(t)
}

func TestActionAddressesVehicle(t *testing.T) {
	l, _ := newTestLobby(t)
	v := openRoom(t, l, "v1")
	u1 := joinRoom(t, l, v, "v1", "cU1", "u1")
	u2 := joinRoom(t, l, v, "v1", "cU2", "u2")

	msg := model.ClientMessage{Mode: "action", VID: "v1", ConnID: u1.id, Status: "ok", Message: "honk"}
	l.ClientMessage(u1.id, "v1", model.ModeAction, msg)

	assert.Equal(t, msg.String(), v.next(t).Message)
	u2.silent(t)
}

func TestMessageInDeadRoomIsDropped(t *testing.T) {
	l, _ := newTestLobby(t)
	u := newStub("cU")

	msg := model.ClientMessage{Mode: "broadcast", VID: "ghost", Status: "ok", Message: "hello"}
	l.ClientMessage(u.id, "ghost", model.ModeBroadcast, msg)

	u.silent(t)
}

// waitFor polls a condition that the lobby loop settles asynchronously.
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
