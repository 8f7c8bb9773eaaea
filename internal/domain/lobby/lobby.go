/*
Package lobby implements the session authority for vehicle rooms.

Every open socket is represented by an endpoint mailbox; the Lobby
groups them into rooms keyed by vehicle id, with exactly one privileged
vehicle connection (the admin) and any number of user connections. All
state lives behind a single goroutine consuming a typed event queue, so
Connect, Disconnect and ClientMessage handlers never race each other.
Deliveries to endpoint mailboxes are non-blocking enqueues.
*/
package lobby

import (
	"log/slog"

	"github.com/alpadrive/server/internal/domain/model"
)

// Lobbier is the gateway handlers use to post events into the Lobby.
type Lobbier interface {
	Connect(connID, roomID string, sender model.Sender, mailbox Mailbox)
	Disconnect(connID, roomID, reason string)
	ClientMessage(connID, roomID string, mode model.Mode, msg model.ClientMessage)
}

type settings struct {
	queueSize int
}

// Lobby owns the session, room and admin tables. Mutations happen only
// on the loop goroutine.
type Lobby struct {
	sessions map[string]Mailbox
	rooms    map[string]map[string]struct{}
	admins   map[string]string

	presence *Presence
	logger   *slog.Logger

	events chan any
	done   chan struct{}
	opts   settings
}

var _ Lobbier = (*Lobby)(nil)

func New(presence *Presence, logger *slog.Logger, opts ...Option) *Lobby {
	l := &Lobby{
		sessions: make(map[string]Mailbox),
		rooms:    make(map[string]map[string]struct{}),
		admins:   make(map[string]string),
		presence: presence,
		logger:   logger,
		done:     make(chan struct{}),
		opts:     settings{queueSize: 1024},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.events = make(chan any, l.opts.queueSize)
	go l.loop()
	return l
}

// Shutdown stops the loop goroutine. In-flight events are abandoned;
// endpoint teardown closes the sockets themselves.
func (l *Lobby) Shutdown() {
	close(l.done)
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.done:
			return
		case ev := <-l.events:
			switch e := ev.(type) {
			case connectEvent:
				l.handleConnect(e)
			case disconnectEvent:
				l.handleDisconnect(e)
			case clientMessageEvent:
				l.handleClientMessage(e)
			}
		}
	}
}

func (l *Lobby) post(ev any) {
	select {
	case <-l.done:
	case l.events <- ev:
	}
}

// Connect asks the Lobby to place a new endpoint. The outcome (join
// envelope or close command) arrives through the endpoint's mailbox.
func (l *Lobby) Connect(connID, roomID string, sender model.Sender, mailbox Mailbox) {
	l.post(connectEvent{connID: connID, roomID: roomID, sender: sender, mailbox: mailbox})
}

// Disconnect removes an endpoint. Unknown ids are ignored, so the
// teardown path of never-admitted endpoints is harmless.
func (l *Lobby) Disconnect(connID, roomID, reason string) {
	l.post(disconnectEvent{connID: connID, roomID: roomID, reason: reason})
}

// ClientMessage routes a validated inbound frame.
func (l *Lobby) ClientMessage(connID, roomID string, mode model.Mode, msg model.ClientMessage) {
	l.post(clientMessageEvent{connID: connID, roomID: roomID, mode: mode, msg: msg})
}

// --- delivery helpers, loop goroutine only ---

func (l *Lobby) sendTo(connID, message string) {
	if mb, ok := l.sessions[connID]; ok {
		mb.trySend(model.Command{Action: model.ActionSend, Message: message})
	}
}

func (l *Lobby) sendClose(connID, reason string, code int) {
	if mb, ok := l.sessions[connID]; ok {
		mb.trySend(model.Command{Action: model.ActionDisconnect, Message: reason, Code: code})
	}
}

// sendCloseStandalone rejects an endpoint that never made it into the
// session table (denied joins, pair confirmations).
func (l *Lobby) sendCloseStandalone(mb Mailbox, reason string, code int) {
	mb.trySend(model.Command{Action: model.ActionDisconnect, Message: reason, Code: code})
}

func (l *Lobby) messageVehicle(roomID, message string) {
	if admin, ok := l.admins[roomID]; ok {
		l.sendTo(admin, message)
	}
}

func (l *Lobby) broadcast(roomID, senderID, message string) {
	for member := range l.rooms[roomID] {
		if member != senderID {
			l.sendTo(member, message)
		}
	}
}

func (l *Lobby) whisper(roomID, targetID, message string) {
	for member := range l.rooms[roomID] {
		if member == targetID {
			l.sendTo(member, message)
		}
	}
}

// admit registers the mailbox and delivers the join confirmation.
func (l *Lobby) admit(connID, uid string, mb Mailbox) {
	l.sessions[connID] = mb
	l.sendTo(connID, model.DraftEnvelope("connect", "Connection successful", "", connID, uid))
}

// --- event handlers ---

func (l *Lobby) handleConnect(e connectEvent) {
	if _, live := l.rooms[e.roomID]; live {
		switch e.sender.Kind {
		case model.SenderClient:
			l.rooms[e.roomID][e.connID] = struct{}{}
			l.admit(e.connID, e.sender.UID, e.mailbox)
			l.messageVehicle(e.roomID, model.DraftConnected(e.sender.UID, e.connID))
			l.presence.AddSessions(1)
		case model.SenderAdmin:
			l.sendCloseStandalone(e.mailbox, "Vehicle with the specified ID has already connected.", model.ClosePolicy)
		case model.SenderPair:
			// Transient pairing endpoint: hand the confirmation to the
			// vehicle, then close the endpoint without admitting it.
			l.messageVehicle(e.roomID, e.sender.Payload)
			l.sendCloseStandalone(e.mailbox, e.sender.Payload, model.CloseNormal)
		}
		return
	}

	switch e.sender.Kind {
	case model.SenderAdmin:
		l.rooms[e.roomID] = map[string]struct{}{e.connID: {}}
		l.admins[e.roomID] = e.connID
		l.presence.SetAdmin(e.roomID, e.connID)
		l.admit(e.connID, "", e.mailbox)
		l.presence.AddSessions(1)
	default:
		l.sendCloseStandalone(e.mailbox, "Vehicle isn't active at the moment. Try again later.", model.CloseProtocol)
	}
}

func (l *Lobby) handleDisconnect(e disconnectEvent) {
	if _, ok := l.sessions[e.connID]; !ok {
		return
	}
	delete(l.sessions, e.connID)

	admin, live := l.admins[e.roomID]
	if !live {
		return
	}

	if admin == e.connID {
		// The vehicle left: close the whole room.
		members := l.rooms[e.roomID]
		l.presence.AddSessions(-len(members))
		for member := range members {
			if member != e.connID {
				if mb, ok := l.sessions[member]; ok {
					// Each survivor gets the notice stamped with its own id.
					notice := model.DraftEnvelope("disconnect", "Vehicle left and the room is being closed", "", member, "")
					mb.trySend(model.Command{Action: model.ActionDisconnect, Message: notice, Code: model.CloseNormal})
				}
			}
		}
		l.presence.DropAdmin(e.roomID)
		delete(l.rooms, e.roomID)
		delete(l.admins, e.roomID)
		l.logger.Debug("room closed", "room_id", e.roomID, "reason", e.reason)
		return
	}

	l.messageVehicle(e.roomID, model.DraftEnvelope("disconnect", "A client has disconnected", "", e.connID, ""))
	if members, ok := l.rooms[e.roomID]; ok {
		delete(members, e.connID)
	}
	l.presence.AddSessions(-1)
}

func (l *Lobby) handleClientMessage(e clientMessageEvent) {
	if _, live := l.rooms[e.roomID]; !live {
		return
	}
	payload := e.msg.String()
	switch e.mode {
	case model.ModeBroadcast:
		l.broadcast(e.roomID, e.connID, payload)
	case model.ModeWhisper:
		l.whisper(e.roomID, e.msg.ConnID, payload)
	default:
		// action and request both address the vehicle.
		l.messageVehicle(e.roomID, payload)
	}
}
