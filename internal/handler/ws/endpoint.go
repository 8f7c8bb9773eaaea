// Package ws owns the websocket side of the house: the upgrade routes
// and the per-connection endpoint pumping frames between the socket and
// the Lobby.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/alpadrive/server/internal/adapter/pubsub"
	"github.com/alpadrive/server/internal/domain/lobby"
	"github.com/alpadrive/server/internal/domain/model"
	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval = 5 * time.Second
	defaultIdleTimeout  = 10 * time.Second
	writeWait           = 10 * time.Second

	// Close frames carry at most 125 payload bytes; reasons get cut to fit.
	maxCloseReason = 120
)

// Endpoint is one live socket. The read pump parses inbound frames and
// posts lobby events; the write pump is the only goroutine touching the
// connection for writes, draining the command mailbox in order.
type Endpoint struct {
	id     string
	room   string
	sender model.Sender

	conn       *websocket.Conn
	lobby      lobby.Lobbier
	dispatcher pubsub.SampleDispatcher
	logger     *slog.Logger

	commands chan model.Command
	done     chan struct{}
	closing  sync.Once

	ping time.Duration
	idle time.Duration
}

type EndpointOption func(*Endpoint)

// WithHeartbeat overrides the ping cadence and idle cutoff.
func WithHeartbeat(ping, idle time.Duration) EndpointOption {
	return func(e *Endpoint) {
		e.ping = ping
		e.idle = idle
	}
}

func NewEndpoint(
	id, room string,
	sender model.Sender,
	conn *websocket.Conn,
	lb lobby.Lobbier,
	dispatcher pubsub.SampleDispatcher,
	logger *slog.Logger,
	mailboxSize int,
	opts ...EndpointOption,
) *Endpoint {
	e := &Endpoint{
		id:         id,
		room:       room,
		sender:     sender,
		conn:       conn,
		lobby:      lb,
		dispatcher: dispatcher,
		logger:     logger,
		commands:   make(chan model.Command, mailboxSize),
		done:       make(chan struct{}),
		ping:       defaultPingInterval,
		idle:       defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives the endpoint until the socket dies or the Lobby orders a
// disconnect. It blocks for the lifetime of the connection.
func (e *Endpoint) Run() {
	go e.writePump()
	e.lobby.Connect(e.id, e.room, e.sender, lobby.NewMailbox(e.commands, e.done))
	e.readPump()
	e.lobby.Disconnect(e.id, e.room, "socket closed")
	e.close()
}

func (e *Endpoint) close() {
	e.closing.Do(func() {
		close(e.done)
		e.conn.Close()
	})
}

// enqueue mirrors the Lobby's non-blocking mailbox semantics for
// commands originating on the endpoint itself.
func (e *Endpoint) enqueue(cmd model.Command) {
	select {
	case <-e.done:
	case e.commands <- cmd:
	default:
	}
}

func (e *Endpoint) readPump() {
	refresh := func() { _ = e.conn.SetReadDeadline(time.Now().Add(e.idle)) }
	refresh()
	e.conn.SetPongHandler(func(string) error {
		refresh()
		return nil
	})
	e.conn.SetPingHandler(func(string) error {
		refresh()
		// Pongs go through the mailbox so the write pump stays the
		// single writer.
		e.enqueue(model.Command{Action: model.ActionPong})
		return nil
	})

	for {
		kind, data, err := e.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				e.logger.Debug("socket read ended", "conn_id", e.id, "err", err)
			}
			return
		}
		refresh()

		switch kind {
		case websocket.TextMessage:
			e.handleText(data)
		case websocket.BinaryMessage:
			e.enqueue(model.Command{Action: model.ActionSendBinary, Binary: data})
		}
	}
}

func (e *Endpoint) handleText(data []byte) {
	var msg model.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		e.enqueue(model.Command{
			Action:  model.ActionSend,
			Message: model.DraftEnvelope("error", "", "This message is not in the specified format", e.id, ""),
		})
		return
	}

	mode, errEnvelope, ok := msg.ResolveMode()
	if !ok {
		e.enqueue(model.Command{Action: model.ActionSend, Message: errEnvelope})
		return
	}

	// Vehicle broadcasts double as the telemetry feed: the status field
	// carries a raw sample which goes onto the bus before fan-out.
	if e.sender.Kind == model.SenderAdmin && mode == model.ModeBroadcast {
		e.publishSample(msg.Status)
	}

	e.lobby.ClientMessage(e.id, e.room, mode, msg)
}

func (e *Endpoint) publishSample(status string) {
	var sample model.Sample
	if err := json.Unmarshal([]byte(status), &sample); err != nil {
		e.logger.Debug("broadcast status is not a sample", "conn_id", e.id, "err", err)
		return
	}
	if err := e.dispatcher.Dispatch(context.Background(), e.room, sample); err != nil {
		e.logger.Error("sample dispatch failed", "vid", e.room, "err", err)
	}
}

func (e *Endpoint) writePump() {
	ticker := time.NewTicker(e.ping)
	defer ticker.Stop()
	defer e.close()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			_ = e.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := e.conn.WriteMessage(websocket.PingMessage, []byte("PING")); err != nil {
				return
			}
		case cmd := <-e.commands:
			_ = e.conn.SetWriteDeadline(time.Now().Add(writeWait))
			switch cmd.Action {
			case model.ActionSend:
				if err := e.conn.WriteMessage(websocket.TextMessage, []byte(cmd.Message)); err != nil {
					return
				}
			case model.ActionSendBinary:
				if err := e.conn.WriteMessage(websocket.BinaryMessage, cmd.Binary); err != nil {
					return
				}
			case model.ActionPong:
				if err := e.conn.WriteMessage(websocket.PongMessage, nil); err != nil {
					return
				}
			case model.ActionDisconnect:
				reason := cmd.Message
				if len(reason) > maxCloseReason {
					reason = reason[:maxCloseReason]
				}
				_ = e.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(cmd.Code, reason),
					time.Now().Add(writeWait))
				return
			}
		}
	}
}
