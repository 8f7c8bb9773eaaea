package lobby

import "github.com/alpadrive/server/internal/domain/model"

// Mailbox is the send side of an endpoint's command queue as seen by
// the Lobby. done is the endpoint's lifetime signal: once it fires,
// further sends are dropped silently instead of blocking the Lobby.
type Mailbox struct {
	ch   chan<- model.Command
	done <-chan struct{}
}

func NewMailbox(ch chan<- model.Command, done <-chan struct{}) Mailbox {
	return Mailbox{ch: ch, done: done}
}

// trySend enqueues a command without ever blocking the Lobby loop.
// A closed or saturated endpoint simply loses the delivery; its own
// disconnect path is the cleanup mechanism.
func (m Mailbox) trySend(cmd model.Command) bool {
	if m.ch == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	case m.ch <- cmd:
		return true
	default:
		return false
	}
}

// Typed events consumed by the Lobby loop, in posting order.

type connectEvent struct {
	connID  string
	roomID  string
	sender  model.Sender
	mailbox Mailbox
}

type disconnectEvent struct {
	connID string
	roomID string
	reason string
}

type clientMessageEvent struct {
	connID string
	roomID string
	mode   model.Mode
	msg    model.ClientMessage
}
