package model

import (
	"encoding/json"

	"github.com/gorilla/websocket"
)

// Mode classifies a client frame and decides how the Lobby routes it.
type Mode int16

const (
	// [ZERO_VALUE_GUARD] start from 1 to distinguish from uninitialized data.
	ModeBroadcast Mode = iota + 1 // room-wide fan-out, sender excluded
	ModeWhisper                   // unicast to one member of the room
	ModeAction                    // order the vehicle to perform something
	ModeRequest                   // ask the vehicle for specific data
)

// SenderKind tells the Lobby who is issuing a Connect.
type SenderKind int16

const (
	SenderClient SenderKind = iota + 1
	SenderAdmin
	SenderPair
)

// Sender is the identity attached to a Connect event. UID is set for
// clients, Payload carries the confirmation body for pair handshakes.
type Sender struct {
	Kind    SenderKind
	UID     string
	Payload string
}

// Action tells an endpoint what to do with a command from the Lobby.
type Action int16

const (
	ActionSend Action = iota + 1
	ActionSendBinary
	ActionPong
	ActionDisconnect
)

// Command is one item in an endpoint's mailbox. The Lobby (and the
// endpoint's own read loop, for pongs and echoes) enqueues these; the
// write loop renders them onto the socket in order.
type Command struct {
	Action  Action
	Message string
	Binary  []byte
	Code    int
}

// ClientMessage is the inbound text frame format.
type ClientMessage struct {
	Mode        string   `json:"mode"`
	VID         string   `json:"vid"`
	ConnID      string   `json:"conn_id"`
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments"`
}

func (m ClientMessage) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// modeSpec pairs a resolved mode with the fields that must be non-empty
// for it. Keeping this table-driven mirrors how new modes get added.
type modeSpec struct {
	mode     Mode
	required func(m ClientMessage) []string
}

var modeTable = map[string]modeSpec{
	"broadcast": {ModeBroadcast, func(m ClientMessage) []string { return []string{m.Status, m.Message} }},
	"whisper":   {ModeWhisper, func(m ClientMessage) []string { return []string{m.Status, m.ConnID, m.Message} }},
	"action":    {ModeAction, func(m ClientMessage) []string { return []string{m.Status, m.ConnID, m.Message} }},
	"request":   {ModeRequest, func(m ClientMessage) []string { return []string{m.Status, m.ConnID, m.Message} }},
}

// ResolveMode validates the frame against the mode table. The returned
// error string is a ready-to-send error envelope, matching the wire
// contract for malformed frames.
func (m ClientMessage) ResolveMode() (Mode, string, bool) {
	spec, ok := modeTable[m.Mode]
	if !ok {
		return 0, DraftEnvelope("error", "", "Your message is missing or has an incorrect mode parameter", m.ConnID, ""), false
	}
	for _, field := range spec.required(m) {
		if field == "" {
			return 0, DraftEnvelope("error", "", "Your message is missing one or more parameters required for the given mode", m.ConnID, ""), false
		}
	}
	return spec.mode, "", true
}

// envelopeClient is the "client" block shared by all server envelopes.
type envelopeClient struct {
	UID    string `json:"uid"`
	ConnID string `json:"conn_id"`
}

// Envelope is the server→client JSON frame.
type Envelope struct {
	Event   string         `json:"event"`
	Client  envelopeClient `json:"client"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
}

// ConnectedEnvelope is the short form delivered to the vehicle when a
// user joins; it intentionally has no message/error fields.
type ConnectedEnvelope struct {
	Event  string         `json:"event"`
	Client envelopeClient `json:"client"`
}

// DraftEnvelope renders a full envelope as a wire-ready string.
func DraftEnvelope(event, message, errText, connID, uid string) string {
	b, _ := json.Marshal(Envelope{
		Event:   event,
		Client:  envelopeClient{UID: uid, ConnID: connID},
		Message: message,
		Error:   errText,
	})
	return string(b)
}

// DraftConnected renders the admin-facing join notification.
func DraftConnected(uid, connID string) string {
	b, _ := json.Marshal(ConnectedEnvelope{
		Event:  "connected",
		Client: envelopeClient{UID: uid, ConnID: connID},
	})
	return string(b)
}

// Close codes used by the Lobby, aliased so callers stay off the
// websocket package.
const (
	CloseNormal   = websocket.CloseNormalClosure
	ClosePolicy   = websocket.ClosePolicyViolation
	CloseProtocol = websocket.CloseProtocolError
)
