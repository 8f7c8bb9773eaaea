package lobby

import "sync"

// Presence is the process-wide registry of room admins plus a live
// session counter. It deliberately duplicates state the Lobby already
// owns so the status layer can observe presence without crossing the
// Lobby's serial queue. The Lobby writes it inside the same handler
// that mutates its own tables.
type Presence struct {
	mu       sync.RWMutex
	admins   map[string]string
	sessions int
}

func NewPresence() *Presence {
	return &Presence{admins: make(map[string]string)}
}

// SetAdmin records the vehicle connection owning a room.
func (p *Presence) SetAdmin(roomID, connID string) {
	p.mu.Lock()
	p.admins[roomID] = connID
	p.mu.Unlock()
}

// DropAdmin removes a room's admin entry when the room closes.
func (p *Presence) DropAdmin(roomID string) {
	p.mu.Lock()
	delete(p.admins, roomID)
	p.mu.Unlock()
}

// AddSessions adjusts the live endpoint counter by delta.
func (p *Presence) AddSessions(delta int) {
	p.mu.Lock()
	p.sessions += delta
	p.mu.Unlock()
}

// Counts returns (active vehicles, live sessions).
func (p *Presence) Counts() (vehicles, sessions int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.admins), p.sessions
}

// AdminOf reports the admin connection for a room, if the room is live.
func (p *Presence) AdminOf(roomID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.admins[roomID]
	return id, ok
}
