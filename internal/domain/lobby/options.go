package lobby

// Option is a functional configuration type for the Lobby.
type Option func(*Lobby)

// WithQueueSize sets the capacity of the Lobby's event queue. Posting
// endpoints block once the queue is saturated, which is the only
// backpressure the Lobby applies.
func WithQueueSize(size int) Option {
	return func(l *Lobby) {
		if size > 0 {
			l.opts.queueSize = size
		}
	}
}
