package core

// Frame is a serialized outbound event.
type Frame []byte

// SignalConnection abstracts the per-client messaging transport.
// Owned by the adapter; the adapter must Close() it. Delivery is
// best-effort: a failed TrySend is a drop, never a retry.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
