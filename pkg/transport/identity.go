package transport

import "sync/atomic"

// StreamID identifies one sub-channel within a session. Identities are
// strictly increasing and never recycled, even after the stream closes, so a
// stale reference held by a peer cannot collide with a later stream.
type StreamID uint64

// IDAllocator hands out stream identities. The zero value is ready to use.
// The counter is atomic, so concurrent tasks may request sub-channels
// without extra synchronization.
type IDAllocator struct {
	next atomic.Uint64
}

// Next returns the next identity. The first call returns 1.
func (a *IDAllocator) Next() StreamID { return StreamID(a.next.Add(1)) }
