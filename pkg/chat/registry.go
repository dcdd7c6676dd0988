package chat

import (
	"fmt"
	"sync"
)

// memberBuffer bounds undelivered messages per member before the slowest
// reader starts dropping.
const memberBuffer = 64

// Registry is the in-memory room table used by the demo server.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	info    RoomInfo
	mu      sync.Mutex
	members map[string]chan Message
}

func NewRegistry(rooms ...RoomInfo) *Registry {
	r := &Registry{rooms: make(map[string]*room)}
	for _, info := range rooms {
		r.rooms[info.Name] = &room{info: info, members: make(map[string]chan Message)}
	}
	return r
}

// List returns all rooms.
func (r *Registry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, rm.info)
	}
	return out
}

// Join subscribes memberID to a room and returns its delivery channel.
func (r *Registry) Join(roomName, memberID string) (<-chan Message, error) {
	r.mu.RLock()
	rm := r.rooms[roomName]
	r.mu.RUnlock()
	if rm == nil {
		return nil, fmt.Errorf("no such room: %q", roomName)
	}
	ch := make(chan Message, memberBuffer)
	rm.mu.Lock()
	rm.members[memberID] = ch
	rm.mu.Unlock()
	return ch, nil
}

// Leave unsubscribes memberID and closes its delivery channel.
func (r *Registry) Leave(roomName, memberID string) {
	r.mu.RLock()
	rm := r.rooms[roomName]
	r.mu.RUnlock()
	if rm == nil {
		return
	}
	rm.mu.Lock()
	if ch, ok := rm.members[memberID]; ok {
		delete(rm.members, memberID)
		close(ch)
	}
	rm.mu.Unlock()
}

// Broadcast delivers msg to every member of the room. A member whose buffer
// is full misses the message rather than stalling the rest.
func (r *Registry) Broadcast(roomName string, msg Message) {
	r.mu.RLock()
	rm := r.rooms[roomName]
	r.mu.RUnlock()
	if rm == nil {
		return
	}
	rm.mu.Lock()
	for _, ch := range rm.members {
		select {
		case ch <- msg:
		default:
		}
	}
	rm.mu.Unlock()
}
