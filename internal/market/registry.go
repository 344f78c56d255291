package market

import (
	"errors"

	"github.com/supdem/supdem/internal/notify"
)

var (
	// ErrRegistryFull is returned by Register when every client slot is taken.
	ErrRegistryFull = errors.New("client registry is full")
	// ErrUnknownHandle is returned for a handle that is not registered.
	ErrUnknownHandle = errors.New("unknown client handle")
)

// Client is a registry entry.
type Client struct {
	Handle Handle
	Pos    Point
	// RemoteAddr names the connection the client is bound to.
	RemoteAddr string
	Queue      *notify.Queue
}

// Registry is a fixed-capacity table of connected clients. Like Store it does
// no locking of its own: positions are read and written under the global
// marketplace lock.
type Registry struct {
	clients []Client
	slots   *slotIndex
}

// NewRegistry returns an empty registry with room for maxClients clients.
func NewRegistry(maxClients int) *Registry {
	clients := make([]Client, maxClients)
	for i := range clients {
		clients[i].Handle = NoHandle
	}
	return &Registry{
		clients: clients,
		slots:   newSlotIndex(maxClients),
	}
}

// Register binds remoteAddr and q to the lowest free slot, at position (0,0).
func (r *Registry) Register(remoteAddr string, q *notify.Queue) (Handle, error) {
	slot, ok := r.slots.alloc()
	if !ok {
		return NoHandle, ErrRegistryFull
	}
	r.clients[slot] = Client{
		Handle:     Handle(slot),
		RemoteAddr: remoteAddr,
		Queue:      q,
	}
	return Handle(slot), nil
}

// Release frees the slot of h so that the handle can be reused.
func (r *Registry) Release(h Handle) error {
	if _, err := r.Client(h); err != nil {
		return err
	}
	r.clients[h] = Client{Handle: NoHandle}
	r.slots.release(int(h))
	return nil
}

// Client returns the entry of h.
func (r *Registry) Client(h Handle) (*Client, error) {
	if h < 0 || int(h) >= len(r.clients) || !r.slots.occupied(int(h)) {
		return nil, ErrUnknownHandle
	}
	return &r.clients[h], nil
}

// Move sets the position of h. There is no bounds checking.
func (r *Registry) Move(h Handle, pos Point) error {
	c, err := r.Client(h)
	if err != nil {
		return err
	}
	c.Pos = pos
	return nil
}

// Len returns the number of registered clients.
func (r *Registry) Len() int { return r.slots.len() }
