// Package market is the concurrent matching and notification engine.
//
// A Market owns the supply, demand and watch tables (Store), the client
// registry, and the single global lock that serialises every mutation of
// them. Posting a demand or a supply runs the matching engine under that lock;
// posting a supply also runs the watch trigger. Matches and watch events are
// delivered by enqueueing pre-rendered messages into the affected clients'
// notification queues, which have their own locks and never block.
//
// Lock order: the global lock may be held while a queue lock is taken, never
// the reverse.
package market

import (
	"errors"
	"fmt"

	"github.com/supdem/supdem/config"
	"github.com/supdem/supdem/internal/notify"
	"github.com/supdem/supdem/libs/log"
	tmsync "github.com/supdem/supdem/libs/sync"
)

// ErrInvalidOrder is returned for negative amounts or radii, and for a supply
// that offers nothing.
var ErrInvalidOrder = errors.New("invalid order")

// Market is safe for concurrent use by any number of sessions.
type Market struct {
	logger log.Logger
	cfg    *config.MarketConfig

	mtx      tmsync.Mutex
	store    *Store
	registry *Registry

	metrics       *Metrics
	notifyMetrics *notify.Metrics
}

// Option sets an optional parameter on the Market.
type Option func(*Market)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Market) { m.metrics = metrics }
}

// WithNotifyMetrics sets the metrics shared by every client queue.
func WithNotifyMetrics(metrics *notify.Metrics) Option {
	return func(m *Market) { m.notifyMetrics = metrics }
}

// NewMarket returns an empty Market sized by cfg.
func NewMarket(cfg *config.MarketConfig, logger log.Logger, options ...Option) *Market {
	m := &Market{
		logger:        logger,
		cfg:           cfg,
		store:         NewStore(cfg.MaxSupplies, cfg.MaxDemands, cfg.MaxWatches),
		registry:      NewRegistry(cfg.MaxClients),
		metrics:       NopMetrics(),
		notifyMetrics: notify.NopMetrics(),
	}
	for _, option := range options {
		option(m)
	}
	m.updateGauges()
	return m
}

// Register allocates a client slot for a new connection and returns its
// handle together with the client's fresh notification queue.
func (m *Market) Register(remoteAddr string) (Handle, *notify.Queue, error) {
	q := notify.NewQueue(m.cfg.NotificationCapacity, notify.WithMetrics(m.notifyMetrics))

	m.mtx.Lock()
	defer m.mtx.Unlock()

	h, err := m.registry.Register(remoteAddr, q)
	if err != nil {
		m.metrics.RejectedInserts.With("table", TableClients).Add(1)
		return NoHandle, nil, err
	}
	m.updateGauges()
	m.logger.Debug("client registered", "client", h, "addr", remoteAddr)
	return h, q, nil
}

// Release removes every supply, demand and watch owned by h, then frees its
// registry slot. The client's queue is closed.
func (m *Market) Release(h Handle) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	c, err := m.registry.Client(h)
	if err != nil {
		return err
	}
	q := c.Queue

	supplies, demands, watches := m.store.RemoveOwned(h)
	if err := m.registry.Release(h); err != nil {
		return err
	}
	q.Close()
	m.updateGauges()

	m.logger.Debug("client released", "client", h,
		"supplies", supplies, "demands", demands, "watches", watches)
	return nil
}

// Move sets the client's position. Coordinates are not checked against the
// configured grid size.
func (m *Market) Move(h Handle, x, y int) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.registry.Move(h, Point{X: x, Y: y})
}

// Position returns the client's current position.
func (m *Market) Position(h Handle) (Point, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	c, err := m.registry.Client(h)
	if err != nil {
		return Point{}, err
	}
	return c.Pos, nil
}

// PostDemand records a demand for b at the client's position and runs the
// matching engine. If the demand table is full the demand is dropped and an
// error wrapping ErrTableFull is returned.
func (m *Market) PostDemand(h Handle, b Bundle) error {
	if !b.Valid() {
		return fmt.Errorf("demand %v: %w", b, ErrInvalidOrder)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	c, err := m.registry.Client(h)
	if err != nil {
		return err
	}

	if _, err := m.store.InsertDemand(Demand{Pos: c.Pos, Bundle: b, Owner: h}); err != nil {
		m.rejected(h, TableDemands)
		return err
	}

	m.match()
	m.updateGauges()
	return nil
}

// PostSupply records a supply of b with the given delivery radius at the
// client's position, runs the matching engine and then notifies watchers of
// whatever is left of the new supply. If the supply table is full the supply
// is dropped and an error wrapping ErrTableFull is returned.
func (m *Market) PostSupply(h Handle, distance int, b Bundle) error {
	if distance < 0 || !b.Valid() || b.IsZero() {
		return fmt.Errorf("supply %v within %d: %w", b, distance, ErrInvalidOrder)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	c, err := m.registry.Client(h)
	if err != nil {
		return err
	}

	slot, err := m.store.InsertSupply(Supply{Pos: c.Pos, Bundle: b, Distance: distance, Owner: h})
	if err != nil {
		m.rejected(h, TableSupplies)
		return err
	}

	m.match()
	m.triggerWatches(slot)
	m.updateGauges()
	return nil
}

// Watch replaces the client's watch with one of the given radius, frozen at
// the client's current position.
func (m *Market) Watch(h Handle, radius int) error {
	if radius < 0 {
		return fmt.Errorf("watch radius %d: %w", radius, ErrInvalidOrder)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	c, err := m.registry.Client(h)
	if err != nil {
		return err
	}

	_, err = m.store.InsertWatch(Watch{Pos: c.Pos, Radius: radius, Owner: h})
	m.updateGauges()
	if err != nil {
		m.rejected(h, TableWatches)
		return err
	}
	return nil
}

// Unwatch removes the client's watch, if any.
func (m *Market) Unwatch(h Handle) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, err := m.registry.Client(h); err != nil {
		return err
	}
	m.store.RemoveWatch(h)
	m.updateGauges()
	return nil
}

// Supplies returns every active supply in slot order.
func (m *Market) Supplies() []Supply {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.store.Supplies(NoHandle)
}

// Demands returns every outstanding demand in slot order.
func (m *Market) Demands() []Demand {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.store.Demands(NoHandle)
}

// SuppliesOf returns the client's active supplies in slot order.
func (m *Market) SuppliesOf(h Handle) []Supply {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.store.Supplies(h)
}

// DemandsOf returns the client's outstanding demands in slot order.
func (m *Market) DemandsOf(h Handle) []Demand {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.store.Demands(h)
}

// Watches returns every active watch in slot order.
func (m *Market) Watches() []Watch {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.store.Watches()
}

// Stats returns the current table sizes.
func (m *Market) Stats() Stats {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.stats()
}

func (m *Market) stats() Stats {
	supplies, demands, watches := m.store.Len()
	return Stats{
		Clients:  m.registry.Len(),
		Supplies: supplies,
		Demands:  demands,
		Watches:  watches,
	}
}

// notify enqueues msg for h. Messages for a client that is already gone are
// discarded. Caller must hold m.mtx.
func (m *Market) notify(h Handle, msg string) {
	c, err := m.registry.Client(h)
	if err != nil {
		return
	}
	if !c.Queue.Enqueue(msg) {
		m.logger.Debug("notification dropped", "client", h, "queued", c.Queue.Len())
	}
}

func (m *Market) rejected(h Handle, table string) {
	m.metrics.RejectedInserts.With("table", table).Add(1)
	m.logger.Debug("insert dropped; table is full", "client", h, "table", table)
}

// Caller must hold m.mtx.
func (m *Market) updateGauges() {
	s := m.stats()
	m.metrics.Clients.Set(float64(s.Clients))
	m.metrics.Supplies.Set(float64(s.Supplies))
	m.metrics.Demands.Set(float64(s.Demands))
	m.metrics.Watches.Set(float64(s.Watches))
}
