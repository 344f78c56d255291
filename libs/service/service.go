package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/supdem/supdem/libs/log"
)

var (
	// ErrAlreadyStarted is returned when somebody tries to start an already
	// running service.
	ErrAlreadyStarted = errors.New("already started")
	// ErrAlreadyStopped is returned when somebody tries to stop an already
	// stopped service.
	ErrAlreadyStopped = errors.New("already stopped")
	// ErrNotStarted is returned when somebody tries to stop a not running
	// service.
	ErrNotStarted = errors.New("not started")
)

// Service is a long-running component with an explicit lifecycle: the
// acceptor that owns client sessions and the metrics endpoint are services.
type Service interface {
	// Start runs the service until the context terminates or Stop is
	// called. Starting a running service reports an error.
	Start(context.Context) error

	// Stop shuts the service down and releases its resources.
	Stop() error

	// IsRunning reports whether Start succeeded and Stop was not yet called.
	IsRunning() bool

	// String returns the service name.
	String() string

	// Wait blocks until the service is stopped.
	Wait()
}

// Implementation is the set of hooks a concrete service provides to
// BaseService.
type Implementation interface {
	Service

	// OnStart is called once by Start.
	OnStart(context.Context) error

	// OnStop is called once by Stop, or when the Start context is canceled.
	OnStop()
}

// BaseService implements the Service bookkeeping so that concrete services
// only write OnStart and OnStop:
//
//	type Acceptor struct {
//		*BaseService
//		// private fields
//	}
//
//	func NewAcceptor(logger log.Logger) *Acceptor {
//		a := &Acceptor{}
//		a.BaseService = NewBaseService(logger, "Acceptor", a)
//		return a
//	}
//
// OnStart and OnStop are each called at most once. If OnStart fails the
// service is not marked as started and Start may be retried.
type BaseService struct {
	logger  log.Logger
	name    string
	started uint32 // atomic
	stopped uint32 // atomic
	quit    chan struct{}

	impl Implementation
}

// NewBaseService creates a new BaseService. A nil logger is replaced with a
// no-op logger.
func NewBaseService(logger log.Logger, name string, impl Implementation) *BaseService {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &BaseService{
		logger: logger,
		name:   name,
		quit:   make(chan struct{}),
		impl:   impl,
	}
}

// Start starts the service by calling OnStart. The service is stopped
// automatically when ctx is canceled.
func (bs *BaseService) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&bs.started, 0, 1) {
		return ErrAlreadyStarted
	}

	if atomic.LoadUint32(&bs.stopped) == 1 {
		bs.logger.Error("not starting service; already stopped", "service", bs.name)
		atomic.StoreUint32(&bs.started, 0)
		return ErrAlreadyStopped
	}

	bs.logger.Info("starting service", "service", bs.name)

	if err := bs.impl.OnStart(ctx); err != nil {
		atomic.StoreUint32(&bs.started, 0)
		return err
	}

	go func() {
		select {
		case <-bs.quit:
		case <-ctx.Done():
			if !bs.IsRunning() {
				return
			}
			if err := bs.Stop(); err != nil {
				bs.logger.Error("stopped service", "service", bs.name, "err", err)
				return
			}
			bs.logger.Info("stopped service", "service", bs.name)
		}
	}()

	return nil
}

// Stop calls OnStop and releases everyone blocked in Wait.
func (bs *BaseService) Stop() error {
	if !atomic.CompareAndSwapUint32(&bs.stopped, 0, 1) {
		return ErrAlreadyStopped
	}

	if atomic.LoadUint32(&bs.started) == 0 {
		bs.logger.Error("not stopping service; not started yet", "service", bs.name)
		atomic.StoreUint32(&bs.stopped, 0)
		return ErrNotStarted
	}

	bs.logger.Info("stopping service", "service", bs.name)
	bs.impl.OnStop()
	close(bs.quit)

	return nil
}

// IsRunning implements Service.
func (bs *BaseService) IsRunning() bool {
	return atomic.LoadUint32(&bs.started) == 1 && atomic.LoadUint32(&bs.stopped) == 0
}

// Wait blocks until the service is stopped.
func (bs *BaseService) Wait() { <-bs.quit }

// Quit returns a channel closed once the service is stopped.
func (bs *BaseService) Quit() <-chan struct{} { return bs.quit }

// String implements Service.
func (bs *BaseService) String() string { return bs.name }
